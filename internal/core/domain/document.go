package domain

import "time"

type DocumentStatus string

const (
	StatusUploaded   DocumentStatus = "uploaded"
	StatusProcessing DocumentStatus = "processing"
	StatusCompleted  DocumentStatus = "completed"
	StatusFailed     DocumentStatus = "failed"
)

// Document is one uploaded financial statement and its lifecycle state.
// Status moves uploaded -> processing -> completed|failed; a failed document
// may be re-triggered, completed is terminal.
type Document struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	FilePath    string         `json:"file_path"`
	FileType    string         `json:"file_type"`
	Status      DocumentStatus `json:"status"`
	ClientID    string         `json:"client_id,omitempty"`
	UserID      string         `json:"user_id"`
	ClientName  string         `json:"client_name,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	ProcessedAt *time.Time     `json:"processed_at,omitempty"`
}

// FinancialFields is the typed core of extracted statement data. Figures the
// extractor cannot map onto the four known fields land in Extra.
type FinancialFields struct {
	Income      float64            `json:"income"`
	Expenses    float64            `json:"expenses"`
	Assets      float64            `json:"assets"`
	Liabilities float64            `json:"liabilities"`
	Extra       map[string]float64 `json:"extra,omitempty"`
}

type Table struct {
	ID      int        `json:"id"`
	Title   string     `json:"title"`
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`
}

type TableData struct {
	Tables []Table `json:"tables"`
}

// ExtractedData is 1:1 with its document. Created once by the worker; the
// financial fields change only through the CIBIL correction endpoint.
type ExtractedData struct {
	DocumentID string          `json:"document_id"`
	Fields     FinancialFields `json:"fields"`
	Tables     []Table         `json:"tables"`
	CreatedAt  time.Time       `json:"created_at"`
}

// Analysis holds the derived score and summary, 1:1 with its document.
type Analysis struct {
	DocumentID string    `json:"document_id"`
	CibilScore float64   `json:"cibil_score"`
	Summary    string    `json:"summary"`
	CreatedAt  time.Time `json:"created_at"`
}

// OCRResult is the raw extraction output, write-once per document.
type OCRResult struct {
	DocumentID string    `json:"document_id"`
	Text       string    `json:"text"`
	Confidence float64   `json:"confidence"`
	CreatedAt  time.Time `json:"created_at"`
}

// ProcessingOutput bundles everything the worker persists in one transaction.
type ProcessingOutput struct {
	OCR       OCRResult
	Extracted ExtractedData
	Analysis  Analysis
}

type AnalysisSnapshot struct {
	CibilScore float64 `json:"cibilScore"`
	Summary    string  `json:"summary"`
}

// AnalysisResults is the combined payload served once processing completed.
type AnalysisResults struct {
	Analysis      AnalysisSnapshot `json:"analysis"`
	ExtractedData FinancialFields  `json:"extractedData"`
	TableData     TableData        `json:"tableData"`
	OCRText       string           `json:"ocrText"`
	Confidence    float64          `json:"confidence"`
}

// DocumentFilter narrows document listings. Zero values mean "no filter".
type DocumentFilter struct {
	Status   DocumentStatus
	ClientID string
	Skip     int
	Limit    int
}
