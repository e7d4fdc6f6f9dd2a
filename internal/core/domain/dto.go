package domain

import (
	"io"
	"time"
)

// UploadInput carries one multipart upload through the ingest path.
type UploadInput struct {
	Filename    string
	Title       string
	Description string
	ClientID    string
	ContentType string
	Size        int64
	Content     io.Reader
}

// ProcessResponse is returned by the trigger-processing endpoint. Results is
// populated only on the idempotent already-completed path.
type ProcessResponse struct {
	DocumentID string           `json:"documentId"`
	Status     DocumentStatus   `json:"status"`
	Message    string           `json:"message"`
	Results    *AnalysisResults `json:"results,omitempty"`
}

type StatusResponse struct {
	DocumentID  string         `json:"documentId"`
	Status      DocumentStatus `json:"status"`
	ProcessedAt *time.Time     `json:"processedAt"`
}

type CibilScore struct {
	Score         int             `json:"score"`
	ExtractedData FinancialFields `json:"extractedData"`
}

type FinancialHighlights struct {
	Revenue     float64 `json:"revenue"`
	Expenses    float64 `json:"expenses"`
	Profit      float64 `json:"profit"`
	Assets      float64 `json:"assets"`
	Liabilities float64 `json:"liabilities"`
	Equity      float64 `json:"equity"`
}

type SummaryResponse struct {
	Title               string              `json:"title"`
	Date                string              `json:"date"`
	Overview            string              `json:"overview"`
	KeyFindings         []string            `json:"keyFindings"`
	FinancialHighlights FinancialHighlights `json:"financialHighlights"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type RegisterInput struct {
	Username  string   `json:"username"`
	Email     string   `json:"email"`
	Password  string   `json:"password"`
	Role      UserRole `json:"role"`
	FirstName string   `json:"first_name"`
	LastName  string   `json:"last_name"`
}

// UserUpdate carries partial profile/user edits; nil fields stay untouched.
type UserUpdate struct {
	Username  *string `json:"username"`
	Email     *string `json:"email"`
	Password  *string `json:"password"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	IsActive  *bool   `json:"is_active"`
}

type ClientInput struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

type DashboardStats struct {
	TotalUsers         int `json:"totalUsers"`
	TotalDocuments     int `json:"totalDocuments"`
	ProcessedDocuments int `json:"processedDocuments"`
	ProcessingRate     int `json:"processingRate"`
}

// UsageStats is the admin statistics view over a trailing time window.
type UsageStats struct {
	TimeRange          string         `json:"timeRange"`
	DocumentsByType    map[string]int `json:"documentsByType"`
	TotalDocuments     int            `json:"totalDocuments"`
	ProcessedDocuments int            `json:"processedDocuments"`
}

type RecentDocument struct {
	ID         string         `json:"id"`
	Title      string         `json:"title"`
	Status     DocumentStatus `json:"status"`
	CreatedAt  time.Time      `json:"createdAt"`
	ClientName string         `json:"clientName,omitempty"`
}

type RecentClient struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Email          string `json:"email,omitempty"`
	DocumentsCount int    `json:"documentsCount"`
}

// CADashboard summarizes one CA user's workload: their clients, their
// documents and the freshest activity in both.
type CADashboard struct {
	TotalClients       int              `json:"totalClients"`
	TotalDocuments     int              `json:"totalDocuments"`
	ProcessedDocuments int              `json:"processedDocuments"`
	RecentDocuments    []RecentDocument `json:"recentDocuments"`
	RecentClients      []RecentClient   `json:"recentClients"`
}
