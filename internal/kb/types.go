// Package kb defines the knowledge-base data model shared by every
// pipeline stage: raw records produced by the parsers, candidate records
// produced by the extractors and the order analyzer, and the final
// serialized knowledge base.
package kb

// Order statuses as they appear in order files.
const (
	StatusCompleted = "completed"
	StatusRefunded  = "refunded"
	StatusCancelled = "cancelled"
)

// Order is a single historical transaction parsed from an orders file.
type Order struct {
	OrderID      string  `json:"order_id"`
	ProductName  string  `json:"product_name"`
	Price        float64 `json:"price"`
	CustomerID   string  `json:"customer_id"`
	Status       string  `json:"status"`
	RefundReason string  `json:"refund_reason"`
	CreatedAt    string  `json:"created_at"`
}

// Canonical message roles in a support transcript.
const (
	RoleCustomer = "customer"
	RoleAgent    = "agent"
)

// Message is one utterance in a support-chat transcript.
type Message struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp,omitempty"`
}

// Conversation is the ordered transcript of one chat session.
type Conversation struct {
	SessionID string    `json:"session_id"`
	Messages  []Message `json:"messages"`
}

// ProductCandidate is a structured product record extracted from one
// document. It becomes a product entry in the final knowledge base after
// fusion; QualityScore and MissingFields are filled in there.
type ProductCandidate struct {
	Name               string   `json:"name"`
	Price              float64  `json:"price"`
	Duration           int      `json:"duration"`
	Destination        []string `json:"destination"`
	Highlights         []string `json:"highlights"`
	Inclusions         []string `json:"inclusions"`
	Exclusions         []string `json:"exclusions"`
	VisaInfo           string   `json:"visa_info"`
	BookingPolicy      string   `json:"booking_policy"`
	CancellationPolicy string   `json:"cancellation_policy"`
	Confidence         float64  `json:"confidence"`
	SourceText         string   `json:"source_text"`
	QualityScore       float64  `json:"quality_score"`
	MissingFields      []string `json:"missing_fields"`
}

// QAPair is an extracted or synthesized FAQ entry. Frequency counts how
// many source occurrences were merged into this entry (never below 1).
type QAPair struct {
	ID           string  `json:"id"`
	Question     string  `json:"question"`
	Answer       string  `json:"answer"`
	Category     string  `json:"category"`
	Confidence   float64 `json:"confidence"`
	Frequency    int     `json:"frequency"`
	Source       string  `json:"source,omitempty"`
	QualityScore float64 `json:"quality_score"`
}

// Policy is a business rule inferred from order history.
type Policy struct {
	Type       string  `json:"type"`
	Title      string  `json:"title"`
	Content    string  `json:"content"`
	Confidence float64 `json:"confidence"`
	Source     string  `json:"source"`
}

// Stats holds per-category counts; it must match the list lengths at
// serialization time.
type Stats struct {
	Products int `json:"products"`
	FAQs     int `json:"faqs"`
	Policies int `json:"policies"`
}

// QualitySummary aggregates the fusion quality pass.
type QualitySummary struct {
	ProductsAvgScore   float64 `json:"products_avg_score"`
	FAQsAvgScore       float64 `json:"faqs_avg_score"`
	LowConfidenceCount int     `json:"low_confidence_count"`
}

// Metadata describes how and when the knowledge base was generated.
type Metadata struct {
	Sources        []string       `json:"sources"`
	GeneratedAt    string         `json:"generated_at"`
	Stats          Stats          `json:"stats"`
	QualitySummary QualitySummary `json:"quality_summary"`
}

// KnowledgeBase is the final aggregate artifact written to disk.
type KnowledgeBase struct {
	Products []ProductCandidate `json:"products"`
	FAQs     []QAPair           `json:"faqs"`
	Policies []Policy           `json:"policies"`
	Metadata Metadata           `json:"metadata"`
}
