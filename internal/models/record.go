// Package models defines core data structures for purchase records, queries, and matches.
package models

// Metadata holds the stored fields of a purchase record. Text is the only
// field indexed for similarity; the rest drive date filtering and aggregation.
// Date, when present, is always an ISO calendar date (YYYY-MM-DD).
type Metadata struct {
	Text      string   `json:"text"`
	Merchant  *string  `json:"merchant"`
	Date      *string  `json:"date"`
	Price     *float64 `json:"price"`
	Quantity  *float64 `json:"quantity,omitempty"`
	UnitPrice *float64 `json:"unit_price,omitempty"`
	LineTotal *float64 `json:"line_total,omitempty"`
}

// SafePrice returns the price, or 0 when unset.
func (m *Metadata) SafePrice() float64 {
	if m.Price == nil {
		return 0
	}
	return *m.Price
}

// Record is a stored purchase record, keyed by a unique ID.
type Record struct {
	ID       string   `json:"id"`
	Metadata Metadata `json:"metadata"`
}

// Match is a single similarity search hit. Score is cosine similarity in
// [-1, 1] (typically [0, 1] since term weights are non-negative).
type Match struct {
	ID       string   `json:"id"`
	Score    float64  `json:"score"`
	Metadata Metadata `json:"metadata"`
}
