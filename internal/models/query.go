package models

import "fmt"

// UpsertInput is the input for creating or replacing a record.
type UpsertInput struct {
	ID       string   `json:"id"`
	Text     string   `json:"text"`
	Merchant *string  `json:"merchant,omitempty"`
	Date     *string  `json:"date,omitempty"`
	Price    *float64 `json:"price,omitempty"`
}

// Validate ensures the input has the required fields.
func (in *UpsertInput) Validate() error {
	if in.ID == "" {
		return fmt.Errorf("id cannot be empty")
	}
	if in.Text == "" {
		return fmt.Errorf("text cannot be empty")
	}
	return nil
}

// ToMetadata converts the input to record metadata.
func (in *UpsertInput) ToMetadata() Metadata {
	return Metadata{
		Text:     in.Text,
		Merchant: in.Merchant,
		Date:     in.Date,
		Price:    in.Price,
	}
}

// QueryRequest is a similarity search request with optional answer synthesis.
type QueryRequest struct {
	Query string `json:"query"`
	K     int    `json:"k,omitempty"`
}

// Validate ensures the request has valid fields and sets defaults.
// Returns an error if the query is empty; otherwise normalizes K.
func (q *QueryRequest) Validate() error {
	if q.Query == "" {
		return fmt.Errorf("query cannot be empty")
	}
	if q.K <= 0 {
		q.K = 5
	}
	if q.K > 100 {
		q.K = 100
	}
	return nil
}

// QueryResponse is the response for a query request: a synthesized answer
// plus the ranked matches it was built from.
type QueryResponse struct {
	Answer  string  `json:"answer"`
	Matches []Match `json:"matches"`
}
