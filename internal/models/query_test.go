package models

import "testing"

func TestUpsertInput_Validate(t *testing.T) {
	tests := []struct {
		name    string
		input   *UpsertInput
		wantErr bool
	}{
		{"empty id", &UpsertInput{Text: "milk"}, true},
		{"empty text", &UpsertInput{ID: "r1"}, true},
		{"valid", &UpsertInput{ID: "r1", Text: "milk"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.input.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestQueryRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		query   *QueryRequest
		wantErr bool
		wantK   int
	}{
		{"empty query", &QueryRequest{}, true, 0},
		{"sets default k", &QueryRequest{Query: "milk"}, false, 5},
		{"caps k at 100", &QueryRequest{Query: "milk", K: 500}, false, 100},
		{"keeps explicit k", &QueryRequest{Query: "milk", K: 3}, false, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.query.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && tt.query.K != tt.wantK {
				t.Errorf("K = %d, want %d", tt.query.K, tt.wantK)
			}
		})
	}
}

func TestMetadata_SafePrice(t *testing.T) {
	var m Metadata
	if m.SafePrice() != 0 {
		t.Error("nil price should coerce to 0")
	}
	p := 4.5
	m.Price = &p
	if m.SafePrice() != 4.5 {
		t.Errorf("got %v", m.SafePrice())
	}
}
