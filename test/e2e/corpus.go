// Package e2e provides end-to-end tests with a seeded purchase corpus and
// multiple questions.
package e2e

import (
	"github.com/hyperjump/kaimono/internal/models"
)

// E2ERecord is a purchase entry in the E2E corpus.
type E2ERecord struct {
	ID       string
	Text     string
	Merchant string
	Date     string
	Price    float64
}

// QuestionCase defines a question and the substrings that must appear in
// the synthesized answer.
type QuestionCase struct {
	Question     string
	WantContains []string
	Description  string
}

// Corpus holds purchase records and question test cases for E2E tests.
type Corpus struct {
	Records        []E2ERecord
	TestCases      []QuestionCase
	TotalRecords   int
	TotalQuestions int
}

// BuildCorpus returns the seeded corpus. Dates are fixed relative to the
// E2E clock (2024-06-15) so relative-date questions are stable.
func BuildCorpus() Corpus {
	records := []E2ERecord{
		{"purchase-2024-06-14-milk", "milk 2%", "Corner Grocer", "2024-06-14", 2.49},
		{"purchase-2024-06-14-bread", "bread whole wheat", "Bakery", "2024-06-14", 3.20},
		{"purchase-2024-06-12-milk-chocolate", "milk chocolate", "Sweet Shop", "2024-06-12", 1.99},
		{"purchase-2024-06-10-coffee", "coffee beans dark roast", "Corner Grocer", "2024-06-10", 9.50},
		{"purchase-2024-06-01-eggs", "eggs free range dozen", "Farm Stand", "2024-06-01", 4.10},
		{"purchase-2024-05-20-butter", "butter unsalted", "Corner Grocer", "2024-05-20", 3.75},
		{"purchase-2024-05-20-cheese", "cheese cheddar block", "Corner Grocer", "2024-05-20", 6.40},
		{"purchase-2024-04-02-tea", "green tea loose leaf", "Tea House", "2024-04-02", 7.80},
		{"purchase-2024-03-03-rice", "rice jasmine 5kg", "Asian Market", "2024-03-03", 12.00},
		{"purchase-2024-03-01-noodles", "noodles udon fresh", "Asian Market", "2024-03-01", 3.30},
	}

	cases := []QuestionCase{
		{
			Question:     "where did i buy milk",
			WantContains: []string{"Corner Grocer"},
			Description:  "item-merchant lookup picks the closest milk record",
		},
		{
			Question:     "where did i buy coffee",
			WantContains: []string{"Corner Grocer"},
			Description:  "item-merchant lookup for a single-match item",
		},
		{
			Question:     "total expense from 2024-03-01 to 2024-03-31",
			WantContains: []string{"Your total expenses were 15.30."},
			Description:  "explicit ISO range sums only March purchases",
		},
		{
			Question:     "what was my total expense yesterday",
			WantContains: []string{"Your total expenses were 5.69."},
			Description:  "yesterday resolves against the fixed clock",
		},
		{
			Question:     "total expense in the last 7 days",
			WantContains: []string{"Your total expenses were 17.18."},
			Description:  "relative seven-day window",
		},
		{
			Question:     "total expense between 1 march and 5 march",
			WantContains: []string{"Your total expenses were 15.30."},
			Description:  "prose range without year defaults to the clock year",
		},
		{
			Question:     "what did i buy on 2024-04-02",
			WantContains: []string{"green tea loose leaf"},
			Description:  "explicit day filter lists the matching purchase",
		},
	}

	return Corpus{
		Records:        records,
		TestCases:      cases,
		TotalRecords:   len(records),
		TotalQuestions: len(cases),
	}
}

// ToUpserts converts the corpus to store upsert inputs.
func (c Corpus) ToUpserts() []models.UpsertInput {
	inputs := make([]models.UpsertInput, 0, len(c.Records))
	for i := range c.Records {
		rec := c.Records[i]
		inputs = append(inputs, models.UpsertInput{
			ID:       rec.ID,
			Text:     rec.Text,
			Merchant: &c.Records[i].Merchant,
			Date:     &c.Records[i].Date,
			Price:    &c.Records[i].Price,
		})
	}
	return inputs
}
