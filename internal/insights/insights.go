// Package insights aggregates the record set into spending statistics.
package insights

import (
	"sort"
	"strings"

	"github.com/hyperjump/kaimono/internal/models"
)

// MerchantSpend is the total spent at one merchant.
type MerchantSpend struct {
	Merchant string  `json:"merchant"`
	Total    float64 `json:"total"`
	Count    int     `json:"count"`
}

// ItemCount is how many records share one item text.
type ItemCount struct {
	Item  string `json:"item"`
	Count int    `json:"count"`
}

// Report is an aggregation over all stored records.
type Report struct {
	RecordCount  int             `json:"record_count"`
	PricedCount  int             `json:"priced_count"`
	TotalSpend   float64         `json:"total_spend"`
	MeanSpend    float64         `json:"mean_spend"`
	FirstDate    string          `json:"first_date,omitempty"`
	LastDate     string          `json:"last_date,omitempty"`
	TopMerchants []MerchantSpend `json:"top_merchants"`
	TopItems     []ItemCount     `json:"top_items"`
}

const topN = 5

// Build computes a report over the given records. Receipt header documents
// are skipped so item and header prices are not double counted.
func Build(records []models.Record) Report {
	rep := Report{
		TopMerchants: []MerchantSpend{},
		TopItems:     []ItemCount{},
	}

	merchants := make(map[string]*MerchantSpend)
	items := make(map[string]int)

	for _, rec := range records {
		if strings.HasPrefix(rec.ID, "receipt::") {
			continue
		}
		rep.RecordCount++
		md := rec.Metadata

		if md.Price != nil {
			rep.PricedCount++
			rep.TotalSpend += *md.Price
			if md.Merchant != nil && *md.Merchant != "" {
				ms, ok := merchants[*md.Merchant]
				if !ok {
					ms = &MerchantSpend{Merchant: *md.Merchant}
					merchants[*md.Merchant] = ms
				}
				ms.Total += *md.Price
				ms.Count++
			}
		}

		if name := strings.ToLower(strings.TrimSpace(md.Text)); name != "" {
			items[name]++
		}

		if md.Date != nil && *md.Date != "" {
			if rep.FirstDate == "" || *md.Date < rep.FirstDate {
				rep.FirstDate = *md.Date
			}
			if rep.LastDate == "" || *md.Date > rep.LastDate {
				rep.LastDate = *md.Date
			}
		}
	}

	if rep.PricedCount > 0 {
		rep.MeanSpend = rep.TotalSpend / float64(rep.PricedCount)
	}

	for _, ms := range merchants {
		rep.TopMerchants = append(rep.TopMerchants, *ms)
	}
	sort.Slice(rep.TopMerchants, func(i, j int) bool {
		if rep.TopMerchants[i].Total != rep.TopMerchants[j].Total {
			return rep.TopMerchants[i].Total > rep.TopMerchants[j].Total
		}
		return rep.TopMerchants[i].Merchant < rep.TopMerchants[j].Merchant
	})
	if len(rep.TopMerchants) > topN {
		rep.TopMerchants = rep.TopMerchants[:topN]
	}

	for item, n := range items {
		rep.TopItems = append(rep.TopItems, ItemCount{Item: item, Count: n})
	}
	sort.Slice(rep.TopItems, func(i, j int) bool {
		if rep.TopItems[i].Count != rep.TopItems[j].Count {
			return rep.TopItems[i].Count > rep.TopItems[j].Count
		}
		return rep.TopItems[i].Item < rep.TopItems[j].Item
	})
	if len(rep.TopItems) > topN {
		rep.TopItems = rep.TopItems[:topN]
	}

	return rep
}
