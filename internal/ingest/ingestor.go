package ingest

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/kaimono/internal/models"
	"github.com/hyperjump/kaimono/internal/store"
)

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

// ItemID builds the deterministic, collision-resistant record ID for a
// purchased item: purchase-<date>-<slugified name>. The same date and name
// always map to the same ID, so re-ingesting a receipt replaces rather than
// duplicates.
func ItemID(date, name string) string {
	slug := strings.Trim(slugPattern.ReplaceAllString(strings.ToLower(name), "-"), "-")
	return fmt.Sprintf("purchase-%s-%s", date, slug)
}

// HeaderID builds the record ID for a receipt header document.
func HeaderID(date, merchant string) string {
	if date == "" {
		date = "unknown-date"
	}
	if merchant == "" {
		merchant = "unknown-merchant"
	}
	return fmt.Sprintf("receipt::%s-%s::header", date, merchant)
}

// StoredItem is one item as persisted, echoed back to the caller.
type StoredItem struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Price     float64  `json:"price"`
	Quantity  float64  `json:"quantity"`
	UnitPrice *float64 `json:"unit_price"`
	LineTotal *float64 `json:"line_total"`
}

// Result summarizes one receipt ingest.
type Result struct {
	IngestID    string       `json:"ingest_id"`
	ReceiptDate string       `json:"receipt_date"`
	Merchant    string       `json:"merchant"`
	Total       float64      `json:"total"`
	Currency    string       `json:"currency"`
	Items       []StoredItem `json:"items"`
}

// Ingestor stores receipt extractions as purchase records.
type Ingestor struct {
	store  *store.Store
	now    func() time.Time
	logger *zap.Logger // optional
}

// Option configures an Ingestor.
type Option func(*Ingestor)

// WithLogger sets a logger for per-receipt debug output.
func WithLogger(l *zap.Logger) Option {
	return func(in *Ingestor) { in.logger = l }
}

// WithClock overrides the time source used for missing receipt dates.
func WithClock(now func() time.Time) Option {
	return func(in *Ingestor) { in.now = now }
}

// NewIngestor creates an ingestor writing to the given store.
func NewIngestor(st *store.Store, opts ...Option) *Ingestor {
	in := &Ingestor{store: st, now: time.Now}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// Ingest upserts one record per named item, plus a header record carrying
// the raw receipt text so header-level questions can match it. A receipt
// with no detected date is dated today; a receipt with no detected merchant
// is stored as "Unknown".
func (in *Ingestor) Ingest(ctx context.Context, h Header, items []Item) (*Result, error) {
	date := h.Date
	if date == "" {
		date = in.now().UTC().Format("2006-01-02")
	}
	merchant := h.Merchant
	if merchant == "" {
		merchant = "Unknown"
	}

	res := &Result{
		IngestID:    uuid.NewString(),
		ReceiptDate: date,
		Merchant:    merchant,
		Total:       h.Total,
		Currency:    h.Currency,
	}

	for _, it := range items {
		name := strings.TrimSpace(it.Name)
		if name == "" {
			continue
		}
		qty := it.Qty
		if qty == 0 {
			qty = 1
		}
		price := it.Price
		if price == 0 && it.LineTotal != nil {
			price = *it.LineTotal
		}
		lineTotal := price
		if it.LineTotal != nil {
			lineTotal = *it.LineTotal
		}

		id := ItemID(date, name)
		md := models.Metadata{
			Text:      name,
			Merchant:  &merchant,
			Date:      &date,
			Price:     &price,
			Quantity:  &qty,
			UnitPrice: it.UnitPrice,
			LineTotal: &lineTotal,
		}
		if _, err := in.store.Upsert(ctx, id, md); err != nil {
			return nil, fmt.Errorf("upsert item %s: %w", id, err)
		}
		res.Items = append(res.Items, StoredItem{
			ID:        id,
			Name:      name,
			Price:     price,
			Quantity:  qty,
			UnitPrice: it.UnitPrice,
			LineTotal: md.LineTotal,
		})
	}

	if h.RawText != "" {
		headerText := fmt.Sprintf("Merchant: %s\nDate: %s\nTotal: %.2f\n\n%s", merchant, date, h.Total, h.RawText)
		md := models.Metadata{
			Text:     headerText,
			Merchant: &merchant,
			Date:     &date,
			Price:    &h.Total,
		}
		if _, err := in.store.Upsert(ctx, HeaderID(date, merchant), md); err != nil {
			return nil, fmt.Errorf("upsert header: %w", err)
		}
	}

	if in.logger != nil {
		in.logger.Debug("receipt ingested",
			zap.String("ingest_id", res.IngestID),
			zap.String("merchant", merchant),
			zap.String("date", date),
			zap.Int("items", len(res.Items)),
		)
	}
	return res, nil
}
