package e2e

import (
	"testing"

	"github.com/hyperjump/kaimono/internal/ingest"
)

func TestReceiptFixturesParse(t *testing.T) {
	for i, raw := range BuildReceiptFixtures() {
		header, items := ingest.ParseReceiptText(raw, e2eNow)
		if header.Merchant == "" || header.Merchant == "Unknown" {
			t.Errorf("fixture %d: merchant not detected", i)
		}
		if header.Date == "" {
			t.Errorf("fixture %d: date not detected", i)
		}
		if header.Total == 0 {
			t.Errorf("fixture %d: total not detected", i)
		}
		if len(items) == 0 {
			t.Errorf("fixture %d: no items extracted", i)
		}
	}
}
