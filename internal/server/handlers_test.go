package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/hyperjump/kaimono/internal/answer"
	"github.com/hyperjump/kaimono/internal/config"
	"github.com/hyperjump/kaimono/internal/ingest"
	"github.com/hyperjump/kaimono/internal/search"
	"github.com/hyperjump/kaimono/internal/store"
)

func newTestServer(t *testing.T) (*Server, http.Handler) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "records.jsonl"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	engine := search.NewEngine(st, answer.New())
	ingestor := ingest.NewIngestor(st)
	srv := NewServer(engine, st, ingestor, cfg, zap.NewNop())
	return srv, srv.router()
}

func doJSON(t *testing.T, h http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHandleHealth(t *testing.T) {
	_, h := newTestServer(t)
	w := doJSON(t, h, http.MethodGet, "/health", nil)
	if w.Code != http.StatusOK {
		t.Errorf("status = %d", w.Code)
	}
}

func TestHandleUpsert(t *testing.T) {
	_, h := newTestServer(t)

	w := doJSON(t, h, http.MethodPost, "/api/v1/records", map[string]interface{}{
		"id": "r1", "text": "milk", "merchant": "Corner Grocer", "date": "2024-06-10", "price": 2.49,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var out struct {
		ID     string `json:"id"`
		Status string `json:"status"`
		Count  int    `json:"count"`
	}
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.ID != "r1" || out.Status != "stored" || out.Count != 1 {
		t.Errorf("unexpected response: %+v", out)
	}
}

func TestHandleUpsert_Invalid(t *testing.T) {
	_, h := newTestServer(t)

	w := doJSON(t, h, http.MethodPost, "/api/v1/records", map[string]interface{}{"text": "milk"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing id: status = %d", w.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/records", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("malformed body: status = %d", rec.Code)
	}
}

func TestHandleQuery(t *testing.T) {
	_, h := newTestServer(t)
	seed(t, h)

	w := doJSON(t, h, http.MethodPost, "/api/v1/query", map[string]interface{}{"query": "milk", "k": 5})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var out struct {
		Answer  string `json:"answer"`
		Matches []struct {
			ID string `json:"id"`
		} `json:"matches"`
	}
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if len(out.Matches) == 0 {
		t.Error("expected matches")
	}
	if out.Answer == "" {
		t.Error("expected an answer")
	}
}

func TestHandleQuery_EmptyQuery(t *testing.T) {
	_, h := newTestServer(t)
	w := doJSON(t, h, http.MethodPost, "/api/v1/query", map[string]interface{}{"query": ""})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d", w.Code)
	}
}

func TestHandleQA(t *testing.T) {
	_, h := newTestServer(t)
	seed(t, h)

	w := doJSON(t, h, http.MethodGet, "/api/v1/qa?q=where+did+i+buy+milk", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var out struct {
		Answer string `json:"answer"`
	}
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.Answer, "Corner Grocer") {
		t.Errorf("answer = %q, want merchant named", out.Answer)
	}
}

func TestHandleQA_MissingQuestion(t *testing.T) {
	_, h := newTestServer(t)
	w := doJSON(t, h, http.MethodGet, "/api/v1/qa", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d", w.Code)
	}
}

func TestHandleReceipt(t *testing.T) {
	srv, h := newTestServer(t)

	raw := "Corner Grocer\n2024-06-10\nMilk 2.49\nBread 3.20\nTotal $5.69"
	w := doJSON(t, h, http.MethodPost, "/api/v1/receipts", map[string]string{"raw_text": raw})
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var out struct {
		IngestID string `json:"ingest_id"`
		Items    []struct {
			ID string `json:"id"`
		} `json:"items"`
	}
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.IngestID == "" {
		t.Error("missing ingest_id")
	}
	if len(out.Items) != 2 {
		t.Errorf("stored %d items, want 2", len(out.Items))
	}
	if srv.store.Count() == 0 {
		t.Error("store is empty after ingest")
	}
}

func TestHandleReceipt_Empty(t *testing.T) {
	_, h := newTestServer(t)
	w := doJSON(t, h, http.MethodPost, "/api/v1/receipts", map[string]string{})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d", w.Code)
	}
}

func TestHandleInsights(t *testing.T) {
	_, h := newTestServer(t)
	seed(t, h)

	w := doJSON(t, h, http.MethodGet, "/api/v1/insights", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var out struct {
		RecordCount int     `json:"record_count"`
		TotalSpend  float64 `json:"total_spend"`
	}
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.RecordCount != 2 {
		t.Errorf("record_count = %d, want 2", out.RecordCount)
	}
}

func TestHandleReset(t *testing.T) {
	srv, h := newTestServer(t)
	seed(t, h)

	w := doJSON(t, h, http.MethodPost, "/api/v1/admin/reset", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if srv.store.Count() != 0 {
		t.Errorf("count after reset = %d", srv.store.Count())
	}
}

func TestHandleStatus(t *testing.T) {
	_, h := newTestServer(t)
	seed(t, h)

	w := doJSON(t, h, http.MethodGet, "/api/v1/status", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var out struct {
		Records int `json:"records"`
	}
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.Records != 2 {
		t.Errorf("records = %d, want 2", out.Records)
	}
}

func seed(t *testing.T, h http.Handler) {
	t.Helper()
	for _, rec := range []map[string]interface{}{
		{"id": "r1", "text": "milk", "merchant": "Corner Grocer", "date": "2024-06-10", "price": 2.49},
		{"id": "r2", "text": "bread", "merchant": "Bakery", "date": "2024-06-11", "price": 3.20},
	} {
		if w := doJSON(t, h, http.MethodPost, "/api/v1/records", rec); w.Code != http.StatusCreated {
			t.Fatalf("seed upsert: status = %d, body = %s", w.Code, w.Body.String())
		}
	}
}
