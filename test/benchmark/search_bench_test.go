package benchmark

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/hyperjump/kaimono/internal/index"
	"github.com/hyperjump/kaimono/internal/models"
	"github.com/hyperjump/kaimono/internal/store"
)

func corpus(n int) []string {
	items := []string{"milk", "bread", "coffee beans", "green tea", "olive oil", "rice jasmine", "butter", "cheese cheddar"}
	texts := make([]string, n)
	for i := range texts {
		texts[i] = fmt.Sprintf("%s batch %d", items[i%len(items)], i)
	}
	return texts
}

func BenchmarkVectorizerFit(b *testing.B) {
	texts := corpus(1000)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		v := index.NewVectorizer()
		v.Fit(texts)
	}
}

func BenchmarkVectorizerTransform(b *testing.B) {
	v := index.NewVectorizer()
	v.Fit(corpus(1000))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = v.Transform("where did i buy milk")
	}
}

func BenchmarkRank(b *testing.B) {
	v := index.NewVectorizer()
	texts := corpus(1000)
	v.Fit(texts)
	matrix := make([][]float64, len(texts))
	for i, t := range texts {
		matrix[i] = v.Transform(t)
	}
	query := v.Transform("where did i buy milk")
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = index.Rank(query, matrix)
	}
}

func BenchmarkStoreQuery(b *testing.B) {
	st, err := store.Open(filepath.Join(b.TempDir(), "records.jsonl"))
	if err != nil {
		b.Fatal(err)
	}
	ctx := context.Background()
	for i, text := range corpus(500) {
		if _, err := st.Upsert(ctx, fmt.Sprintf("r%d", i), models.Metadata{Text: text}); err != nil {
			b.Fatal(err)
		}
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = st.Query(ctx, "where did i buy milk", 10)
	}
}
