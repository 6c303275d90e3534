package index

import (
	"math"
	"sort"
)

// Hit is one scored row of the document matrix.
type Hit struct {
	Row   int
	Score float64
}

// Cosine returns the cosine similarity between two vectors. By convention it
// is 0 when either norm is zero, so empty queries and all-stop-word records
// never divide by zero.
func Cosine(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// Rank scores the query vector against every row of the matrix and returns
// all rows sorted by descending similarity. The sort is stable: ties keep
// their original row order, so identical inputs always rank identically.
func Rank(query []float64, matrix [][]float64) []Hit {
	hits := make([]Hit, len(matrix))
	for i, row := range matrix {
		hits[i] = Hit{Row: i, Score: Cosine(query, row)}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	return hits
}
