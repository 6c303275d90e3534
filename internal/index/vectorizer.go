// Package index implements the TF-IDF term weighting and cosine similarity
// ranking behind the record store's queries.
package index

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/hyperjump/kaimono/pkg/utils"
)

var tokenPattern = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*|\p{N}+`)

// Vectorizer maps text to dense TF-IDF weight vectors over a vocabulary
// fixed at Fit time. Terms unseen during the most recent Fit are invisible
// to Transform until the next Fit.
type Vectorizer struct {
	vocabulary map[string]int
	idf        []float64
	stopwords  map[string]struct{}
}

// Option configures a Vectorizer.
type Option func(*Vectorizer)

// WithoutStopwords disables the English stop-word filter. Used by the
// query-local item/merchant comparison, which fits over tiny corpora where
// stop-word removal can erase the whole signal.
func WithoutStopwords() Option {
	return func(v *Vectorizer) { v.stopwords = nil }
}

// NewVectorizer creates an unfitted vectorizer with the English stop-word filter.
func NewVectorizer(opts ...Option) *Vectorizer {
	v := &Vectorizer{stopwords: englishStopwords}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Fit builds the vocabulary and IDF values from the corpus. The vocabulary
// is sorted, so an identical corpus in identical order always produces a
// bit-identical transform. A corpus with no usable tokens yields a
// zero-dimension transform; Transform then returns empty vectors.
func (v *Vectorizer) Fit(corpus []string) {
	df := make(map[string]int)
	for _, text := range corpus {
		seen := make(map[string]struct{})
		for _, tok := range v.tokenize(text) {
			if _, ok := seen[tok]; ok {
				continue
			}
			seen[tok] = struct{}{}
			df[tok]++
		}
	}

	terms := make([]string, 0, len(df))
	for term := range df {
		terms = append(terms, term)
	}
	sort.Strings(terms)

	v.vocabulary = make(map[string]int, len(terms))
	v.idf = make([]float64, len(terms))
	n := float64(len(corpus))
	for i, term := range terms {
		v.vocabulary[term] = i
		// Smoothed IDF
		v.idf[i] = math.Log((1+n)/(1+float64(df[term]))) + 1.0
	}
}

// Dimension returns the dimensionality of produced vectors.
func (v *Vectorizer) Dimension() int { return len(v.idf) }

// Transform computes the L2-normalized TF-IDF vector for text. Text
// consisting only of stop-words or unseen terms yields a zero vector.
func (v *Vectorizer) Transform(text string) []float64 {
	vec := make([]float64, len(v.idf))
	tf := make(map[int]int)
	total := 0
	for _, tok := range v.tokenize(text) {
		if idx, ok := v.vocabulary[tok]; ok {
			tf[idx]++
			total++
		}
	}
	if total == 0 {
		return vec
	}
	for idx, count := range tf {
		vec[idx] = float64(count) / float64(total) * v.idf[idx]
	}
	utils.NormalizeL2(vec)
	return vec
}

func (v *Vectorizer) tokenize(text string) []string {
	raw := tokenPattern.FindAllString(strings.ToLower(text), -1)
	if v.stopwords == nil {
		return raw
	}
	out := raw[:0]
	for _, t := range raw {
		if _, isStop := v.stopwords[t]; isStop {
			continue
		}
		out = append(out, t)
	}
	return out
}
