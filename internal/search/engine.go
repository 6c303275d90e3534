// Package search wires the record store, query understanding, and answer
// synthesis into the question-answering engine.
package search

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/kaimono/internal/answer"
	"github.com/hyperjump/kaimono/internal/models"
	"github.com/hyperjump/kaimono/internal/store"
)

// DefaultK is how many candidates similarity search feeds into answer
// synthesis when the caller does not say otherwise.
const DefaultK = 10

// Engine answers natural-language purchase questions over the record store.
type Engine struct {
	store  *store.Store
	synth  *answer.Synthesizer
	logger *zap.Logger // optional
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets a logger for per-question debug output.
func WithLogger(l *zap.Logger) EngineOption {
	return func(e *Engine) { e.logger = l }
}

// NewEngine creates an engine over the given store and synthesizer.
func NewEngine(st *store.Store, synth *answer.Synthesizer, opts ...EngineOption) *Engine {
	e := &Engine{store: st, synth: synth}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Query returns the top-k matches for text. Empty store yields an empty list.
func (e *Engine) Query(ctx context.Context, text string, k int) []models.Match {
	if k <= 0 {
		k = DefaultK
	}
	return e.store.Query(ctx, text, k)
}

// Ask runs similarity search for the question and synthesizes an answer
// from the matches. It never returns an error; degenerate inputs map to
// explanatory answer strings.
func (e *Engine) Ask(ctx context.Context, question string, k int) (string, []models.Match) {
	start := time.Now()
	matches := e.Query(ctx, question, k)
	ans := e.synth.Answer(question, matches)
	if e.logger != nil {
		e.logger.Debug("question answered",
			zap.String("question", question),
			zap.Int("matches", len(matches)),
			zap.Duration("took", time.Since(start)),
		)
	}
	return ans, matches
}

// Count returns the number of stored records.
func (e *Engine) Count() int { return e.store.Count() }
