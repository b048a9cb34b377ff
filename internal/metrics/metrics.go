package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"llm-kit/internal/outparse"
)

const namespace = "llmkit"

// Parse outcomes.
const (
	OutcomeOK         = "ok"
	OutcomeDecode     = "decode_error"
	OutcomeValidation = "validation_error"
	OutcomeError      = "error"
)

var (
	// ParseTotal counts parse attempts per schema and outcome.
	ParseTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "parse_total",
			Help:      "Structured output parse attempts by schema and outcome",
		},
		[]string{"schema", "outcome"},
	)

	// EmbeddedTexts counts texts embedded per call kind (documents, query).
	EmbeddedTexts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "embedded_texts_total",
			Help:      "Texts embedded by call kind",
		},
		[]string{"kind"},
	)

	// GenerateDuration tracks LLM round trips for structured generation.
	GenerateDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generate_duration_seconds",
			Help:      "Duration of structured generation calls",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"schema"},
	)
)

// Outcome maps a parse error to its metric label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, outparse.ErrDecode):
		return OutcomeDecode
	case errors.Is(err, outparse.ErrValidation):
		return OutcomeValidation
	default:
		return OutcomeError
	}
}

// ObserveParse records one parse attempt.
func ObserveParse(schema string, err error) {
	ParseTotal.WithLabelValues(schema, Outcome(err)).Inc()
}
