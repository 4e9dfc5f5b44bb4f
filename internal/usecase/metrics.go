package usecase

import (
	"github.com/example/artifact-scout/internal/domain"
	"github.com/example/artifact-scout/internal/metrics"
)

// outcomeLabel maps an outcome to its metrics label: "success" or the error code.
func outcomeLabel(o domain.Outcome) string {
	switch v := o.(type) {
	case domain.Success:
		return "success"
	case domain.Failure:
		return string(v.Code)
	default:
		return "unknown"
	}
}

func observeOutcome(o domain.Outcome) {
	metrics.AnalysisOutcomesTotal.WithLabelValues(outcomeLabel(o)).Inc()
}
