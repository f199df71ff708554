package projections

import (
	"context"
	"fmt"
	"sort"

	"ecocrew/internal/domain/impact"
)

// GetMyImpactQuery carries input for the my-impact projection.
type GetMyImpactQuery struct {
	ParticipantID string
}

// GetMyImpactResult carries the output of the my-impact projection.
type GetMyImpactResult struct {
	Logs   []ImpactLogView `json:"logs"`
	Totals TotalsView      `json:"totals"`
}

// GetMyImpactDeps holds dependencies for the my-impact projection.
type GetMyImpactDeps struct {
	ImpactStore ImpactStore
}

// QueryGetMyImpact lists a participant's impact logs with their totals.
// PRE: query.ParticipantID is non-empty
// POST: Logs newest first
func QueryGetMyImpact(ctx context.Context, query GetMyImpactQuery, deps GetMyImpactDeps) (GetMyImpactResult, error) {
	logs, err := deps.ImpactStore.ListByParticipant(ctx, query.ParticipantID)
	if err != nil {
		return GetMyImpactResult{}, fmt.Errorf("list impact logs: %w", err)
	}
	sort.SliceStable(logs, func(i, j int) bool { return logs[i].LoggedAt.After(logs[j].LoggedAt) })

	views := make([]ImpactLogView, 0, len(logs))
	for _, l := range logs {
		views = append(views, NewImpactLogView(l))
	}
	return GetMyImpactResult{Logs: views, Totals: newTotalsView(impact.Sum(logs))}, nil
}
