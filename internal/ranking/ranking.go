// Package ranking computes overallRank across a job's applications.
// Rank assignment is an asynchronous pass triggered over a queue, never
// part of fit scoring itself.
package ranking

import (
	"context"
	"sort"

	"talentgate/internal/store"
	"talentgate/internal/types"
)

// ComputeRanks orders applications by fit score descending and assigns
// dense 1-based ranks. Ties share a rank; ordering between tied
// applications follows their stored chronological order. The input
// slice is ranked in place and returned.
func ComputeRanks(apps []types.Application) []types.Application {
	sort.SliceStable(apps, func(i, j int) bool {
		return apps[i].FitScore.FitScore > apps[j].FitScore.FitScore
	})

	rank := 0
	lastScore := -1
	for i := range apps {
		if apps[i].FitScore.FitScore != lastScore {
			rank++
			lastScore = apps[i].FitScore.FitScore
		}
		apps[i].FitScore.OverallRank = rank
	}
	return apps
}

// RankJob recomputes and persists overallRank for every application of
// one job.
func RankJob(ctx context.Context, st store.Store, jobID string) error {
	apps, err := st.ListApplicationsByJob(ctx, jobID)
	if err != nil {
		return err
	}

	for _, app := range ComputeRanks(apps) {
		app := app
		if err := st.UpdateApplication(ctx, &app); err != nil {
			return err
		}
	}
	return nil
}
