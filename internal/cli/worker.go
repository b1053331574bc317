package cli

import (
	"fmt"

	"talentgate/internal/ranking"

	"github.com/spf13/cobra"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run the asynchronous ranking worker",
	Long: `Consume rank-recomputation messages from the queue and rewrite the
overallRank field across each affected job's applications. Fit scores
themselves are never recomputed; only their relative ranks are.`,
	RunE: runWorker,
}

func runWorker(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	if !cfg.Queue.Enabled {
		return fmt.Errorf("ranking queue is disabled; set queue.enabled to run the worker")
	}

	st, err := buildStore(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.Close(); err != nil {
			logger.LogError(err, "Failed to close store")
		}
	}()

	queue, err := ranking.NewQueue(cfg.Queue, logger)
	if err != nil {
		return fmt.Errorf("failed to connect ranking queue: %w", err)
	}
	defer func() {
		if err := queue.Close(); err != nil {
			logger.LogError(err, "Failed to close ranking queue")
		}
	}()

	logger.Info("Ranking worker started",
		"queue", cfg.Queue.RankingQueue,
		"database_driver", cfg.Database.Driver)

	// Blocks until the context is cancelled by an interrupt signal
	return queue.Consume(cmd.Context(), st)
}
