package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"talentgate/internal/common"
	"talentgate/internal/errors"
	"talentgate/internal/scoring"
	"talentgate/internal/types"
	"talentgate/internal/utils"

	"github.com/spf13/cobra"
)

var scoreCmd = &cobra.Command{
	Use:   "score [resume-file] [job-file]",
	Short: "Score a resume offline, optionally against a job posting",
	Long: `Extract the candidate signal from a resume file and print it. When a
job file is given as the second argument (a JSON job posting with id,
title and requiredSkills), also compute the fit score against it.

Resume files may be plain text, PDF, or DOCX. Documents that cannot be
parsed degrade to plain-text extraction instead of failing.`,
	Args: cobra.RangeArgs(1, 2),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfigFromContext(cmd.Context())
		// Apply default format if not specified
		if scoreConfig.OutputFormat == "" {
			scoreConfig.OutputFormat = cfg.App.DefaultFormat
		}
		// Validate format against supported formats
		return common.ValidateOutputFormat(scoreConfig.OutputFormat, cfg.App.SupportedFormats)
	},
	RunE: runScore,
}

var scoreConfig common.CommandConfig

func init() {
	scoreCmd.Flags().StringVarP(&scoreConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	scoreCmd.Flags().StringVar(&scoreConfig.OutputFormat, "format", "", "Output format: json, text, or markdown")

	// Add completion for format flag
	_ = scoreCmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		cfg := getConfigFromContext(cmd.Context())
		return common.GetSupportedFormats(cfg.App.SupportedFormats), cobra.ShellCompDirectiveNoFileComp
	})
}

// scoreInput carries one offline scoring request.
type scoreInput struct {
	Resume   []byte
	MimeType string
	Job      *types.JobRequirements
}

func runScore(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	extractor, stopWatcher, err := buildExtractor(cfg, logger)
	if err != nil {
		return err
	}
	defer stopWatcher()

	scorer, err := scoring.New(cfg.Matching)
	if err != nil {
		return err
	}

	mimeType := utils.DetectMimeType(args[0])

	createInput := func(contents [][]byte) (scoreInput, error) {
		input := scoreInput{Resume: contents[0], MimeType: mimeType}
		if len(contents) == 2 {
			var job types.JobRequirements
			if err := json.Unmarshal(contents[1], &job); err != nil {
				return scoreInput{}, fmt.Errorf("job file is not a valid JSON job posting: %w", err)
			}
			input.Job = &job
		}
		return input, nil
	}

	logDetails := func(input scoreInput, cmdCfg common.CommandConfig) {
		logger.Info("Scoring resume offline",
			"resume_bytes", len(input.Resume),
			"mime_type", input.MimeType,
			"with_job", input.Job != nil,
			"output_format", cmdCfg.OutputFormat)
	}

	scoreOperation := func(ctx context.Context, input scoreInput) (types.ScoreReport, error) {
		signal, err := extractor.Extract(input.Resume, input.MimeType)
		degraded := errors.IsCode(err, errors.ErrCodeExtractionDegraded)
		if err != nil && !degraded {
			return types.ScoreReport{}, err
		}

		report := types.ScoreReport{Signal: signal, Degraded: degraded}
		if input.Job != nil {
			fit := scorer.Score(scoring.Input{Signal: signal, Job: *input.Job})
			report.JobID = input.Job.ID
			report.JobTitle = input.Job.Title
			report.Fit = &fit
		}
		return report, nil
	}

	err = common.RunFileCommand(
		cmd.Context(),
		logger,
		scoreConfig,
		args,
		createInput,
		scoreOperation,
		logDetails,
	)

	if err != nil {
		return fmt.Errorf("failed to score resume: %w", err)
	}
	logger.Info("Offline scoring completed successfully")
	return nil
}
