package scoring

import (
	"math"
	"strings"

	"talentgate/internal/config"
	"talentgate/internal/errors"
	"talentgate/internal/types"
)

// Flag values attached to fit scores. Advisory only; they never block
// downstream flow.
const (
	FlagMissingEmail     = "Missing Email"
	FlagNoSkillsDetected = "No Skills Detected"
)

// Input bundles everything a scorer needs for one match computation.
type Input struct {
	StudentID string
	Signal    types.CandidateSignal
	Job       types.JobRequirements
}

// Scorer computes a FitScore for a candidate against a job. All
// implementations are pure and deterministic for identical inputs.
type Scorer interface {
	Score(in Input) types.FitScore
}

// New builds the scorer selected by configuration.
func New(cfg config.MatchingConfig) (Scorer, error) {
	switch cfg.Strategy {
	case "weighted":
		return &WeightedScorer{
			SkillWeight:      cfg.SkillWeight,
			KeywordWeight:    cfg.KeywordWeight,
			MinKeywordLength: cfg.MinKeywordLength,
		}, nil
	case "legacy":
		return &LegacyScorer{}, nil
	case "demo":
		return &DemoScorer{Floor: cfg.DemoFloor, Ceiling: cfg.DemoCeiling}, nil
	default:
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			"unknown matching strategy: "+cfg.Strategy, nil)
	}
}

// skillBreakdown computes the skill sub-score and the matched/missing
// explanation lists by case-insensitive set difference. The sub-score is
// defined as 0 when the job declares no required skills.
func skillBreakdown(candidateSkills, jobSkills []string) (score int, matched, missing []string) {
	if len(jobSkills) == 0 {
		return 0, []string{}, []string{}
	}

	have := make(map[string]bool, len(candidateSkills))
	for _, skill := range candidateSkills {
		have[strings.ToLower(skill)] = true
	}

	matched = make([]string, 0, len(jobSkills))
	missing = make([]string, 0, len(jobSkills))
	for _, skill := range jobSkills {
		if have[strings.ToLower(skill)] {
			matched = append(matched, skill)
		} else {
			missing = append(missing, skill)
		}
	}

	score = roundToInt(float64(len(matched)) / float64(len(jobSkills)) * 100)
	return score, matched, missing
}

// advisoryFlags derives the advisory flag list for a signal.
func advisoryFlags(signal types.CandidateSignal) []string {
	var flags []string
	if signal.PersonalInfo.Email == "" {
		flags = append(flags, FlagMissingEmail)
	}
	if len(signal.Skills) == 0 {
		flags = append(flags, FlagNoSkillsDetected)
	}
	return flags
}

func roundToInt(f float64) int {
	return int(math.Round(f))
}

func clampScore(score, floor, ceiling int) int {
	if score < floor {
		return floor
	}
	if score > ceiling {
		return ceiling
	}
	return score
}
