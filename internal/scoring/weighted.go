package scoring

import (
	"talentgate/internal/types"
)

// WeightedScorer is the canonical scoring strategy: a fixed-weight blend
// of skill match and keyword match.
type WeightedScorer struct {
	SkillWeight      float64
	KeywordWeight    float64
	MinKeywordLength int
}

func (s *WeightedScorer) weights() (float64, float64) {
	skillWeight, keywordWeight := s.SkillWeight, s.KeywordWeight
	if skillWeight == 0 && keywordWeight == 0 {
		skillWeight, keywordWeight = 0.4, 0.6
	}
	return skillWeight, keywordWeight
}

// Score computes round(skillMatch*0.4 + keywordMatch*0.6) with the
// matched/missing skill explanation and advisory flags.
func (s *WeightedScorer) Score(in Input) types.FitScore {
	skillMatch, matched, missing := skillBreakdown(in.Signal.Skills, in.Job.RequiredSkills)
	keywordMatch := s.keywordMatch(in)

	skillWeight, keywordWeight := s.weights()
	composite := roundToInt(float64(skillMatch)*skillWeight + float64(keywordMatch)*keywordWeight)

	return types.FitScore{
		FitScore:      composite,
		SkillMatch:    skillMatch,
		KeywordMatch:  keywordMatch,
		MatchedSkills: matched,
		MissingSkills: missing,
		Flags:         advisoryFlags(in.Signal),
		Strategy:      "weighted",
	}
}

// keywordMatch is the percentage of filtered job tokens evidenced by the
// candidate text, rounded and capped at 100.
func (s *WeightedScorer) keywordMatch(in Input) int {
	tokens := descriptionTokens(in.Job.Description, in.Job.RequiredSkills, s.MinKeywordLength)
	if len(tokens) == 0 {
		return 0
	}

	evidence := candidateEvidence(in.Signal.RawText, in.Signal.Skills, in.Signal.ExperienceYears)

	found := 0
	for _, token := range tokens {
		if tokenMatched(token, evidence) {
			found++
		}
	}

	percent := roundToInt(float64(found) / float64(len(tokens)) * 100)
	if percent > 100 {
		percent = 100
	}
	return percent
}
