package scoring

import (
	"talentgate/internal/types"
)

// LegacyScorer is the older 70/30 skill-and-experience formula, retained
// behind configuration. Never blended with the weighted strategy in a
// single code path.
type LegacyScorer struct{}

// Score computes round(skillMatch*0.7 + min(experienceYears*10, 50)*0.3).
func (s *LegacyScorer) Score(in Input) types.FitScore {
	skillMatch, matched, missing := skillBreakdown(in.Signal.Skills, in.Job.RequiredSkills)

	experienceScore := in.Signal.ExperienceYears * 10
	if experienceScore > 50 {
		experienceScore = 50
	}

	composite := roundToInt(float64(skillMatch)*0.7 + float64(experienceScore)*0.3)

	return types.FitScore{
		FitScore:      composite,
		SkillMatch:    skillMatch,
		MatchedSkills: matched,
		MissingSkills: missing,
		Flags:         advisoryFlags(in.Signal),
		Strategy:      "legacy",
	}
}
