package scoring

import (
	"hash/fnv"

	"talentgate/internal/types"
)

// DemoScorer generates a reproducible fixture score keyed by
// (studentID, jobID). It exists for demos and seeded test data only and
// is never selected unless explicitly configured.
type DemoScorer struct {
	Floor   int
	Ceiling int
}

// Score hashes the (studentID, jobID) pair and clamps the result into
// the configured [floor, ceiling] band. Repeated calls with the same
// pair always produce the same score.
func (s *DemoScorer) Score(in Input) types.FitScore {
	floor, ceiling := s.Floor, s.Ceiling
	if floor == 0 && ceiling == 0 {
		floor, ceiling = 45, 95
	}
	if ceiling < floor {
		ceiling = floor
	}

	h := fnv.New64a()
	_, _ = h.Write([]byte(in.StudentID))
	_, _ = h.Write([]byte{'|'})
	_, _ = h.Write([]byte(in.Job.ID))

	span := uint64(ceiling - floor + 1)
	score := floor + int(h.Sum64()%span)

	skillMatch, matched, missing := skillBreakdown(in.Signal.Skills, in.Job.RequiredSkills)

	return types.FitScore{
		FitScore:      clampScore(score, floor, ceiling),
		SkillMatch:    skillMatch,
		MatchedSkills: matched,
		MissingSkills: missing,
		Flags:         advisoryFlags(in.Signal),
		Strategy:      "demo",
	}
}
