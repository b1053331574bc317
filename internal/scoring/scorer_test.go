package scoring

import (
	"reflect"
	"testing"

	"talentgate/internal/config"
	"talentgate/internal/types"
)

func weightedScorer() *WeightedScorer {
	return &WeightedScorer{SkillWeight: 0.4, KeywordWeight: 0.6, MinKeywordLength: 4}
}

func TestSkillBreakdown(t *testing.T) {
	tests := []struct {
		name        string
		candidate   []string
		job         []string
		wantScore   int
		wantMatched []string
		wantMissing []string
	}{
		{
			name:        "half match",
			candidate:   []string{"React", "Docker"},
			job:         []string{"React", "AWS"},
			wantScore:   50,
			wantMatched: []string{"React"},
			wantMissing: []string{"AWS"},
		},
		{
			name:        "case-insensitive match",
			candidate:   []string{"react", "aws"},
			job:         []string{"React", "AWS"},
			wantScore:   100,
			wantMatched: []string{"React", "AWS"},
			wantMissing: []string{},
		},
		{
			name:        "no job skills means zero",
			candidate:   []string{"React"},
			job:         nil,
			wantScore:   0,
			wantMatched: []string{},
			wantMissing: []string{},
		},
		{
			name:        "nothing matches",
			candidate:   []string{"Python"},
			job:         []string{"React", "AWS", "Docker"},
			wantScore:   0,
			wantMatched: []string{},
			wantMissing: []string{"React", "AWS", "Docker"},
		},
		{
			name:        "one of three",
			candidate:   []string{"AWS"},
			job:         []string{"React", "AWS", "Docker"},
			wantScore:   33,
			wantMatched: []string{"AWS"},
			wantMissing: []string{"React", "Docker"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, matched, missing := skillBreakdown(tt.candidate, tt.job)
			if score != tt.wantScore {
				t.Errorf("score = %d, want %d", score, tt.wantScore)
			}
			if !reflect.DeepEqual(matched, tt.wantMatched) {
				t.Errorf("matched = %v, want %v", matched, tt.wantMatched)
			}
			if !reflect.DeepEqual(missing, tt.wantMissing) {
				t.Errorf("missing = %v, want %v", missing, tt.wantMissing)
			}
		})
	}
}

func TestWeightedScore(t *testing.T) {
	in := Input{
		StudentID: "student-1",
		Signal: types.CandidateSignal{
			PersonalInfo:    types.PersonalInfo{Email: "a@b.co"},
			Skills:          []string{"React", "Docker"},
			ExperienceYears: 2,
			RawText:         "react and docker developer",
		},
		Job: types.JobRequirements{
			ID:             "job-1",
			RequiredSkills: []string{"React", "AWS"},
		},
	}

	got := weightedScorer().Score(in)

	if got.SkillMatch != 50 {
		t.Errorf("skillMatch = %d, want 50", got.SkillMatch)
	}
	// Tokens are the folded-in skills only (no description): react, aws.
	// Evidence carries react but not aws.
	if got.KeywordMatch != 50 {
		t.Errorf("keywordMatch = %d, want 50", got.KeywordMatch)
	}
	if got.FitScore != 50 {
		t.Errorf("fitScore = %d, want 50", got.FitScore)
	}
	if got.Strategy != "weighted" {
		t.Errorf("strategy = %q, want weighted", got.Strategy)
	}
	if len(got.Flags) != 0 {
		t.Errorf("flags = %v, want none", got.Flags)
	}
}

func TestWeightedScoreDeterministic(t *testing.T) {
	in := Input{
		StudentID: "student-1",
		Signal: types.CandidateSignal{
			Skills:          []string{"Python", "SQL"},
			ExperienceYears: 5,
			RawText:         "senior python engineer with sql and cloud exposure",
		},
		Job: types.JobRequirements{
			ID:             "job-9",
			Description:    "Looking for a strong Python engineer with cloud background",
			RequiredSkills: []string{"Python", "AWS"},
		},
	}

	scorer := weightedScorer()
	first := scorer.Score(in)
	second := scorer.Score(in)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("score not deterministic: %+v vs %+v", first, second)
	}
}

func TestWeightedScoreFlags(t *testing.T) {
	in := Input{
		Signal: types.CandidateSignal{},
		Job:    types.JobRequirements{RequiredSkills: []string{"React"}},
	}

	got := weightedScorer().Score(in)

	want := []string{FlagMissingEmail, FlagNoSkillsDetected}
	if !reflect.DeepEqual(got.Flags, want) {
		t.Errorf("flags = %v, want %v", got.Flags, want)
	}
}

func TestDescriptionTokens(t *testing.T) {
	tokens := descriptionTokens(
		"Looking for a strong Node.js developer with AWS experience",
		[]string{"React"}, 4)

	want := []string{"node.js", "developer", "react"}
	if !reflect.DeepEqual(tokens, want) {
		t.Errorf("tokens = %v, want %v", tokens, want)
	}
}

func TestTokenMatchedAliases(t *testing.T) {
	tests := []struct {
		name     string
		token    string
		evidence string
		want     bool
	}{
		{"direct containment", "python", "a python shop", true},
		{"alias for curated term", "node.js", "five years of node development", true},
		{"reverse alias", "k8s", "runs production kubernetes", true},
		{"no match", "terraform", "plain java backend", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tokenMatched(tt.token, tt.evidence); got != tt.want {
				t.Errorf("tokenMatched(%q, %q) = %v, want %v", tt.token, tt.evidence, got, tt.want)
			}
		})
	}
}

func TestCandidateEvidenceReconstruction(t *testing.T) {
	evidence := candidateEvidence("", []string{"React", "AWS"}, 5)
	if evidence != "react aws 5 years experience" {
		t.Errorf("evidence = %q", evidence)
	}

	evidence = candidateEvidence("Resume TEXT", []string{"React"}, 2)
	if evidence != "resume text" {
		t.Errorf("evidence = %q", evidence)
	}
}

func TestLegacyScore(t *testing.T) {
	tests := []struct {
		name  string
		in    Input
		want  int
		skill int
	}{
		{
			name: "full skill match with low experience",
			in: Input{
				Signal: types.CandidateSignal{
					PersonalInfo:    types.PersonalInfo{Email: "x@y.z"},
					Skills:          []string{"React"},
					ExperienceYears: 2,
				},
				Job: types.JobRequirements{RequiredSkills: []string{"React"}},
			},
			want:  76, // 100*0.7 + 20*0.3
			skill: 100,
		},
		{
			name: "experience capped at 50",
			in: Input{
				Signal: types.CandidateSignal{
					PersonalInfo:    types.PersonalInfo{Email: "x@y.z"},
					Skills:          []string{"React"},
					ExperienceYears: 20,
				},
				Job: types.JobRequirements{RequiredSkills: []string{"React"}},
			},
			want:  85, // 100*0.7 + 50*0.3
			skill: 100,
		},
	}

	scorer := &LegacyScorer{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := scorer.Score(tt.in)
			if got.FitScore != tt.want {
				t.Errorf("fitScore = %d, want %d", got.FitScore, tt.want)
			}
			if got.SkillMatch != tt.skill {
				t.Errorf("skillMatch = %d, want %d", got.SkillMatch, tt.skill)
			}
			if got.Strategy != "legacy" {
				t.Errorf("strategy = %q, want legacy", got.Strategy)
			}
		})
	}
}

func TestDemoScoreDeterministicAndBanded(t *testing.T) {
	scorer := &DemoScorer{Floor: 45, Ceiling: 95}

	in := Input{
		StudentID: "student-7",
		Job:       types.JobRequirements{ID: "job-3"},
	}

	first := scorer.Score(in)
	second := scorer.Score(in)
	if first.FitScore != second.FitScore {
		t.Errorf("demo score not deterministic: %d vs %d", first.FitScore, second.FitScore)
	}

	pairs := []Input{
		{StudentID: "a", Job: types.JobRequirements{ID: "1"}},
		{StudentID: "b", Job: types.JobRequirements{ID: "2"}},
		{StudentID: "c", Job: types.JobRequirements{ID: "3"}},
		{StudentID: "long-student-identifier", Job: types.JobRequirements{ID: "another-job"}},
	}
	for _, p := range pairs {
		score := scorer.Score(p).FitScore
		if score < 45 || score > 95 {
			t.Errorf("score %d for (%s,%s) outside [45,95]", score, p.StudentID, p.Job.ID)
		}
	}
}

func TestNewScorerFactory(t *testing.T) {
	tests := []struct {
		strategy    string
		wantType    string
		expectError bool
	}{
		{strategy: "weighted", wantType: "*scoring.WeightedScorer"},
		{strategy: "legacy", wantType: "*scoring.LegacyScorer"},
		{strategy: "demo", wantType: "*scoring.DemoScorer"},
		{strategy: "roulette", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.strategy, func(t *testing.T) {
			scorer, err := New(config.MatchingConfig{Strategy: tt.strategy})
			if tt.expectError {
				if err == nil {
					t.Fatal("expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := reflect.TypeOf(scorer).String(); got != tt.wantType {
				t.Errorf("scorer type = %s, want %s", got, tt.wantType)
			}
		})
	}
}
