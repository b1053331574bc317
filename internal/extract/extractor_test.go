package extract

import (
	"reflect"
	"strings"
	"testing"

	"talentgate/internal/errors"
)

func testVocabulary() []string {
	return []string{
		"Javascript", "Typescript", "React", "Node.js", "Python",
		"Java", "C++", "AWS", "Docker", "Kubernetes", "SQL", "NoSQL", "MongoDB",
	}
}

func TestFromText(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		wantEmail  string
		wantPhone  string
		wantSkills []string
		wantYears  int
	}{
		{
			name:       "full resume",
			text:       "Jane Doe\njane.doe@example.com\n+1 555-010-9999\nBackend developer with Python, Docker and AWS.",
			wantEmail:  "jane.doe@example.com",
			wantPhone:  "1 555-010-9999",
			wantSkills: []string{"Python", "AWS", "Docker"},
			wantYears:  2,
		},
		{
			name:       "senior marker bumps experience",
			text:       "Senior engineer, react and typescript. reach me at dev@corp.io",
			wantEmail:  "dev@corp.io",
			wantSkills: []string{"Typescript", "React"},
			wantYears:  5,
		},
		{
			name:       "lead marker bumps experience",
			text:       "Tech Lead working with kubernetes",
			wantSkills: []string{"Kubernetes"},
			wantYears:  5,
		},
		{
			name:      "empty input degrades to defaults",
			text:      "",
			wantYears: 2,
		},
		{
			name:       "skills matched case-insensitively in vocabulary order",
			text:       "MONGODB then javascript then AWS",
			wantSkills: []string{"Javascript", "Java", "AWS", "MongoDB"},
			wantYears:  2,
		},
		{
			name:      "no contact details",
			text:      "a short note with no identifiers",
			wantYears: 2,
		},
	}

	extractor := New(DefaultOptions(testVocabulary()))

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			signal := extractor.FromText(tt.text)

			if signal.PersonalInfo.Email != tt.wantEmail {
				t.Errorf("email = %q, want %q", signal.PersonalInfo.Email, tt.wantEmail)
			}
			if tt.wantPhone != "" && !strings.Contains(signal.PersonalInfo.Phone, tt.wantPhone) {
				t.Errorf("phone = %q, want it to contain %q", signal.PersonalInfo.Phone, tt.wantPhone)
			}
			if len(tt.wantSkills) == 0 {
				if len(signal.Skills) != 0 {
					t.Errorf("skills = %v, want none", signal.Skills)
				}
			} else if !reflect.DeepEqual(signal.Skills, tt.wantSkills) {
				t.Errorf("skills = %v, want %v", signal.Skills, tt.wantSkills)
			}
			if signal.ExperienceYears != tt.wantYears {
				t.Errorf("experienceYears = %d, want %d", signal.ExperienceYears, tt.wantYears)
			}
			if signal.RawText != tt.text {
				t.Errorf("rawText not preserved")
			}
		})
	}
}

func TestExtractPlainText(t *testing.T) {
	extractor := New(DefaultOptions(testVocabulary()))

	data := []byte("Plain resume. python and sql. me@host.org")
	signal, err := extractor.Extract(data, "text/plain; charset=utf-8")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if signal.PersonalInfo.Email != "me@host.org" {
		t.Errorf("email = %q, want me@host.org", signal.PersonalInfo.Email)
	}
	if !reflect.DeepEqual(signal.Skills, []string{"Python", "SQL"}) {
		t.Errorf("skills = %v, want [Python SQL]", signal.Skills)
	}
}

func TestExtractDegradesOnUnparsableDocument(t *testing.T) {
	extractor := New(DefaultOptions(testVocabulary()))

	// Not a valid PDF, but still contains recoverable text
	data := []byte("not a pdf but mentions docker and admin@site.dev")
	signal, err := extractor.Extract(data, "application/pdf")

	if err == nil {
		t.Fatal("expected a degradation error")
	}
	if !errors.IsCode(err, errors.ErrCodeExtractionDegraded) {
		t.Fatalf("error code = %v, want EXTRACTION_DEGRADED", err)
	}

	// The degraded signal must still carry everything found in the raw bytes
	if signal.PersonalInfo.Email != "admin@site.dev" {
		t.Errorf("email = %q, want admin@site.dev", signal.PersonalInfo.Email)
	}
	if !reflect.DeepEqual(signal.Skills, []string{"Docker"}) {
		t.Errorf("skills = %v, want [Docker]", signal.Skills)
	}
}

func TestSetVocabulary(t *testing.T) {
	extractor := New(DefaultOptions(testVocabulary()))

	extractor.SetVocabulary([]string{"Go", "Rust"})

	signal := extractor.FromText("built services in go and rust, some python too")
	if !reflect.DeepEqual(signal.Skills, []string{"Go", "Rust"}) {
		t.Errorf("skills = %v, want [Go Rust]", signal.Skills)
	}

	if got := extractor.Vocabulary(); !reflect.DeepEqual(got, []string{"Go", "Rust"}) {
		t.Errorf("vocabulary = %v, want [Go Rust]", got)
	}
}

func TestMatchSkillsDeduplicates(t *testing.T) {
	skills := matchSkills("java java JAVA", []string{"Java", "java"})
	if !reflect.DeepEqual(skills, []string{"Java"}) {
		t.Errorf("skills = %v, want [Java]", skills)
	}
}
