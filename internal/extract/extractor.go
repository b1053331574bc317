package extract

import (
	"regexp"
	"strings"
	"sync"

	"talentgate/internal/errors"
	"talentgate/internal/types"
)

var (
	emailRegex = regexp.MustCompile(`([a-zA-Z0-9._-]+@[a-zA-Z0-9._-]+\.[a-zA-Z0-9_-]+)`)
	phoneRegex = regexp.MustCompile(`(\+?[\d\s-]{10,})`)
)

// Options configures a resume signal extractor.
type Options struct {
	Vocabulary             []string
	DefaultExperienceYears int
	SeniorExperienceYears  int
	SeniorMarkers          []string
}

// DefaultOptions returns the built-in extraction defaults.
func DefaultOptions(vocabulary []string) Options {
	return Options{
		Vocabulary:             vocabulary,
		DefaultExperienceYears: 2,
		SeniorExperienceYears:  5,
		SeniorMarkers:          []string{"Senior", "Lead"},
	}
}

// Extractor derives a structured CandidateSignal from raw resume bytes.
// Extraction is best-effort: unreadable documents degrade to plain text
// rather than failing the upload.
type Extractor struct {
	mu   sync.RWMutex
	opts Options
}

// New creates an extractor with the given options.
func New(opts Options) *Extractor {
	if opts.DefaultExperienceYears == 0 {
		opts.DefaultExperienceYears = 2
	}
	if opts.SeniorExperienceYears == 0 {
		opts.SeniorExperienceYears = 5
	}
	if len(opts.SeniorMarkers) == 0 {
		opts.SeniorMarkers = []string{"Senior", "Lead"}
	}
	return &Extractor{opts: opts}
}

// SetVocabulary replaces the skill vocabulary. Safe for concurrent use;
// wired to the vocabulary file watcher.
func (e *Extractor) SetVocabulary(vocabulary []string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.opts.Vocabulary = append([]string(nil), vocabulary...)
}

// Vocabulary returns a copy of the current skill vocabulary.
func (e *Extractor) Vocabulary() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]string(nil), e.opts.Vocabulary...)
}

// Extract derives a CandidateSignal from resume bytes and the declared
// MIME type. A non-nil error with code EXTRACTION_DEGRADED means the
// document could not be parsed and its bytes were treated as plain text;
// the returned signal is still usable.
func (e *Extractor) Extract(data []byte, mimeType string) (types.CandidateSignal, error) {
	text, degraded := e.extractText(data, mimeType)
	signal := e.FromText(text)

	if degraded != nil {
		return signal, errors.NewIOError(errors.ErrCodeExtractionDegraded,
			"document could not be parsed, treated as plain text", degraded).
			WithContext("mime_type", mimeType)
	}
	return signal, nil
}

// FromText derives a CandidateSignal from already-extracted text.
func (e *Extractor) FromText(text string) types.CandidateSignal {
	e.mu.RLock()
	opts := e.opts
	e.mu.RUnlock()

	signal := types.CandidateSignal{
		Skills:          matchSkills(text, opts.Vocabulary),
		ExperienceYears: opts.DefaultExperienceYears,
		RawText:         text,
	}

	if match := emailRegex.FindString(text); match != "" {
		signal.PersonalInfo.Email = match
	}
	if match := phoneRegex.FindString(text); match != "" {
		signal.PersonalInfo.Phone = strings.TrimSpace(match)
	}

	lower := strings.ToLower(text)
	for _, marker := range opts.SeniorMarkers {
		if strings.Contains(lower, strings.ToLower(marker)) {
			signal.ExperienceYears = opts.SeniorExperienceYears
			break
		}
	}

	return signal
}

// extractText converts document bytes to text by declared MIME type.
// The second return value carries the parse failure when the bytes had
// to be treated as plain text.
func (e *Extractor) extractText(data []byte, mimeType string) (string, error) {
	switch normalizeMimeType(mimeType) {
	case "application/pdf":
		text, err := extractPDFText(data)
		if err != nil {
			return string(data), err
		}
		return text, nil
	case "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		"application/msword":
		text, err := extractDocxText(data)
		if err != nil {
			return string(data), err
		}
		return text, nil
	default:
		return string(data), nil
	}
}

func normalizeMimeType(mimeType string) string {
	// Strip parameters like "; charset=utf-8"
	if idx := strings.Index(mimeType, ";"); idx >= 0 {
		mimeType = mimeType[:idx]
	}
	return strings.ToLower(strings.TrimSpace(mimeType))
}

// matchSkills returns the vocabulary entries present in the text,
// case-insensitive, deduplicated, in vocabulary order.
func matchSkills(text string, vocabulary []string) []string {
	lower := strings.ToLower(text)
	skills := make([]string, 0, len(vocabulary))
	seen := make(map[string]bool, len(vocabulary))

	for _, skill := range vocabulary {
		key := strings.ToLower(skill)
		if seen[key] {
			continue
		}
		if strings.Contains(lower, key) {
			seen[key] = true
			skills = append(skills, skill)
		}
	}

	return skills
}
