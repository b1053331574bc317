package formatters

import (
	"encoding/json"
	"fmt"
	"strings"

	"talentgate/internal/types"
)

// Formatter interface for different output formats
type Formatter interface {
	Format(data any) (string, error)
	SupportedType() string
}

// FormatterRegistry manages all available formatters
type FormatterRegistry struct {
	formatters map[string]map[string]Formatter // format -> type -> formatter
}

// NewFormatterRegistry creates a new formatter registry with default formatters
func NewFormatterRegistry() *FormatterRegistry {
	registry := &FormatterRegistry{
		formatters: make(map[string]map[string]Formatter),
	}

	// Register default formatters
	registry.RegisterFormatter("json", "any", &JSONFormatter{})
	registry.RegisterFormatter("text", "ScoreReport", &ScoreReportTextFormatter{})
	registry.RegisterFormatter("markdown", "ScoreReport", &ScoreReportMarkdownFormatter{})

	return registry
}

// RegisterFormatter registers a new formatter for a specific format and data type
func (fr *FormatterRegistry) RegisterFormatter(format, dataType string, formatter Formatter) {
	if fr.formatters[format] == nil {
		fr.formatters[format] = make(map[string]Formatter)
	}
	fr.formatters[format][dataType] = formatter
}

// Format formats data using the appropriate formatter
func (fr *FormatterRegistry) Format(data any, format string) (string, error) {
	dataType := getDataType(data)

	// Try specific formatter first
	if formatters, exists := fr.formatters[format]; exists {
		if formatter, exists := formatters[dataType]; exists {
			return formatter.Format(data)
		}
		// Fall back to generic formatter
		if formatter, exists := formatters["any"]; exists {
			return formatter.Format(data)
		}
	}

	return "", fmt.Errorf("no formatter found for format '%s' and type '%s'", format, dataType)
}

// GetSupportedFormats returns all supported formats
func (fr *FormatterRegistry) GetSupportedFormats() []string {
	formats := make([]string, 0, len(fr.formatters))
	for format := range fr.formatters {
		formats = append(formats, format)
	}
	return formats
}

func getDataType(data any) string {
	switch data.(type) {
	case types.ScoreReport:
		return "ScoreReport"
	default:
		return "any"
	}
}

// JSONFormatter handles JSON formatting for any data type
type JSONFormatter struct{}

func (jf *JSONFormatter) Format(data any) (string, error) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}
	return string(jsonData), nil
}

func (jf *JSONFormatter) SupportedType() string {
	return "any"
}

// ScoreReportTextFormatter handles text formatting for score reports
type ScoreReportTextFormatter struct{}

func (sf *ScoreReportTextFormatter) Format(data any) (string, error) {
	result, ok := data.(types.ScoreReport)
	if !ok {
		return "", fmt.Errorf("expected ScoreReport, got %T", data)
	}

	var output strings.Builder

	output.WriteString("=== CANDIDATE SIGNAL ===\n\n")
	if result.Signal.PersonalInfo.Email != "" {
		output.WriteString(fmt.Sprintf("Email: %s\n", result.Signal.PersonalInfo.Email))
	}
	if result.Signal.PersonalInfo.Phone != "" {
		output.WriteString(fmt.Sprintf("Phone: %s\n", result.Signal.PersonalInfo.Phone))
	}
	output.WriteString(fmt.Sprintf("Experience: %d years\n", result.Signal.ExperienceYears))
	if len(result.Signal.Skills) > 0 {
		output.WriteString("Skills:\n")
		for _, skill := range result.Signal.Skills {
			output.WriteString(fmt.Sprintf("- %s\n", skill))
		}
	} else {
		output.WriteString("No skills detected.\n")
	}
	if result.Degraded {
		output.WriteString("\nWarning: document could not be fully parsed; extraction was degraded.\n")
	}

	if result.Fit != nil {
		output.WriteString("\n=== FIT SCORE ===\n\n")
		if result.JobTitle != "" {
			output.WriteString(fmt.Sprintf("Job: %s (%s)\n", result.JobTitle, result.JobID))
		}
		output.WriteString(fmt.Sprintf("Fit Score: %d/100 (strategy: %s)\n", result.Fit.FitScore, result.Fit.Strategy))
		output.WriteString(fmt.Sprintf("Skill Match: %d/100\n", result.Fit.SkillMatch))
		output.WriteString(fmt.Sprintf("Keyword Match: %d/100\n", result.Fit.KeywordMatch))
		if len(result.Fit.MatchedSkills) > 0 {
			output.WriteString("Matched Skills:\n")
			for _, skill := range result.Fit.MatchedSkills {
				output.WriteString(fmt.Sprintf("- %s\n", skill))
			}
		}
		if len(result.Fit.MissingSkills) > 0 {
			output.WriteString("Missing Skills:\n")
			for _, skill := range result.Fit.MissingSkills {
				output.WriteString(fmt.Sprintf("- %s\n", skill))
			}
		}
		if len(result.Fit.Flags) > 0 {
			output.WriteString("Flags:\n")
			for _, flag := range result.Fit.Flags {
				output.WriteString(fmt.Sprintf("- %s\n", flag))
			}
		}
	}

	return output.String(), nil
}

func (sf *ScoreReportTextFormatter) SupportedType() string {
	return "ScoreReport"
}

// ScoreReportMarkdownFormatter handles markdown formatting for score reports
type ScoreReportMarkdownFormatter struct{}

func (sf *ScoreReportMarkdownFormatter) Format(data any) (string, error) {
	result, ok := data.(types.ScoreReport)
	if !ok {
		return "", fmt.Errorf("expected ScoreReport, got %T", data)
	}

	var output strings.Builder

	output.WriteString("# Candidate Signal\n\n")
	if result.Signal.PersonalInfo.Email != "" {
		output.WriteString(fmt.Sprintf("**Email:** %s\n\n", result.Signal.PersonalInfo.Email))
	}
	if result.Signal.PersonalInfo.Phone != "" {
		output.WriteString(fmt.Sprintf("**Phone:** %s\n\n", result.Signal.PersonalInfo.Phone))
	}
	output.WriteString(fmt.Sprintf("**Experience:** %d years\n\n", result.Signal.ExperienceYears))
	if len(result.Signal.Skills) > 0 {
		output.WriteString("## Skills\n\n")
		for _, skill := range result.Signal.Skills {
			output.WriteString(fmt.Sprintf("- %s\n", skill))
		}
		output.WriteString("\n")
	} else {
		output.WriteString("No skills detected.\n\n")
	}
	if result.Degraded {
		output.WriteString("> Warning: document could not be fully parsed; extraction was degraded.\n\n")
	}

	if result.Fit != nil {
		output.WriteString("# Fit Score\n\n")
		if result.JobTitle != "" {
			output.WriteString(fmt.Sprintf("**Job:** %s (%s)\n\n", result.JobTitle, result.JobID))
		}
		output.WriteString(fmt.Sprintf("**Fit Score:** %d/100 (strategy: %s)\n\n", result.Fit.FitScore, result.Fit.Strategy))
		output.WriteString(fmt.Sprintf("**Skill Match:** %d/100\n\n", result.Fit.SkillMatch))
		output.WriteString(fmt.Sprintf("**Keyword Match:** %d/100\n\n", result.Fit.KeywordMatch))
		if len(result.Fit.MatchedSkills) > 0 {
			output.WriteString("## Matched Skills\n\n")
			for _, skill := range result.Fit.MatchedSkills {
				output.WriteString(fmt.Sprintf("- %s\n", skill))
			}
			output.WriteString("\n")
		}
		if len(result.Fit.MissingSkills) > 0 {
			output.WriteString("## Missing Skills\n\n")
			for _, skill := range result.Fit.MissingSkills {
				output.WriteString(fmt.Sprintf("- %s\n", skill))
			}
			output.WriteString("\n")
		}
		if len(result.Fit.Flags) > 0 {
			output.WriteString("## Flags\n\n")
			for _, flag := range result.Fit.Flags {
				output.WriteString(fmt.Sprintf("- %s\n", flag))
			}
			output.WriteString("\n")
		}
	}

	return output.String(), nil
}

func (sf *ScoreReportMarkdownFormatter) SupportedType() string {
	return "ScoreReport"
}

// Global formatter registry
var GlobalRegistry = NewFormatterRegistry()
