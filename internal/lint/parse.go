package lint

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Parse decodes linter output in the given dialect into findings. The
// source argument names the producing tool and is stamped onto every
// finding.
func Parse(dialect Dialect, data []byte, source string) ([]Finding, error) {
	switch dialect {
	case DialectESLint:
		return parseESLint(data, source)
	case DialectStylelint:
		return parseStylelint(data, source)
	case DialectHTMLHint:
		return parseHTMLHint(data, source)
	case DialectParsable:
		return parseParsable(data, source), nil
	default:
		return nil, fmt.Errorf("unknown linter output dialect %q", dialect)
	}
}

// parseESLint decodes the eslint JSON formatter output.
func parseESLint(data []byte, source string) ([]Finding, error) {
	var results []struct {
		FilePath string `json:"filePath"`
		Messages []struct {
			Line    int    `json:"line"`
			Column  int    `json:"column"`
			Message string `json:"message"`
			RuleID  string `json:"ruleId"`
		} `json:"messages"`
	}

	if err := json.Unmarshal(data, &results); err != nil {
		return nil, fmt.Errorf("parsing eslint output: %w", err)
	}

	var findings []Finding

	for _, res := range results {
		for _, msg := range res.Messages {
			findings = append(findings, Finding{
				File:    res.FilePath,
				Line:    msg.Line,
				Col:     msg.Column,
				Message: msg.Message,
				Source:  source,
				Rule:    msg.RuleID,
			})
		}
	}

	return findings, nil
}

// parseStylelint decodes the stylelint JSON formatter output.
func parseStylelint(data []byte, source string) ([]Finding, error) {
	var results []struct {
		Source   string `json:"source"`
		Warnings []struct {
			Line   int    `json:"line"`
			Column int    `json:"column"`
			Text   string `json:"text"`
			Rule   string `json:"rule"`
		} `json:"warnings"`
	}

	if err := json.Unmarshal(data, &results); err != nil {
		return nil, fmt.Errorf("parsing stylelint output: %w", err)
	}

	var findings []Finding

	for _, res := range results {
		for _, warn := range res.Warnings {
			findings = append(findings, Finding{
				File:    res.Source,
				Line:    warn.Line,
				Col:     warn.Column,
				Message: warn.Text,
				Source:  source,
				Rule:    warn.Rule,
			})
		}
	}

	return findings, nil
}

// parseHTMLHint decodes the htmlhint JSON formatter output.
func parseHTMLHint(data []byte, source string) ([]Finding, error) {
	var results []struct {
		File     string `json:"file"`
		Messages []struct {
			Line    int    `json:"line"`
			Col     int    `json:"col"`
			Message string `json:"message"`
			Rule    struct {
				ID string `json:"id"`
			} `json:"rule"`
		} `json:"messages"`
	}

	if err := json.Unmarshal(data, &results); err != nil {
		return nil, fmt.Errorf("parsing htmlhint output: %w", err)
	}

	var findings []Finding

	for _, res := range results {
		for _, msg := range res.Messages {
			findings = append(findings, Finding{
				File:    res.File,
				Line:    msg.Line,
				Col:     msg.Col,
				Message: msg.Message,
				Source:  source,
				Rule:    msg.Rule.ID,
			})
		}
	}

	return findings, nil
}

// parsableLine matches "file:line:col: [level] message (rule)". The level
// and rule parts are optional.
var parsableLine = regexp.MustCompile(`^(.+?):(\d+):(\d+):\s*(?:\[(\w+)\]\s*)?(.*?)(?:\s+\((\S+)\))?$`)

// parseParsable decodes line-oriented "parsable" output. Lines that do not
// match the format are ignored rather than treated as errors, since some
// tools interleave informational output.
func parseParsable(data []byte, source string) []Finding {
	var findings []Finding

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		m := parsableLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}

		lineNo, _ := strconv.Atoi(m[2])
		colNo, _ := strconv.Atoi(m[3])

		findings = append(findings, Finding{
			File:    m[1],
			Line:    lineNo,
			Col:     colNo,
			Message: m[5],
			Source:  source,
			Rule:    m[6],
		})
	}

	return findings
}
