// Package report renders run results as Markdown, HTML or JSON documents.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html"
	"path/filepath"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/harrison/screencheck/internal/filelock"
	"github.com/harrison/screencheck/internal/models"
)

// Format is a report document format
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
	FormatJSON     Format = "json"
)

// FormatFromPath picks the report format from a file extension
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return FormatMarkdown, nil
	case ".html", ".htm":
		return FormatHTML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unsupported report extension %q (use .md, .html or .json)", filepath.Ext(path))
	}
}

// Render renders result in the given format
func Render(result *models.RunResult, format Format) ([]byte, error) {
	switch format {
	case FormatMarkdown:
		return Markdown(result), nil
	case FormatHTML:
		return HTML(result)
	case FormatJSON:
		return JSON(result)
	default:
		return nil, fmt.Errorf("unknown report format %q", format)
	}
}

// Write renders result in the format named by the path's extension and
// writes it atomically while holding a lock on the path.
func Write(path string, result *models.RunResult) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}

	data, err := Render(result, format)
	if err != nil {
		return fmt.Errorf("render %s report: %w", format, err)
	}

	if err := filelock.LockAndWrite(path, data); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// Markdown renders a summary table followed by the failures and the full
// list of outcomes.
func Markdown(result *models.RunResult) []byte {
	var sb strings.Builder

	sb.WriteString("# Screenshot Test Report\n\n")
	sb.WriteString("| | |\n|---|---|\n")
	fmt.Fprintf(&sb, "| Run | %s |\n", code(result.RunID))
	fmt.Fprintf(&sb, "| Target | %s |\n", code(result.Target))
	if !result.StartedAt.IsZero() {
		fmt.Fprintf(&sb, "| Started | %s |\n", result.StartedAt.Format(time.RFC3339))
	}
	fmt.Fprintf(&sb, "| Duration | %s |\n", result.Duration.Round(time.Millisecond))
	fmt.Fprintf(&sb, "| Status | **%s** |\n", result.Status)
	fmt.Fprintf(&sb, "| Screenshots | %d |\n", result.Total)
	fmt.Fprintf(&sb, "| Passed | %d |\n", result.Passed)
	fmt.Fprintf(&sb, "| Failed | %d |\n", result.Failed)

	if result.Empty() && result.Status != models.StatusAborted {
		sb.WriteString("\nNo screenshots were found.\n")
		return []byte(sb.String())
	}

	if failed := result.FailedOutcomes(); len(failed) > 0 {
		sb.WriteString("\n## Failures\n\n")
		sb.WriteString("| File | Expected | Reason |\n|---|---|---|\n")
		for _, o := range failed {
			fmt.Fprintf(&sb, "| %s | %s | %s |\n", cell(filepath.Base(o.File)), cell(expected(o)), cell(o.FailureReason))
		}
	}

	if len(result.Outcomes) > 0 {
		sb.WriteString("\n## Outcomes\n\n")
		sb.WriteString("| Result | File | Expected | Duration |\n|---|---|---|---|\n")
		for _, o := range result.Outcomes {
			verdict := "FAIL"
			if o.Passed {
				verdict = "PASS"
			}
			fmt.Fprintf(&sb, "| %s | %s | %s | %s |\n", verdict, cell(o.File), cell(expected(o)), o.Duration.Round(time.Millisecond))
		}
	}

	return []byte(sb.String())
}

// HTML renders the Markdown report to a standalone HTML page
func HTML(result *models.RunResult) ([]byte, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.Table))

	var body bytes.Buffer
	if err := md.Convert(Markdown(result), &body); err != nil {
		return nil, fmt.Errorf("convert markdown: %w", err)
	}

	var page bytes.Buffer
	page.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&page, "<title>Screenshot Test Report %s</title>\n", html.EscapeString(result.RunID))
	page.WriteString("<style>table{border-collapse:collapse}td,th{border:1px solid #ccc;padding:2px 6px}</style>\n")
	page.WriteString("</head>\n<body>\n")
	page.Write(body.Bytes())
	page.WriteString("</body>\n</html>\n")

	return page.Bytes(), nil
}

type jsonTruth struct {
	Name         *string  `json:"name"`
	Level        *float64 `json:"level"`
	LevelUnknown bool     `json:"level_unknown,omitempty"`
	LevelSource  string   `json:"level_source,omitempty"`
	CombatPower  *int     `json:"cp"`
	HitPoints    *int     `json:"hp"`
}

type jsonOutcome struct {
	File          string     `json:"file"`
	Passed        bool       `json:"passed"`
	FailureReason string     `json:"failure_reason,omitempty"`
	Expected      *jsonTruth `json:"expected,omitempty"`
	DurationMs    int64      `json:"duration_ms"`
}

type jsonReport struct {
	RunID      string        `json:"run_id"`
	Target     string        `json:"target"`
	StartedAt  time.Time     `json:"started_at"`
	DurationMs int64         `json:"duration_ms"`
	Status     string        `json:"status"`
	Success    bool          `json:"success"`
	Total      int           `json:"total"`
	Passed     int           `json:"passed"`
	Failed     int           `json:"failed"`
	Outcomes   []jsonOutcome `json:"outcomes"`
}

// JSON renders result as an indented JSON document
func JSON(result *models.RunResult) ([]byte, error) {
	doc := jsonReport{
		RunID:      result.RunID,
		Target:     result.Target,
		StartedAt:  result.StartedAt,
		DurationMs: result.Duration.Milliseconds(),
		Status:     string(result.Status),
		Success:    result.Success,
		Total:      result.Total,
		Passed:     result.Passed,
		Failed:     result.Failed,
		Outcomes:   make([]jsonOutcome, 0, len(result.Outcomes)),
	}

	for _, o := range result.Outcomes {
		out := jsonOutcome{
			File:          o.File,
			Passed:        o.Passed,
			FailureReason: o.FailureReason,
			DurationMs:    o.Duration.Milliseconds(),
		}
		if t := o.Truth; t != nil {
			out.Expected = &jsonTruth{
				Name:         t.Name,
				Level:        t.Level,
				LevelUnknown: t.LevelUnknown,
				LevelSource:  t.LevelSource,
				CombatPower:  t.CombatPower,
				HitPoints:    t.HitPoints,
			}
		}
		doc.Outcomes = append(doc.Outcomes, out)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal report: %w", err)
	}
	return append(data, '\n'), nil
}

func expected(o models.TestOutcome) string {
	if o.Truth == nil {
		return "-"
	}
	return o.Truth.String()
}

// cell escapes a value for a Markdown table cell
// code renders s as an inline code span inside a table cell, using a
// backtick fence longer than any run of backticks in s.
func code(s string) string {
	s = cell(s)
	if s == "" {
		return ""
	}
	longest, run := 0, 0
	for _, r := range s {
		if r == '`' {
			run++
			longest = max(longest, run)
		} else {
			run = 0
		}
	}
	fence := strings.Repeat("`", longest+1)
	if strings.HasPrefix(s, "`") || strings.HasSuffix(s, "`") {
		return fence + " " + s + " " + fence
	}
	return fence + s + fence
}

func cell(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	return strings.ReplaceAll(s, "\n", " ")
}
