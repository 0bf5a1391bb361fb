package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison/screencheck/internal/models"
)

func sampleResult() *models.RunResult {
	truth := &models.GroundTruth{
		Name:        models.Ptr("Pidgey"),
		Level:       models.Ptr(15.0),
		LevelSource: models.LevelFromDirectory,
		CombatPower: models.Ptr(500),
		HitPoints:   models.Ptr(80),
	}

	return &models.RunResult{
		RunID:     "7d1f0c2a",
		Target:    "/shots",
		StartedAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		Duration:  2 * time.Second,
		Total:     3,
		Passed:    1,
		Failed:    2,
		Status:    models.StatusFailed,
		Outcomes: []models.TestOutcome{
			{File: "/shots/Lvl 15/Pidgey - Cp 500 - Hp 80.png", Passed: true, Truth: truth, Duration: 40 * time.Millisecond},
			{File: "/shots/Pidgey - Lvl 15 - Cp 500 - Hp 80.jpg", FailureReason: "cp: expected 500, got 480 | hp ok", Truth: truth},
			{File: "/shots/holiday.png", FailureReason: "unparsable screenshot name: \"holiday.png\""},
		},
	}
}

func TestFormatFromPath(t *testing.T) {
	tests := []struct {
		path    string
		want    Format
		wantErr bool
	}{
		{path: "report.md", want: FormatMarkdown},
		{path: "out/REPORT.MARKDOWN", want: FormatMarkdown},
		{path: "report.html", want: FormatHTML},
		{path: "report.htm", want: FormatHTML},
		{path: "report.json", want: FormatJSON},
		{path: "report.txt", wantErr: true},
		{path: "report", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := FormatFromPath(tt.path)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMarkdown(t *testing.T) {
	md := string(Markdown(sampleResult()))

	assert.Contains(t, md, "# Screenshot Test Report")
	assert.Contains(t, md, "| Run | `7d1f0c2a` |")
	assert.Contains(t, md, "| Status | **FAILED** |")
	assert.Contains(t, md, "| Failed | 2 |")
	assert.Contains(t, md, "## Failures")
	assert.Contains(t, md, "| Pidgey - Lvl 15 - Cp 500 - Hp 80.jpg | name=Pidgey level=15 (directory) cp=500 hp=80 | cp: expected 500, got 480 \\| hp ok |")
	assert.Contains(t, md, "| holiday.png | - |")
	assert.Contains(t, md, "| PASS | /shots/Lvl 15/Pidgey - Cp 500 - Hp 80.png |")
	assert.Equal(t, 2, strings.Count(md, "| FAIL |"))
}

func TestMarkdownEscapesHeaderCells(t *testing.T) {
	tests := []struct {
		name   string
		target string
		want   string
	}{
		{name: "plain path", target: "/shots", want: "| Target | `/shots` |\n"},
		{name: "pipe", target: "/shots|raw", want: "| Target | `/shots\\|raw` |\n"},
		{name: "backtick", target: "/shots`x", want: "| Target | ``/shots`x`` |\n"},
		{name: "newline", target: "/shots\nnext", want: "| Target | `/shots next` |\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			md := string(Markdown(&models.RunResult{RunID: "r|1", Target: tt.target, Status: models.StatusPassed, Success: true}))
			assert.Contains(t, md, tt.want)
			assert.Contains(t, md, "| Run | `r\\|1` |\n")

			// Every header row keeps exactly three unescaped pipes
			for _, line := range strings.Split(md, "\n") {
				if strings.HasPrefix(line, "| Run ") || strings.HasPrefix(line, "| Target ") {
					assert.Equal(t, 3, strings.Count(line, "|")-strings.Count(line, "\\|"), line)
				}
			}
		})
	}
}

func TestMarkdownEmptyRun(t *testing.T) {
	md := string(Markdown(&models.RunResult{RunID: "empty", Target: "/none", Success: true, Status: models.StatusPassed}))

	assert.Contains(t, md, "No screenshots were found.")
	assert.NotContains(t, md, "## Failures")
	assert.NotContains(t, md, "## Outcomes")
}

func TestHTML(t *testing.T) {
	page, err := HTML(sampleResult())
	require.NoError(t, err)

	out := string(page)
	assert.True(t, strings.HasPrefix(out, "<!DOCTYPE html>"))
	assert.Contains(t, out, "<title>Screenshot Test Report 7d1f0c2a</title>")
	assert.Contains(t, out, "<h1>Screenshot Test Report</h1>")
	assert.Contains(t, out, "<table>")
	assert.Contains(t, out, "<strong>FAILED</strong>")
	assert.Contains(t, out, "<td>holiday.png</td>")
}

func TestJSON(t *testing.T) {
	data, err := JSON(sampleResult())
	require.NoError(t, err)

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &doc))

	assert.Equal(t, "7d1f0c2a", doc["run_id"])
	assert.Equal(t, "FAILED", doc["status"])
	assert.Equal(t, false, doc["success"])
	assert.Equal(t, float64(2000), doc["duration_ms"])

	outcomes := doc["outcomes"].([]interface{})
	require.Len(t, outcomes, 3)

	first := outcomes[0].(map[string]interface{})
	expected := first["expected"].(map[string]interface{})
	assert.Equal(t, "Pidgey", expected["name"])
	assert.Equal(t, float64(15), expected["level"])
	assert.Equal(t, "directory", expected["level_source"])
	assert.NotContains(t, first, "failure_reason")

	third := outcomes[2].(map[string]interface{})
	assert.NotContains(t, third, "expected")
}

func TestJSONEmptyOutcomesIsArray(t *testing.T) {
	data, err := JSON(&models.RunResult{Status: models.StatusPassed, Success: true})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"outcomes": []`)
}

func TestRenderUnknownFormat(t *testing.T) {
	_, err := Render(sampleResult(), Format("pdf"))
	require.Error(t, err)
}

func TestWrite(t *testing.T) {
	dir := t.TempDir()

	for _, name := range []string{"report.md", "nested/report.html", "report.json"} {
		path := filepath.Join(dir, name)
		require.NoError(t, Write(path, sampleResult()))

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), "7d1f0c2a")
	}

	err := Write(filepath.Join(dir, "report.pdf"), sampleResult())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported report extension")
}
