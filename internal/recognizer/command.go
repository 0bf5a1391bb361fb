package recognizer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/harrison/screencheck/internal/models"
)

// CommandRecognizer runs an external recognizer program for every image.
// The image is written to the program's standard input and the program
// prints a JSON object on standard output:
//
//	{"name": "Pidgey", "candy_name": "Pidgey", "level": 20, "cp": 500, "hp": 80}
//
// Fields the program could not determine are omitted. A program that fails
// to process the image exits with a non-zero status, or prints
// {"error": "message"}.
type CommandRecognizer struct {
	Path    string
	Args    []string
	Timeout time.Duration // Per image limit, 0 for none
}

// commandOutput is the JSON document printed by the recognizer program
type commandOutput struct {
	models.RecognitionResult
	Error string `json:"error"`
}

// NewCommandRecognizer creates a CommandRecognizer from a command line such
// as "recognize --player-level 20". Arguments are split on white space.
func NewCommandRecognizer(commandLine string) (*CommandRecognizer, error) {
	fields := strings.Fields(commandLine)
	if len(fields) == 0 {
		return nil, errors.New("recognizer command is empty")
	}

	return &CommandRecognizer{
		Path: fields[0],
		Args: fields[1:],
	}, nil
}

// Evaluate runs the recognizer program on image
func (r *CommandRecognizer) Evaluate(ctx context.Context, image []byte) (*models.RecognitionResult, error) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, r.Path, r.Args...)
	cmd.Stdin = bytes.NewReader(image)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, NewRecognitionError(fmt.Sprintf("recognizer timed out after %s", r.Timeout), ctx.Err())
		}
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = fmt.Sprintf("recognizer %s failed", r.Path)
		}
		return nil, NewRecognitionError(msg, err)
	}

	return ParseOutput(stdout.Bytes())
}

// ParseOutput decodes the JSON document printed by a recognizer program
func ParseOutput(output []byte) (*models.RecognitionResult, error) {
	trimmed := bytes.TrimSpace(output)
	if len(trimmed) == 0 {
		return nil, NewRecognitionError("recognizer produced no output", nil)
	}

	var out commandOutput
	if err := json.Unmarshal(trimmed, &out); err != nil {
		return nil, NewRecognitionError("invalid recognizer output", err)
	}
	if out.Error != "" {
		return nil, NewRecognitionError(out.Error, nil)
	}

	result := out.RecognitionResult
	return &result, nil
}
