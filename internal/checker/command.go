package checker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// DefaultCommand runs a locally installed Nu checker.
var DefaultCommand = []string{"vnu"}

// CommandClient runs a local Nu checker process for each file.
type CommandClient struct {
	argv []string
}

// NewCommandClient creates a client that runs argv followed by the checker
// flags and the file path, e.g. ["java", "-jar", "vnu.jar"].
func NewCommandClient(argv []string) *CommandClient {
	if len(argv) == 0 {
		argv = DefaultCommand
	}
	return &CommandClient{argv: append([]string(nil), argv...)}
}

// Args returns the full argument list used to validate file
func (c *CommandClient) Args(req Request) []string {
	args := append([]string(nil), c.argv[1:]...)
	args = append(args, "--exit-zero-always", "--stdout", "--format", "json")
	if strings.HasPrefix(strings.ToUpper(req.Doctype), "HTML5") {
		args = append(args, "--html")
	}
	return append(args, req.File)
}

// Validate runs the checker on req.File and decodes its JSON output
func (c *CommandClient) Validate(ctx context.Context, req Request) (*Result, error) {
	if _, err := exec.LookPath(c.argv[0]); err != nil {
		return nil, &Error{
			File:    req.File,
			Message: fmt.Sprintf("%s not found in PATH. Please install the Nu HTML checker", c.argv[0]),
			Cause:   err,
		}
	}

	cmd := exec.CommandContext(ctx, c.argv[0], c.Args(req)...)

	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, &Error{File: req.File, Message: "checker did not finish in time", Cause: ctxErr}
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, &Error{
				File:    req.File,
				Message: fmt.Sprintf("checker exited with status %d: %s", exitErr.ExitCode(), strings.TrimSpace(stderr.String())),
				Cause:   err,
			}
		}
		return nil, &Error{File: req.File, Message: "failed to run checker", Cause: err}
	}

	var result Result
	if err := json.Unmarshal([]byte(stdout.String()), &result); err != nil {
		return nil, &Error{File: req.File, Message: "failed to decode checker output", Cause: err}
	}

	return &result, nil
}
