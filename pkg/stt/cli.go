package stt

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
)

// CLI transcribes by running a whisper.cpp executable on the file.
type CLI struct {
	ExecPath  string
	ModelPath string
	Language  string

	// command builds the process; tests swap it out.
	command func(ctx context.Context, name string, args ...string) *exec.Cmd
}

func NewCLI(execPath, modelPath, language string) *CLI {
	if language == "" {
		language = "fr"
	}
	return &CLI{
		ExecPath:  execPath,
		ModelPath: modelPath,
		Language:  language,
		command:   exec.CommandContext,
	}
}

// timestamps matches the "[00:00:00.000 --> 00:00:02.000]" prefix whisper-cli
// prints unless -nt is given.
var timestamps = regexp.MustCompile(`^\[[^\]]*-->[^\]]*\]\s*`)

func (c *CLI) Transcribe(ctx context.Context, path string) (string, error) {
	cmd := c.command(ctx, c.ExecPath, c.args(path)...)

	var out, errOut bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errOut

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(errOut.String())
		if msg != "" {
			return "", fmt.Errorf("%s: %w: %s", c.ExecPath, err, msg)
		}
		return "", fmt.Errorf("%s: %w", c.ExecPath, err)
	}

	var lines []string
	for _, line := range strings.Split(out.String(), "\n") {
		line = strings.TrimSpace(timestamps.ReplaceAllString(strings.TrimSpace(line), ""))
		if line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, " "), nil
}

func (c *CLI) args(path string) []string {
	return []string{"-m", c.ModelPath, "-l", c.Language, "-nt", "-f", path}
}
