package tsemitter

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/kballard/go-shellquote"
)

// Format tidies rendered TypeScript without touching tokens: it trims
// trailing whitespace, collapses blank-line runs, removes blank lines just
// inside brackets, folds an empty "{" / "}" pair onto one line and ends the
// text with a single newline.
func Format(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, " \t")
		trimmed := strings.TrimSpace(line)
		last := ""
		if len(out) > 0 {
			last = out[len(out)-1]
		}

		if trimmed == "" {
			if len(out) == 0 || last == "" || opensBlock(last) {
				continue
			}
			out = append(out, "")
			continue
		}
		if closesBlock(trimmed) {
			for len(out) > 0 && out[len(out)-1] == "" {
				out = out[:len(out)-1]
			}
			if n := len(out); n > 0 && strings.HasSuffix(out[n-1], "{") && strings.HasPrefix(trimmed, "}") {
				out[n-1] += trimmed
				continue
			}
		}
		out = append(out, line)
	}
	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}
	return strings.Join(out, "\n") + "\n"
}

func opensBlock(line string) bool {
	return strings.HasSuffix(line, "{") || strings.HasSuffix(line, "[") || strings.HasSuffix(line, "(")
}

func closesBlock(trimmed string) bool {
	return strings.HasPrefix(trimmed, "}") || strings.HasPrefix(trimmed, "]") || strings.HasPrefix(trimmed, ")")
}

// External pipes text through a user-supplied formatter command (for example
// "npx prettier --parser typescript") and returns its stdout.
func External(ctx context.Context, command, text string) (string, error) {
	args, err := shellquote.Split(command)
	if err != nil {
		return "", fmt.Errorf("tsemitter: parse format command: %w", err)
	}
	if len(args) == 0 {
		return text, nil
	}
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Stdin = strings.NewReader(text)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("tsemitter: format command %q: %w: %s", args[0], err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}
