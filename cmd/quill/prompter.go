package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/odvcencio/quill/pkg/fallback"
)

// stdinPrompter renders the fallback chooser as a plain line prompt. On a
// non-interactive stdin it declines immediately so scripted runs never hang.
type stdinPrompter struct {
	in  io.Reader
	out io.Writer

	// isTerminal allows tests to stub TTY detection.
	isTerminal func() bool
}

func newStdinPrompter(in io.Reader, out io.Writer) *stdinPrompter {
	p := &stdinPrompter{in: in, out: out}
	p.isTerminal = func() bool {
		file, ok := p.in.(*os.File)
		return ok && term.IsTerminal(int(file.Fd()))
	}
	return p
}

// choices maps the single-letter answers to intents.
var choices = map[string]fallback.Intent{
	"y": fallback.IntentRetryOnce,
	"a": fallback.IntentRetryAlways,
	"l": fallback.IntentRetryLater,
	"n": fallback.IntentStop,
	"u": fallback.IntentUpgrade,
	"s": fallback.IntentAuth,
}

func (p *stdinPrompter) PromptFallback(ctx context.Context, req fallback.PromptRequest) (fallback.Intent, error) {
	if !p.isTerminal() {
		return fallback.IntentNone, nil
	}

	// A successful auth switch needs no decision: report it and retry.
	if req.AutoFallback.Status == fallback.AutoSuccess {
		fmt.Fprintf(p.out, "\nSwitched to %s credentials after %s hit its limit; retrying.\n",
			req.AutoFallback.AuthType, req.FailedModel)
		return fallback.IntentRetryOnce, nil
	}

	p.renderHeader(req)

	reader := bufio.NewReader(p.in)
	type readResult struct {
		line string
		err  error
	}
	lines := make(chan readResult, 1)

	for {
		fmt.Fprint(p.out, "> ")
		go func() {
			line, err := reader.ReadString('\n')
			lines <- readResult{line: line, err: err}
		}()

		var result readResult
		select {
		case result = <-lines:
		case <-ctx.Done():
			return fallback.IntentNone, ctx.Err()
		}
		if result.err != nil {
			if result.err == io.EOF {
				return fallback.IntentNone, nil
			}
			return fallback.IntentNone, result.err
		}

		answer := strings.ToLower(strings.TrimSpace(result.line))
		if answer == "" {
			return fallback.IntentNone, nil
		}
		if intent, ok := choices[answer]; ok {
			return intent, nil
		}
		fmt.Fprintln(p.out, "unrecognized choice")
	}
}

func (p *stdinPrompter) renderHeader(req fallback.PromptRequest) {
	switch {
	case req.Failure.Kind == fallback.FailureTerminalQuota && !req.Failure.ResetAt.IsZero():
		fmt.Fprintf(p.out, "\n%s is out of quota until %s.\n",
			req.FailedModel, req.Failure.ResetAt.Format(time.Kitchen))
	case req.Failure.Kind.IsQuota():
		fmt.Fprintf(p.out, "\n%s hit a usage limit.\n", req.FailedModel)
	default:
		fmt.Fprintf(p.out, "\n%s is currently overloaded.\n", req.FailedModel)
	}

	if req.AutoFallback.Status == fallback.AutoMissingEnv {
		fmt.Fprintln(p.out, "Automatic fallback is enabled but its credentials are not set.")
	}

	if req.FallbackModel != req.FailedModel {
		fmt.Fprintf(p.out, "Retry with %s?\n", req.FallbackModel)
	} else {
		fmt.Fprintln(p.out, "Retry?")
	}
	fmt.Fprintln(p.out, "  [y] retry once  [a] always  [l] later  [n] stop  [u] upgrade plan  [s] switch auth")
}
