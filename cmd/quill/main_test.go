package main

import (
	"strings"
	"testing"

	"github.com/odvcencio/quill/pkg/logging"
)

func TestResolveSessionID(t *testing.T) {
	workspace := resolveSessionID("/home/dev/projects/quill", "")
	if !strings.HasPrefix(workspace, "quill-") {
		t.Errorf("resolveSessionID() = %q, want workspace-derived ID", workspace)
	}
	if again := resolveSessionID("/home/dev/projects/quill", ""); again != workspace {
		t.Errorf("workspace session ID not stable: %q vs %q", workspace, again)
	}

	named := resolveSessionID("/home/dev/projects/quill", "Bug Hunt")
	if !strings.HasPrefix(named, "bug-hunt-") {
		t.Errorf("resolveSessionID() = %q, want sanitized name prefix", named)
	}
	if again := resolveSessionID("/home/dev/projects/quill", "Bug Hunt"); again == named {
		t.Error("named sessions must get unique IDs across runs")
	}
}

func TestReleaseOnInitErrorClosesLogger(t *testing.T) {
	logger, err := logging.NewLogger(t.TempDir(), "test-session")
	if err != nil {
		t.Fatalf("NewLogger() error = %v", err)
	}

	a := &app{logger: logger}
	a.releaseOnInitError()

	if a.logger != nil {
		t.Error("releaseOnInitError() left the logger attached")
	}
	// The underlying files must be closed, not just dereferenced.
	if err := logger.Info(logging.CategorySession, "session.test", "write after release", nil); err == nil {
		t.Error("logger still writable after releaseOnInitError()")
	}
}
