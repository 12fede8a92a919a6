package model

import (
	"testing"

	"github.com/odvcencio/quill/pkg/config"
	"github.com/odvcencio/quill/pkg/session"
)

func TestCatalogKnown(t *testing.T) {
	catalog := NewCatalog(config.DefaultConfig())

	tests := []struct {
		modelID string
		want    bool
	}{
		{"claude-sonnet-4-5", true},
		{"claude-haiku-4-5", true},
		{" claude-sonnet-4-5 ", true},
		{"gpt-99", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.modelID, func(t *testing.T) {
			if got := catalog.Known(tt.modelID); got != tt.want {
				t.Errorf("Known(%q) = %v, want %v", tt.modelID, got, tt.want)
			}
		})
	}
}

func TestCatalogList(t *testing.T) {
	catalog := NewCatalog(config.DefaultConfig())
	models := catalog.List()
	if len(models) == 0 {
		t.Fatal("expected non-empty catalog")
	}
	for i := 1; i < len(models); i++ {
		if models[i-1].ID >= models[i].ID {
			t.Errorf("catalog not sorted: %q before %q", models[i-1].ID, models[i].ID)
		}
	}
}

func TestActiveModelDefault(t *testing.T) {
	cfg := config.DefaultConfig()
	catalog := NewCatalog(cfg)
	state := session.NewState("test")

	if got := catalog.ActiveModel(state); got != cfg.Models.Default {
		t.Errorf("ActiveModel = %q, want default %q", got, cfg.Models.Default)
	}
	if got := catalog.ActiveModel(nil); got != cfg.Models.Default {
		t.Errorf("ActiveModel(nil) = %q, want default %q", got, cfg.Models.Default)
	}
}

func TestActiveModelHonorsOverride(t *testing.T) {
	catalog := NewCatalog(config.DefaultConfig())
	state := session.NewState("test")
	state.ActivateFallback("claude-haiku-4-5")

	if got := catalog.ActiveModel(state); got != "claude-haiku-4-5" {
		t.Errorf("ActiveModel = %q, want override", got)
	}
}
