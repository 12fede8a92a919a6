package model

import (
	"sort"
	"strings"

	"github.com/odvcencio/quill/pkg/config"
	"github.com/odvcencio/quill/pkg/session"
)

// Info describes a known model.
type Info struct {
	ID            string
	DisplayName   string
	ContextLength int
}

// builtinCatalog lists the models Quill knows how to talk to. Config may
// narrow this via models.curated but never widen it.
var builtinCatalog = []Info{
	{ID: "claude-opus-4-1", DisplayName: "Opus 4.1", ContextLength: 200_000},
	{ID: "claude-sonnet-4-5", DisplayName: "Sonnet 4.5", ContextLength: 200_000},
	{ID: "claude-haiku-4-5", DisplayName: "Haiku 4.5", ContextLength: 200_000},
}

// Catalog resolves model IDs and the session's active model.
type Catalog struct {
	config *config.Config
	byID   map[string]Info
}

// NewCatalog creates a catalog from configuration.
func NewCatalog(cfg *config.Config) *Catalog {
	byID := make(map[string]Info, len(builtinCatalog))
	for _, info := range builtinCatalog {
		byID[info.ID] = info
	}
	return &Catalog{config: cfg, byID: byID}
}

// Known reports whether the model ID is in the catalog.
func (c *Catalog) Known(modelID string) bool {
	_, ok := c.byID[strings.TrimSpace(modelID)]
	return ok
}

// GetInfo returns metadata for a model.
func (c *Catalog) GetInfo(modelID string) (Info, bool) {
	info, ok := c.byID[strings.TrimSpace(modelID)]
	return info, ok
}

// List returns all known models sorted by ID.
func (c *Catalog) List() []Info {
	models := make([]Info, 0, len(c.byID))
	for _, info := range c.byID {
		models = append(models, info)
	}
	sort.Slice(models, func(i, j int) bool { return models[i].ID < models[j].ID })
	return models
}

// ActiveModel returns the model the next request should target: the session
// override when fallback mode set one, otherwise the configured default.
func (c *Catalog) ActiveModel(state *session.State) string {
	if state != nil {
		if override, ok := state.ActiveModelOverride(); ok {
			return override
		}
	}
	return c.config.Models.Default
}
