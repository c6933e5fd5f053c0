package main

import (
	"context"
	"fmt"
)

// TitleCache is the set of mural titles already present in the remote store.
// It is loaded once from a full listing and grown after every publish.
// The check is advisory: nothing stops another writer from creating a
// same-titled entry between Load and a publish.
type TitleCache struct {
	store       RemoteStore
	contentType string
	locale      string

	titles map[string]struct{}
	loaded bool
}

// NewTitleCache creates an empty, unloaded cache
func NewTitleCache(store RemoteStore, contentType, locale string) *TitleCache {
	return &TitleCache{
		store:       store,
		contentType: contentType,
		locale:      locale,
		titles:      make(map[string]struct{}),
	}
}

// Load fetches every entry of the content type and records its title.
// After one successful load further calls return immediately.
func (c *TitleCache) Load(ctx context.Context) error {
	if c.loaded {
		return nil
	}

	entries, err := c.store.ListEntries(ctx, c.contentType)
	if err != nil {
		return fmt.Errorf("loading existing titles: %w", err)
	}
	for i := range entries {
		if title := entries[i].FieldString(FieldTitle, c.locale); title != "" {
			c.titles[title] = struct{}{}
		}
	}
	c.loaded = true
	return nil
}

// Has reports whether the exact title is known
func (c *TitleCache) Has(title string) bool {
	_, ok := c.titles[title]
	return ok
}

// Add records a newly published title
func (c *TitleCache) Add(title string) {
	c.titles[title] = struct{}{}
}

// Len returns the number of known titles
func (c *TitleCache) Len() int {
	return len(c.titles)
}
