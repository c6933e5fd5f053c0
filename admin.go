package main

import (
	"context"
	"fmt"
)

// ContentReport holds one content type and all of its entries
type ContentReport struct {
	ContentType ContentType
	Entries     []Entry
}

// BulkReport is the outcome of a two-phase unpublish-then-delete operation
type BulkReport struct {
	Kind        string // "entry" or "asset"
	ContentType string

	Listed          int
	Published       int
	Unpublished     int
	UnpublishFailed int
	Deleted         int
	DeleteFailed    int
	Failures        []error
}

// Admin runs inspection and bulk-deletion commands against the remote store
type Admin struct {
	store   RemoteStore
	log     Logger
	metrics *Metrics
}

// NewAdmin creates an Admin
func NewAdmin(store RemoteStore, log Logger, metrics *Metrics) *Admin {
	return &Admin{store: store, log: log, metrics: metrics}
}

// APICheck is the outcome of a connectivity smoke test
type APICheck struct {
	Space        *Space
	ContentTypes []ContentType
}

// CheckAPI fetches the space and its content types
func (a *Admin) CheckAPI(ctx context.Context) (*APICheck, error) {
	space, err := a.store.GetSpace(ctx)
	if err != nil {
		return nil, err
	}
	a.log.Infof("✓ Connected to space %q (%s)", space.Name, space.Sys.ID)

	types, err := a.ListContentTypes(ctx)
	if err != nil {
		return nil, err
	}
	return &APICheck{Space: space, ContentTypes: types}, nil
}

// ListContentTypes returns every content type schema
func (a *Admin) ListContentTypes(ctx context.Context) ([]ContentType, error) {
	types, err := a.store.ListContentTypes(ctx)
	if err != nil {
		return nil, &AdminOpError{Kind: "content type", Op: "list", Err: err}
	}
	return types, nil
}

// FetchAllContent returns every content type together with all of its entries.
// A content type whose entries cannot be listed fails the whole fetch.
func (a *Admin) FetchAllContent(ctx context.Context) ([]ContentReport, error) {
	types, err := a.ListContentTypes(ctx)
	if err != nil {
		return nil, err
	}

	reports := make([]ContentReport, 0, len(types))
	for _, ct := range types {
		entries, err := a.store.ListEntries(ctx, ct.Sys.ID)
		if err != nil {
			return nil, &AdminOpError{Kind: "entry", Op: "list", Err: fmt.Errorf("content type %s: %w", ct.Sys.ID, err)}
		}
		a.log.Infof("Fetched %d entries of %s (%s)", len(entries), ct.Name, ct.Sys.ID)
		reports = append(reports, ContentReport{ContentType: ct, Entries: entries})
	}
	return reports, nil
}

// DeleteAllEntries unpublishes every published entry of a content type, then
// deletes every entry. Nothing is touched unless confirmer agrees; a declined
// prompt returns ErrAborted.
func (a *Admin) DeleteAllEntries(ctx context.Context, contentTypeID string, confirmer Confirmer) (*BulkReport, error) {
	ok, err := confirmer.Confirm(ctx, fmt.Sprintf("Delete ALL entries of content type %q?", contentTypeID))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrAborted
	}

	entries, err := a.store.ListEntries(ctx, contentTypeID)
	if err != nil {
		return nil, &AdminOpError{Kind: "entry", Op: "list", Err: err}
	}

	report := &BulkReport{Kind: "entry", ContentType: contentTypeID}
	items := make([]bulkItem, len(entries))
	for i := range entries {
		entry := entries[i]
		items[i] = bulkItem{
			id:        entry.Sys.ID,
			published: entry.IsPublished(),
			unpublish: func(ctx context.Context) error {
				draft, err := a.store.UnpublishEntry(ctx, &entry)
				if err == nil {
					entry = *draft
				}
				return err
			},
			remove: func(ctx context.Context) error {
				return a.store.DeleteEntry(ctx, &entry)
			},
		}
	}
	a.runTwoPhase(ctx, report, items)
	return report, nil
}

// DeleteAllAssets applies the same confirm, unpublish, delete policy to every asset
func (a *Admin) DeleteAllAssets(ctx context.Context, confirmer Confirmer) (*BulkReport, error) {
	ok, err := confirmer.Confirm(ctx, "Delete ALL assets of the space?")
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrAborted
	}

	assets, err := a.store.ListAssets(ctx)
	if err != nil {
		return nil, &AdminOpError{Kind: "asset", Op: "list", Err: err}
	}

	report := &BulkReport{Kind: "asset"}
	items := make([]bulkItem, len(assets))
	for i := range assets {
		asset := assets[i]
		items[i] = bulkItem{
			id:        asset.Sys.ID,
			published: asset.IsPublished(),
			unpublish: func(ctx context.Context) error {
				draft, err := a.store.UnpublishAsset(ctx, &asset)
				if err == nil {
					asset = *draft
				}
				return err
			},
			remove: func(ctx context.Context) error {
				return a.store.DeleteAsset(ctx, &asset)
			},
		}
	}
	a.runTwoPhase(ctx, report, items)
	return report, nil
}

type bulkItem struct {
	id        string
	published bool
	unpublish func(ctx context.Context) error
	remove    func(ctx context.Context) error
}

// runTwoPhase unpublishes all published items before deleting any item.
// Per-item failures are recorded and never stop the loop. An item that is
// already gone when deleted counts as deleted.
func (a *Admin) runTwoPhase(ctx context.Context, report *BulkReport, items []bulkItem) {
	report.Listed = len(items)
	a.log.Infof("Found %d %s items", len(items), report.Kind)

	for _, item := range items {
		if !item.published {
			continue
		}
		report.Published++
		err := item.unpublish(ctx)
		a.metrics.AdminItem(report.Kind, "unpublish", err)
		if err != nil {
			report.UnpublishFailed++
			report.Failures = append(report.Failures, &AdminOpError{Kind: report.Kind, ID: item.id, Op: "unpublish", Err: err})
			a.log.Errorf("✗ Unpublish %s %s: %v", report.Kind, item.id, err)
			continue
		}
		report.Unpublished++
		a.log.Infof("  → Unpublished %s %s", report.Kind, item.id)
	}

	for _, item := range items {
		err := item.remove(ctx)
		if IsAPIError(err, "NotFound") {
			a.log.Warningf("  → %s %s already deleted", report.Kind, item.id)
			err = nil
		}
		a.metrics.AdminItem(report.Kind, "delete", err)
		if err != nil {
			report.DeleteFailed++
			report.Failures = append(report.Failures, &AdminOpError{Kind: report.Kind, ID: item.id, Op: "delete", Err: err})
			a.log.Errorf("✗ Delete %s %s: %v", report.Kind, item.id, err)
			continue
		}
		report.Deleted++
		a.log.Infof("  → Deleted %s %s", report.Kind, item.id)
	}
}
