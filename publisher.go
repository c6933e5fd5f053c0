package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
)

// Entry field ids of the mural content type
const (
	entryFieldURL    = "url"
	entryFieldPhotos = "photos"
)

var htmlTagRegex = regexp.MustCompile(`<[a-zA-Z][^>]*>`)

// PublishResult describes what Publish did with one submission
type PublishResult struct {
	Title    string
	Slug     string
	Entry    *Entry
	Assets   []Link
	Rejected []string
	Skipped  bool
}

// Publisher turns parsed submissions into published mural entries
type Publisher struct {
	store     RemoteStore
	cache     *TitleCache
	settings  *Settings
	policy    RetryPolicy
	log       Logger
	metrics   *Metrics
	converter *md.Converter
}

// NewPublisher creates a publisher with its own title cache
func NewPublisher(store RemoteStore, settings *Settings, log Logger, metrics *Metrics) *Publisher {
	return &Publisher{
		store:     store,
		cache:     NewTitleCache(store, settings.ContentType, settings.Locale),
		settings:  settings,
		policy:    settings.RetryPolicy(),
		log:       log,
		metrics:   metrics,
		converter: md.NewConverter("", true, nil),
	}
}

// SetRetryPolicy replaces the asset processing poll policy
func (p *Publisher) SetRetryPolicy(policy RetryPolicy) {
	p.policy = policy
}

// TitleCache returns the cache consulted before every publish
func (p *Publisher) TitleCache() *TitleCache {
	return p.cache
}

// Publish uploads the submission photos, then creates and publishes its entry.
// A title already in the cache yields a skipped result and no remote calls.
// Photo failures are logged and the photo is left out; entry-level failures
// are returned as *PublishError.
func (p *Publisher) Publish(ctx context.Context, tmpl *Template, photos []string, dir string) (*PublishResult, error) {
	title := tmpl.Title()
	if title == "" {
		return nil, &PublishError{Dir: dir, Err: errors.New("title is required")}
	}

	if err := p.cache.Load(ctx); err != nil {
		return nil, &PublishError{Dir: dir, Title: title, Err: err}
	}
	p.metrics.TitleCacheSize(p.cache.Len())

	if p.cache.Has(title) {
		p.log.Infof("Skipping %q (%s): title already published", title, dir)
		return &PublishResult{Title: title, Skipped: true}, nil
	}

	result := &PublishResult{Title: title, Slug: generateSlug(title)}

	for _, name := range photos {
		link, err := p.uploadPhoto(ctx, filepath.Join(dir, name))
		if err != nil {
			p.log.Warningf("✗ Skipping photo: %v", err)
			result.Rejected = append(result.Rejected, name)
			continue
		}
		result.Assets = append(result.Assets, link)
	}

	fields := p.buildFields(tmpl, result.Slug, result.Assets)

	p.log.Infof("  → Creating entry %q with %d photos", title, len(result.Assets))
	entry, err := p.store.CreateEntry(ctx, p.settings.ContentType, fields)
	if err != nil {
		return nil, &PublishError{Dir: dir, Title: title, Err: err}
	}
	// The draft exists remotely from here on, same as titles found by Load.
	p.cache.Add(title)
	p.metrics.TitleCacheSize(p.cache.Len())

	published, err := p.store.PublishEntry(ctx, entry)
	if err != nil {
		return nil, &PublishError{Dir: dir, Title: title, Err: fmt.Errorf("entry %s created but not published: %w", entry.Sys.ID, err)}
	}
	result.Entry = published

	p.log.Infof("✓ Published %q as %s", title, published.Sys.ID)
	return result, nil
}

// uploadPhoto runs the upload → asset → process → publish sequence for one file
func (p *Publisher) uploadPhoto(ctx context.Context, path string) (Link, error) {
	photo, err := readPhoto(path, p.settings.Photos)
	if err != nil {
		p.metrics.Photo("rejected")
		return Link{}, err
	}
	if photo.Resized {
		p.log.Infof("  → Resized %s to %dpx wide", photo.FileName, p.settings.Photos.MaxWidth)
	}

	link, err := p.uploadAsset(ctx, photo)
	if err != nil {
		p.metrics.Photo("failed")
		return Link{}, &UploadError{Path: path, Err: err}
	}
	p.metrics.Photo("uploaded")
	return link, nil
}

func (p *Publisher) uploadAsset(ctx context.Context, photo *PhotoFile) (Link, error) {
	p.log.Infof("  → Uploading %s (%d bytes)", photo.FileName, len(photo.Data))
	upload, err := p.store.CreateUpload(ctx, photo.Data)
	if err != nil {
		return Link{}, err
	}

	asset, err := p.store.CreateAsset(ctx, NewAsset{
		Title:       strings.TrimSuffix(photo.FileName, filepath.Ext(photo.FileName)),
		Description: photo.Description,
		FileName:    photo.FileName,
		ContentType: photo.ContentType,
		UploadID:    upload.Sys.ID,
	})
	if err != nil {
		return Link{}, err
	}

	if err := p.store.ProcessAsset(ctx, asset); err != nil {
		return Link{}, err
	}

	var processed *Asset
	err = p.policy.Poll(ctx, func(ctx context.Context, attempt int) (bool, error) {
		current, err := p.store.GetAsset(ctx, asset.Sys.ID)
		if err != nil {
			return false, err
		}
		if current.Processed(p.settings.Locale) {
			processed = current
			return true, nil
		}
		p.log.Infof("  → Asset %s still processing (attempt %d/%d)", asset.Sys.ID, attempt, p.policy.MaxAttempts)
		return false, nil
	})
	if err != nil {
		return Link{}, fmt.Errorf("waiting for asset %s: %w", asset.Sys.ID, err)
	}

	published, err := p.store.PublishAsset(ctx, processed)
	if err != nil {
		return Link{}, err
	}
	return AssetLink(published.Sys.ID), nil
}

// buildFields assembles the localized entry fields
func (p *Publisher) buildFields(tmpl *Template, slug string, assets []Link) map[string]any {
	locale := p.settings.Locale
	fields := map[string]any{
		FieldTitle:       map[string]any{locale: tmpl.Get(FieldTitle)},
		FieldLocation:    map[string]any{locale: tmpl.Get(FieldLocation)},
		FieldDescription: map[string]any{locale: p.descriptionMarkdown(tmpl.Get(FieldDescription))},
		FieldCategory:    map[string]any{locale: tmpl.Get(FieldCategory)},
		entryFieldURL:    map[string]any{locale: slug},
	}
	if len(assets) > 0 {
		fields[entryFieldPhotos] = map[string]any{locale: assets}
	}
	return fields
}

// descriptionMarkdown converts descriptions carrying inline HTML to Markdown;
// plain text is returned untouched.
func (p *Publisher) descriptionMarkdown(description string) string {
	if !htmlTagRegex.MatchString(description) {
		return description
	}
	markdown, err := p.converter.ConvertString(description)
	if err != nil {
		p.log.Warningf("Keeping HTML description as is: %v", err)
		return description
	}
	return strings.TrimSpace(markdown)
}
