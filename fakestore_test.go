package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"testing"
	"time"
)

// fakeStore is an in-memory RemoteStore recording every call in order
type fakeStore struct {
	calls []string

	entries map[string][]Entry // by content type
	assets  []Asset

	created        []map[string]any
	createdAssets  []NewAsset
	uploads        [][]byte
	nextID         int
	polls          map[string]int
	processAfter   int  // GetAsset polls before an asset reports processed
	neverProcess   bool // assets never finish processing
	createEntryErr error
	listErr        error

	failUnpublish map[string]bool
	failDelete    map[string]bool
	gone          map[string]bool // deleted by someone else
	failUpload    map[string]bool // by asset file name
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		entries:       make(map[string][]Entry),
		polls:         make(map[string]int),
		failUnpublish: make(map[string]bool),
		failDelete:    make(map[string]bool),
		gone:          make(map[string]bool),
		failUpload:    make(map[string]bool),
	}
}

func (f *fakeStore) record(format string, args ...any) {
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
}

func (f *fakeStore) id(prefix string) string {
	f.nextID++
	return fmt.Sprintf("%s%d", prefix, f.nextID)
}

// addEntry seeds an existing entry with a title
func (f *fakeStore) addEntry(contentType, id, title string, published bool) {
	e := Entry{
		Fields: map[string]map[string]any{FieldTitle: {"en-US": title}},
		Sys:    Sys{ID: id, Type: "Entry", Version: 3},
	}
	if published {
		e.Sys.PublishedVersion = 2
	}
	f.entries[contentType] = append(f.entries[contentType], e)
}

// mutations returns the recorded calls that change remote state
func (f *fakeStore) mutations() []string {
	var out []string
	for _, c := range f.calls {
		switch {
		case strings.HasPrefix(c, "Create"), strings.HasPrefix(c, "Publish"), strings.HasPrefix(c, "Unpublish"),
			strings.HasPrefix(c, "Delete"), strings.HasPrefix(c, "Process"):
			out = append(out, c)
		}
	}
	return out
}

func (f *fakeStore) GetSpace(ctx context.Context) (*Space, error) {
	f.record("GetSpace")
	return &Space{Name: "Murals", Sys: Sys{ID: "space1"}}, nil
}

func (f *fakeStore) ListContentTypes(ctx context.Context) ([]ContentType, error) {
	f.record("ListContentTypes")
	if f.listErr != nil {
		return nil, f.listErr
	}
	return []ContentType{{
		Name:   "Mural",
		Fields: []Field{{ID: "title", Name: "Title", Type: "Symbol"}},
		Sys:    Sys{ID: "mural"},
	}}, nil
}

func (f *fakeStore) ListEntries(ctx context.Context, contentTypeID string) ([]Entry, error) {
	f.record("ListEntries:%s", contentTypeID)
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]Entry, len(f.entries[contentTypeID]))
	copy(out, f.entries[contentTypeID])
	return out, nil
}

func (f *fakeStore) CreateEntry(ctx context.Context, contentTypeID string, fields map[string]any) (*Entry, error) {
	f.record("CreateEntry:%s", contentTypeID)
	if f.createEntryErr != nil {
		return nil, f.createEntryErr
	}
	f.created = append(f.created, fields)
	return &Entry{Sys: Sys{ID: f.id("entry"), Version: 1}}, nil
}

func (f *fakeStore) PublishEntry(ctx context.Context, entry *Entry) (*Entry, error) {
	f.record("PublishEntry:%s", entry.Sys.ID)
	published := *entry
	published.Sys.Version++
	published.Sys.PublishedVersion = entry.Sys.Version
	return &published, nil
}

func (f *fakeStore) UnpublishEntry(ctx context.Context, entry *Entry) (*Entry, error) {
	f.record("UnpublishEntry:%s", entry.Sys.ID)
	if f.failUnpublish[entry.Sys.ID] {
		return nil, errors.New("unpublish refused")
	}
	draft := *entry
	draft.Sys.Version++
	draft.Sys.PublishedVersion = 0
	return &draft, nil
}

func (f *fakeStore) DeleteEntry(ctx context.Context, entry *Entry) error {
	f.record("DeleteEntry:%s", entry.Sys.ID)
	if f.gone[entry.Sys.ID] {
		return &APIError{StatusCode: 404, ID: "NotFound", Message: "The resource could not be found."}
	}
	if f.failDelete[entry.Sys.ID] {
		return errors.New("delete refused")
	}
	return nil
}

func (f *fakeStore) CreateUpload(ctx context.Context, data []byte) (*Upload, error) {
	f.record("CreateUpload")
	f.uploads = append(f.uploads, data)
	return &Upload{Sys: Sys{ID: f.id("upload")}}, nil
}

func (f *fakeStore) CreateAsset(ctx context.Context, asset NewAsset) (*Asset, error) {
	f.record("CreateAsset:%s", asset.FileName)
	if f.failUpload[asset.FileName] {
		return nil, errors.New("asset rejected")
	}
	f.createdAssets = append(f.createdAssets, asset)
	return &Asset{
		Fields: AssetFields{File: map[string]AssetFile{"en-US": {FileName: asset.FileName, ContentType: asset.ContentType}}},
		Sys:    Sys{ID: f.id("asset"), Version: 1},
	}, nil
}

func (f *fakeStore) ProcessAsset(ctx context.Context, asset *Asset) error {
	f.record("ProcessAsset:%s", asset.Sys.ID)
	return nil
}

func (f *fakeStore) GetAsset(ctx context.Context, id string) (*Asset, error) {
	f.record("GetAsset:%s", id)
	f.polls[id]++
	asset := &Asset{
		Fields: AssetFields{File: map[string]AssetFile{"en-US": {}}},
		Sys:    Sys{ID: id, Version: 2},
	}
	if !f.neverProcess && f.polls[id] > f.processAfter {
		asset.Fields.File["en-US"] = AssetFile{URL: "//images.example/" + id}
	}
	return asset, nil
}

func (f *fakeStore) PublishAsset(ctx context.Context, asset *Asset) (*Asset, error) {
	f.record("PublishAsset:%s", asset.Sys.ID)
	published := *asset
	published.Sys.PublishedVersion = asset.Sys.Version
	return &published, nil
}

func (f *fakeStore) ListAssets(ctx context.Context) ([]Asset, error) {
	f.record("ListAssets")
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]Asset, len(f.assets))
	copy(out, f.assets)
	return out, nil
}

func (f *fakeStore) UnpublishAsset(ctx context.Context, asset *Asset) (*Asset, error) {
	f.record("UnpublishAsset:%s", asset.Sys.ID)
	if f.failUnpublish[asset.Sys.ID] {
		return nil, errors.New("unpublish refused")
	}
	draft := *asset
	draft.Sys.PublishedVersion = 0
	return &draft, nil
}

func (f *fakeStore) DeleteAsset(ctx context.Context, asset *Asset) error {
	f.record("DeleteAsset:%s", asset.Sys.ID)
	if f.gone[asset.Sys.ID] {
		return &APIError{StatusCode: 404, ID: "NotFound", Message: "The resource could not be found."}
	}
	if f.failDelete[asset.Sys.ID] {
		return errors.New("delete refused")
	}
	return nil
}

// testSettings returns validated default settings
func testSettings(t *testing.T) *Settings {
	t.Helper()
	settings, err := loadSettings("does-not-exist.yaml")
	if err != nil {
		t.Fatalf("loadSettings() error = %v", err)
	}
	if err := settings.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	return settings
}

// testLogger returns a Logger writing into buf
func testLogger(buf *bytes.Buffer) Logger {
	return newStdLogger(log.New(buf, "", 0))
}

// instantPolicy polls without waiting
func instantPolicy(attempts int) RetryPolicy {
	return RetryPolicy{
		MaxAttempts: attempts,
		Backoff:     func(int) time.Duration { return 0 },
	}
}

// stdLogger adapts a *log.Logger to Logger
type stdLogger struct {
	l *log.Logger
}

func newStdLogger(l *log.Logger) Logger {
	if l == nil {
		l = log.Default()
	}
	return &stdLogger{l: l}
}

func (s *stdLogger) Infof(format string, args ...interface{}) {
	s.l.Printf("INFO "+format, args...)
}

func (s *stdLogger) Warningf(format string, args ...interface{}) {
	s.l.Printf("WARN "+format, args...)
}

func (s *stdLogger) Errorf(format string, args ...interface{}) {
	s.l.Printf("ERROR "+format, args...)
}
