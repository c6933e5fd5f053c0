package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

type stubConfirmer struct {
	answer    bool
	err       error
	questions []string
}

func (s *stubConfirmer) Confirm(ctx context.Context, question string) (bool, error) {
	s.questions = append(s.questions, question)
	return s.answer, s.err
}

func TestDeleteAllEntriesUnpublishesBeforeDeleting(t *testing.T) {
	store := newFakeStore()
	store.addEntry("mural", "e1", "One", true)
	store.addEntry("mural", "e2", "Two", false)
	store.addEntry("mural", "e3", "Three", true)
	store.addEntry("mural", "e4", "Four", false)
	store.failUnpublish["e1"] = true

	var logs bytes.Buffer
	metrics := NewMetrics()
	admin := NewAdmin(store, testLogger(&logs), metrics)
	confirmer := &stubConfirmer{answer: true}

	report, err := admin.DeleteAllEntries(context.Background(), "mural", confirmer)
	if err != nil {
		t.Fatalf("DeleteAllEntries() error = %v", err)
	}

	wantCalls := []string{
		"ListEntries:mural",
		"UnpublishEntry:e1", "UnpublishEntry:e3",
		"DeleteEntry:e1", "DeleteEntry:e2", "DeleteEntry:e3", "DeleteEntry:e4",
	}
	if !reflect.DeepEqual(store.calls, wantCalls) {
		t.Errorf("calls =\n%v\nwant\n%v", store.calls, wantCalls)
	}

	want := BulkReport{Kind: "entry", ContentType: "mural", Listed: 4, Published: 2, Unpublished: 1, UnpublishFailed: 1, Deleted: 4}
	report.Failures = nil
	if !reflect.DeepEqual(*report, want) {
		t.Errorf("report = %+v, want %+v", *report, want)
	}

	if len(confirmer.questions) != 1 || !strings.Contains(confirmer.questions[0], `"mural"`) {
		t.Errorf("questions = %v", confirmer.questions)
	}
	if got := testutil.ToFloat64(metrics.adminItems.WithLabelValues("entry", "unpublish", "failed")); got != 1 {
		t.Errorf("failed unpublishes = %v, want 1", got)
	}
	if got := testutil.ToFloat64(metrics.adminItems.WithLabelValues("entry", "delete", "ok")); got != 4 {
		t.Errorf("deletes = %v, want 4", got)
	}
}

func TestDeleteAllEntriesRecordsFailures(t *testing.T) {
	store := newFakeStore()
	store.addEntry("mural", "e1", "One", true)
	store.addEntry("mural", "e2", "Two", true)
	store.failUnpublish["e1"] = true
	store.failDelete["e1"] = true

	var logs bytes.Buffer
	admin := NewAdmin(store, testLogger(&logs), nil)

	report, err := admin.DeleteAllEntries(context.Background(), "mural", &stubConfirmer{answer: true})
	if err != nil {
		t.Fatalf("DeleteAllEntries() error = %v", err)
	}
	if report.Deleted != 1 || report.DeleteFailed != 1 {
		t.Errorf("deleted=%d delete_failed=%d, want 1/1", report.Deleted, report.DeleteFailed)
	}
	if len(report.Failures) != 2 {
		t.Fatalf("failures = %v, want 2", report.Failures)
	}
	var opErr *AdminOpError
	if !errors.As(report.Failures[0], &opErr) || opErr.ID != "e1" || opErr.Op != "unpublish" {
		t.Errorf("first failure = %v", report.Failures[0])
	}
	if !strings.Contains(logs.String(), "✗ Delete entry e1") {
		t.Errorf("log missing delete failure:\n%s", logs.String())
	}
}

func TestDeleteAllEntriesDeclined(t *testing.T) {
	store := newFakeStore()
	store.addEntry("mural", "e1", "One", true)

	var logs bytes.Buffer
	admin := NewAdmin(store, testLogger(&logs), nil)

	_, err := admin.DeleteAllEntries(context.Background(), "mural", &stubConfirmer{answer: false})
	if !errors.Is(err, ErrAborted) {
		t.Fatalf("DeleteAllEntries() error = %v, want ErrAborted", err)
	}
	if len(store.calls) != 0 {
		t.Errorf("calls = %v, want none", store.calls)
	}
}

func TestDeleteAllEntriesConfirmError(t *testing.T) {
	store := newFakeStore()
	var logs bytes.Buffer
	admin := NewAdmin(store, testLogger(&logs), nil)

	boom := errors.New("no tty")
	_, err := admin.DeleteAllEntries(context.Background(), "mural", &stubConfirmer{err: boom})
	if !errors.Is(err, boom) {
		t.Fatalf("DeleteAllEntries() error = %v, want %v", err, boom)
	}
	if len(store.calls) != 0 {
		t.Errorf("calls = %v, want none", store.calls)
	}
}

func TestDeleteAllEntriesListFailure(t *testing.T) {
	store := newFakeStore()
	store.listErr = errors.New("offline")
	var logs bytes.Buffer
	admin := NewAdmin(store, testLogger(&logs), nil)

	_, err := admin.DeleteAllEntries(context.Background(), "mural", &stubConfirmer{answer: true})
	var opErr *AdminOpError
	if !errors.As(err, &opErr) || opErr.Op != "list" {
		t.Fatalf("DeleteAllEntries() error = %v, want list AdminOpError", err)
	}
	if m := store.mutations(); len(m) != 0 {
		t.Errorf("mutating calls = %v, want none", m)
	}
}

func TestDeleteAllAssets(t *testing.T) {
	store := newFakeStore()
	store.assets = []Asset{
		{Sys: Sys{ID: "a1", Version: 4, PublishedVersion: 3}},
		{Sys: Sys{ID: "a2", Version: 1}},
	}

	var logs bytes.Buffer
	admin := NewAdmin(store, testLogger(&logs), nil)

	report, err := admin.DeleteAllAssets(context.Background(), &stubConfirmer{answer: true})
	if err != nil {
		t.Fatalf("DeleteAllAssets() error = %v", err)
	}
	wantCalls := []string{"ListAssets", "UnpublishAsset:a1", "DeleteAsset:a1", "DeleteAsset:a2"}
	if !reflect.DeepEqual(store.calls, wantCalls) {
		t.Errorf("calls = %v, want %v", store.calls, wantCalls)
	}
	if report.Kind != "asset" || report.Deleted != 2 || report.Unpublished != 1 {
		t.Errorf("report = %+v", report)
	}
}

func TestDeleteAllAssetsDeclined(t *testing.T) {
	store := newFakeStore()
	store.assets = []Asset{{Sys: Sys{ID: "a1", PublishedVersion: 1}}}
	var logs bytes.Buffer
	admin := NewAdmin(store, testLogger(&logs), nil)

	_, err := admin.DeleteAllAssets(context.Background(), &stubConfirmer{answer: false})
	if !errors.Is(err, ErrAborted) {
		t.Fatalf("DeleteAllAssets() error = %v, want ErrAborted", err)
	}
	if len(store.calls) != 0 {
		t.Errorf("calls = %v, want none", store.calls)
	}
}

func TestFetchAllContent(t *testing.T) {
	store := newFakeStore()
	store.addEntry("mural", "e1", "One", true)
	store.addEntry("mural", "e2", "Two", false)

	var logs bytes.Buffer
	admin := NewAdmin(store, testLogger(&logs), nil)

	reports, err := admin.FetchAllContent(context.Background())
	if err != nil {
		t.Fatalf("FetchAllContent() error = %v", err)
	}
	if len(reports) != 1 || reports[0].ContentType.Sys.ID != "mural" || len(reports[0].Entries) != 2 {
		t.Errorf("reports = %+v", reports)
	}
	if m := store.mutations(); len(m) != 0 {
		t.Errorf("mutating calls = %v, want none", m)
	}
}

func TestListContentTypesError(t *testing.T) {
	store := newFakeStore()
	store.listErr = errors.New("offline")
	var logs bytes.Buffer
	admin := NewAdmin(store, testLogger(&logs), nil)

	_, err := admin.ListContentTypes(context.Background())
	var opErr *AdminOpError
	if !errors.As(err, &opErr) || opErr.Kind != "content type" {
		t.Fatalf("ListContentTypes() error = %v, want AdminOpError", err)
	}
}

func TestCheckAPI(t *testing.T) {
	store := newFakeStore()
	var logs bytes.Buffer
	admin := NewAdmin(store, testLogger(&logs), nil)

	check, err := admin.CheckAPI(context.Background())
	if err != nil {
		t.Fatalf("CheckAPI() error = %v", err)
	}
	if check.Space.Sys.ID != "space1" || len(check.ContentTypes) != 1 {
		t.Errorf("check = %+v", check)
	}
	if !reflect.DeepEqual(store.calls, []string{"GetSpace", "ListContentTypes"}) {
		t.Errorf("calls = %v", store.calls)
	}
}

func TestDeleteAllEntriesAlreadyGone(t *testing.T) {
	store := newFakeStore()
	store.addEntry("mural", "e1", "One", false)
	store.addEntry("mural", "e2", "Two", false)
	store.gone["e1"] = true

	var logs bytes.Buffer
	admin := NewAdmin(store, testLogger(&logs), nil)

	report, err := admin.DeleteAllEntries(context.Background(), "mural", &stubConfirmer{answer: true})
	if err != nil {
		t.Fatalf("DeleteAllEntries() error = %v", err)
	}
	if report.Deleted != 2 || report.DeleteFailed != 0 || len(report.Failures) != 0 {
		t.Errorf("report = %+v, want both counted as deleted", report)
	}
	if !strings.Contains(logs.String(), "entry e1 already deleted") {
		t.Errorf("log missing already-deleted note:\n%s", logs.String())
	}
}

func TestDeleteAllEntriesCancelledAtPrompt(t *testing.T) {
	store := newFakeStore()
	store.addEntry("mural", "e1", "One", true)

	var logs bytes.Buffer
	admin := NewAdmin(store, testLogger(&logs), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	confirmer := &stubConfirmer{err: ErrAborted}
	if _, err := admin.DeleteAllEntries(ctx, "mural", confirmer); !errors.Is(err, ErrAborted) {
		t.Fatalf("DeleteAllEntries() error = %v, want ErrAborted", err)
	}
	if len(store.calls) != 0 {
		t.Errorf("calls = %v, want none", store.calls)
	}
}

func TestBulkDeleteMetricsTextfile(t *testing.T) {
	store := newFakeStore()
	store.assets = []Asset{
		{Sys: Sys{ID: "a1", Version: 2, PublishedVersion: 1}},
		{Sys: Sys{ID: "a2", Version: 1}},
	}
	store.failDelete["a2"] = true

	var logs bytes.Buffer
	metrics := NewMetrics()
	admin := NewAdmin(store, testLogger(&logs), metrics)
	if _, err := admin.DeleteAllAssets(context.Background(), &stubConfirmer{answer: true}); err != nil {
		t.Fatalf("DeleteAllAssets() error = %v", err)
	}

	path := filepath.Join(t.TempDir(), "admin.prom")
	if err := metrics.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		`mural_admin_items_total{kind="asset",op="unpublish",status="ok"} 1`,
		`mural_admin_items_total{kind="asset",op="delete",status="ok"} 1`,
		`mural_admin_items_total{kind="asset",op="delete",status="failed"} 1`,
	} {
		if !strings.Contains(string(data), want) {
			t.Errorf("textfile missing %s:\n%s", want, data)
		}
	}
}
