package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SubmissionPublisher publishes one parsed submission
type SubmissionPublisher interface {
	Publish(ctx context.Context, tmpl *Template, photos []string, dir string) (*PublishResult, error)
}

// SubmissionProcessor walks a tree of submission directories and publishes each one
type SubmissionProcessor struct {
	publisher SubmissionPublisher
	log       Logger
	metrics   *Metrics
	dryRun    bool
	strict    bool
}

// strictFields must all be present and non-empty in strict mode
var strictFields = []string{FieldTitle, FieldLocation, FieldDescription, FieldCategory}

// NewSubmissionProcessor creates a processor publishing through publisher
func NewSubmissionProcessor(publisher SubmissionPublisher, log Logger, metrics *Metrics) *SubmissionProcessor {
	return &SubmissionProcessor{
		publisher: publisher,
		log:       log,
		metrics:   metrics,
	}
}

// SetDryRun makes the processor parse and scan without publishing
func (sp *SubmissionProcessor) SetDryRun(dryRun bool) {
	sp.dryRun = dryRun
}

// SetStrict makes unmatched template lines and missing fields fail the submission
func (sp *SubmissionProcessor) SetStrict(strict bool) {
	sp.strict = strict
}

// ProcessDirectory processes every immediate subdirectory of root once, in
// listing order. Failures are contained to their submission; only an
// unlistable root is returned as an error. Cancelling ctx stops the walk
// before the next submission.
func (sp *SubmissionProcessor) ProcessDirectory(ctx context.Context, root string) (*Summary, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, &ScanError{Path: root, Err: err}
	}

	var dirs []string
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		dirs = append(dirs, filepath.Join(root, entry.Name()))
	}

	summary := &Summary{Results: make([]ProcessingResult, 0, len(dirs))}
	sp.log.Infof("Processing %d submissions in %s...", len(dirs), root)

	for i, dir := range dirs {
		select {
		case <-ctx.Done():
			sp.log.Warningf("Interrupted: %d of %d submissions not started", len(dirs)-i, len(dirs))
			summary.Interrupted = true
			return summary, nil
		default:
		}

		sp.log.Infof("[%d/%d] Processing: %s", i+1, len(dirs), dir)
		result := sp.ProcessSubmission(ctx, dir)
		summary.add(result)
		sp.metrics.Submission(result.Status)

		switch result.Status {
		case StatusSuccess:
			sp.log.Infof("✓ %s: %q published as %s with %d photos", dir, result.Title, result.EntryID, result.Assets)
		case StatusSkipped:
			sp.log.Infof("- %s: %q skipped", dir, result.Title)
		case StatusError:
			sp.log.Errorf("✗ Failed %s: %v", dir, result.Error)
		}
	}

	return summary, nil
}

// ProcessSubmission parses, scans and publishes one submission directory.
// Once publishing starts it is not interrupted by ctx cancellation.
func (sp *SubmissionProcessor) ProcessSubmission(ctx context.Context, dir string) ProcessingResult {
	path := filepath.Join(dir, TemplateFileName)
	tmpl, err := ParseTemplate(path)
	if err != nil {
		return ProcessingResult{Dir: dir, Status: StatusError, Error: err}
	}
	if sp.strict {
		if err := checkStrict(tmpl); err != nil {
			return ProcessingResult{Dir: dir, Title: tmpl.Title(), Status: StatusError, Error: &ParseError{Path: path, Err: err}}
		}
	}
	for _, line := range tmpl.Skipped {
		sp.log.Warningf("  %s:%d: ignoring unmatched line %q", path, line.Number, line.Text)
	}

	photos, err := ScanPhotos(dir)
	if err != nil {
		return ProcessingResult{Dir: dir, Title: tmpl.Title(), Status: StatusError, Error: err}
	}

	if sp.dryRun {
		sp.log.Infof("  → Dry run: would publish %q with fields %v and photos %v", tmpl.Title(), tmpl.Names(), photos)
		return ProcessingResult{Dir: dir, Title: tmpl.Title(), Status: StatusSkipped}
	}

	res, err := sp.publisher.Publish(context.WithoutCancel(ctx), tmpl, photos, dir)
	if err != nil {
		return ProcessingResult{Dir: dir, Title: tmpl.Title(), Status: StatusError, Error: err}
	}
	if res.Skipped {
		return ProcessingResult{Dir: dir, Title: res.Title, Status: StatusSkipped}
	}

	result := ProcessingResult{
		Dir:            dir,
		Title:          res.Title,
		Status:         StatusSuccess,
		Assets:         len(res.Assets),
		RejectedPhotos: res.Rejected,
	}
	if res.Entry != nil {
		result.EntryID = res.Entry.Sys.ID
	}
	return result
}

func checkStrict(tmpl *Template) error {
	if err := tmpl.Strict(); err != nil {
		return err
	}
	if missing := tmpl.Missing(strictFields...); len(missing) > 0 {
		return fmt.Errorf("missing fields: %v", missing)
	}
	return nil
}
