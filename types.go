package main

// ProcessingStatus represents the outcome status of processing a submission
type ProcessingStatus string

const (
	StatusSuccess ProcessingStatus = "success"
	StatusSkipped ProcessingStatus = "skipped"
	StatusError   ProcessingStatus = "error"
)

// ProcessingResult tracks the outcome of processing each submission directory
type ProcessingResult struct {
	Dir            string
	Title          string
	Status         ProcessingStatus
	EntryID        string
	Assets         int
	RejectedPhotos []string
	Error          error
}

// Summary aggregates the results of one walk over the submission tree
type Summary struct {
	Results   []ProcessingResult
	Published int
	Skipped   int
	Failed    int
	// Interrupted is set when cancellation stopped the walk early
	Interrupted bool
}

func (s *Summary) add(result ProcessingResult) {
	s.Results = append(s.Results, result)
	switch result.Status {
	case StatusSuccess:
		s.Published++
	case StatusSkipped:
		s.Skipped++
	case StatusError:
		s.Failed++
	}
}
