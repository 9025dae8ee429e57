package services

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrSubmissionNotFound is returned for unknown submission ids.
	ErrSubmissionNotFound = errors.New("submission not found")
	// ErrResultNotFound covers unknown or mismatched result slugs.
	ErrResultNotFound = errors.New("result not found")
)

// FunnelEvent is one telemetry row in the lead funnel.
type FunnelEvent struct {
	ID           string            `json:"id"`
	SubmissionID string            `json:"submission_id,omitempty"`
	Event        string            `json:"event"`
	Meta         map[string]string `json:"meta,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
}

// ResultLookupStore abstracts the reads behind the result page plus the
// funnel event sink.
type ResultLookupStore interface {
	GetSubmission(id string) *Submission
	ListResults(assessmentID string) []*ResultBand
	AddFunnelEvent(e *FunnelEvent) error
}

// ResultService resolves a persisted submission together with its matched
// result band for display.
type ResultService struct {
	store       ResultLookupStore
	now         func() time.Time
	idGenerator func() string
}

// NewResultService constructs a service bound to the provided store.
func NewResultService(store ResultLookupStore) *ResultService {
	return &ResultService{
		store:       store,
		now:         func() time.Time { return time.Now().UTC() },
		idGenerator: func() string { return strings.ReplaceAll(uuid.NewString(), "-", "")[:12] },
	}
}

// GetSubmissionResult re-fetches the persisted submission and the band with
// the given slug within the submission's assessment. A mismatched pair is a
// not-found outcome, never a panic. A successful lookup logs a result_view
// funnel event; telemetry failures are swallowed.
func (s *ResultService) GetSubmissionResult(submissionID, resultSlug string) (*Submission, *ResultBand, error) {
	if s.store == nil {
		return nil, nil, errors.New("result service store is nil")
	}
	if submissionID == "" {
		return nil, nil, ErrSubmissionNotFound
	}
	sub := s.store.GetSubmission(submissionID)
	if sub == nil {
		return nil, nil, ErrSubmissionNotFound
	}
	var band *ResultBand
	for _, r := range s.store.ListResults(sub.AssessmentID) {
		if r != nil && r.Slug == resultSlug {
			band = r
			break
		}
	}
	if band == nil {
		return nil, nil, ErrResultNotFound
	}

	s.RecordEvent(sub.ID, "result_view", map[string]string{"result_slug": resultSlug})

	return sub, band, nil
}

// RecordEvent writes one funnel event. It never fails the caller: telemetry
// is fire and forget, errors only reach the server log.
func (s *ResultService) RecordEvent(submissionID, event string, meta map[string]string) {
	if s.store == nil || strings.TrimSpace(event) == "" {
		return
	}
	e := &FunnelEvent{
		ID:           s.idGenerator(),
		SubmissionID: submissionID,
		Event:        event,
		Meta:         meta,
		CreatedAt:    s.now(),
	}
	if err := s.store.AddFunnelEvent(e); err != nil {
		log.Printf("funnel event %s: %v", event, err)
	}
}
