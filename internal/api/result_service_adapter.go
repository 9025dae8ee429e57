package api

import "github.com/smbevo/evolve/internal/services"

type resultStoreAdapter struct {
	store Store
}

func newResultStoreAdapter(store Store) services.ResultLookupStore {
	return &resultStoreAdapter{store: store}
}

func (a *resultStoreAdapter) GetSubmission(id string) *services.Submission {
	return toServiceSubmission(a.store.GetSubmission(id))
}

func (a *resultStoreAdapter) ListResults(assessmentID string) []*services.ResultBand {
	return toServiceResults(a.store.ListResults(assessmentID))
}

func (a *resultStoreAdapter) AddFunnelEvent(e *services.FunnelEvent) error {
	if e == nil {
		return nil
	}
	return a.store.AddFunnelEvent(&FunnelEvent{
		ID:           e.ID,
		SubmissionID: e.SubmissionID,
		Event:        e.Event,
		Meta:         e.Meta,
		CreatedAt:    e.CreatedAt,
	})
}
