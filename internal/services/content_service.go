package services

import (
	"errors"
	"fmt"
	"sort"
)

// Content kinds the site serves phase-targeted.
const (
	KindSolution   = "solution"
	KindProduct    = "product"
	KindApp        = "app"
	KindResource   = "resource"
	KindNewsletter = "newsletter"
)

// PhaseAll disables phase filtering.
const PhaseAll = "all"

// ErrUnknownContentKind rejects list requests for kinds the site never serves.
var ErrUnknownContentKind = errors.New("unknown content kind")

// IsValidPhase reports whether p is "all" or one of the maturity phases.
func IsValidPhase(p string) bool {
	if p == PhaseAll {
		return true
	}
	for _, d := range ReservedDimensions {
		if p == d {
			return true
		}
	}
	return false
}

// Phase is one maturity stage the content is targeted at.
type Phase struct {
	ID      string `json:"id"`
	Key     string `json:"key"`
	Name    string `json:"name"`
	Tagline string `json:"tagline,omitempty"`
	Ordinal int    `json:"ordinal"`
}

// ContentEntry is one published marketing record (solution, product, app,
// resource or newsletter issue). Phases lists the stages it targets; an
// empty list means every phase.
type ContentEntry struct {
	ID        string   `json:"id"`
	Kind      string   `json:"kind"`
	Slug      string   `json:"slug"`
	Title     string   `json:"title"`
	Summary   string   `json:"summary,omitempty"`
	Phases    []string `json:"phases,omitempty"`
	CTALabel  string   `json:"cta_label,omitempty"`
	CTAURL    string   `json:"cta_url,omitempty"`
	Featured  bool     `json:"featured"`
	SortOrder int      `json:"sort_order"`
	Published bool     `json:"published"`
}

// ContentStore abstracts the content reads.
type ContentStore interface {
	ListContent(kind string) []*ContentEntry
	ListPhases() []*Phase
}

// ContentService serves published, phase-filtered content lists.
type ContentService struct {
	store ContentStore
}

// NewContentService constructs a service bound to the provided store.
func NewContentService(store ContentStore) *ContentService {
	return &ContentService{store: store}
}

// ListForPhase returns published entries of one kind visible in the given
// phase, featured first, then by sort order. Unpublished rows never leave
// the store layer.
func (s *ContentService) ListForPhase(kind, phase string) ([]*ContentEntry, error) {
	if s.store == nil {
		return nil, errors.New("content service store is nil")
	}
	switch kind {
	case KindSolution, KindProduct, KindApp, KindResource, KindNewsletter:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownContentKind, kind)
	}
	if !IsValidPhase(phase) {
		phase = PhaseAll
	}

	out := []*ContentEntry{}
	for _, e := range s.store.ListContent(kind) {
		if e == nil || !e.Published {
			continue
		}
		if phase != PhaseAll && !targetsPhase(e, phase) {
			continue
		}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Featured != out[j].Featured {
			return out[i].Featured
		}
		return out[i].SortOrder < out[j].SortOrder
	})
	return out, nil
}

// Phases lists the maturity phases in display order.
func (s *ContentService) Phases() []*Phase {
	if s.store == nil {
		return nil
	}
	phases := s.store.ListPhases()
	sort.SliceStable(phases, func(i, j int) bool { return phases[i].Ordinal < phases[j].Ordinal })
	return phases
}

func targetsPhase(e *ContentEntry, phase string) bool {
	if len(e.Phases) == 0 {
		return true
	}
	for _, p := range e.Phases {
		if p == phase {
			return true
		}
	}
	return false
}
