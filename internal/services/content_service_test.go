package services

import (
	"errors"
	"testing"
)

type stubContentStore struct {
	entries map[string][]*ContentEntry
	phases  []*Phase
}

func (s *stubContentStore) ListContent(kind string) []*ContentEntry {
	return s.entries[kind]
}

func (s *stubContentStore) ListPhases() []*Phase {
	return s.phases
}

func TestListForPhaseFiltersAndSorts(t *testing.T) {
	store := &stubContentStore{entries: map[string][]*ContentEntry{
		KindResource: {
			{ID: "1", Kind: KindResource, Slug: "draft", Phases: []string{"spark"}, Published: false},
			{ID: "2", Kind: KindResource, Slug: "spark-guide", Phases: []string{"spark"}, Published: true, SortOrder: 2},
			{ID: "3", Kind: KindResource, Slug: "everyone", Published: true, SortOrder: 5},
			{ID: "4", Kind: KindResource, Slug: "mastery-only", Phases: []string{"mastery"}, Published: true},
			{ID: "5", Kind: KindResource, Slug: "featured-spark", Phases: []string{"spark", "momentum"}, Published: true, Featured: true, SortOrder: 9},
		},
	}}
	svc := NewContentService(store)

	got, err := svc.ListForPhase(KindResource, "spark")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	slugs := make([]string, 0, len(got))
	for _, e := range got {
		slugs = append(slugs, e.Slug)
	}
	want := []string{"featured-spark", "spark-guide", "everyone"}
	if len(slugs) != len(want) {
		t.Fatalf("slugs=%v, want %v", slugs, want)
	}
	for i := range want {
		if slugs[i] != want[i] {
			t.Fatalf("slugs=%v, want %v", slugs, want)
		}
	}
}

func TestListForPhaseAllAndInvalidPhase(t *testing.T) {
	store := &stubContentStore{entries: map[string][]*ContentEntry{
		KindApp: {
			{ID: "1", Kind: KindApp, Slug: "a", Phases: []string{"mastery"}, Published: true},
			{ID: "2", Kind: KindApp, Slug: "b", Phases: []string{"spark"}, Published: true},
		},
	}}
	svc := NewContentService(store)

	all, err := svc.ListForPhase(KindApp, PhaseAll)
	if err != nil || len(all) != 2 {
		t.Fatalf("all: got %d err=%v, want 2", len(all), err)
	}
	// Unknown phases fall back to all rather than erroring.
	fallback, err := svc.ListForPhase(KindApp, "bogus")
	if err != nil || len(fallback) != 2 {
		t.Fatalf("fallback: got %d err=%v, want 2", len(fallback), err)
	}
}

func TestListForPhaseUnknownKind(t *testing.T) {
	svc := NewContentService(&stubContentStore{})
	if _, err := svc.ListForPhase("webinar", "spark"); !errors.Is(err, ErrUnknownContentKind) {
		t.Fatalf("err=%v, want ErrUnknownContentKind", err)
	}
}

func TestPhasesOrdered(t *testing.T) {
	store := &stubContentStore{phases: []*Phase{
		{Key: "mastery", Ordinal: 3},
		{Key: "spark", Ordinal: 1},
		{Key: "momentum", Ordinal: 2},
	}}
	got := NewContentService(store).Phases()
	if len(got) != 3 || got[0].Key != "spark" || got[2].Key != "mastery" {
		t.Fatalf("phases out of order: %+v", got)
	}
}

func TestIsValidPhase(t *testing.T) {
	for _, p := range []string{"all", "spark", "momentum", "mastery"} {
		if !IsValidPhase(p) {
			t.Fatalf("%q rejected", p)
		}
	}
	for _, p := range []string{"", "Spark", "beginner"} {
		if IsValidPhase(p) {
			t.Fatalf("%q accepted", p)
		}
	}
}
