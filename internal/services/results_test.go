package services

import "testing"

func TestPickResultBandMatch(t *testing.T) {
	results := []*ResultBand{
		{Slug: "r1", ScoreMin: 0, ScoreMax: 10},
		{Slug: "r2", ScoreMin: 5, ScoreMax: 20},
	}
	got := PickResult(results, 7, "spark")
	if got == nil || got.Slug != "r1" {
		t.Fatalf("got %+v, want r1 (first overlapping band wins)", got)
	}
	// Inclusive on both ends.
	if got := PickResult(results, 10, ""); got == nil || got.Slug != "r1" {
		t.Fatalf("got %+v, want r1 at upper bound", got)
	}
	if got := PickResult(results, 0, ""); got == nil || got.Slug != "r1" {
		t.Fatalf("got %+v, want r1 at lower bound", got)
	}
}

func TestPickResultSegmentFallback(t *testing.T) {
	results := []*ResultBand{
		{Slug: "r-spark", ScoreMin: 50, ScoreMax: 60},
		{Slug: "r-mastery", ScoreMin: 100, ScoreMax: 200},
	}
	got := PickResult(results, 7, "mastery")
	if got == nil || got.Slug != "r-mastery" {
		t.Fatalf("got %+v, want r-mastery via slug substring", got)
	}
}

func TestPickResultFirstInListFallback(t *testing.T) {
	results := []*ResultBand{
		{Slug: "alpha", ScoreMin: 50, ScoreMax: 60},
		{Slug: "beta", ScoreMin: 70, ScoreMax: 80},
	}
	got := PickResult(results, 7, "mastery")
	if got == nil || got.Slug != "alpha" {
		t.Fatalf("got %+v, want first band as last resort", got)
	}
}

func TestPickResultEmptyList(t *testing.T) {
	if got := PickResult(nil, 7, "spark"); got != nil {
		t.Fatalf("got %+v, want nil for empty list", got)
	}
	if got := PickResult([]*ResultBand{}, 7, "spark"); got != nil {
		t.Fatalf("got %+v, want nil for empty list", got)
	}
}

func TestPickResultTolerantOfNilEntries(t *testing.T) {
	results := []*ResultBand{nil, {Slug: "r1", ScoreMin: 0, ScoreMax: 10}}
	if got := PickResult(results, 3, ""); got == nil || got.Slug != "r1" {
		t.Fatalf("got %+v, want r1", got)
	}
}
