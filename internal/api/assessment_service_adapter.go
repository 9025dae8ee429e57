package api

import "github.com/smbevo/evolve/internal/services"

type assessmentStoreAdapter struct {
	store Store
}

func newAssessmentStoreAdapter(store Store) services.AssessmentStore {
	return &assessmentStoreAdapter{store: store}
}

func (a *assessmentStoreAdapter) GetAssessmentBySlug(slug string) *services.Assessment {
	return toServiceAssessment(a.store.GetAssessmentBySlug(slug))
}

func (a *assessmentStoreAdapter) ListSections(assessmentID string) []*services.ConfigSection {
	return toServiceSections(a.store.ListSections(assessmentID))
}

func (a *assessmentStoreAdapter) ListQuestions(sectionID string) []*services.Question {
	return toServiceQuestions(a.store.ListQuestions(sectionID))
}

func (a *assessmentStoreAdapter) ListOptions(questionID string) []*services.Option {
	return toServiceOptions(a.store.ListOptions(questionID))
}

func (a *assessmentStoreAdapter) ListResults(assessmentID string) []*services.ResultBand {
	return toServiceResults(a.store.ListResults(assessmentID))
}

// Conversions between flat store rows and the service aggregates. Shared by
// every adapter in this package.

func toServiceAssessment(a *Assessment) *services.Assessment {
	if a == nil {
		return nil
	}
	return &services.Assessment{ID: a.ID, Slug: a.Slug, Title: a.Title, Description: a.Description}
}

func toServiceSections(secs []*Section) []*services.ConfigSection {
	out := make([]*services.ConfigSection, 0, len(secs))
	for _, s := range secs {
		out = append(out, &services.ConfigSection{ID: s.ID, Title: s.Title})
	}
	return out
}

func toServiceQuestions(qs []*Question) []*services.Question {
	out := make([]*services.Question, 0, len(qs))
	for _, q := range qs {
		out = append(out, &services.Question{ID: q.ID, Key: q.Key, Prompt: q.Prompt, Type: q.Type})
	}
	return out
}

func toServiceOptions(opts []*Option) []*services.Option {
	out := make([]*services.Option, 0, len(opts))
	for _, o := range opts {
		out = append(out, &services.Option{
			ID:      o.ID,
			Label:   o.Label,
			Value:   o.Value,
			Score:   o.Score,
			Weights: o.Weights,
		})
	}
	return out
}

func toServiceResults(rs []*ResultBand) []*services.ResultBand {
	out := make([]*services.ResultBand, 0, len(rs))
	for _, r := range rs {
		out = append(out, &services.ResultBand{
			ID:       r.ID,
			Slug:     r.Slug,
			Title:    r.Title,
			Hero:     r.Hero,
			BodyMD:   r.BodyMD,
			CTALabel: r.CTALabel,
			CTAURL:   r.CTAURL,
			ScoreMin: r.ScoreMin,
			ScoreMax: r.ScoreMax,
		})
	}
	return out
}
