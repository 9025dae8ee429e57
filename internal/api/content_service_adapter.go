package api

import "github.com/smbevo/evolve/internal/services"

type contentStoreAdapter struct {
	store Store
}

func newContentStoreAdapter(store Store) services.ContentStore {
	return &contentStoreAdapter{store: store}
}

func (a *contentStoreAdapter) ListContent(kind string) []*services.ContentEntry {
	entries := a.store.ListContent(kind)
	out := make([]*services.ContentEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, &services.ContentEntry{
			ID:        e.ID,
			Kind:      e.Kind,
			Slug:      e.Slug,
			Title:     e.Title,
			Summary:   e.Summary,
			Phases:    e.Phases,
			CTALabel:  e.CTALabel,
			CTAURL:    e.CTAURL,
			Featured:  e.Featured,
			SortOrder: e.SortOrder,
			Published: e.Published,
		})
	}
	return out
}

func (a *contentStoreAdapter) ListPhases() []*services.Phase {
	phases := a.store.ListPhases()
	out := make([]*services.Phase, 0, len(phases))
	for _, p := range phases {
		out = append(out, &services.Phase{
			ID:      p.ID,
			Key:     p.Key,
			Name:    p.Name,
			Tagline: p.Tagline,
			Ordinal: p.Ordinal,
		})
	}
	return out
}
