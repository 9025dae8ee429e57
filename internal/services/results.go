package services

import "strings"

// ResultBand is one outcome record with an inclusive score eligibility range.
type ResultBand struct {
	ID       string `json:"id"`
	Slug     string `json:"slug"`
	Title    string `json:"title"`
	Hero     string `json:"hero,omitempty"`
	BodyMD   string `json:"body_md,omitempty"`
	CTALabel string `json:"cta_label,omitempty"`
	CTAURL   string `json:"cta_url,omitempty"`
	ScoreMin int    `json:"score_min"`
	ScoreMax int    `json:"score_max"`
}

// PickResult maps a (total, segment) pair to one result band, best effort:
// the first band whose [ScoreMin, ScoreMax] contains total wins; failing
// that, the first band whose slug contains the segment; failing that, the
// first band at all. Returns nil only for an empty list. Bands may overlap
// or leave gaps; order decides.
func PickResult(results []*ResultBand, total int, segment string) *ResultBand {
	for _, r := range results {
		if r != nil && total >= r.ScoreMin && total <= r.ScoreMax {
			return r
		}
	}
	for _, r := range results {
		if r != nil && segment != "" && strings.Contains(r.Slug, segment) {
			return r
		}
	}
	for _, r := range results {
		if r != nil {
			return r
		}
	}
	return nil
}
