package services

import (
	"bytes"
	"encoding/csv"
	"strconv"
	"time"
)

// ExportSubmissionsCSV renders submissions into the lead-handoff CSV the
// marketing team imports downstream. Rows come out in the order given.
func ExportSubmissionsCSV(subs []*Submission) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	_ = w.Write([]string{
		"submission_id", "created_at", "email", "first_name", "last_name",
		"company", "phone", "score", "segment", "result_slug", "consent",
		"utm_source", "utm_medium", "utm_campaign",
	})
	for _, s := range subs {
		if s == nil {
			continue
		}
		rec := []string{
			s.ID,
			s.CreatedAt.UTC().Format(time.RFC3339),
			s.Email,
			s.FirstName,
			s.LastName,
			s.Company,
			s.Phone,
			strconv.Itoa(s.Score),
			s.Segment,
			s.ResultSlug,
			strconv.FormatBool(s.Consent),
			s.UTM.Source,
			s.UTM.Medium,
			s.UTM.Campaign,
		}
		if err := w.Write(rec); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}
