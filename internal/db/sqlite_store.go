package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/smbevo/evolve/internal/api"
)

// SQLiteStore implements api.Store on a single SQLite file. All reads keep
// the ordering contract of the interface: ordinal columns for questionnaire
// rows, score_min for result bands.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	if db == nil {
		return nil, errors.New("nil db")
	}
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	}
	for _, stmt := range pragmas {
		if _, err := db.Exec(stmt); err != nil {
			return nil, fmt.Errorf("apply sqlite pragma %q: %w", stmt, err)
		}
	}
	return &SQLiteStore{db: db}, nil
}

func NewStore(db *sql.DB) (api.Store, error) {
	return NewSQLiteStore(db)
}

var _ api.Store = (*SQLiteStore)(nil)

func (s *SQLiteStore) logErr(prefix string, err error) {
	if err != nil {
		log.Printf("sqlite store: %s: %v", prefix, err)
	}
}

func boolToInt64(v bool) int64 {
	if v {
		return 1
	}
	return 0
}

func int64ToBool(v int64) bool { return v != 0 }

func toNullString(s string) sql.NullString {
	if strings.TrimSpace(s) == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func encodeJSON(v any) (sql.NullString, error) {
	if v == nil {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

func decodeJSON(ns sql.NullString, out any) {
	if !ns.Valid || strings.TrimSpace(ns.String) == "" {
		return
	}
	if err := json.Unmarshal([]byte(ns.String), out); err != nil {
		log.Printf("sqlite store: decode json column: %v", err)
	}
}

func parseTime(ns sql.NullString) time.Time {
	if !ns.Valid {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, ns.String)
	if err != nil {
		return time.Time{}
	}
	return t
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		t = time.Now().UTC()
	}
	return t.UTC().Format(time.RFC3339Nano)
}

// --- Assessments ---

func (s *SQLiteStore) AddAssessment(a *api.Assessment) {
	if a == nil {
		return
	}
	_, err := s.db.Exec(`INSERT INTO assessments (id, slug, title, description, created_at)
      VALUES (?, ?, ?, ?, ?)`,
		a.ID, a.Slug, a.Title, toNullString(a.Description), formatTime(a.CreatedAt))
	s.logErr("AddAssessment", err)
}

func (s *SQLiteStore) scanAssessment(row interface{ Scan(...any) error }) *api.Assessment {
	var a api.Assessment
	var desc, created sql.NullString
	if err := row.Scan(&a.ID, &a.Slug, &a.Title, &desc, &created); err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.logErr("scan assessment", err)
		}
		return nil
	}
	a.Description = desc.String
	a.CreatedAt = parseTime(created)
	return &a
}

func (s *SQLiteStore) GetAssessmentByID(id string) *api.Assessment {
	if strings.TrimSpace(id) == "" {
		return nil
	}
	row := s.db.QueryRow(`SELECT id, slug, title, description, created_at FROM assessments WHERE id = ?`, id)
	return s.scanAssessment(row)
}

func (s *SQLiteStore) GetAssessmentBySlug(slug string) *api.Assessment {
	if strings.TrimSpace(slug) == "" {
		return nil
	}
	row := s.db.QueryRow(`SELECT id, slug, title, description, created_at FROM assessments WHERE slug = ?`, slug)
	return s.scanAssessment(row)
}

func (s *SQLiteStore) ListAssessments() []*api.Assessment {
	rows, err := s.db.Query(`SELECT id, slug, title, description, created_at FROM assessments ORDER BY slug ASC`)
	if err != nil {
		s.logErr("ListAssessments", err)
		return nil
	}
	defer func() { s.logErr("ListAssessments close", rows.Close()) }()
	var out []*api.Assessment
	for rows.Next() {
		if a := s.scanAssessment(rows); a != nil {
			out = append(out, a)
		}
	}
	s.logErr("ListAssessments rows", rows.Err())
	return out
}

// --- Sections, questions, options ---

func (s *SQLiteStore) AddSection(sec *api.Section) {
	if sec == nil {
		return
	}
	_, err := s.db.Exec(`INSERT INTO assessment_sections (id, assessment_id, title, ordinal)
      VALUES (?, ?, ?, ?)`, sec.ID, sec.AssessmentID, sec.Title, sec.Ordinal)
	s.logErr("AddSection", err)
}

func (s *SQLiteStore) ListSections(assessmentID string) []*api.Section {
	rows, err := s.db.Query(`SELECT id, assessment_id, title, ordinal
      FROM assessment_sections WHERE assessment_id = ? ORDER BY ordinal ASC, id ASC`, assessmentID)
	if err != nil {
		s.logErr("ListSections", err)
		return nil
	}
	defer func() { s.logErr("ListSections close", rows.Close()) }()
	var out []*api.Section
	for rows.Next() {
		var sec api.Section
		if err := rows.Scan(&sec.ID, &sec.AssessmentID, &sec.Title, &sec.Ordinal); err != nil {
			s.logErr("ListSections scan", err)
			continue
		}
		out = append(out, &sec)
	}
	s.logErr("ListSections rows", rows.Err())
	return out
}

func (s *SQLiteStore) AddQuestion(q *api.Question) {
	if q == nil {
		return
	}
	_, err := s.db.Exec(`INSERT INTO assessment_questions (id, section_id, question_key, prompt, question_type, ordinal)
      VALUES (?, ?, ?, ?, ?, ?)`, q.ID, q.SectionID, q.Key, q.Prompt, q.Type, q.Ordinal)
	s.logErr("AddQuestion", err)
}

func (s *SQLiteStore) ListQuestions(sectionID string) []*api.Question {
	rows, err := s.db.Query(`SELECT id, section_id, question_key, prompt, question_type, ordinal
      FROM assessment_questions WHERE section_id = ? ORDER BY ordinal ASC, id ASC`, sectionID)
	if err != nil {
		s.logErr("ListQuestions", err)
		return nil
	}
	defer func() { s.logErr("ListQuestions close", rows.Close()) }()
	var out []*api.Question
	for rows.Next() {
		var q api.Question
		if err := rows.Scan(&q.ID, &q.SectionID, &q.Key, &q.Prompt, &q.Type, &q.Ordinal); err != nil {
			s.logErr("ListQuestions scan", err)
			continue
		}
		out = append(out, &q)
	}
	s.logErr("ListQuestions rows", rows.Err())
	return out
}

func (s *SQLiteStore) AddOption(o *api.Option) {
	if o == nil {
		return
	}
	weights, err := encodeJSON(o.Weights)
	if err != nil {
		s.logErr("AddOption encode weights", err)
		return
	}
	_, err = s.db.Exec(`INSERT INTO assessment_options (id, question_id, label, value, score, weights, ordinal)
      VALUES (?, ?, ?, ?, ?, ?, ?)`, o.ID, o.QuestionID, o.Label, o.Value, o.Score, weights, o.Ordinal)
	s.logErr("AddOption", err)
}

func (s *SQLiteStore) ListOptions(questionID string) []*api.Option {
	rows, err := s.db.Query(`SELECT id, question_id, label, value, score, weights, ordinal
      FROM assessment_options WHERE question_id = ? ORDER BY ordinal ASC, id ASC`, questionID)
	if err != nil {
		s.logErr("ListOptions", err)
		return nil
	}
	defer func() { s.logErr("ListOptions close", rows.Close()) }()
	var out []*api.Option
	for rows.Next() {
		var o api.Option
		var weights sql.NullString
		if err := rows.Scan(&o.ID, &o.QuestionID, &o.Label, &o.Value, &o.Score, &weights, &o.Ordinal); err != nil {
			s.logErr("ListOptions scan", err)
			continue
		}
		decodeJSON(weights, &o.Weights)
		out = append(out, &o)
	}
	s.logErr("ListOptions rows", rows.Err())
	return out
}

// --- Result bands ---

func (s *SQLiteStore) AddResult(r *api.ResultBand) {
	if r == nil {
		return
	}
	_, err := s.db.Exec(`INSERT INTO assessment_results
      (id, assessment_id, slug, title, hero, body_md, cta_label, cta_url, score_min, score_max)
      VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.AssessmentID, r.Slug, r.Title, toNullString(r.Hero), toNullString(r.BodyMD),
		toNullString(r.CTALabel), toNullString(r.CTAURL), r.ScoreMin, r.ScoreMax)
	s.logErr("AddResult", err)
}

func (s *SQLiteStore) ListResults(assessmentID string) []*api.ResultBand {
	rows, err := s.db.Query(`SELECT id, assessment_id, slug, title, hero, body_md, cta_label, cta_url, score_min, score_max
      FROM assessment_results WHERE assessment_id = ? ORDER BY score_min ASC, rowid ASC`, assessmentID)
	if err != nil {
		s.logErr("ListResults", err)
		return nil
	}
	defer func() { s.logErr("ListResults close", rows.Close()) }()
	var out []*api.ResultBand
	for rows.Next() {
		var r api.ResultBand
		var hero, body, ctaLabel, ctaURL sql.NullString
		if err := rows.Scan(&r.ID, &r.AssessmentID, &r.Slug, &r.Title, &hero, &body, &ctaLabel, &ctaURL, &r.ScoreMin, &r.ScoreMax); err != nil {
			s.logErr("ListResults scan", err)
			continue
		}
		r.Hero, r.BodyMD, r.CTALabel, r.CTAURL = hero.String, body.String, ctaLabel.String, ctaURL.String
		out = append(out, &r)
	}
	s.logErr("ListResults rows", rows.Err())
	return out
}

// --- Submissions ---

const submissionColumns = `id, assessment_id, answers, email, first_name, last_name, phone, company,
      consent, utm, score, segment, breakdown, result_slug, crm_contact_id, created_at`

func (s *SQLiteStore) AddSubmission(sub *api.Submission) error {
	if sub == nil {
		return errors.New("nil submission")
	}
	answers, err := encodeJSON(sub.Answers)
	if err != nil {
		return fmt.Errorf("encode answers: %w", err)
	}
	utm, err := encodeJSON(sub.UTM)
	if err != nil {
		return fmt.Errorf("encode utm: %w", err)
	}
	breakdown, err := encodeJSON(sub.Breakdown)
	if err != nil {
		return fmt.Errorf("encode breakdown: %w", err)
	}
	_, err = s.db.Exec(`INSERT INTO submissions (`+submissionColumns+`)
      VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sub.ID, sub.AssessmentID, answers, sub.Email, sub.FirstName,
		toNullString(sub.LastName), toNullString(sub.Phone), toNullString(sub.Company),
		boolToInt64(sub.Consent), utm, sub.Score, sub.Segment, breakdown,
		toNullString(sub.ResultSlug), toNullString(sub.CRMContactID), formatTime(sub.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert submission: %w", err)
	}
	return nil
}

func (s *SQLiteStore) scanSubmission(row interface{ Scan(...any) error }) *api.Submission {
	var sub api.Submission
	var answers, last, phone, company, utm, breakdown, resultSlug, crmID, created sql.NullString
	var consent int64
	if err := row.Scan(&sub.ID, &sub.AssessmentID, &answers, &sub.Email, &sub.FirstName,
		&last, &phone, &company, &consent, &utm, &sub.Score, &sub.Segment,
		&breakdown, &resultSlug, &crmID, &created); err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.logErr("scan submission", err)
		}
		return nil
	}
	decodeJSON(answers, &sub.Answers)
	decodeJSON(utm, &sub.UTM)
	decodeJSON(breakdown, &sub.Breakdown)
	sub.LastName, sub.Phone, sub.Company = last.String, phone.String, company.String
	sub.Consent = int64ToBool(consent)
	sub.ResultSlug, sub.CRMContactID = resultSlug.String, crmID.String
	sub.CreatedAt = parseTime(created)
	return &sub
}

func (s *SQLiteStore) GetSubmission(id string) *api.Submission {
	if strings.TrimSpace(id) == "" {
		return nil
	}
	row := s.db.QueryRow(`SELECT `+submissionColumns+` FROM submissions WHERE id = ?`, id)
	return s.scanSubmission(row)
}

func (s *SQLiteStore) ListSubmissions(assessmentID string) []*api.Submission {
	rows, err := s.db.Query(`SELECT `+submissionColumns+`
      FROM submissions WHERE assessment_id = ? ORDER BY created_at ASC, id ASC`, assessmentID)
	if err != nil {
		s.logErr("ListSubmissions", err)
		return nil
	}
	defer func() { s.logErr("ListSubmissions close", rows.Close()) }()
	var out []*api.Submission
	for rows.Next() {
		if sub := s.scanSubmission(rows); sub != nil {
			out = append(out, sub)
		}
	}
	s.logErr("ListSubmissions rows", rows.Err())
	return out
}

func (s *SQLiteStore) MarkSubmissionSynced(id, crmContactID string) bool {
	res, err := s.db.Exec(`UPDATE submissions SET crm_contact_id = ? WHERE id = ?`, crmContactID, id)
	if err != nil {
		s.logErr("MarkSubmissionSynced", err)
		return false
	}
	n, err := res.RowsAffected()
	if err != nil {
		s.logErr("MarkSubmissionSynced rows", err)
		return false
	}
	return n > 0
}

// --- Funnel events ---

func (s *SQLiteStore) AddFunnelEvent(e *api.FunnelEvent) error {
	if e == nil {
		return errors.New("nil event")
	}
	meta, err := encodeJSON(e.Meta)
	if err != nil {
		return fmt.Errorf("encode meta: %w", err)
	}
	_, err = s.db.Exec(`INSERT INTO funnel_events (id, submission_id, event, meta, created_at)
      VALUES (?, ?, ?, ?, ?)`,
		e.ID, toNullString(e.SubmissionID), e.Event, meta, formatTime(e.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert funnel event: %w", err)
	}
	return nil
}

// --- Phases & content ---

func (s *SQLiteStore) AddPhase(p *api.Phase) {
	if p == nil {
		return
	}
	_, err := s.db.Exec(`INSERT INTO phases (id, phase_key, name, tagline, ordinal)
      VALUES (?, ?, ?, ?, ?)`, p.ID, p.Key, p.Name, toNullString(p.Tagline), p.Ordinal)
	s.logErr("AddPhase", err)
}

func (s *SQLiteStore) ListPhases() []*api.Phase {
	rows, err := s.db.Query(`SELECT id, phase_key, name, tagline, ordinal FROM phases ORDER BY ordinal ASC`)
	if err != nil {
		s.logErr("ListPhases", err)
		return nil
	}
	defer func() { s.logErr("ListPhases close", rows.Close()) }()
	var out []*api.Phase
	for rows.Next() {
		var p api.Phase
		var tagline sql.NullString
		if err := rows.Scan(&p.ID, &p.Key, &p.Name, &tagline, &p.Ordinal); err != nil {
			s.logErr("ListPhases scan", err)
			continue
		}
		p.Tagline = tagline.String
		out = append(out, &p)
	}
	s.logErr("ListPhases rows", rows.Err())
	return out
}

func (s *SQLiteStore) AddContentEntry(e *api.ContentEntry) {
	if e == nil {
		return
	}
	phases, err := encodeJSON(e.Phases)
	if err != nil {
		s.logErr("AddContentEntry encode phases", err)
		return
	}
	_, err = s.db.Exec(`INSERT INTO content_entries
      (id, kind, slug, title, summary, phases, cta_label, cta_url, featured, sort_order, published)
      VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Kind, e.Slug, e.Title, toNullString(e.Summary), phases,
		toNullString(e.CTALabel), toNullString(e.CTAURL),
		boolToInt64(e.Featured), e.SortOrder, boolToInt64(e.Published))
	s.logErr("AddContentEntry", err)
}

func (s *SQLiteStore) ListContent(kind string) []*api.ContentEntry {
	rows, err := s.db.Query(`SELECT id, kind, slug, title, summary, phases, cta_label, cta_url, featured, sort_order, published
      FROM content_entries WHERE kind = ? ORDER BY sort_order ASC, slug ASC`, kind)
	if err != nil {
		s.logErr("ListContent", err)
		return nil
	}
	defer func() { s.logErr("ListContent close", rows.Close()) }()
	var out []*api.ContentEntry
	for rows.Next() {
		var e api.ContentEntry
		var summary, phases, ctaLabel, ctaURL sql.NullString
		var featured, published int64
		if err := rows.Scan(&e.ID, &e.Kind, &e.Slug, &e.Title, &summary, &phases, &ctaLabel, &ctaURL, &featured, &e.SortOrder, &published); err != nil {
			s.logErr("ListContent scan", err)
			continue
		}
		e.Summary, e.CTALabel, e.CTAURL = summary.String, ctaLabel.String, ctaURL.String
		decodeJSON(phases, &e.Phases)
		e.Featured = int64ToBool(featured)
		e.Published = int64ToBool(published)
		out = append(out, &e)
	}
	s.logErr("ListContent rows", rows.Err())
	return out
}
