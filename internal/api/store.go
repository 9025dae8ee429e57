package api

import (
	"sort"
	"sync"
	"time"

	"github.com/smbevo/evolve/internal/services"
)

// Flat persistence rows. The services layer works on assembled aggregates;
// the store keeps the normalized shape the backing tables use.

type Assessment struct {
	ID          string    `json:"id"`
	Slug        string    `json:"slug"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type Section struct {
	ID           string `json:"id"`
	AssessmentID string `json:"assessment_id"`
	Title        string `json:"title"`
	Ordinal      int    `json:"ordinal"`
}

type Question struct {
	ID        string `json:"id"`
	SectionID string `json:"section_id"`
	Key       string `json:"key"`
	Prompt    string `json:"prompt"`
	Type      string `json:"type"`
	Ordinal   int    `json:"ordinal"`
}

type Option struct {
	ID         string             `json:"id"`
	QuestionID string             `json:"question_id"`
	Label      string             `json:"label"`
	Value      string             `json:"value"`
	Score      int                `json:"score"`
	Weights    map[string]float64 `json:"weights,omitempty"`
	Ordinal    int                `json:"ordinal"`
}

type ResultBand struct {
	ID           string `json:"id"`
	AssessmentID string `json:"assessment_id"`
	Slug         string `json:"slug"`
	Title        string `json:"title"`
	Hero         string `json:"hero,omitempty"`
	BodyMD       string `json:"body_md,omitempty"`
	CTALabel     string `json:"cta_label,omitempty"`
	CTAURL       string `json:"cta_url,omitempty"`
	ScoreMin     int    `json:"score_min"`
	ScoreMax     int    `json:"score_max"`
}

type Submission struct {
	ID           string             `json:"id"`
	AssessmentID string             `json:"assessment_id"`
	Answers      services.AnswerSet `json:"answers"`
	Email        string             `json:"email"`
	FirstName    string             `json:"first_name"`
	LastName     string             `json:"last_name,omitempty"`
	Phone        string             `json:"phone,omitempty"`
	Company      string             `json:"company,omitempty"`
	Consent      bool               `json:"consent"`
	UTM          services.UTM       `json:"utm"`
	Score        int                `json:"score"`
	Segment      string             `json:"segment"`
	Breakdown    map[string]float64 `json:"breakdown,omitempty"`
	ResultSlug   string             `json:"result_slug,omitempty"`
	CRMContactID string             `json:"crm_contact_id,omitempty"`
	CreatedAt    time.Time          `json:"created_at"`
}

type FunnelEvent struct {
	ID           string            `json:"id"`
	SubmissionID string            `json:"submission_id,omitempty"`
	Event        string            `json:"event"`
	Meta         map[string]string `json:"meta,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
}

type Phase struct {
	ID      string `json:"id"`
	Key     string `json:"key"`
	Name    string `json:"name"`
	Tagline string `json:"tagline,omitempty"`
	Ordinal int    `json:"ordinal"`
}

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

type memoryStore struct {
	mu                 sync.RWMutex
	assessments        map[string]*Assessment
	assessmentsBySlug  map[string]*Assessment
	sectionsByParent   map[string][]*Section
	questionsByParent  map[string][]*Question
	optionsByParent    map[string][]*Option
	resultsByParent    map[string][]*ResultBand
	submissions        map[string]*Submission
	submissionsByOwner map[string][]*Submission
	events             []*FunnelEvent
	phases             []*Phase
	contentByKind      map[string][]*ContentEntry
}

// NewMemoryStore builds an empty in-memory store. It backs dev servers and
// tests; production sets a SQLite path instead.
func NewMemoryStore() Store {
	return newMemoryStore()
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		assessments:        map[string]*Assessment{},
		assessmentsBySlug:  map[string]*Assessment{},
		sectionsByParent:   map[string][]*Section{},
		questionsByParent:  map[string][]*Question{},
		optionsByParent:    map[string][]*Option{},
		resultsByParent:    map[string][]*ResultBand{},
		submissions:        map[string]*Submission{},
		submissionsByOwner: map[string][]*Submission{},
		contentByKind:      map[string][]*ContentEntry{},
	}
}

func (s *memoryStore) AddAssessment(a *Assessment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assessments[a.ID] = a
	s.assessmentsBySlug[a.Slug] = a
}

func (s *memoryStore) GetAssessmentByID(id string) *Assessment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.assessments[id]
}

func (s *memoryStore) GetAssessmentBySlug(slug string) *Assessment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.assessmentsBySlug[slug]
}

func (s *memoryStore) ListAssessments() []*Assessment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Assessment, 0, len(s.assessments))
	for _, a := range s.assessments {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out
}

func (s *memoryStore) AddSection(sec *Section) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := append(s.sectionsByParent[sec.AssessmentID], sec)
	sort.SliceStable(list, func(i, j int) bool { return list[i].Ordinal < list[j].Ordinal })
	s.sectionsByParent[sec.AssessmentID] = list
}

func (s *memoryStore) ListSections(assessmentID string) []*Section {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*Section(nil), s.sectionsByParent[assessmentID]...)
}

func (s *memoryStore) AddQuestion(q *Question) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := append(s.questionsByParent[q.SectionID], q)
	sort.SliceStable(list, func(i, j int) bool { return list[i].Ordinal < list[j].Ordinal })
	s.questionsByParent[q.SectionID] = list
}

func (s *memoryStore) ListQuestions(sectionID string) []*Question {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*Question(nil), s.questionsByParent[sectionID]...)
}

func (s *memoryStore) AddOption(o *Option) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := append(s.optionsByParent[o.QuestionID], o)
	sort.SliceStable(list, func(i, j int) bool { return list[i].Ordinal < list[j].Ordinal })
	s.optionsByParent[o.QuestionID] = list
}

func (s *memoryStore) ListOptions(questionID string) []*Option {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*Option(nil), s.optionsByParent[questionID]...)
}

func (s *memoryStore) AddResult(r *ResultBand) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := append(s.resultsByParent[r.AssessmentID], r)
	// Bands are served ordered by their lower bound; ties keep insert order
	// so the picker's first-match policy stays author-controlled.
	sort.SliceStable(list, func(i, j int) bool { return list[i].ScoreMin < list[j].ScoreMin })
	s.resultsByParent[r.AssessmentID] = list
}

func (s *memoryStore) ListResults(assessmentID string) []*ResultBand {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*ResultBand(nil), s.resultsByParent[assessmentID]...)
}

func (s *memoryStore) AddSubmission(sub *Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.submissions[sub.ID] = sub
	s.submissionsByOwner[sub.AssessmentID] = append(s.submissionsByOwner[sub.AssessmentID], sub)
	return nil
}

func (s *memoryStore) GetSubmission(id string) *Submission {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.submissions[id]
}

func (s *memoryStore) ListSubmissions(assessmentID string) []*Submission {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*Submission(nil), s.submissionsByOwner[assessmentID]...)
}

func (s *memoryStore) MarkSubmissionSynced(id, crmContactID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub := s.submissions[id]
	if sub == nil {
		return false
	}
	sub.CRMContactID = crmContactID
	return true
}

func (s *memoryStore) AddFunnelEvent(e *FunnelEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return nil
}

func (s *memoryStore) AddPhase(p *Phase) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phases = append(s.phases, p)
	sort.SliceStable(s.phases, func(i, j int) bool { return s.phases[i].Ordinal < s.phases[j].Ordinal })
}

func (s *memoryStore) ListPhases() []*Phase {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*Phase(nil), s.phases...)
}

func (s *memoryStore) AddContentEntry(e *ContentEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contentByKind[e.Kind] = append(s.contentByKind[e.Kind], e)
}

func (s *memoryStore) ListContent(kind string) []*ContentEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*ContentEntry(nil), s.contentByKind[kind]...)
}
