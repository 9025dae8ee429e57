package services

import (
	"errors"
	"fmt"
)

var (
	// ErrAssessmentNotFound is returned when no assessment matches a slug or id.
	ErrAssessmentNotFound = errors.New("assessment not found")
	// ErrInvalidConfig flags a structurally invalid questionnaire.
	ErrInvalidConfig = errors.New("invalid assessment config")
)

// AssessmentStore abstracts the reads needed to assemble one questionnaire.
// Lists are expected in stored order (ordinal ascending; results by score_min).
type AssessmentStore interface {
	GetAssessmentBySlug(slug string) *Assessment
	ListSections(assessmentID string) []*ConfigSection
	ListQuestions(sectionID string) []*Question
	ListOptions(questionID string) []*Option
	ListResults(assessmentID string) []*ResultBand
}

// Assessment is the aggregate root row.
type Assessment struct {
	ID          string `json:"id"`
	Slug        string `json:"slug"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// ConfigSection is an ordered, purely presentational grouping of questions.
type ConfigSection struct {
	ID        string      `json:"id"`
	Title     string      `json:"title"`
	Questions []*Question `json:"questions"`
}

// AssessmentConfig is the fully assembled questionnaire served to the wizard
// and used by the authoritative scorer.
type AssessmentConfig struct {
	ID          string           `json:"id"`
	Slug        string           `json:"slug"`
	Title       string           `json:"title"`
	Description string           `json:"description,omitempty"`
	Sections    []*ConfigSection `json:"sections"`
	Results     []*ResultBand    `json:"results"`
}

// QuestionBank flattens the sections into the ordered question list the
// scoring engine walks.
func (c *AssessmentConfig) QuestionBank() []*Question {
	var bank []*Question
	for _, sec := range c.Sections {
		bank = append(bank, sec.Questions...)
	}
	return bank
}

// AssessmentService assembles read-only questionnaire configs.
type AssessmentService struct {
	store AssessmentStore
}

// NewAssessmentService constructs a service bound to the provided store.
func NewAssessmentService(store AssessmentStore) *AssessmentService {
	return &AssessmentService{store: store}
}

// GetConfig loads one assessment by slug with sections, questions, options
// and result bands attached in stored order, and verifies structural
// invariants before handing it out.
func (s *AssessmentService) GetConfig(slug string) (*AssessmentConfig, error) {
	if s.store == nil {
		return nil, errors.New("assessment service store is nil")
	}
	a := s.store.GetAssessmentBySlug(slug)
	if a == nil {
		return nil, ErrAssessmentNotFound
	}
	cfg := &AssessmentConfig{
		ID:          a.ID,
		Slug:        a.Slug,
		Title:       a.Title,
		Description: a.Description,
		Results:     s.store.ListResults(a.ID),
	}
	for _, sec := range s.store.ListSections(a.ID) {
		section := &ConfigSection{ID: sec.ID, Title: sec.Title}
		for _, q := range s.store.ListQuestions(sec.ID) {
			qq := *q
			qq.Options = s.store.ListOptions(q.ID)
			section.Questions = append(section.Questions, &qq)
		}
		cfg.Sections = append(cfg.Sections, section)
	}
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ValidateConfig enforces the structural invariants the scoring engine
// depends on: non-empty unique question keys across the questionnaire,
// recognized question types, and option values unique within each question.
// An empty result-band list is legal.
func ValidateConfig(cfg *AssessmentConfig) error {
	if cfg == nil {
		return ErrInvalidConfig
	}
	keys := map[string]bool{}
	for _, sec := range cfg.Sections {
		for _, q := range sec.Questions {
			if q.Key == "" {
				return fmt.Errorf("%w: question %s has no key", ErrInvalidConfig, q.ID)
			}
			if keys[q.Key] {
				return fmt.Errorf("%w: duplicate question key %q", ErrInvalidConfig, q.Key)
			}
			keys[q.Key] = true
			switch q.Type {
			case QuestionSingle, QuestionMulti, QuestionScale:
			default:
				return fmt.Errorf("%w: question %q has unknown type %q", ErrInvalidConfig, q.Key, q.Type)
			}
			values := map[string]bool{}
			for _, opt := range q.Options {
				if values[opt.Value] {
					return fmt.Errorf("%w: question %q has duplicate option value %q", ErrInvalidConfig, q.Key, opt.Value)
				}
				values[opt.Value] = true
			}
		}
	}
	return nil
}
