package services

import (
	"errors"
	"fmt"
	"net/mail"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrBotDetected marks honeypot hits. Handlers must surface it as a
	// generic failure without naming the detection.
	ErrBotDetected = errors.New("bot detected")
	// ErrVerificationFailed covers rejected, below-threshold and unreachable
	// trust verification alike (fail closed).
	ErrVerificationFailed = errors.New("verification failed")
)

// ValidationError carries field-level messages for malformed contact input.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return "invalid fields: " + strings.Join(keys, ", ")
}

// Contact holds the lead fields captured on the final wizard step. Website is
// a hidden decoy input; humans never fill it.
type Contact struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name,omitempty"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
	Company   string `json:"company,omitempty"`
	Website   string `json:"website,omitempty"`
}

// UTM is the campaign attribution captured from the landing URL.
type UTM struct {
	Source   string `json:"source,omitempty"`
	Medium   string `json:"medium,omitempty"`
	Campaign string `json:"campaign,omitempty"`
	Term     string `json:"term,omitempty"`
	Content  string `json:"content,omitempty"`
}

var utmTokenRE = regexp.MustCompile(`^[a-zA-Z0-9_-]*$`)

// Sanitize drops attribution values that are overlong or, for the
// source/medium/campaign triplet, contain characters outside [a-zA-Z0-9_-].
// Invalid values are discarded silently rather than failing the submission.
func (u UTM) Sanitize() UTM {
	token := func(v string) string {
		if len(v) > 200 || !utmTokenRE.MatchString(v) {
			return ""
		}
		return v
	}
	free := func(v string) string {
		if len(v) > 200 {
			return ""
		}
		return v
	}
	return UTM{
		Source:   token(u.Source),
		Medium:   token(u.Medium),
		Campaign: token(u.Campaign),
		Term:     free(u.Term),
		Content:  free(u.Content),
	}
}

// Submission is the persisted record of one completed assessment. Created
// exactly once per successful submit; immutable afterwards except for the
// downstream CRM sync reference.
type Submission struct {
	ID           string             `json:"id"`
	AssessmentID string             `json:"assessment_id"`
	Answers      AnswerSet          `json:"answers"`
	Email        string             `json:"email"`
	FirstName    string             `json:"first_name"`
	LastName     string             `json:"last_name,omitempty"`
	Phone        string             `json:"phone,omitempty"`
	Company      string             `json:"company,omitempty"`
	Consent      bool               `json:"consent"`
	UTM          UTM                `json:"utm"`
	Score        int                `json:"score"`
	Segment      string             `json:"segment"`
	Breakdown    map[string]float64 `json:"breakdown"`
	ResultSlug   string             `json:"result_slug,omitempty"`
	CRMContactID string             `json:"crm_contact_id,omitempty"`
	CreatedAt    time.Time          `json:"created_at"`
}

// SubmissionStore abstracts the persistence needed by the submit pipeline.
// The read side mirrors AssessmentStore because the score of record is always
// recomputed here from the stored question bank, never taken from the client.
type SubmissionStore interface {
	GetAssessmentByID(id string) *Assessment
	ListSections(assessmentID string) []*ConfigSection
	ListQuestions(sectionID string) []*Question
	ListOptions(questionID string) []*Option
	ListResults(assessmentID string) []*ResultBand
	AddSubmission(sub *Submission) error
}

// SubmitRequest transports sanitized handler input into the pipeline.
type SubmitRequest struct {
	AssessmentID string
	Contact      Contact
	Answers      AnswerSet
	Consent      bool
	UTM          UTM
	TrustToken   string
}

// SubmitResult is the pair the wizard navigates with.
type SubmitResult struct {
	SubmissionID string `json:"submission_id"`
	ResultSlug   string `json:"result_slug"`
}

// SubmissionService runs the submit pipeline: honeypot rejection, contact
// validation, trust verification, authoritative scoring and persistence.
type SubmissionService struct {
	store       SubmissionStore
	verifier    TrustVerifier
	now         func() time.Time
	idGenerator func() string
}

// NewSubmissionService constructs the pipeline against a store and verifier.
func NewSubmissionService(store SubmissionStore, verifier TrustVerifier) *SubmissionService {
	return &SubmissionService{
		store:       store,
		verifier:    verifier,
		now:         func() time.Time { return time.Now().UTC() },
		idGenerator: uuid.NewString,
	}
}

// Submit executes the pipeline. A failure at any stage leaves no partial
// record: the single store write is the last step.
func (s *SubmissionService) Submit(req SubmitRequest) (*SubmitResult, error) {
	if s.store == nil {
		return nil, errors.New("submission service store is nil")
	}

	// Bots auto-fill every visible-looking field; refuse before touching
	// the verifier or the store.
	if strings.TrimSpace(req.Contact.Website) != "" {
		return nil, ErrBotDetected
	}

	if err := validateContact(req.Contact, req.Consent); err != nil {
		return nil, err
	}

	assessment := s.store.GetAssessmentByID(req.AssessmentID)
	if assessment == nil {
		return nil, ErrAssessmentNotFound
	}

	if s.verifier == nil {
		return nil, ErrVerificationFailed
	}
	ok, err := s.verifier.Verify(req.TrustToken)
	if err != nil || !ok {
		return nil, ErrVerificationFailed
	}

	bank := s.questionBank(assessment.ID)
	scoring := ComputeScore(req.Answers, bank)

	results := s.store.ListResults(assessment.ID)
	resultSlug := ""
	if band := PickResult(results, scoring.Total, scoring.Segment); band != nil {
		resultSlug = band.Slug
	}

	sub := &Submission{
		ID:           s.idGenerator(),
		AssessmentID: assessment.ID,
		Answers:      req.Answers,
		Email:        req.Contact.Email,
		FirstName:    req.Contact.FirstName,
		LastName:     req.Contact.LastName,
		Phone:        req.Contact.Phone,
		Company:      req.Contact.Company,
		Consent:      req.Consent,
		UTM:          req.UTM.Sanitize(),
		Score:        scoring.Total,
		Segment:      scoring.Segment,
		Breakdown:    scoring.Dims,
		ResultSlug:   resultSlug,
		CreatedAt:    s.now(),
	}
	if err := s.store.AddSubmission(sub); err != nil {
		return nil, fmt.Errorf("persist submission: %w", err)
	}

	return &SubmitResult{SubmissionID: sub.ID, ResultSlug: resultSlug}, nil
}

func (s *SubmissionService) questionBank(assessmentID string) []*Question {
	var bank []*Question
	for _, sec := range s.store.ListSections(assessmentID) {
		for _, q := range s.store.ListQuestions(sec.ID) {
			qq := *q
			qq.Options = s.store.ListOptions(q.ID)
			bank = append(bank, &qq)
		}
	}
	return bank
}

func validateContact(c Contact, consent bool) error {
	fields := map[string]string{}
	if strings.TrimSpace(c.FirstName) == "" {
		fields["first_name"] = "first name is required"
	} else if len(c.FirstName) > 100 {
		fields["first_name"] = "first name is too long"
	}
	if len(c.LastName) > 100 {
		fields["last_name"] = "last name is too long"
	}
	if c.Email == "" || len(c.Email) > 255 {
		fields["email"] = "valid email is required"
	} else if _, err := mail.ParseAddress(c.Email); err != nil {
		fields["email"] = "valid email is required"
	}
	if len(c.Phone) > 50 {
		fields["phone"] = "phone is too long"
	}
	if len(c.Company) > 200 {
		fields["company"] = "company is too long"
	}
	if !consent {
		fields["consent"] = "consent is required"
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}
