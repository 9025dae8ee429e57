package api

import "github.com/smbevo/evolve/internal/services"

type submissionStoreAdapter struct {
	store Store
}

func newSubmissionStoreAdapter(store Store) services.SubmissionStore {
	return &submissionStoreAdapter{store: store}
}

func (a *submissionStoreAdapter) GetAssessmentByID(id string) *services.Assessment {
	return toServiceAssessment(a.store.GetAssessmentByID(id))
}

func (a *submissionStoreAdapter) ListSections(assessmentID string) []*services.ConfigSection {
	return toServiceSections(a.store.ListSections(assessmentID))
}

func (a *submissionStoreAdapter) ListQuestions(sectionID string) []*services.Question {
	return toServiceQuestions(a.store.ListQuestions(sectionID))
}

func (a *submissionStoreAdapter) ListOptions(questionID string) []*services.Option {
	return toServiceOptions(a.store.ListOptions(questionID))
}

func (a *submissionStoreAdapter) ListResults(assessmentID string) []*services.ResultBand {
	return toServiceResults(a.store.ListResults(assessmentID))
}

func (a *submissionStoreAdapter) AddSubmission(sub *services.Submission) error {
	return a.store.AddSubmission(fromServiceSubmission(sub))
}

func fromServiceSubmission(s *services.Submission) *Submission {
	if s == nil {
		return nil
	}
	return &Submission{
		ID:           s.ID,
		AssessmentID: s.AssessmentID,
		Answers:      s.Answers,
		Email:        s.Email,
		FirstName:    s.FirstName,
		LastName:     s.LastName,
		Phone:        s.Phone,
		Company:      s.Company,
		Consent:      s.Consent,
		UTM:          s.UTM,
		Score:        s.Score,
		Segment:      s.Segment,
		Breakdown:    s.Breakdown,
		ResultSlug:   s.ResultSlug,
		CRMContactID: s.CRMContactID,
		CreatedAt:    s.CreatedAt,
	}
}

func toServiceSubmission(s *Submission) *services.Submission {
	if s == nil {
		return nil
	}
	return &services.Submission{
		ID:           s.ID,
		AssessmentID: s.AssessmentID,
		Answers:      s.Answers,
		Email:        s.Email,
		FirstName:    s.FirstName,
		LastName:     s.LastName,
		Phone:        s.Phone,
		Company:      s.Company,
		Consent:      s.Consent,
		UTM:          s.UTM,
		Score:        s.Score,
		Segment:      s.Segment,
		Breakdown:    s.Breakdown,
		ResultSlug:   s.ResultSlug,
		CRMContactID: s.CRMContactID,
		CreatedAt:    s.CreatedAt,
	}
}
