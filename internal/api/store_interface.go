package api

// Store is the persistence boundary every backend must satisfy. Lists come
// back in stored order: sections/questions/options by ordinal, result bands
// by score_min.
type Store interface {
	AddAssessment(a *Assessment)
	GetAssessmentByID(id string) *Assessment
	GetAssessmentBySlug(slug string) *Assessment
	ListAssessments() []*Assessment

	AddSection(sec *Section)
	ListSections(assessmentID string) []*Section

	AddQuestion(q *Question)
	ListQuestions(sectionID string) []*Question

	AddOption(o *Option)
	ListOptions(questionID string) []*Option

	AddResult(r *ResultBand)
	ListResults(assessmentID string) []*ResultBand

	AddSubmission(sub *Submission) error
	GetSubmission(id string) *Submission
	ListSubmissions(assessmentID string) []*Submission
	MarkSubmissionSynced(id, crmContactID string) bool

	AddFunnelEvent(e *FunnelEvent) error

	AddPhase(p *Phase)
	ListPhases() []*Phase

	AddContentEntry(e *ContentEntry)
	ListContent(kind string) []*ContentEntry
}

var _ Store = (*memoryStore)(nil)
