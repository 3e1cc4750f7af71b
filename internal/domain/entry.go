package domain

import "time"

// Status values an entry moves through during an application.
type Status string

const (
	StatusApplied             Status = "Applied"
	StatusSuccessful          Status = "Successful"
	StatusUnsuccessful        Status = "Unsuccessful"
	StatusInterview           Status = "Going for interview"
	StatusDeclined            Status = "Declined offer"
	StatusOffer               Status = "Role offered"
	StatusNotStarted          Status = "Not started"
	StatusInterviewScheduled  Status = "Interview scheduled"
	StatusInterviewed         Status = "Interviewed"
	StatusAssessment          Status = "Complete assessment"
	StatusAssessmentCompleted Status = "Assessment completed"
)

var validStatuses = map[Status]struct{}{
	StatusApplied:             {},
	StatusSuccessful:          {},
	StatusUnsuccessful:        {},
	StatusInterview:           {},
	StatusDeclined:            {},
	StatusOffer:               {},
	StatusNotStarted:          {},
	StatusInterviewScheduled:  {},
	StatusInterviewed:         {},
	StatusAssessment:          {},
	StatusAssessmentCompleted: {},
}

func (s Status) Valid() bool {
	_, ok := validStatuses[s]
	return ok
}

type Entry struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Employer       string    `json:"employer"`
	Contact        string    `json:"contact,omitempty"`
	Status         Status    `json:"status"`
	SubmissionDate time.Time `json:"submissionDate"`
	Location       string    `json:"location,omitempty"`
	Notes          string    `json:"notes,omitempty"`
	FoundWhere     string    `json:"foundWhere"`
	Screenshots    []string  `json:"screenshots,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}
