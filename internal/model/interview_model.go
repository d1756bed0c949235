package model

import (
	"time"

	"github.com/google/uuid"
)

// Interview lifecycle statuses. IN_PROGRESS rows hold the running
// transcript for a session that has not been submitted yet; submission
// moves the row to PENDING_REVIEW and analysis to COMPLETED.
const (
	InterviewStatusInProgress    = "IN_PROGRESS"
	InterviewStatusPendingReview = "PENDING_REVIEW"
	InterviewStatusCompleted     = "COMPLETED"
)

// Interview is the persisted record of one candidate's interview for one
// job. The (job_id, candidate_id) pair is unique; all writes prior to
// analysis go through an atomic upsert keyed on that composite.
type Interview struct {
	ID           uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	JobID        uuid.UUID  `gorm:"type:uuid;uniqueIndex:idx_interviews_job_candidate" json:"job_id"`
	CandidateID  string     `gorm:"type:varchar(64);uniqueIndex:idx_interviews_job_candidate" json:"candidate_id"`
	Transcript   string     `gorm:"type:jsonb" json:"transcript"`
	Status       string     `gorm:"type:varchar(50)" json:"status"`
	Score        float64    `gorm:"type:float" json:"score"`
	Strengths    string     `gorm:"type:jsonb" json:"strengths"`
	Improvements string     `gorm:"type:jsonb" json:"improvements"`
	Feedback     string     `gorm:"type:text" json:"feedback"`
	Date         time.Time  `json:"date"`
	CompletedAt  *time.Time `json:"completed_at"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`

	Job *Job `gorm:"foreignKey:JobID" json:"job,omitempty"`
}

func (i *Interview) TableName() string {
	return "interviews"
}
