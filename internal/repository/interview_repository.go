package repository

import (
	"github.com/hireloop/ai-interviewer/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type InterviewRepository struct {
	db *gorm.DB
}

func NewInterviewRepository(db *gorm.DB) *InterviewRepository {
	return &InterviewRepository{db}
}

// Upsert writes the interview keyed by (job_id, candidate_id) atomically.
// An existing row keeps its id; transcript and status are replaced. The
// conflict clause is the sole enforcement of the at-most-one-record
// invariant, so there is no separate check-then-create anywhere.
func (r *InterviewRepository) Upsert(interview *model.Interview) error {
	err := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "job_id"}, {Name: "candidate_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"transcript", "status", "updated_at",
		}),
	}).Create(interview).Error
	if err != nil {
		return err
	}
	// Re-read so the caller sees the canonical row id after a conflict.
	var stored model.Interview
	if err := r.db.First(&stored, "job_id = ? AND candidate_id = ?",
		interview.JobID, interview.CandidateID).Error; err != nil {
		return err
	}
	*interview = stored
	return nil
}

func (r *InterviewRepository) Update(interview *model.Interview) error {
	return r.db.Save(interview).Error
}

func (r *InterviewRepository) FindByID(id string) (*model.Interview, error) {
	var interview model.Interview
	err := r.db.Preload("Job").First(&interview, "id = ?", id).Error
	return &interview, err
}

func (r *InterviewRepository) FindByJobAndCandidate(jobID, candidateID string) (*model.Interview, error) {
	var interview model.Interview
	err := r.db.First(&interview, "job_id = ? AND candidate_id = ?", jobID, candidateID).Error
	return &interview, err
}

func (r *InterviewRepository) ListByCandidate(candidateID string) ([]model.Interview, error) {
	var interviews []model.Interview
	err := r.db.Preload("Job").
		Where("candidate_id = ?", candidateID).
		Order("date DESC").
		Find(&interviews).Error
	return interviews, err
}
