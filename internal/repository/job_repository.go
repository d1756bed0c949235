package repository

import (
	"github.com/hireloop/ai-interviewer/internal/model"
	"gorm.io/gorm"
)

type JobRepository struct {
	db *gorm.DB
}

func NewJobRepository(db *gorm.DB) *JobRepository {
	return &JobRepository{db}
}

func (r *JobRepository) CreateJob(job *model.Job) error {
	return r.db.Create(job).Error
}

func (r *JobRepository) UpdateJob(job *model.Job) error {
	return r.db.Save(job).Error
}

func (r *JobRepository) FindJobByID(id string) (*model.Job, error) {
	var j model.Job
	err := r.db.First(&j, "id = ?", id).Error
	return &j, err
}

func (r *JobRepository) GetJobs(page, pageSize int) ([]model.Job, int64, error) {
	var jobs []model.Job
	var total int64

	if err := r.db.Model(&model.Job{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := r.db.Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&jobs).Error
	return jobs, total, err
}

// IncrementApplicants bumps the applicant counter when a candidate's first
// completed interview for the job is recorded.
func (r *JobRepository) IncrementApplicants(id string) error {
	return r.db.Model(&model.Job{}).
		Where("id = ?", id).
		UpdateColumn("applicants_count", gorm.Expr("applicants_count + 1")).Error
}
