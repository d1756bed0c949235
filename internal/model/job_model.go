package model

import (
	"time"

	"github.com/google/uuid"
)

type Job struct {
	ID              uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Title           string    `gorm:"type:varchar(255)" json:"title"`
	Company         string    `gorm:"type:varchar(255)" json:"company"`
	Description     string    `gorm:"type:text" json:"description"`
	Requirements    string    `gorm:"type:text" json:"requirements"`
	JobType         string    `gorm:"type:varchar(50)" json:"job_type"`
	Location        string    `gorm:"type:varchar(255)" json:"location"`
	Salary          string    `gorm:"type:varchar(100)" json:"salary"`
	EmployerID      string    `gorm:"type:varchar(64);index" json:"employer_id"`
	ApplicantsCount int       `json:"applicants_count"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (j *Job) TableName() string {
	return "jobs"
}
