package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/hireloop/ai-interviewer/internal/transcript"
)

type StartInterviewRequest struct {
	JobID string `json:"job_id"`
}

type AdvanceRequest struct {
	JobID       string            `json:"job_id"`
	Transcript  []transcript.Turn `json:"transcript"`
	Text        string            `json:"text,omitempty"`
	AudioBase64 string            `json:"audio_base64,omitempty"`
}

type CompleteRequest struct {
	JobID      string            `json:"job_id"`
	Transcript []transcript.Turn `json:"transcript"`
}

type AnalyzeRequest struct {
	Transcript []transcript.Turn `json:"transcript"`
}

// TurnResponse carries one interviewer turn plus its synthesized audio.
// Audio is omitted whenever synthesis failed or is not configured; the
// session continues text-only.
type TurnResponse struct {
	Turn        transcript.Turn `json:"turn"`
	AudioBase64 string          `json:"audio_base64,omitempty"`
}

type CompleteResponse struct {
	InterviewID string `json:"interview_id"`
	Status      string `json:"status"`
}

type InterviewDTO struct {
	ID           uuid.UUID  `json:"id"`
	JobID        uuid.UUID  `json:"job_id"`
	Status       string     `json:"status"`
	Score        float64    `json:"score"`
	Strengths    []string   `json:"strengths"`
	Improvements []string   `json:"improvements"`
	Feedback     string     `json:"feedback"`
	Date         time.Time  `json:"date"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	JobTitle     string     `json:"job_title,omitempty"`
	JobCompany   string     `json:"job_company,omitempty"`
}

type CreateJobRequest struct {
	Title        string `json:"title"`
	Company      string `json:"company"`
	Description  string `json:"description"`
	Requirements string `json:"requirements"`
	JobType      string `json:"job_type"`
	Location     string `json:"location"`
	Salary       string `json:"salary"`
}
