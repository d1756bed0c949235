package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/hireloop/ai-interviewer/internal/transcript"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

// ErrFeedbackParse means no valid structured feedback payload could be
// extracted from the model output, even after unwrapping prose and code
// fences. The interview stays at PENDING_REVIEW and the analysis can be
// retried later without re-running the dialogue.
var ErrFeedbackParse = errors.New("failed to parse interview feedback response")

// Feedback is the structured post-hoc assessment of a completed interview.
// FitScore is persisted as returned by the model; values outside [0, 100]
// pass through unmodified.
type Feedback struct {
	OverallFeedback     string   `json:"overallFeedback"`
	Strengths           []string `json:"strengths"`
	AreasForImprovement []string `json:"areasForImprovement"`
	FitScore            float64  `json:"fitScore"`
}

type FeedbackService struct {
	gemini GeminiServiceInterface
	model  string
	logger *zap.Logger
}

func NewFeedbackService(gemini GeminiServiceInterface, model string, logger *zap.Logger) *FeedbackService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FeedbackService{gemini: gemini, model: model, logger: logger}
}

// Finalize runs one batched analysis call over the whole transcript and
// decodes the structured feedback object.
func (s *FeedbackService) Finalize(ctx context.Context, job transcript.JobContext, t *transcript.Transcript) (*Feedback, error) {
	requirements := job.Requirements
	if strings.TrimSpace(requirements) == "" {
		requirements = "Not specified"
	}

	prompt := fmt.Sprintf(`As an AI interview analyzer, evaluate the following interview transcript for a %s position.

Job description: %s
Requirements: %s

Interview transcript:
%s

Provide a comprehensive analysis in JSON format with the following structure:
{
  "overallFeedback": "Overall assessment of the candidate based on their responses",
  "strengths": ["Strength 1", "Strength 2", "Strength 3"],
  "areasForImprovement": ["Area 1", "Area 2"],
  "fitScore": 85
}
fitScore is a score from 0-100 representing how well the candidate fits the position.`,
		job.Title, job.Description, requirements, t.Text())

	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(0.7)),
		MaxOutputTokens: 1000,
	}

	resp, err := s.gemini.GenerateContent(ctx, s.model, genai.Text(prompt), config)
	if err != nil {
		return nil, fmt.Errorf("generate interview feedback: %w", err)
	}

	raw := resp.Text()
	block := extractJSONBlock(raw)
	if block == "" {
		s.logger.Error("no structured payload in feedback response",
			zap.String("raw", truncateForLog(raw)))
		return nil, ErrFeedbackParse
	}

	var feedback Feedback
	if err := json.Unmarshal([]byte(block), &feedback); err != nil {
		s.logger.Error("feedback payload did not decode",
			zap.String("block", truncateForLog(block)), zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrFeedbackParse, err)
	}
	if strings.TrimSpace(feedback.OverallFeedback) == "" {
		return nil, ErrFeedbackParse
	}

	return &feedback, nil
}

func truncateForLog(s string) string {
	const max = 500
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
