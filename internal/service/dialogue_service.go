package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hireloop/ai-interviewer/internal/transcript"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

// ErrDialogueUnavailable wraps any model failure while producing the next
// interviewer utterance. It is fatal for that turn: the candidate cannot
// proceed until a retry succeeds, and no utterance is fabricated.
var ErrDialogueUnavailable = errors.New("dialogue engine unavailable")

// ErrQuestionsParse means the generated question list could not be decoded
// even after unwrapping code fences.
var ErrQuestionsParse = errors.New("interview questions response is not a valid array")

// fallbackUtterance replaces an empty model completion. An empty
// interviewer turn would break the transcript's readability, so a neutral
// prompt is substituted instead.
const fallbackUtterance = "Could you tell me more about that?"

type DialogueService struct {
	gemini GeminiServiceInterface
	model  string
	logger *zap.Logger
}

func NewDialogueService(gemini GeminiServiceInterface, model string, logger *zap.Logger) *DialogueService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DialogueService{gemini: gemini, model: model, logger: logger}
}

// systemInstruction binds the model to the interviewer persona for this
// job. The framing is fixed policy, not user-configurable.
func systemInstruction(job transcript.JobContext) string {
	requirements := job.Requirements
	if strings.TrimSpace(requirements) == "" {
		requirements = "Not specified"
	}
	return fmt.Sprintf(`You are an AI interviewer conducting an interview for the position of %s at %s.
Job description: %s
Requirements: %s

You are speaking with a candidate. Be professional, friendly, and conversational.
Ask relevant questions based on the job description and requirements.
If the candidate asks about the company or role, provide information based on the job details.
Keep your responses concise (1-3 sentences) and focused on evaluating the candidate's fit for this specific role.`,
		job.Title, job.Company, job.Description, requirements)
}

// WelcomeTurn is the deterministic, always-available opening turn. It is
// templated rather than model-generated so starting a session never
// depends on the dialogue model being reachable.
func WelcomeTurn(job transcript.JobContext) transcript.Turn {
	return transcript.Turn{
		Role: transcript.RoleInterviewer,
		Content: fmt.Sprintf(
			"Hello, and welcome to your interview for the %s position at %s. I'm your AI interviewer today. To get us started, could you briefly introduce yourself and tell me what drew you to this role?",
			job.Title, job.Company),
	}
}

// NextUtterance produces exactly one interviewer turn from the job context
// and the transcript so far, or fails with ErrDialogueUnavailable.
func (s *DialogueService) NextUtterance(ctx context.Context, job transcript.JobContext, t *transcript.Transcript) (transcript.Turn, error) {
	contents := make([]*genai.Content, 0, t.Len())
	for _, turn := range t.Turns() {
		var role genai.Role = genai.RoleUser
		if turn.Role == transcript.RoleInterviewer {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(turn.Content, role))
	}

	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemInstruction(job), genai.RoleUser),
		Temperature:       genai.Ptr(float32(0.7)),
		MaxOutputTokens:   800,
	}

	resp, err := s.gemini.GenerateContent(ctx, s.model, contents, config)
	if err != nil {
		return transcript.Turn{}, fmt.Errorf("%w: %w", ErrDialogueUnavailable, err)
	}

	content := strings.TrimSpace(resp.Text())
	if content == "" {
		s.logger.Warn("model returned empty utterance, substituting fallback",
			zap.String("job_title", job.Title))
		content = fallbackUtterance
	}

	return transcript.Turn{Role: transcript.RoleInterviewer, Content: content}, nil
}

// GenerateQuestions asks the model for five role-specific interview
// questions, returned as a JSON array of strings possibly wrapped in a
// markdown code fence.
func (s *DialogueService) GenerateQuestions(ctx context.Context, job transcript.JobContext) ([]string, error) {
	prompt := fmt.Sprintf(`As an AI interviewer, generate 5 relevant interview questions for a %s position.

Job description: %s

Requirements: %s

Generate 5 professional and insightful interview questions that will help assess the candidate's fit for this role.
Format your response as a JSON array of strings containing only the questions.`,
		job.Title, job.Description, job.Requirements)

	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(0.7)),
		MaxOutputTokens: 800,
	}

	resp, err := s.gemini.GenerateContent(ctx, s.model, genai.Text(prompt), config)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDialogueUnavailable, err)
	}

	questions, err := parseQuestionArray(resp.Text())
	if err != nil {
		return nil, err
	}
	return questions, nil
}
