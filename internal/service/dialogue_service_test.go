package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/hireloop/ai-interviewer/internal/transcript"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

type stubGemini struct {
	response     string
	err          error
	lastModel    string
	lastContents []*genai.Content
	lastConfig   *genai.GenerateContentConfig
}

func (s *stubGemini) GenerateContent(_ context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	s.lastModel = model
	s.lastContents = contents
	s.lastConfig = config
	if s.err != nil {
		return nil, s.err
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: s.response}}},
		}},
	}, nil
}

var testJob = transcript.JobContext{
	Title:        "Backend Engineer",
	Company:      "Acme",
	Description:  "Build APIs in Go.",
	Requirements: "Go, PostgreSQL",
}

func seededTranscript(t *testing.T) *transcript.Transcript {
	t.Helper()
	tr, err := transcript.New([]transcript.Turn{
		{Role: transcript.RoleInterviewer, Content: "Welcome."},
		{Role: transcript.RoleCandidate, Content: "Thanks, I'm ready."},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return tr
}

func TestWelcomeTurnIsTemplated(t *testing.T) {
	turn := WelcomeTurn(testJob)
	if turn.Role != transcript.RoleInterviewer {
		t.Fatal("welcome turn must be an interviewer turn")
	}
	if !strings.Contains(turn.Content, "Backend Engineer") {
		t.Fatalf("welcome missing job title: %q", turn.Content)
	}
	if !strings.Contains(turn.Content, "Acme") {
		t.Fatalf("welcome missing company: %q", turn.Content)
	}
}

func TestNextUtteranceFramesSystemInstruction(t *testing.T) {
	stub := &stubGemini{response: "What does your Go experience look like?"}
	svc := NewDialogueService(stub, "test-model", zap.NewNop())

	turn, err := svc.NextUtterance(context.Background(), testJob, seededTranscript(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if turn.Role != transcript.RoleInterviewer {
		t.Fatal("expected an interviewer turn")
	}
	if turn.Content != "What does your Go experience look like?" {
		t.Fatalf("unexpected content: %q", turn.Content)
	}

	if stub.lastConfig == nil || stub.lastConfig.SystemInstruction == nil {
		t.Fatal("expected a system instruction to be set")
	}
	system := stub.lastConfig.SystemInstruction.Parts[0].Text
	for _, want := range []string{"Backend Engineer", "Acme", "Build APIs in Go.", "Go, PostgreSQL", "concise (1-3 sentences)"} {
		if !strings.Contains(system, want) {
			t.Fatalf("system instruction missing %q:\n%s", want, system)
		}
	}
}

func TestNextUtteranceReplaysTranscriptRoles(t *testing.T) {
	stub := &stubGemini{response: "Next question."}
	svc := NewDialogueService(stub, "test-model", zap.NewNop())

	if _, err := svc.NextUtterance(context.Background(), testJob, seededTranscript(t)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(stub.lastContents) != 2 {
		t.Fatalf("expected 2 replayed turns, got %d", len(stub.lastContents))
	}
	if stub.lastContents[0].Role != string(genai.RoleModel) {
		t.Fatalf("interviewer turn should replay as model role, got %q", stub.lastContents[0].Role)
	}
	if stub.lastContents[1].Role != string(genai.RoleUser) {
		t.Fatalf("candidate turn should replay as user role, got %q", stub.lastContents[1].Role)
	}
}

func TestNextUtteranceEmptyContentGetsFallback(t *testing.T) {
	stub := &stubGemini{response: "   "}
	svc := NewDialogueService(stub, "test-model", zap.NewNop())

	turn, err := svc.NextUtterance(context.Background(), testJob, seededTranscript(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if turn.Content != fallbackUtterance {
		t.Fatalf("expected fallback utterance, got %q", turn.Content)
	}
}

func TestNextUtteranceModelFailureIsDialogueUnavailable(t *testing.T) {
	stub := &stubGemini{err: errors.New("quota exhausted")}
	svc := NewDialogueService(stub, "test-model", zap.NewNop())

	_, err := svc.NextUtterance(context.Background(), testJob, seededTranscript(t))
	if !errors.Is(err, ErrDialogueUnavailable) {
		t.Fatalf("expected ErrDialogueUnavailable, got %v", err)
	}
}

func TestGenerateQuestions(t *testing.T) {
	stub := &stubGemini{response: "```json\n[\"Q1?\", \"Q2?\", \"Q3?\", \"Q4?\", \"Q5?\"]\n```"}
	svc := NewDialogueService(stub, "test-model", zap.NewNop())

	questions, err := svc.GenerateQuestions(context.Background(), testJob)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(questions) != 5 {
		t.Fatalf("expected 5 questions, got %d", len(questions))
	}
}

func TestGenerateQuestionsUnparseable(t *testing.T) {
	stub := &stubGemini{response: "I'd rather chat about the weather."}
	svc := NewDialogueService(stub, "test-model", zap.NewNop())

	if _, err := svc.GenerateQuestions(context.Background(), testJob); !errors.Is(err, ErrQuestionsParse) {
		t.Fatalf("expected ErrQuestionsParse, got %v", err)
	}
}
