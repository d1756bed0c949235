package service

import (
	"testing"
)

func TestExtractJSONBlockBare(t *testing.T) {
	got := extractJSONBlock(`{"fitScore": 80}`)
	if got != `{"fitScore": 80}` {
		t.Fatalf("unexpected block: %q", got)
	}
}

func TestExtractJSONBlockCodeFence(t *testing.T) {
	raw := "```json\n{\"fitScore\": 80, \"strengths\": [\"a\"]}\n```"
	got := extractJSONBlock(raw)
	if got != `{"fitScore": 80, "strengths": ["a"]}` {
		t.Fatalf("unexpected block: %q", got)
	}
}

func TestExtractJSONBlockSurroundingProse(t *testing.T) {
	raw := "Sure! Here is the analysis you asked for:\n{\"fitScore\": 75}\nLet me know if you need anything else."
	got := extractJSONBlock(raw)
	if got != `{"fitScore": 75}` {
		t.Fatalf("unexpected block: %q", got)
	}
}

func TestExtractJSONBlockBracesInsideStrings(t *testing.T) {
	raw := `{"overallFeedback": "good use of {braces} and \"quotes\"", "fitScore": 60}`
	got := extractJSONBlock(raw)
	if got != raw {
		t.Fatalf("unexpected block: %q", got)
	}
}

func TestExtractJSONBlockNothingValid(t *testing.T) {
	if got := extractJSONBlock("sorry, I can't help with that { unbalanced"); got != "" {
		t.Fatalf("expected empty result, got %q", got)
	}
}

func TestParseQuestionArrayFenced(t *testing.T) {
	raw := "```json\n[\"Q1?\", \"Q2?\", \"Q3?\"]\n```"
	questions, err := parseQuestionArray(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(questions) != 3 || questions[0] != "Q1?" {
		t.Fatalf("unexpected questions: %v", questions)
	}
}

func TestParseQuestionArrayProse(t *testing.T) {
	raw := "Here are the questions:\n[\"Tell me about yourself.\", \"Why this role?\"]"
	questions, err := parseQuestionArray(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(questions) != 2 {
		t.Fatalf("expected 2 questions, got %v", questions)
	}
}

func TestParseQuestionArrayInvalid(t *testing.T) {
	if _, err := parseQuestionArray("no list here"); err == nil {
		t.Fatal("expected parse error")
	}
	if _, err := parseQuestionArray("[]"); err == nil {
		t.Fatal("expected error on empty array")
	}
}
