package transcript

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Role tags one side of the interview conversation.
type Role string

const (
	RoleInterviewer Role = "interviewer"
	RoleCandidate   Role = "candidate"
)

var (
	ErrEmptyContent     = errors.New("turn content must not be empty")
	ErrInvalidRole      = errors.New("turn role must be interviewer or candidate")
	ErrNotCandidateTurn = errors.New("a candidate turn is only accepted in response to the most recent interviewer turn")
)

// Turn is one utterance by either party. Turns are immutable once appended;
// insertion order is conversational order.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Transcript is the append-only ordered history of turns for one interview
// session. It is never reordered or mutated in place.
type Transcript struct {
	turns []Turn
}

// New builds a transcript from existing turns, validating each one. The
// input slice is copied so callers cannot mutate appended turns.
func New(turns []Turn) (*Transcript, error) {
	t := &Transcript{}
	for i, turn := range turns {
		if err := validate(turn); err != nil {
			return nil, fmt.Errorf("turn %d: %w", i, err)
		}
		t.turns = append(t.turns, turn)
	}
	return t, nil
}

func validate(turn Turn) error {
	if turn.Role != RoleInterviewer && turn.Role != RoleCandidate {
		return ErrInvalidRole
	}
	if strings.TrimSpace(turn.Content) == "" {
		return ErrEmptyContent
	}
	return nil
}

// Append adds a turn at the end of the transcript.
func (t *Transcript) Append(turn Turn) error {
	if err := validate(turn); err != nil {
		return err
	}
	t.turns = append(t.turns, turn)
	return nil
}

// AppendCandidate appends a candidate turn. It is rejected unless the most
// recent turn belongs to the interviewer, so a candidate can only respond to
// the question actually on the table.
func (t *Transcript) AppendCandidate(content string) error {
	if t.Len() == 0 || t.Last().Role != RoleInterviewer {
		return ErrNotCandidateTurn
	}
	return t.Append(Turn{Role: RoleCandidate, Content: content})
}

// Len returns the number of turns.
func (t *Transcript) Len() int {
	if t == nil {
		return 0
	}
	return len(t.turns)
}

// Last returns the most recent turn. Callers must check Len first.
func (t *Transcript) Last() Turn {
	return t.turns[len(t.turns)-1]
}

// Turns returns a copy of the ordered turn sequence.
func (t *Transcript) Turns() []Turn {
	if t == nil {
		return nil
	}
	out := make([]Turn, len(t.turns))
	copy(out, t.turns)
	return out
}

// Serialize encodes the transcript as a JSON array for persistence.
func (t *Transcript) Serialize() (string, error) {
	turns := t.Turns()
	if turns == nil {
		turns = []Turn{}
	}
	b, err := json.Marshal(turns)
	if err != nil {
		return "", fmt.Errorf("serialize transcript: %w", err)
	}
	return string(b), nil
}

// Parse decodes a persisted transcript back into turns.
func Parse(serialized string) (*Transcript, error) {
	var turns []Turn
	if err := json.Unmarshal([]byte(serialized), &turns); err != nil {
		return nil, fmt.Errorf("parse transcript: %w", err)
	}
	return New(turns)
}

// Text renders the transcript as readable role-prefixed lines, the format
// fed to the analysis prompt.
func (t *Transcript) Text() string {
	var b strings.Builder
	for _, turn := range t.turns {
		label := "Interviewer"
		if turn.Role == RoleCandidate {
			label = "Candidate"
		}
		b.WriteString(label)
		b.WriteString(": ")
		b.WriteString(turn.Content)
		b.WriteString("\n")
	}
	return b.String()
}

// JobContext is the immutable job snapshot used to frame the interview.
// It is read once at session start and never mutated during the session.
type JobContext struct {
	Title        string
	Company      string
	Description  string
	Requirements string
}
