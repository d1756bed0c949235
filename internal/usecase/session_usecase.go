package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/hireloop/ai-interviewer/internal/model"
	"github.com/hireloop/ai-interviewer/internal/service"
	"github.com/hireloop/ai-interviewer/internal/speech"
	"github.com/hireloop/ai-interviewer/internal/transcript"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// minTurnsForCompletion guards against trivially short interviews: welcome,
// one candidate answer and one follow-up at minimum.
const minTurnsForCompletion = 3

var (
	ErrJobNotFound       = errors.New("job not found")
	ErrInterviewNotFound = errors.New("interview not found")
	// ErrPreconditionFailed rejects an operation before any external call
	// is made or state is mutated.
	ErrPreconditionFailed = errors.New("precondition failed")
	// ErrRoundInFlight rejects a candidate input event while a dialogue
	// round for the same session is still running.
	ErrRoundInFlight = errors.New("a dialogue round is already in flight for this session")
	// ErrAlreadySubmitted rejects advancing or resubmitting a pair whose
	// interview has already been submitted or analyzed.
	ErrAlreadySubmitted = errors.New("interview already submitted for this job")
)

type InterviewRepositoryInterface interface {
	Upsert(interview *model.Interview) error
	Update(interview *model.Interview) error
	FindByID(id string) (*model.Interview, error)
	FindByJobAndCandidate(jobID, candidateID string) (*model.Interview, error)
	ListByCandidate(candidateID string) ([]model.Interview, error)
}

type JobRepositoryInterface interface {
	CreateJob(job *model.Job) error
	FindJobByID(id string) (*model.Job, error)
	GetJobs(page, pageSize int) ([]model.Job, int64, error)
	IncrementApplicants(id string) error
}

type DialogueEngineInterface interface {
	NextUtterance(ctx context.Context, job transcript.JobContext, t *transcript.Transcript) (transcript.Turn, error)
	GenerateQuestions(ctx context.Context, job transcript.JobContext) ([]string, error)
}

type FinalizerInterface interface {
	Finalize(ctx context.Context, job transcript.JobContext, t *transcript.Transcript) (*service.Feedback, error)
}

// SessionTurn is one interviewer turn plus opportunistically synthesized
// audio. Audio is nil whenever synthesis failed; the turn always stands on
// its own as text.
type SessionTurn struct {
	Turn  transcript.Turn
	Audio []byte
}

// CandidateInput is the advancing event for a session: either typed text
// or a voice recording that must be transcribed first.
type CandidateInput struct {
	Text  string
	Audio []byte
}

// SessionUsecase drives the interview session lifecycle. The server holds
// no session object between requests: every call re-derives state from the
// client-supplied transcript plus the persisted record, so the transcript
// is the single source of truth.
type SessionUsecase struct {
	interviewRepo InterviewRepositoryInterface
	jobRepo       JobRepositoryInterface
	dialogue      DialogueEngineInterface
	finalizer     FinalizerInterface
	synthesizer   speech.Synthesizer
	transcriber   speech.Transcriber
	logger        *zap.Logger

	// one mutex per (jobID, candidateID); TryLock enforces the single
	// in-flight dialogue round per session.
	rounds sync.Map
}

func NewSessionUsecase(
	interviewRepo InterviewRepositoryInterface,
	jobRepo JobRepositoryInterface,
	dialogue DialogueEngineInterface,
	finalizer FinalizerInterface,
	synthesizer speech.Synthesizer,
	transcriber speech.Transcriber,
	logger *zap.Logger,
) *SessionUsecase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionUsecase{
		interviewRepo: interviewRepo,
		jobRepo:       jobRepo,
		dialogue:      dialogue,
		finalizer:     finalizer,
		synthesizer:   synthesizer,
		transcriber:   transcriber,
		logger:        logger,
	}
}

func (uc *SessionUsecase) sessionLock(jobID, candidateID string) *sync.Mutex {
	key := jobID + "|" + candidateID
	mu, _ := uc.rounds.LoadOrStore(key, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

func (uc *SessionUsecase) jobContext(jobID string) (*model.Job, transcript.JobContext, error) {
	job, err := uc.jobRepo.FindJobByID(jobID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, transcript.JobContext{}, ErrJobNotFound
		}
		return nil, transcript.JobContext{}, fmt.Errorf("find job: %w", err)
	}
	return job, transcript.JobContext{
		Title:        job.Title,
		Company:      job.Company,
		Description:  job.Description,
		Requirements: job.Requirements,
	}, nil
}

// synthesize attempts speech synthesis for an interviewer turn. Any
// failure is logged and swallowed; voice is an enhancement, never a
// blocker for interview progress.
func (uc *SessionUsecase) synthesize(ctx context.Context, text string) []byte {
	if uc.synthesizer == nil {
		return nil
	}
	audio, err := uc.synthesizer.Synthesize(ctx, text)
	if err != nil {
		uc.logger.Warn("speech synthesis failed, continuing text-only", zap.Error(err))
		return nil
	}
	return audio
}

// StartInterview begins a session with the deterministic welcome turn.
func (uc *SessionUsecase) StartInterview(ctx context.Context, candidateID, jobID string) (*SessionTurn, error) {
	_, jobCtx, err := uc.jobContext(jobID)
	if err != nil {
		return nil, err
	}

	welcome := service.WelcomeTurn(jobCtx)
	uc.logger.Info("interview started",
		zap.String("job_id", jobID), zap.String("candidate_id", candidateID))

	return &SessionTurn{
		Turn:  welcome,
		Audio: uc.synthesize(ctx, welcome.Content),
	}, nil
}

// Advance runs one dialogue round: resolve the candidate input (transcribe
// voice if needed), append the candidate turn, obtain the next interviewer
// turn and persist the running transcript. Nothing is appended and nothing
// is persisted unless the whole round succeeds.
func (uc *SessionUsecase) Advance(ctx context.Context, candidateID, jobID string, turns []transcript.Turn, input CandidateInput) (*SessionTurn, error) {
	job, jobCtx, err := uc.jobContext(jobID)
	if err != nil {
		return nil, err
	}

	lock := uc.sessionLock(jobID, candidateID)
	if !lock.TryLock() {
		return nil, ErrRoundInFlight
	}
	defer lock.Unlock()

	// A submitted or analyzed interview is final for this pair; a stray
	// advance must not flip it back to IN_PROGRESS or replace its
	// transcript.
	existing, err := uc.interviewRepo.FindByJobAndCandidate(jobID, candidateID)
	switch {
	case err == nil:
		if existing.Status != model.InterviewStatusInProgress {
			return nil, ErrAlreadySubmitted
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
	default:
		return nil, fmt.Errorf("find interview: %w", err)
	}

	t, err := transcript.New(turns)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPreconditionFailed, err)
	}
	if t.Len() == 0 {
		return nil, fmt.Errorf("%w: transcript is empty, start the interview first", ErrPreconditionFailed)
	}

	text := strings.TrimSpace(input.Text)
	if len(input.Audio) > 0 {
		// Transcription failure returns without advancing the transcript;
		// the candidate retries or falls back to typing.
		text, err = uc.transcriber.Transcribe(ctx, input.Audio)
		if err != nil {
			return nil, err
		}
	}
	if text == "" {
		return nil, fmt.Errorf("%w: candidate input is empty", ErrPreconditionFailed)
	}

	if err := t.AppendCandidate(text); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPreconditionFailed, err)
	}

	next, err := uc.dialogue.NextUtterance(ctx, jobCtx, t)
	if err != nil {
		return nil, err
	}
	if err := t.Append(next); err != nil {
		return nil, err
	}

	serialized, err := t.Serialize()
	if err != nil {
		return nil, err
	}
	interview := &model.Interview{
		JobID:       job.ID,
		CandidateID: candidateID,
		Transcript:  serialized,
		Status:      model.InterviewStatusInProgress,
		Date:        time.Now(),
	}
	if err := uc.interviewRepo.Upsert(interview); err != nil {
		return nil, fmt.Errorf("persist session transcript: %w", err)
	}

	return &SessionTurn{
		Turn:  next,
		Audio: uc.synthesize(ctx, next.Content),
	}, nil
}

// Complete submits the interview for review. The transcript replaces
// whatever the running record held, atomically keyed on the
// (jobID, candidateID) pair, so repeated submissions return the same
// record rather than creating a duplicate.
func (uc *SessionUsecase) Complete(ctx context.Context, candidateID, jobID string, turns []transcript.Turn) (*model.Interview, error) {
	t, err := transcript.New(turns)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPreconditionFailed, err)
	}
	if t.Len() < minTurnsForCompletion {
		return nil, fmt.Errorf("%w: interview needs at least %d turns before completion",
			ErrPreconditionFailed, minTurnsForCompletion)
	}

	lock := uc.sessionLock(jobID, candidateID)
	if !lock.TryLock() {
		return nil, ErrRoundInFlight
	}
	defer lock.Unlock()

	job, _, err := uc.jobContext(jobID)
	if err != nil {
		return nil, err
	}

	existing, err := uc.interviewRepo.FindByJobAndCandidate(jobID, candidateID)
	firstSubmission := false
	switch {
	case err == nil:
		if existing.Status == model.InterviewStatusCompleted {
			return nil, ErrAlreadySubmitted
		}
		// a running IN_PROGRESS row exists but has never been submitted
		firstSubmission = existing.Status == model.InterviewStatusInProgress
	case errors.Is(err, gorm.ErrRecordNotFound):
		firstSubmission = true
	default:
		return nil, fmt.Errorf("find interview: %w", err)
	}

	serialized, err := t.Serialize()
	if err != nil {
		return nil, err
	}
	interview := &model.Interview{
		JobID:       job.ID,
		CandidateID: candidateID,
		Transcript:  serialized,
		Status:      model.InterviewStatusPendingReview,
		Date:        time.Now(),
	}
	if err := uc.interviewRepo.Upsert(interview); err != nil {
		return nil, fmt.Errorf("submit interview: %w", err)
	}

	if firstSubmission {
		if err := uc.jobRepo.IncrementApplicants(jobID); err != nil {
			uc.logger.Warn("failed to bump applicants count",
				zap.String("job_id", jobID), zap.Error(err))
		}
	}

	uc.logger.Info("interview submitted",
		zap.String("interview_id", interview.ID.String()),
		zap.String("job_id", jobID),
		zap.Int("turns", t.Len()))
	return interview, nil
}

// Analyze runs the finalizer over a submitted interview and moves the
// record to COMPLETED. On any finalizer failure the record is left at
// PENDING_REVIEW so analysis can be retried without redoing the dialogue.
// A non-empty candidateID restricts analysis to that candidate's own
// record; callers pass the empty string for reviewer roles.
func (uc *SessionUsecase) Analyze(ctx context.Context, interviewID, candidateID string, turns []transcript.Turn) (*service.Feedback, *model.Interview, error) {
	interview, err := uc.interviewRepo.FindByID(interviewID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrInterviewNotFound
		}
		return nil, nil, fmt.Errorf("find interview: %w", err)
	}
	// Not ErrUnauthorized: the record's existence is not leaked to a
	// candidate probing foreign ids.
	if candidateID != "" && interview.CandidateID != candidateID {
		return nil, nil, ErrInterviewNotFound
	}

	var jobCtx transcript.JobContext
	if interview.Job != nil {
		jobCtx = transcript.JobContext{
			Title:        interview.Job.Title,
			Company:      interview.Job.Company,
			Description:  interview.Job.Description,
			Requirements: interview.Job.Requirements,
		}
	} else {
		_, jobCtx, err = uc.jobContext(interview.JobID.String())
		if err != nil {
			return nil, nil, err
		}
	}

	var t *transcript.Transcript
	if len(turns) > 0 {
		if t, err = transcript.New(turns); err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrPreconditionFailed, err)
		}
	} else {
		if t, err = transcript.Parse(interview.Transcript); err != nil {
			return nil, nil, fmt.Errorf("stored transcript unreadable: %w", err)
		}
	}

	feedback, err := uc.finalizer.Finalize(ctx, jobCtx, t)
	if err != nil {
		// No rollback needed: the record has not been touched and stays
		// at PENDING_REVIEW for a later retry.
		return nil, nil, err
	}

	strengths, err := json.Marshal(feedback.Strengths)
	if err != nil {
		return nil, nil, fmt.Errorf("encode strengths: %w", err)
	}
	improvements, err := json.Marshal(feedback.AreasForImprovement)
	if err != nil {
		return nil, nil, fmt.Errorf("encode improvements: %w", err)
	}

	now := time.Now()
	interview.Feedback = feedback.OverallFeedback
	interview.Strengths = string(strengths)
	interview.Improvements = string(improvements)
	interview.Score = feedback.FitScore
	interview.Status = model.InterviewStatusCompleted
	interview.CompletedAt = &now

	if err := uc.interviewRepo.Update(interview); err != nil {
		return nil, nil, fmt.Errorf("store analysis: %w", err)
	}

	uc.logger.Info("interview analyzed",
		zap.String("interview_id", interviewID),
		zap.Float64("fit_score", feedback.FitScore))
	return feedback, interview, nil
}

// Questions generates a preparatory question list for a job.
func (uc *SessionUsecase) Questions(ctx context.Context, jobID string) ([]string, error) {
	_, jobCtx, err := uc.jobContext(jobID)
	if err != nil {
		return nil, err
	}
	return uc.dialogue.GenerateQuestions(ctx, jobCtx)
}

// ListInterviews returns the candidate's interviews, newest first.
func (uc *SessionUsecase) ListInterviews(candidateID string) ([]model.Interview, error) {
	return uc.interviewRepo.ListByCandidate(candidateID)
}

func (uc *SessionUsecase) GetJob(jobID string) (*model.Job, error) {
	job, _, err := uc.jobContext(jobID)
	if err != nil {
		return nil, err
	}
	return job, nil
}

func (uc *SessionUsecase) ListJobs(page, pageSize int) ([]model.Job, int64, error) {
	return uc.jobRepo.GetJobs(page, pageSize)
}

func (uc *SessionUsecase) CreateJob(job *model.Job) error {
	return uc.jobRepo.CreateJob(job)
}
