package handler

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/hireloop/ai-interviewer/internal/dto"
	"github.com/hireloop/ai-interviewer/internal/middleware"
	"github.com/hireloop/ai-interviewer/internal/model"
	"github.com/hireloop/ai-interviewer/internal/response"
	"github.com/hireloop/ai-interviewer/internal/service"
	"github.com/hireloop/ai-interviewer/internal/speech"
	"github.com/hireloop/ai-interviewer/internal/usecase"
	"github.com/hireloop/ai-interviewer/internal/util"
)

type InterviewHandler struct {
	uc       *usecase.SessionUsecase
	identity middleware.IdentityProvider
}

func NewInterviewHandler(uc *usecase.SessionUsecase, identity middleware.IdentityProvider) *InterviewHandler {
	return &InterviewHandler{uc: uc, identity: identity}
}

func (h *InterviewHandler) RegisterRoutes(app *fiber.App) {
	auth := middleware.Authenticate(h.identity)
	candidate := middleware.RequireRole(middleware.RoleCandidate)
	employer := middleware.RequireRole(middleware.RoleEmployer)

	app.Get("/jobs", h.ListJobs)
	app.Get("/jobs/:id", h.GetJob)
	app.Post("/jobs", auth, employer, h.CreateJob)

	interviews := app.Group("/interviews", auth)
	interviews.Get("/", candidate, h.ListInterviews)
	interviews.Get("/questions", h.Questions)
	interviews.Post("/start", candidate, h.Start)
	interviews.Post("/advance", candidate, middleware.RateLimiter(10, 10*time.Second), h.Advance)
	interviews.Post("/complete", candidate, h.Complete)
	interviews.Post("/:id/analyze", h.Analyze)
}

func (h *InterviewHandler) Start(c *fiber.Ctx) error {
	var req dto.StartInterviewRequest
	if err := c.BodyParser(&req); err != nil || req.JobID == "" {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    fiber.StatusBadRequest,
			Message: "job_id is required",
		}, err)
	}

	user, _ := middleware.CurrentUser(c)
	turn, err := h.uc.StartInterview(c.Context(), user.ID, req.JobID)
	if err != nil {
		return h.sessionError(c, "failed to start interview", err)
	}

	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Code:    fiber.StatusOK,
		Message: "Interview started",
		Data:    turnResponse(turn),
	})
}

func (h *InterviewHandler) Advance(c *fiber.Ctx) error {
	var req dto.AdvanceRequest
	if err := c.BodyParser(&req); err != nil || req.JobID == "" {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    fiber.StatusBadRequest,
			Message: "job_id and transcript are required",
		}, err)
	}

	input := usecase.CandidateInput{Text: req.Text}
	if req.AudioBase64 != "" {
		audio, err := base64.StdEncoding.DecodeString(req.AudioBase64)
		if err != nil {
			return util.ErrorResponse(c, util.ErrorResponseFormat{
				Code:    fiber.StatusBadRequest,
				Message: "audio_base64 is not valid base64",
			}, err)
		}
		input.Audio = audio
	}

	user, _ := middleware.CurrentUser(c)
	turn, err := h.uc.Advance(c.Context(), user.ID, req.JobID, req.Transcript, input)
	if err != nil {
		return h.sessionError(c, "failed to advance interview", err)
	}

	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Code:    fiber.StatusOK,
		Message: "Interview advanced",
		Data:    turnResponse(turn),
	})
}

func (h *InterviewHandler) Complete(c *fiber.Ctx) error {
	var req dto.CompleteRequest
	if err := c.BodyParser(&req); err != nil || req.JobID == "" {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    fiber.StatusBadRequest,
			Message: "job_id and transcript are required",
		}, err)
	}

	user, _ := middleware.CurrentUser(c)
	interview, err := h.uc.Complete(c.Context(), user.ID, req.JobID, req.Transcript)
	if err != nil {
		return h.sessionError(c, "failed to complete interview", err)
	}

	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Code:    fiber.StatusOK,
		Message: "Interview submitted",
		Data: dto.CompleteResponse{
			InterviewID: interview.ID.String(),
			Status:      interview.Status,
		},
	})
}

func (h *InterviewHandler) Analyze(c *fiber.Ctx) error {
	interviewID := c.Params("id")

	var req dto.AnalyzeRequest
	if err := c.BodyParser(&req); err != nil {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    fiber.StatusBadRequest,
			Message: "invalid request body",
		}, err)
	}

	// Candidates can only finalize their own interview; employers may
	// finalize any record pending their review.
	user, _ := middleware.CurrentUser(c)
	candidateID := ""
	if user.Role == middleware.RoleCandidate {
		candidateID = user.ID
	}

	feedback, interview, err := h.uc.Analyze(c.Context(), interviewID, candidateID, req.Transcript)
	if err != nil {
		return h.sessionError(c, "failed to analyze interview", err)
	}

	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Code:    fiber.StatusOK,
		Message: "Interview analyzed",
		Data: fiber.Map{
			"feedback":  feedback,
			"interview": interviewDTO(interview),
		},
	})
}

func (h *InterviewHandler) Questions(c *fiber.Ctx) error {
	jobID := c.Query("job_id")
	if jobID == "" {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    fiber.StatusBadRequest,
			Message: "job_id is required",
		}, nil)
	}

	questions, err := h.uc.Questions(c.Context(), jobID)
	if err != nil {
		return h.sessionError(c, "failed to generate interview questions", err)
	}

	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Code:    fiber.StatusOK,
		Message: "Success generate interview questions",
		Data:    fiber.Map{"questions": questions},
	})
}

func (h *InterviewHandler) ListInterviews(c *fiber.Ctx) error {
	user, _ := middleware.CurrentUser(c)
	interviews, err := h.uc.ListInterviews(user.ID)
	if err != nil {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Message: "failed to list interviews",
		}, err)
	}

	data := make([]dto.InterviewDTO, 0, len(interviews))
	for i := range interviews {
		data = append(data, *interviewDTO(&interviews[i]))
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Code:    fiber.StatusOK,
		Message: "Success get interviews",
		Data:    data,
	})
}

func (h *InterviewHandler) ListJobs(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	pageSize := c.QueryInt("page_size", 20)
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	jobs, total, err := h.uc.ListJobs(page, pageSize)
	if err != nil {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Message: "failed to list jobs",
		}, err)
	}

	totalPages := total / int64(pageSize)
	if total%int64(pageSize) != 0 {
		totalPages++
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Code:    fiber.StatusOK,
		Message: "Success get jobs",
		Data:    jobs,
		Pagination: &response.Pagination{
			Page:       page,
			PageSize:   pageSize,
			TotalPages: totalPages,
			TotalItems: total,
			HasMore:    int64(page) < totalPages,
			From:       (page-1)*pageSize + 1,
			To:         (page-1)*pageSize + len(jobs),
		},
	})
}

func (h *InterviewHandler) GetJob(c *fiber.Ctx) error {
	job, err := h.uc.GetJob(c.Params("id"))
	if err != nil {
		return h.sessionError(c, "failed to get job", err)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Code:    fiber.StatusOK,
		Message: "Success get job",
		Data:    job,
	})
}

func (h *InterviewHandler) CreateJob(c *fiber.Ctx) error {
	var req dto.CreateJobRequest
	if err := c.BodyParser(&req); err != nil {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    fiber.StatusBadRequest,
			Message: "invalid request body",
		}, err)
	}

	fieldErrors := map[string]string{}
	if req.Title == "" {
		fieldErrors["title"] = "title is required"
	}
	if req.Company == "" {
		fieldErrors["company"] = "company is required"
	}
	if req.Description == "" {
		fieldErrors["description"] = "description is required"
	}
	if len(fieldErrors) > 0 {
		formErr := util.NewFormError("missing required fields", fieldErrors)
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    fiber.StatusUnprocessableEntity,
			Message: formErr.Message,
			Details: formErr.Errors,
		}, formErr)
	}

	user, _ := middleware.CurrentUser(c)
	job := &model.Job{
		Title:        req.Title,
		Company:      req.Company,
		Description:  req.Description,
		Requirements: req.Requirements,
		JobType:      req.JobType,
		Location:     req.Location,
		Salary:       req.Salary,
		EmployerID:   user.ID,
	}
	if err := h.uc.CreateJob(job); err != nil {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Message: "failed to create job",
		}, err)
	}

	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Code:    fiber.StatusCreated,
		Message: "Success create job",
		Data:    job,
	})
}

// sessionError translates the error taxonomy into HTTP statuses. Speech
// failures that reach this point are per-utterance errors the candidate
// can retry; configuration errors surface as a degraded-capability notice.
func (h *InterviewHandler) sessionError(c *fiber.Ctx, message string, err error) error {
	code := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, usecase.ErrJobNotFound),
		errors.Is(err, usecase.ErrInterviewNotFound):
		code = fiber.StatusNotFound
	case errors.Is(err, usecase.ErrPreconditionFailed):
		code = fiber.StatusBadRequest
	case errors.Is(err, usecase.ErrRoundInFlight),
		errors.Is(err, usecase.ErrAlreadySubmitted):
		code = fiber.StatusConflict
	case errors.Is(err, service.ErrFeedbackParse),
		errors.Is(err, service.ErrQuestionsParse),
		errors.Is(err, service.ErrDialogueUnavailable):
		code = fiber.StatusBadGateway
	}

	if kind := speech.KindOf(err); kind != 0 {
		switch kind {
		case speech.KindEmptyInput, speech.KindEmptyAudio:
			code = fiber.StatusBadRequest
		case speech.KindConfiguration:
			code = fiber.StatusServiceUnavailable
		default:
			// Terminal for this one utterance: prompt a retry or typed
			// fallback.
			code = fiber.StatusUnprocessableEntity
		}
	}

	return util.ErrorResponse(c, util.ErrorResponseFormat{
		Code:    code,
		Message: message + ": " + err.Error(),
	}, err)
}

func turnResponse(turn *usecase.SessionTurn) dto.TurnResponse {
	resp := dto.TurnResponse{Turn: turn.Turn}
	if len(turn.Audio) > 0 {
		resp.AudioBase64 = base64.StdEncoding.EncodeToString(turn.Audio)
	}
	return resp
}

func interviewDTO(interview *model.Interview) *dto.InterviewDTO {
	d := &dto.InterviewDTO{
		ID:          interview.ID,
		JobID:       interview.JobID,
		Status:      interview.Status,
		Score:       interview.Score,
		Feedback:    interview.Feedback,
		Date:        interview.Date,
		CompletedAt: interview.CompletedAt,
	}
	if interview.Strengths != "" {
		_ = json.Unmarshal([]byte(interview.Strengths), &d.Strengths)
	}
	if interview.Improvements != "" {
		_ = json.Unmarshal([]byte(interview.Improvements), &d.Improvements)
	}
	if interview.Job != nil {
		d.JobTitle = interview.Job.Title
		d.JobCompany = interview.Job.Company
	}
	return d
}
