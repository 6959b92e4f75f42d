package handler

import (
	"net/http"

	"github.com/dpnk/backend/internal/application/results"
	"github.com/dpnk/backend/internal/interfaces/http/dto"
	"github.com/dpnk/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// CompetitionHandler serves competitions, result tables and questionnaires
type CompetitionHandler struct {
	BaseHandler
	resultsService *results.ResultsService
}

// NewCompetitionHandler creates a new competition handler
func NewCompetitionHandler(resultsService *results.ResultsService) *CompetitionHandler {
	return &CompetitionHandler{resultsService: resultsService}
}

// ListCompetitions godoc
// @Summary      List competitions
// @Description  Public competitions of the campaign; staff also see the hidden ones
// @Tags         competitions
// @Produce      json
// @Success      200 {object} APIResponse[[]results.CompetitionResponse]
// @Router       /competitions [get]
func (h *CompetitionHandler) ListCompetitions(c *gin.Context) {
	campaignID, ok := h.currentCampaign(c)
	if !ok {
		return
	}

	comps, err := h.resultsService.ListCompetitions(c.Request.Context(), campaignID, middleware.IsStaff(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, comps)
}

// Results godoc
// @Summary      Competition results
// @Description  Ranked results with shared places written as "from.-to."
// @Tags         competitions
// @Produce      json
// @Param        slug      path  string true  "Competition slug"
// @Param        page      query int    false "Page number" default(1)
// @Param        page_size query int    false "Page size" default(20)
// @Success      200 {object} APIResponse[results.ResultsPage]
// @Failure      404 {object} ErrorResponse
// @Router       /competitions/{slug}/results [get]
func (h *CompetitionHandler) Results(c *gin.Context) {
	campaignID, ok := h.currentCampaign(c)
	if !ok {
		return
	}
	filter, ok := h.listFilter(c)
	if !ok {
		return
	}

	page, err := h.resultsService.Results(c.Request.Context(), campaignID, c.Param("slug"), filter, middleware.IsStaff(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if page.Items == nil {
		page.Items = []results.ResultRow{}
	}

	c.JSON(http.StatusOK, dto.NewPageResponse(page, page.Total, page.Page, page.PageSize))
}

// MyResults godoc
// @Summary      My results
// @Description  Frequency, distance and the standing in every competition the participant is admitted to
// @Tags         competitions
// @Produce      json
// @Success      200 {object} APIResponse[results.MyResultsResponse]
// @Security     BearerAuth
// @Router       /me/results [get]
func (h *CompetitionHandler) MyResults(c *gin.Context) {
	campaignID, userID, ok := h.participant(c)
	if !ok {
		return
	}

	res, err := h.resultsService.MyResults(c.Request.Context(), campaignID, userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, res)
}

// Questions godoc
// @Summary      Questionnaire of a competition
// @Tags         competitions
// @Produce      json
// @Param        slug path string true "Competition slug"
// @Success      200 {object} APIResponse[[]results.QuestionResponse]
// @Security     BearerAuth
// @Router       /competitions/{slug}/questions [get]
func (h *CompetitionHandler) Questions(c *gin.Context) {
	campaignID, ok := h.currentCampaign(c)
	if !ok {
		return
	}

	qs, err := h.resultsService.Questions(c.Request.Context(), campaignID, c.Param("slug"))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, qs)
}

// SubmitAnswers godoc
// @Summary      Answer a questionnaire
// @Tags         competitions
// @Accept       json
// @Produce      json
// @Param        slug    path string                     true "Competition slug"
// @Param        request body results.SubmitAnswersInput true "Answers"
// @Success      200 {object} APIResponse[[]results.AnswerResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /competitions/{slug}/answers [post]
func (h *CompetitionHandler) SubmitAnswers(c *gin.Context) {
	campaignID, userID, ok := h.participant(c)
	if !ok {
		return
	}

	var req results.SubmitAnswersInput
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleValidation(c, err)
		return
	}

	answers, err := h.resultsService.SubmitAnswers(c.Request.Context(), campaignID, userID, c.Param("slug"), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, answers)
}

// CreateCompetition godoc
// @Summary      Create a competition
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        request body results.CreateCompetitionInput true "Competition"
// @Success      201 {object} APIResponse[results.CompetitionResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/competitions [post]
func (h *CompetitionHandler) CreateCompetition(c *gin.Context) {
	campaignID, ok := h.currentCampaign(c)
	if !ok {
		return
	}

	var req results.CreateCompetitionInput
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleValidation(c, err)
		return
	}

	comp, err := h.resultsService.CreateCompetition(c.Request.Context(), campaignID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, comp)
}

// AddQuestion godoc
// @Summary      Add a questionnaire question
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        slug    path string                   true "Competition slug"
// @Param        request body results.AddQuestionInput true "Question"
// @Success      201 {object} APIResponse[results.QuestionResponse]
// @Security     BearerAuth
// @Router       /admin/competitions/{slug}/questions [post]
func (h *CompetitionHandler) AddQuestion(c *gin.Context) {
	campaignID, ok := h.currentCampaign(c)
	if !ok {
		return
	}

	var req results.AddQuestionInput
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleValidation(c, err)
		return
	}

	q, err := h.resultsService.AddQuestion(c.Request.Context(), campaignID, c.Param("slug"), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, q)
}

// GivePoints godoc
// @Summary      Score an answer
// @Description  Sets the points of an answer and queues the competition for recomputation
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        id      path string                  true "Answer ID"
// @Param        request body results.GivePointsInput true "Points"
// @Success      200 {object} APIResponse[results.AnswerResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/answers/{id}/points [post]
func (h *CompetitionHandler) GivePoints(c *gin.Context) {
	answerID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	var req results.GivePointsInput
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleValidation(c, err)
		return
	}

	answer, err := h.resultsService.GivePoints(c.Request.Context(), answerID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, answer)
}
