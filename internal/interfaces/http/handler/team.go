package handler

import (
	"context"

	"github.com/dpnk/backend/internal/application/organization"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// TeamHandler serves team creation, membership and approval
type TeamHandler struct {
	BaseHandler
	teamService *organization.TeamService
}

// NewTeamHandler creates a new team handler
func NewTeamHandler(teamService *organization.TeamService) *TeamHandler {
	return &TeamHandler{teamService: teamService}
}

// ListTeams godoc
// @Summary      List teams
// @Tags         teams
// @Produce      json
// @Param        subsidiary_id query string false "Subsidiary ID"
// @Param        search        query string false "Team name fragment"
// @Param        page          query int    false "Page number" default(1)
// @Param        page_size     query int    false "Page size" default(20)
// @Success      200 {object} APIResponse[[]organization.TeamResponse]
// @Security     BearerAuth
// @Router       /teams [get]
func (h *TeamHandler) ListTeams(c *gin.Context) {
	campaignID, ok := h.currentCampaign(c)
	if !ok {
		return
	}
	filter, ok := h.listFilter(c)
	if !ok {
		return
	}

	teamFilter := organization.TeamFilter{Filter: filter}
	if raw := c.Query("subsidiary_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			h.BadRequest(c, "Invalid subsidiary_id")
			return
		}
		teamFilter.SubsidiaryID = &id
	}

	page, err := h.teamService.ListTeams(c.Request.Context(), campaignID, teamFilter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	successPage(&h.BaseHandler, c, page)
}

// MyTeam godoc
// @Summary      My team
// @Description  The team of the current participant with its members
// @Tags         teams
// @Produce      json
// @Success      200 {object} APIResponse[organization.TeamDetail]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /teams/mine [get]
func (h *TeamHandler) MyTeam(c *gin.Context) {
	campaignID, userID, ok := h.participant(c)
	if !ok {
		return
	}

	team, err := h.teamService.MyTeam(c.Request.Context(), campaignID, userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, team)
}

// CreateTeam godoc
// @Summary      Create a team
// @Description  The creator joins the new team as an approved member
// @Tags         teams
// @Accept       json
// @Produce      json
// @Param        request body organization.CreateTeamInput true "Team"
// @Success      201 {object} APIResponse[organization.TeamResponse]
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /teams [post]
func (h *TeamHandler) CreateTeam(c *gin.Context) {
	campaignID, userID, ok := h.participant(c)
	if !ok {
		return
	}

	var req organization.CreateTeamInput
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleValidation(c, err)
		return
	}

	team, err := h.teamService.CreateTeam(c.Request.Context(), campaignID, userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, team)
}

// JoinTeam godoc
// @Summary      Join a team
// @Description  Selects the team by id or invitation token; membership stays undecided until a member approves it
// @Tags         teams
// @Accept       json
// @Produce      json
// @Param        request body organization.JoinTeamInput true "Team"
// @Success      200 {object} APIResponse[organization.TeamResponse]
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /teams/join [post]
func (h *TeamHandler) JoinTeam(c *gin.Context) {
	campaignID, userID, ok := h.participant(c)
	if !ok {
		return
	}

	var req organization.JoinTeamInput
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleValidation(c, err)
		return
	}
	if req.TeamID == nil && req.InvitationToken == "" {
		h.BadRequest(c, "team_id or invitation_token is required")
		return
	}

	team, err := h.teamService.JoinTeam(c.Request.Context(), campaignID, userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, team)
}

// LeaveTeam godoc
// @Summary      Leave the team
// @Tags         teams
// @Success      204
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /teams/leave [post]
func (h *TeamHandler) LeaveTeam(c *gin.Context) {
	campaignID, userID, ok := h.participant(c)
	if !ok {
		return
	}

	if err := h.teamService.LeaveTeam(c.Request.Context(), campaignID, userID); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// ApproveMember godoc
// @Summary      Approve a team member
// @Description  Any approved member may approve; fails when the team is full
// @Tags         teams
// @Param        id path string true "User attendance ID of the member"
// @Success      204
// @Failure      403 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /teams/members/{id}/approve [post]
func (h *TeamHandler) ApproveMember(c *gin.Context) {
	h.decide(c, h.teamService.ApproveMember)
}

// DenyMember godoc
// @Summary      Deny a team member
// @Tags         teams
// @Param        id path string true "User attendance ID of the member"
// @Success      204
// @Failure      403 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /teams/members/{id}/deny [post]
func (h *TeamHandler) DenyMember(c *gin.Context) {
	h.decide(c, h.teamService.DenyMember)
}

func (h *TeamHandler) decide(c *gin.Context, fn func(ctx context.Context, campaignID, userID, memberID uuid.UUID) error) {
	campaignID, userID, ok := h.participant(c)
	if !ok {
		return
	}
	memberID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	if err := fn(c.Request.Context(), campaignID, userID, memberID); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// RegenerateInvitationToken godoc
// @Summary      New invitation token
// @Description  Replaces the invitation token of the participant's team
// @Tags         teams
// @Produce      json
// @Success      200 {object} APIResponse[TokenData]
// @Security     BearerAuth
// @Router       /teams/invitation-token [post]
func (h *TeamHandler) RegenerateInvitationToken(c *gin.Context) {
	campaignID, userID, ok := h.participant(c)
	if !ok {
		return
	}

	token, err := h.teamService.RegenerateInvitationToken(c.Request.Context(), campaignID, userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, TokenData{Token: token})
}

// Invite godoc
// @Summary      Invite colleagues
// @Description  E-mails the invitation link to up to ten addresses
// @Tags         teams
// @Accept       json
// @Param        request body organization.InviteInput true "Addresses"
// @Success      204
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /teams/invite [post]
func (h *TeamHandler) Invite(c *gin.Context) {
	campaignID, userID, ok := h.participant(c)
	if !ok {
		return
	}

	var req organization.InviteInput
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleValidation(c, err)
		return
	}

	if err := h.teamService.Invite(c.Request.Context(), campaignID, userID, req); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}
