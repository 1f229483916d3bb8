package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/teamtask/teamtask-api/internal/dto"
	apierrors "github.com/teamtask/teamtask-api/internal/errors"
	"github.com/teamtask/teamtask-api/internal/middleware"
	"github.com/teamtask/teamtask-api/internal/services"
)

type TeamHandler struct {
	teamService *services.TeamService
}

func NewTeamHandler(teamService *services.TeamService) *TeamHandler {
	return &TeamHandler{
		teamService: teamService,
	}
}

// CreateTeam creates a team managed by the caller
func (h *TeamHandler) CreateTeam(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	type CreateTeamRequest struct {
		Name string `json:"name" binding:"required"`
	}

	var req CreateTeamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	team, err := h.teamService.CreateTeam(c.Request.Context(), req.Name, userID)
	if err != nil {
		respondTeamError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToTeamDTO(*team))
}

// AddMember puts a user into one of the caller's teams
func (h *TeamHandler) AddMember(c *gin.Context) {
	actor, exists := middleware.GetActor(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	type AddMemberRequest struct {
		TeamID uint64 `json:"team_id" binding:"required"`
		UserID uint64 `json:"user_id" binding:"required"`
	}

	var req AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	if err := h.teamService.AddMember(c.Request.Context(), req.TeamID, req.UserID, actor); err != nil {
		respondTeamError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Member added successfully",
	})
}

// ListMembers returns the members of every team the caller manages
func (h *TeamHandler) ListMembers(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	teams, err := h.teamService.ListManagedTeams(c.Request.Context(), userID)
	if err != nil {
		respondTeamError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"teams": dto.ToTeamMembersDTOs(teams),
	})
}

func respondTeamError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidTeamName):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrTeamNameTaken):
		apierrors.AlreadyExists(c, err.Error())
	case errors.Is(err, services.ErrAlreadyInTeam):
		apierrors.Conflict(c, err.Error())
	case errors.Is(err, services.ErrNotTeamManager):
		apierrors.Forbidden(c, err.Error())
	case errors.Is(err, services.ErrTeamNotFound),
		errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrNoTeamsManaged):
		apierrors.NotFound(c, err.Error())
	default:
		c.Error(err)
		apierrors.InternalError(c, "Internal server error")
	}
}
