package api

import (
	"net/http"

	"github.com/agency-cms-api/internal/models"
	"github.com/agency-cms-api/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// TeamHandler handles team and profile endpoints
type TeamHandler struct {
	team service.TeamService
	log  zerolog.Logger
}

// NewTeamHandler creates a new TeamHandler
func NewTeamHandler(services *service.Services, log zerolog.Logger) *TeamHandler {
	return &TeamHandler{
		team: services.Team,
		log:  log.With().Str("handler", "team").Logger(),
	}
}

// List handles GET /api/team
func (h *TeamHandler) List(c *gin.Context) {
	members, err := h.team.List(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	if members == nil {
		members = []models.TeamMember{}
	}
	c.JSON(http.StatusOK, gin.H{"team": members})
}

// Get handles GET /api/team/:username
func (h *TeamHandler) Get(c *gin.Context) {
	profile, err := h.team.GetByUsername(c.Request.Context(), c.Param("username"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// UpdateProfile handles PUT /api/team/profile
func (h *TeamHandler) UpdateProfile(c *gin.Context) {
	var in models.ProfileUpdate
	if err := c.ShouldBindJSON(&in); err != nil {
		respondBindError(c, h.log, err)
		return
	}

	user, err := h.team.UpdateProfile(c.Request.Context(), currentActor(c), &in)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// UpdateMember handles PUT /api/team/members/:id
func (h *TeamHandler) UpdateMember(c *gin.Context) {
	var in models.TeamUpdate
	if err := c.ShouldBindJSON(&in); err != nil {
		respondBindError(c, h.log, err)
		return
	}

	user, err := h.team.UpdateMember(c.Request.Context(), currentActor(c), c.Param("id"), &in)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}
