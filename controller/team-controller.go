package controller

import (
	"strconv"

	"arena-backend/app_error"
	"arena-backend/repository"
	"arena-backend/service"
	"arena-backend/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type TeamController struct {
	teamService *service.TeamService
}

func NewTeamController(db *gorm.DB) *TeamController {
	return &TeamController{
		teamService: service.NewTeamService(db),
	}
}

func setupTeamController(db *gorm.DB) []RouteInfo {
	e := NewTeamController(db)
	basePath := "events/:event_id/teams"
	routes := []RouteInfo{
		{Method: "GET", Path: "", HandlerFunc: e.getTeamsHandler()},
		{Method: "POST", Path: "", HandlerFunc: e.createTeamHandler()},
		{Method: "POST", Path: "/join", HandlerFunc: e.joinTeamHandler()},
		{Method: "POST", Path: "/invite", HandlerFunc: e.inviteHandler()},
		{Method: "GET", Path: "/:team_id", HandlerFunc: e.getTeamHandler()},
		{Method: "GET", Path: "/of/:participant_id", HandlerFunc: e.getTeamForParticipantHandler()},
	}
	for i, route := range routes {
		routes[i].Path = basePath + route.Path
	}
	return routes
}

// @Description Fetches all teams of an event
// @Tags team
// @Produce json
// @Param event_id path int true "Event Id"
// @Success 200 {array} TeamResponse
// @Router /events/{event_id}/teams [get]
func (e *TeamController) getTeamsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		eventId, err := strconv.Atoi(c.Param("event_id"))
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		teams, err := e.teamService.GetTeamsForEvent(eventId)
		if err != nil {
			app_error.Respond(c, err)
			return
		}
		c.JSON(200, utils.Map(teams, toTeamResponse))
	}
}

// @Description Creates a team with the caller as leader and allocates its join code
// @Tags team
// @Accept json
// @Produce json
// @Param event_id path int true "Event Id"
// @Param team body TeamCreate true "Team to create"
// @Success 201 {object} TeamResponse
// @Router /events/{event_id}/teams [post]
func (e *TeamController) createTeamHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		eventId, err := strconv.Atoi(c.Param("event_id"))
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		var teamCreate TeamCreate
		if err := c.BindJSON(&teamCreate); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		team, err := e.teamService.CreateTeam(eventId, teamCreate.LeaderId, teamCreate.Name)
		if err != nil {
			app_error.Respond(c, err)
			return
		}
		c.JSON(201, toTeamResponse(team))
	}
}

// @Description Joins a team by its code; fails with kind conflict when the team is full
// @Tags team
// @Accept json
// @Produce json
// @Param event_id path int true "Event Id"
// @Param join body TeamJoin true "Join request"
// @Success 200 {object} TeamResponse
// @Router /events/{event_id}/teams/join [post]
func (e *TeamController) joinTeamHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		eventId, err := strconv.Atoi(c.Param("event_id"))
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		var join TeamJoin
		if err := c.BindJSON(&join); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		team, err := e.teamService.JoinTeam(eventId, join.ParticipantId, join.TeamCode)
		if err != nil {
			app_error.Respond(c, err)
			return
		}
		c.JSON(200, toTeamResponse(team))
	}
}

// @Description Leader invites a participant by reg no; the target joins directly, there is no accept step
// @Tags team
// @Accept json
// @Produce json
// @Param event_id path int true "Event Id"
// @Param invite body TeamInvite true "Invite request"
// @Success 200 {object} TeamResponse
// @Router /events/{event_id}/teams/invite [post]
func (e *TeamController) inviteHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		eventId, err := strconv.Atoi(c.Param("event_id"))
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		var invite TeamInvite
		if err := c.BindJSON(&invite); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		team, err := e.teamService.Invite(eventId, invite.LeaderId, invite.TeamCode, invite.TargetRegNo)
		if err != nil {
			app_error.Respond(c, err)
			return
		}
		c.JSON(200, toTeamResponse(team))
	}
}

// @Description Gets a team by id
// @Tags team
// @Produce json
// @Param event_id path int true "Event Id"
// @Param team_id path int true "Team Id"
// @Success 200 {object} TeamResponse
// @Router /events/{event_id}/teams/{team_id} [get]
func (e *TeamController) getTeamHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		teamId, err := strconv.Atoi(c.Param("team_id"))
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		team, err := e.teamService.GetTeamById(teamId)
		if err != nil {
			app_error.Respond(c, err)
			return
		}
		c.JSON(200, toTeamResponse(team))
	}
}

// @Description Gets the team a participant belongs to in this event
// @Tags team
// @Produce json
// @Param event_id path int true "Event Id"
// @Param participant_id path int true "Participant Id"
// @Success 200 {object} TeamResponse
// @Router /events/{event_id}/teams/of/{participant_id} [get]
func (e *TeamController) getTeamForParticipantHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		eventId, err := strconv.Atoi(c.Param("event_id"))
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		participantId, err := strconv.Atoi(c.Param("participant_id"))
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		team, err := e.teamService.GetTeamForParticipant(eventId, participantId)
		if err != nil {
			app_error.Respond(c, err)
			return
		}
		c.JSON(200, toTeamResponse(team))
	}
}

type TeamCreate struct {
	Name     string `json:"name" binding:"required"`
	LeaderId int    `json:"leader_id" binding:"required"`
}

type TeamJoin struct {
	ParticipantId int    `json:"participant_id" binding:"required"`
	TeamCode      string `json:"team_code" binding:"required"`
}

type TeamInvite struct {
	LeaderId    int    `json:"leader_id" binding:"required"`
	TeamCode    string `json:"team_code" binding:"required"`
	TargetRegNo string `json:"target_reg_no" binding:"required"`
}

type TeamMemberResponse struct {
	ParticipantId int    `json:"participant_id"`
	Role          string `json:"role"`
}

type TeamResponse struct {
	Id      int                  `json:"id"`
	EventId int                  `json:"event_id"`
	Name    string               `json:"name"`
	Code    string               `json:"code"`
	Members []TeamMemberResponse `json:"members"`
}

func toTeamResponse(team *repository.Team) *TeamResponse {
	return &TeamResponse{
		Id:      team.Id,
		EventId: team.EventId,
		Name:    team.Name,
		Code:    team.Code,
		Members: utils.Map(team.Members, func(member *repository.TeamUser) TeamMemberResponse {
			role := "member"
			if member.IsLeader {
				role = "leader"
			}
			return TeamMemberResponse{ParticipantId: member.ParticipantId, Role: role}
		}),
	}
}
