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

type ParticipantController struct {
	participantService *service.ParticipantService
}

func NewParticipantController(db *gorm.DB) *ParticipantController {
	return &ParticipantController{
		participantService: service.NewParticipantService(db),
	}
}

func setupParticipantController(db *gorm.DB) []RouteInfo {
	e := NewParticipantController(db)
	basePath := "events/:event_id/participants"
	routes := []RouteInfo{
		{Method: "GET", Path: "", HandlerFunc: e.getParticipantsHandler(), Authenticated: true, RequiredRoles: []string{"admin", "organizer"}},
		{Method: "POST", Path: "", HandlerFunc: e.registerHandler()},
	}
	for i, route := range routes {
		routes[i].Path = basePath + route.Path
	}
	return routes
}

// @Description Lists the registrations of an event
// @Tags participant
// @Produce json
// @Param event_id path int true "Event Id"
// @Success 200 {array} ParticipantResponse
// @Router /events/{event_id}/participants [get]
func (e *ParticipantController) getParticipantsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		eventId, err := strconv.Atoi(c.Param("event_id"))
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		participants, err := e.participantService.GetParticipantsForEvent(eventId)
		if err != nil {
			app_error.Respond(c, err)
			return
		}
		c.JSON(200, utils.Map(participants, toParticipantResponse))
	}
}

// @Description Registers a participant on an open event and assigns their referral code
// @Tags participant
// @Accept json
// @Produce json
// @Param event_id path int true "Event Id"
// @Param participant body ParticipantCreate true "Registration"
// @Success 201 {object} ParticipantResponse
// @Router /events/{event_id}/participants [post]
func (e *ParticipantController) registerHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		eventId, err := strconv.Atoi(c.Param("event_id"))
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		var create ParticipantCreate
		if err := c.BindJSON(&create); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		participant, err := e.participantService.Register(eventId, create.toModel(), create.ReferredBy)
		if err != nil {
			app_error.Respond(c, err)
			return
		}
		c.JSON(201, toParticipantResponse(participant))
	}
}

type ParticipantCreate struct {
	Name       string `json:"name" binding:"required"`
	RegNo      string `json:"reg_no" binding:"required"`
	Department string `json:"department"`
	Year       int    `json:"year"`
	ReferredBy string `json:"referred_by"`
}

type ParticipantResponse struct {
	Id            int    `json:"id"`
	EventId       int    `json:"event_id"`
	Name          string `json:"name"`
	RegNo         string `json:"reg_no"`
	Department    string `json:"department"`
	Year          int    `json:"year"`
	ReferralCode  string `json:"referral_code"`
	ReferralCount int    `json:"referral_count"`
}

func (p *ParticipantCreate) toModel() *repository.Participant {
	return &repository.Participant{
		Name:       p.Name,
		RegNo:      p.RegNo,
		Department: p.Department,
		Year:       p.Year,
	}
}

func toParticipantResponse(participant *repository.Participant) *ParticipantResponse {
	return &ParticipantResponse{
		Id:            participant.Id,
		EventId:       participant.EventId,
		Name:          participant.Name,
		RegNo:         participant.RegNo,
		Department:    participant.Department,
		Year:          participant.Year,
		ReferralCode:  participant.ReferralCode,
		ReferralCount: participant.ReferralCount,
	}
}
