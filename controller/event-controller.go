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

type EventController struct {
	eventService *service.EventService
}

func NewEventController(db *gorm.DB) *EventController {
	return &EventController{
		eventService: service.NewEventService(db),
	}
}

func setupEventController(db *gorm.DB) []RouteInfo {
	e := NewEventController(db)
	basePath := "events"
	routes := []RouteInfo{
		{Method: "GET", Path: "", HandlerFunc: e.getEventsHandler()},
		{Method: "POST", Path: "", HandlerFunc: e.createEventHandler(), Authenticated: true, RequiredRoles: []string{"admin"}},
		{Method: "GET", Path: "/:event_id", HandlerFunc: e.getEventHandler()},
		{Method: "PATCH", Path: "/:event_id", HandlerFunc: e.updateEventHandler(), Authenticated: true, RequiredRoles: []string{"admin"}},
		{Method: "POST", Path: "/:event_id/close", HandlerFunc: e.closeEventHandler(), Authenticated: true, RequiredRoles: []string{"admin"}},
		{Method: "DELETE", Path: "/:event_id", HandlerFunc: e.deleteEventHandler(), Authenticated: true, RequiredRoles: []string{"admin"}},
	}
	for i, route := range routes {
		routes[i].Path = basePath + route.Path
	}
	return routes
}

// @Description Fetches all events
// @Tags event
// @Produce json
// @Success 200 {array} EventResponse
// @Router /events [get]
func (e *EventController) getEventsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		events, err := e.eventService.GetAllEvents()
		if err != nil {
			app_error.Respond(c, err)
			return
		}
		c.JSON(200, utils.Map(events, toEventResponse))
	}
}

// @Description Creates an event
// @Tags event
// @Accept json
// @Produce json
// @Param event body EventCreate true "Event to create"
// @Success 201 {object} EventResponse
// @Router /events [post]
func (e *EventController) createEventHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var eventCreate EventCreate
		if err := c.BindJSON(&eventCreate); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		dbevent, err := e.eventService.CreateEvent(eventCreate.toModel())
		if err != nil {
			app_error.Respond(c, err)
			return
		}
		c.JSON(201, toEventResponse(dbevent))
	}
}

// @Description Gets an event by id
// @Tags event
// @Produce json
// @Param event_id path int true "Event Id"
// @Success 200 {object} EventResponse
// @Router /events/{event_id} [get]
func (e *EventController) getEventHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		eventId, err := strconv.Atoi(c.Param("event_id"))
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		event, err := e.eventService.GetEventById(eventId)
		if err != nil {
			app_error.Respond(c, err)
			return
		}
		c.JSON(200, toEventResponse(event))
	}
}

// @Description Updates an event
// @Tags event
// @Accept json
// @Produce json
// @Param event_id path int true "Event Id"
// @Param event body EventUpdate true "Event to update"
// @Success 200 {object} EventResponse
// @Router /events/{event_id} [patch]
func (e *EventController) updateEventHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		eventId, err := strconv.Atoi(c.Param("event_id"))
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		var update EventUpdate
		if err := c.BindJSON(&update); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		dbevent, err := e.eventService.UpdateEvent(eventId, update.toModel())
		if err != nil {
			app_error.Respond(c, err)
			return
		}
		c.JSON(200, toEventResponse(dbevent))
	}
}

// @Description Closes registration and flags teams below the minimum size
// @Tags event
// @Produce json
// @Param event_id path int true "Event Id"
// @Success 200 {object} EventCloseResponse
// @Router /events/{event_id}/close [post]
func (e *EventController) closeEventHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		eventId, err := strconv.Atoi(c.Param("event_id"))
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		event, flagged, err := e.eventService.CloseEvent(eventId)
		if err != nil {
			app_error.Respond(c, err)
			return
		}
		c.JSON(200, EventCloseResponse{
			Event:           toEventResponse(event),
			UndersizedTeams: utils.Map(flagged, toFlaggedTeamResponse),
		})
	}
}

// @Description Deletes an event
// @Tags event
// @Param event_id path int true "Event Id"
// @Success 204
// @Router /events/{event_id} [delete]
func (e *EventController) deleteEventHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		eventId, err := strconv.Atoi(c.Param("event_id"))
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		if err := e.eventService.DeleteEvent(eventId); err != nil {
			app_error.Respond(c, err)
			return
		}
		c.Status(204)
	}
}

type EventCreate struct {
	Name            string `json:"name" binding:"required"`
	Slug            string `json:"slug" binding:"required"`
	ParticipantMode string `json:"participant_mode" binding:"required,oneof=individual team"`
	TeamMinSize     int    `json:"team_min_size"`
	TeamMaxSize     int    `json:"team_max_size"`
}

type EventUpdate struct {
	Name        string `json:"name"`
	TeamMinSize int    `json:"team_min_size"`
	TeamMaxSize int    `json:"team_max_size"`
}

type EventResponse struct {
	Id              int    `json:"id"`
	Name            string `json:"name"`
	Slug            string `json:"slug"`
	ParticipantMode string `json:"participant_mode"`
	Status          string `json:"status"`
	TeamMinSize     int    `json:"team_min_size"`
	TeamMaxSize     int    `json:"team_max_size"`
}

type FlaggedTeamResponse struct {
	TeamId  int `json:"team_id"`
	Members int `json:"members"`
	MinSize int `json:"min_size"`
}

type EventCloseResponse struct {
	Event           *EventResponse         `json:"event"`
	UndersizedTeams []*FlaggedTeamResponse `json:"undersized_teams"`
}

func (e *EventCreate) toModel() *repository.Event {
	return &repository.Event{
		Name:            e.Name,
		Slug:            e.Slug,
		ParticipantMode: repository.ParticipantMode(e.ParticipantMode),
		TeamMinSize:     e.TeamMinSize,
		TeamMaxSize:     e.TeamMaxSize,
	}
}

func (e *EventUpdate) toModel() *repository.Event {
	return &repository.Event{
		Name:        e.Name,
		TeamMinSize: e.TeamMinSize,
		TeamMaxSize: e.TeamMaxSize,
	}
}

func toEventResponse(event *repository.Event) *EventResponse {
	return &EventResponse{
		Id:              event.Id,
		Name:            event.Name,
		Slug:            event.Slug,
		ParticipantMode: string(event.ParticipantMode),
		Status:          string(event.Status),
		TeamMinSize:     event.TeamMinSize,
		TeamMaxSize:     event.TeamMaxSize,
	}
}

func toFlaggedTeamResponse(flagged *service.FlaggedTeam) *FlaggedTeamResponse {
	return &FlaggedTeamResponse{
		TeamId:  flagged.TeamId,
		Members: flagged.Members,
		MinSize: flagged.MinSize,
	}
}
