package controller

import (
	"strconv"
	"time"

	"arena-backend/app_error"
	"arena-backend/repository"
	"arena-backend/scoring"
	"arena-backend/service"
	"arena-backend/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type RoundController struct {
	roundService  *service.RoundService
	freezeService *scoring.FreezeService
}

func NewRoundController(db *gorm.DB) *RoundController {
	return &RoundController{
		roundService:  service.NewRoundService(db),
		freezeService: scoring.NewFreezeService(db),
	}
}

func setupRoundController(db *gorm.DB) []RouteInfo {
	e := NewRoundController(db)
	basePath := "events/:event_id/rounds"
	routes := []RouteInfo{
		{Method: "GET", Path: "", HandlerFunc: e.getRoundsHandler()},
		{Method: "POST", Path: "", HandlerFunc: e.createRoundHandler(), Authenticated: true, RequiredRoles: []string{"admin", "organizer"}},
		{Method: "GET", Path: "/:round_id", HandlerFunc: e.getRoundHandler()},
		{Method: "PATCH", Path: "/:round_id", HandlerFunc: e.updateRoundHandler(), Authenticated: true, RequiredRoles: []string{"admin", "organizer"}},
		{Method: "DELETE", Path: "/:round_id", HandlerFunc: e.deleteRoundHandler(), Authenticated: true, RequiredRoles: []string{"admin"}},
		{Method: "POST", Path: "/:round_id/freeze", HandlerFunc: e.freezeRoundHandler(), Authenticated: true, RequiredRoles: []string{"admin"}},
		{Method: "POST", Path: "/:round_id/unfreeze", HandlerFunc: e.unfreezeRoundHandler(), Authenticated: true, RequiredRoles: []string{"admin"}},
	}
	for i, route := range routes {
		routes[i].Path = basePath + route.Path
	}
	return routes
}

// @Description Fetches all rounds of an event
// @Tags round
// @Produce json
// @Param event_id path int true "Event Id"
// @Success 200 {array} RoundResponse
// @Router /events/{event_id}/rounds [get]
func (e *RoundController) getRoundsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		eventId, err := strconv.Atoi(c.Param("event_id"))
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		rounds, err := e.roundService.GetRoundsForEvent(eventId)
		if err != nil {
			app_error.Respond(c, err)
			return
		}
		c.JSON(200, utils.Map(rounds, toRoundResponse))
	}
}

// @Description Creates a round; the round number is assigned sequentially and never changes
// @Tags round
// @Accept json
// @Produce json
// @Param event_id path int true "Event Id"
// @Param round body RoundCreate true "Round to create"
// @Success 201 {object} RoundResponse
// @Router /events/{event_id}/rounds [post]
func (e *RoundController) createRoundHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		eventId, err := strconv.Atoi(c.Param("event_id"))
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		var roundCreate RoundCreate
		if err := c.BindJSON(&roundCreate); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		round, err := e.roundService.CreateRound(eventId, roundCreate.toModel())
		if err != nil {
			app_error.Respond(c, err)
			return
		}
		c.JSON(201, toRoundResponse(round))
	}
}

// @Description Gets a round by id
// @Tags round
// @Produce json
// @Param event_id path int true "Event Id"
// @Param round_id path int true "Round Id"
// @Success 200 {object} RoundResponse
// @Router /events/{event_id}/rounds/{round_id} [get]
func (e *RoundController) getRoundHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		roundId, err := strconv.Atoi(c.Param("round_id"))
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		round, err := e.roundService.GetRoundById(roundId)
		if err != nil {
			app_error.Respond(c, err)
			return
		}
		c.JSON(200, toRoundResponse(round))
	}
}

// @Description Updates a round; rejected while the round is frozen
// @Tags round
// @Accept json
// @Produce json
// @Param event_id path int true "Event Id"
// @Param round_id path int true "Round Id"
// @Param round body RoundUpdate true "Fields to update"
// @Success 200 {object} RoundResponse
// @Router /events/{event_id}/rounds/{round_id} [patch]
func (e *RoundController) updateRoundHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		roundId, err := strconv.Atoi(c.Param("round_id"))
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		var update RoundUpdate
		if err := c.BindJSON(&update); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		round, err := e.roundService.UpdateRound(roundId, update.toModel())
		if err != nil {
			app_error.Respond(c, err)
			return
		}
		c.JSON(200, toRoundResponse(round))
	}
}

// @Description Deletes a round; only draft rounds can be deleted
// @Tags round
// @Param event_id path int true "Event Id"
// @Param round_id path int true "Round Id"
// @Success 204
// @Router /events/{event_id}/rounds/{round_id} [delete]
func (e *RoundController) deleteRoundHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		roundId, err := strconv.Atoi(c.Param("round_id"))
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		if err := e.roundService.DeleteRound(roundId); err != nil {
			app_error.Respond(c, err)
			return
		}
		c.Status(204)
	}
}

// @Description Runs the elimination rule over the round's scores and freezes it
// @Tags round
// @Accept json
// @Produce json
// @Param event_id path int true "Event Id"
// @Param round_id path int true "Round Id"
// @Param freeze body FreezeRequest true "Elimination rule"
// @Success 200 {array} RoundResultResponse
// @Router /events/{event_id}/rounds/{round_id}/freeze [post]
func (e *RoundController) freezeRoundHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		roundId, err := strconv.Atoi(c.Param("round_id"))
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		var request FreezeRequest
		if err := c.BindJSON(&request); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		results, err := e.freezeService.Freeze(roundId,
			repository.EliminationType(request.EliminationType), request.EliminationValue)
		if err != nil {
			app_error.Respond(c, err)
			return
		}
		c.JSON(200, utils.Map(results, toRoundResultResponse))
	}
}

// @Description Unfreezes a round so scores can be edited again. Does NOT revert the entry statuses committed by the last freeze; they stand until the next freeze overwrites them.
// @Tags round
// @Produce json
// @Param event_id path int true "Event Id"
// @Param round_id path int true "Round Id"
// @Success 200 {object} RoundResponse
// @Router /events/{event_id}/rounds/{round_id}/unfreeze [post]
func (e *RoundController) unfreezeRoundHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		roundId, err := strconv.Atoi(c.Param("round_id"))
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		round, err := e.freezeService.Unfreeze(roundId)
		if err != nil {
			app_error.Respond(c, err)
			return
		}
		c.JSON(200, toRoundResponse(round))
	}
}

type CriterionCreate struct {
	Name     string  `json:"name" binding:"required"`
	MaxMarks float64 `json:"max_marks"`
}

type RoundCreate struct {
	Name        string            `json:"name" binding:"required"`
	Description *string           `json:"description"`
	Date        *time.Time        `json:"date"`
	Criteria    []CriterionCreate `json:"criteria" binding:"required"`
}

type RoundUpdate struct {
	Name        *string           `json:"name"`
	Description *string           `json:"description"`
	Date        *time.Time        `json:"date"`
	State       *string           `json:"state"`
	Criteria    []CriterionCreate `json:"criteria"`
}

type FreezeRequest struct {
	EliminationType  string  `json:"elimination_type" binding:"required,oneof=top_k min_score"`
	EliminationValue float64 `json:"elimination_value"`
}

type CriterionResponse struct {
	Name     string  `json:"name"`
	MaxMarks float64 `json:"max_marks"`
}

type RoundResponse struct {
	Id               int                 `json:"id"`
	EventId          int                 `json:"event_id"`
	RoundNo          int                 `json:"round_no"`
	Name             string              `json:"name"`
	Description      *string             `json:"description"`
	Date             *time.Time          `json:"date"`
	State            string              `json:"state"`
	IsFrozen         bool                `json:"is_frozen"`
	EliminationType  *string             `json:"elimination_type"`
	EliminationValue *float64            `json:"elimination_value"`
	Criteria         []CriterionResponse `json:"criteria"`
}

type RoundResultResponse struct {
	ParticipantId int     `json:"participant_id"`
	Total         float64 `json:"total"`
	Normalized    float64 `json:"normalized"`
	Status        string  `json:"status"`
}

func criterionCreateToModel(criterion CriterionCreate) *repository.Criterion {
	return &repository.Criterion{
		Name:     criterion.Name,
		MaxMarks: criterion.MaxMarks,
	}
}

func (r *RoundCreate) toModel() *repository.Round {
	return &repository.Round{
		Name:        r.Name,
		Description: r.Description,
		Date:        r.Date,
		Criteria:    utils.Map(r.Criteria, criterionCreateToModel),
	}
}

func (r *RoundUpdate) toModel() *service.RoundUpdate {
	update := &service.RoundUpdate{
		Name:        r.Name,
		Description: r.Description,
		Date:        r.Date,
	}
	if r.State != nil {
		state := repository.RoundState(*r.State)
		update.State = &state
	}
	if r.Criteria != nil {
		update.Criteria = utils.Map(r.Criteria, criterionCreateToModel)
	}
	return update
}

func toRoundResponse(round *repository.Round) *RoundResponse {
	response := &RoundResponse{
		Id:               round.Id,
		EventId:          round.EventId,
		RoundNo:          round.RoundNo,
		Name:             round.Name,
		Description:      round.Description,
		Date:             round.Date,
		State:            string(round.State),
		IsFrozen:         round.IsFrozen,
		EliminationValue: round.EliminationValue,
		Criteria: utils.Map(round.Criteria, func(criterion *repository.Criterion) CriterionResponse {
			return CriterionResponse{Name: criterion.Name, MaxMarks: criterion.MaxMarks}
		}),
	}
	if round.EliminationType != nil {
		eliminationType := string(*round.EliminationType)
		response.EliminationType = &eliminationType
	}
	return response
}

func toRoundResultResponse(result *scoring.RoundResult) *RoundResultResponse {
	return &RoundResultResponse{
		ParticipantId: result.ParticipantId,
		Total:         result.Total,
		Normalized:    result.Normalized,
		Status:        string(result.Status),
	}
}
