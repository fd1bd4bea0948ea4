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

type ScoreController struct {
	scoreService *service.ScoreService
}

func NewScoreController(db *gorm.DB) *ScoreController {
	return &ScoreController{
		scoreService: service.NewScoreService(db),
	}
}

func setupScoreController(db *gorm.DB) []RouteInfo {
	e := NewScoreController(db)
	basePath := "events/:event_id/rounds/:round_id/scores"
	routes := []RouteInfo{
		{Method: "GET", Path: "", HandlerFunc: e.getRoundEntriesHandler()},
		{Method: "PUT", Path: "", HandlerFunc: e.setScoresHandler(), Authenticated: true, RequiredRoles: []string{"admin", "organizer"}},
		{Method: "POST", Path: "/import", HandlerFunc: e.importScoresHandler(), Authenticated: true, RequiredRoles: []string{"admin", "organizer"}},
	}
	for i, route := range routes {
		routes[i].Path = basePath + route.Path
	}
	return routes
}

// @Description Fetches the round's entries: presence, totals and elimination outcome once frozen
// @Tags scores
// @Produce json
// @Param event_id path int true "Event Id"
// @Param round_id path int true "Round Id"
// @Success 200 {array} RoundEntryResponse
// @Router /events/{event_id}/rounds/{round_id}/scores [get]
func (e *ScoreController) getRoundEntriesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		roundId, err := strconv.Atoi(c.Param("round_id"))
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		entries, err := e.scoreService.GetRoundEntries(roundId)
		if err != nil {
			app_error.Respond(c, err)
			return
		}
		c.JSON(200, utils.Map(entries, toRoundEntryResponse))
	}
}

// @Description Writes a batch of score rows, all-or-nothing; values are clamped to the criterion bounds. Rejected with kind state once the round is frozen.
// @Tags scores
// @Accept json
// @Produce json
// @Param event_id path int true "Event Id"
// @Param round_id path int true "Round Id"
// @Param scores body []ScoreRowRequest true "Score rows"
// @Success 200 {array} RoundEntryResponse
// @Router /events/{event_id}/rounds/{round_id}/scores [put]
func (e *ScoreController) setScoresHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		roundId, err := strconv.Atoi(c.Param("round_id"))
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		var rows []ScoreRowRequest
		if err := c.BindJSON(&rows); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		entries, err := e.scoreService.SetScores(roundId, utils.Map(rows, scoreRowToModel))
		if err != nil {
			app_error.Respond(c, err)
			return
		}
		c.JSON(200, utils.Map(entries, toRoundEntryResponse))
	}
}

// @Description Bulk-imports score rows. Each row is validated on its own; bad rows are skipped and reported while the rest commit (partial success).
// @Tags scores
// @Accept json
// @Produce json
// @Param event_id path int true "Event Id"
// @Param round_id path int true "Round Id"
// @Param scores body []ScoreRowRequest true "Score rows"
// @Success 200 {object} ImportResponse
// @Router /events/{event_id}/rounds/{round_id}/scores/import [post]
func (e *ScoreController) importScoresHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		roundId, err := strconv.Atoi(c.Param("round_id"))
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		var rows []ScoreRowRequest
		if err := c.BindJSON(&rows); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		result, err := e.scoreService.ImportScores(roundId, utils.Map(rows, scoreRowToModel))
		if err != nil {
			app_error.Respond(c, err)
			return
		}
		c.JSON(200, ImportResponse{
			CommittedCount: result.CommittedCount,
			Errors:         result.Errors,
		})
	}
}

type ScoreRowRequest struct {
	ParticipantId  int                `json:"participant_id" binding:"required"`
	CriteriaScores map[string]float64 `json:"criteria_scores"`
	IsPresent      bool               `json:"is_present"`
}

type RoundEntryResponse struct {
	ParticipantId int     `json:"participant_id"`
	IsPresent     bool    `json:"is_present"`
	Status        string  `json:"status"`
	Total         float64 `json:"total"`
	Normalized    float64 `json:"normalized"`
}

type ImportResponse struct {
	CommittedCount int      `json:"committed_count"`
	Errors         []string `json:"errors"`
}

func scoreRowToModel(row ScoreRowRequest) *service.ScoreRow {
	return &service.ScoreRow{
		ParticipantId:  row.ParticipantId,
		CriteriaScores: row.CriteriaScores,
		IsPresent:      row.IsPresent,
	}
}

func toRoundEntryResponse(entry *repository.RoundEntry) *RoundEntryResponse {
	return &RoundEntryResponse{
		ParticipantId: entry.ParticipantId,
		IsPresent:     entry.IsPresent,
		Status:        string(entry.Status),
		Total:         entry.Total,
		Normalized:    entry.Normalized,
	}
}
