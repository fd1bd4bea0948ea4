package controller

import (
	"strconv"
	"time"

	"arena-backend/app_error"
	"arena-backend/scoring"
	"arena-backend/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type LeaderboardController struct {
	leaderboardService *scoring.LeaderboardService
}

func NewLeaderboardController(db *gorm.DB) *LeaderboardController {
	return &LeaderboardController{
		leaderboardService: scoring.NewLeaderboardService(db),
	}
}

func setupLeaderboardController(db *gorm.DB) []RouteInfo {
	e := NewLeaderboardController(db)
	routes := []RouteInfo{
		{Method: "GET", Path: "events/:event_id/leaderboard", HandlerFunc: e.getLeaderboardHandler(), CacheDuration: 30 * time.Second},
	}
	return routes
}

// @Description Cross-round leaderboard over frozen rounds only. Filters narrow the set before ranks are assigned, so rank numbers reflect the filtered set.
// @Tags leaderboard
// @Produce json
// @Param event_id path int true "Event Id"
// @Param department query string false "Department filter"
// @Param year query int false "Year filter"
// @Param search query string false "Name / reg no search"
// @Success 200 {array} LeaderboardEntryResponse
// @Router /events/{event_id}/leaderboard [get]
func (e *LeaderboardController) getLeaderboardHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		eventId, err := strconv.Atoi(c.Param("event_id"))
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		filter := scoring.LeaderboardFilter{
			Department: c.Query("department"),
			Search:     c.Query("search"),
		}
		if yearStr := c.Query("year"); yearStr != "" {
			year, err := strconv.Atoi(yearStr)
			if err != nil {
				c.JSON(400, gin.H{"error": "year must be a number"})
				return
			}
			filter.Year = year
		}
		entries, err := e.leaderboardService.GetLeaderboard(eventId, filter)
		if err != nil {
			app_error.Respond(c, err)
			return
		}
		c.JSON(200, utils.Map(entries, toLeaderboardEntryResponse))
	}
}

type LeaderboardEntryResponse struct {
	ParticipantId      int     `json:"participant_id"`
	Name               string  `json:"name"`
	RegNo              string  `json:"reg_no,omitempty"`
	Department         string  `json:"department,omitempty"`
	Year               int     `json:"year,omitempty"`
	CumulativeScore    float64 `json:"cumulative_score"`
	RoundsParticipated int     `json:"rounds_participated"`
	Rank               int     `json:"rank"`
}

func toLeaderboardEntryResponse(entry *scoring.LeaderboardEntry) *LeaderboardEntryResponse {
	return &LeaderboardEntryResponse{
		ParticipantId:      entry.ParticipantId,
		Name:               entry.Name,
		RegNo:              entry.RegNo,
		Department:         entry.Department,
		Year:               entry.Year,
		CumulativeScore:    entry.CumulativeScore,
		RoundsParticipated: entry.RoundsParticipated,
		Rank:               entry.Rank,
	}
}
