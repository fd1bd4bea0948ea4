package controller

import (
	"strconv"

	"arena-backend/app_error"
	"arena-backend/service"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type AttendanceController struct {
	attendanceService *service.AttendanceService
}

func NewAttendanceController(db *gorm.DB) *AttendanceController {
	return &AttendanceController{
		attendanceService: service.NewAttendanceService(db),
	}
}

func setupAttendanceController(db *gorm.DB) []RouteInfo {
	e := NewAttendanceController(db)
	routes := []RouteInfo{
		{Method: "POST", Path: "events/:event_id/participants/:participant_id/attendance-token", HandlerFunc: e.issueTokenHandler()},
		{Method: "POST", Path: "attendance/verify", HandlerFunc: e.verifyTokenHandler(), Authenticated: true, RequiredRoles: []string{"admin", "organizer"}},
	}
	return routes
}

// @Description Issues a fresh attendance token for the participant, invalidating any previously issued one. Rendered client-side as a QR code.
// @Tags attendance
// @Produce json
// @Param event_id path int true "Event Id"
// @Param participant_id path int true "Participant Id"
// @Success 200 {object} AttendanceTokenResponse
// @Router /events/{event_id}/participants/{participant_id}/attendance-token [post]
func (e *AttendanceController) issueTokenHandler() gin.HandlerFunc {
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
		token, err := e.attendanceService.IssueToken(eventId, participantId)
		if err != nil {
			app_error.Respond(c, err)
			return
		}
		c.JSON(200, AttendanceTokenResponse{Token: token})
	}
}

// @Description Verifies a scanned attendance token and returns the participant it belongs to
// @Tags attendance
// @Accept json
// @Produce json
// @Param token body AttendanceVerifyRequest true "Scanned token"
// @Success 200 {object} ParticipantResponse
// @Router /attendance/verify [post]
func (e *AttendanceController) verifyTokenHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var request AttendanceVerifyRequest
		if err := c.BindJSON(&request); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		participant, err := e.attendanceService.VerifyToken(request.Token)
		if err != nil {
			app_error.Respond(c, err)
			return
		}
		c.JSON(200, toParticipantResponse(participant))
	}
}

type AttendanceTokenResponse struct {
	Token string `json:"token"`
}

type AttendanceVerifyRequest struct {
	Token string `json:"token" binding:"required"`
}
