package controller

import (
	"arena-backend/app_error"
	"arena-backend/service"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type ReferralController struct {
	referralService *service.ReferralService
}

func NewReferralController(db *gorm.DB) *ReferralController {
	return &ReferralController{
		referralService: service.NewReferralService(db),
	}
}

func setupReferralController(db *gorm.DB) []RouteInfo {
	e := NewReferralController(db)
	routes := []RouteInfo{
		{Method: "POST", Path: "referrals", HandlerFunc: e.recordReferralHandler()},
	}
	return routes
}

// @Description Credits a referral code for a newly registered participant. Idempotent: retries with the same participant return the unchanged count.
// @Tags referral
// @Accept json
// @Produce json
// @Param referral body ReferralRequest true "Referral to record"
// @Success 200 {object} ReferralResponse
// @Router /referrals [post]
func (e *ReferralController) recordReferralHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var request ReferralRequest
		if err := c.BindJSON(&request); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		count, err := e.referralService.RecordReferral(request.Code, request.NewParticipantId)
		if err != nil {
			app_error.Respond(c, err)
			return
		}
		c.JSON(200, ReferralResponse{ReferralCount: count})
	}
}

type ReferralRequest struct {
	Code             string `json:"code" binding:"required"`
	NewParticipantId int    `json:"new_participant_id" binding:"required"`
}

type ReferralResponse struct {
	ReferralCount int `json:"referral_count"`
}
