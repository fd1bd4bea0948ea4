package service

import (
	"errors"

	"arena-backend/app_error"
	"arena-backend/metrics"
	"arena-backend/repository"

	"gorm.io/gorm"
)

type ReferralService struct {
	participantRepository *repository.ParticipantRepository
	referralRepository    *repository.ReferralRepository
}

func NewReferralService(db *gorm.DB) *ReferralService {
	return &ReferralService{
		participantRepository: repository.NewParticipantRepository(db),
		referralRepository:    repository.NewReferralRepository(db),
	}
}

// RecordReferral credits the code's owner for bringing in a new
// registrant. Safe against retries: the credit is deduped by the referred
// participant's id, so submitting the same referral twice returns the
// unchanged count instead of double-crediting.
func (r *ReferralService) RecordReferral(code string, referredParticipantId int) (int, error) {
	owner, err := r.participantRepository.GetParticipantByReferralCode(code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, app_error.NotFound("unknown referral code %s", code)
		}
		return 0, err
	}
	if owner.Id == referredParticipantId {
		return 0, app_error.Validation("participants cannot refer themselves")
	}
	count, err := r.referralRepository.Credit(owner.Id, referredParticipantId)
	if err != nil {
		if errors.Is(err, repository.ErrAlreadyCredited) {
			refreshed, err := r.participantRepository.GetParticipantById(owner.Id)
			if err != nil {
				return 0, err
			}
			return refreshed.ReferralCount, nil
		}
		return 0, err
	}
	metrics.ReferralsCounter.Inc()
	return count, nil
}
