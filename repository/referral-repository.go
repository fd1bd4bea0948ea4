package repository

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// ReferralCredit dedupes referral submissions: one credit per referred
// participant, no matter how often the client retries.
type ReferralCredit struct {
	ReferredParticipantId int       `gorm:"primaryKey"`
	ReferrerId            int       `gorm:"not null;index"`
	CreatedAt             time.Time `gorm:"not null"`
}

type ReferralRepository struct {
	DB *gorm.DB
}

func NewReferralRepository(db *gorm.DB) *ReferralRepository {
	return &ReferralRepository{DB: db}
}

var ErrAlreadyCredited = errors.New("referral already credited for this participant")

// Credit inserts the dedupe row and bumps the referrer's count in one
// transaction. The count update is a single SQL increment, never a
// read-modify-write, so concurrent referrals cannot lose updates.
func (r *ReferralRepository) Credit(referrerId int, referredParticipantId int) (int, error) {
	timer := queryTimer("ReferralCredit")
	defer timer.ObserveDuration()
	var count int
	err := r.DB.Transaction(func(tx *gorm.DB) error {
		credit := &ReferralCredit{
			ReferredParticipantId: referredParticipantId,
			ReferrerId:            referrerId,
			CreatedAt:             time.Now(),
		}
		if err := tx.Create(credit).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrAlreadyCredited
			}
			return err
		}
		result := tx.Model(&Participant{}).Where("id = ?", referrerId).
			Update("referral_count", gorm.Expr("referral_count + 1"))
		if result.Error != nil {
			return result.Error
		}
		return tx.Model(&Participant{}).Where("id = ?", referrerId).
			Select("referral_count").Scan(&count).Error
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}
