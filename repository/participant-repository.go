package repository

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Participant is an individual registration on an event. In team mode the
// scored unit is the team; score and entry rows then carry a team id in
// their participant column instead (see ScoreRepository).
type Participant struct {
	Id            int       `gorm:"primaryKey"`
	EventId       int       `gorm:"not null;index;uniqueIndex:idx_event_regno"`
	Name          string    `gorm:"not null"`
	RegNo         string    `gorm:"not null;uniqueIndex:idx_event_regno"`
	Department    string    `gorm:"null"`
	Year          int       `gorm:"null"`
	ReferralCode  string    `gorm:"not null;uniqueIndex"`
	ReferralCount int       `gorm:"not null;default:0"`
	RegisteredAt  time.Time `gorm:"not null"`
}

type ParticipantRepository struct {
	DB *gorm.DB
}

func NewParticipantRepository(db *gorm.DB) *ParticipantRepository {
	return &ParticipantRepository{DB: db}
}

func (r *ParticipantRepository) GetParticipantById(participantId int) (*Participant, error) {
	var participant Participant
	result := r.DB.First(&participant, participantId)
	if result.Error != nil {
		return nil, result.Error
	}
	return &participant, nil
}

func (r *ParticipantRepository) GetParticipantByRegNo(eventId int, regNo string) (*Participant, error) {
	var participant Participant
	result := r.DB.First(&participant, &Participant{EventId: eventId, RegNo: regNo})
	if result.Error != nil {
		return nil, result.Error
	}
	return &participant, nil
}

func (r *ParticipantRepository) GetParticipantByReferralCode(code string) (*Participant, error) {
	var participant Participant
	result := r.DB.First(&participant, "referral_code = ?", code)
	if result.Error != nil {
		return nil, result.Error
	}
	return &participant, nil
}

func (r *ParticipantRepository) GetParticipantsForEvent(eventId int) ([]*Participant, error) {
	timer := queryTimer("GetParticipantsForEvent")
	defer timer.ObserveDuration()
	participants := make([]*Participant, 0)
	result := r.DB.Order("registered_at ASC, id ASC").Find(&participants, &Participant{EventId: eventId})
	if result.Error != nil {
		return nil, result.Error
	}
	return participants, nil
}

func (r *ParticipantRepository) Save(participant *Participant) (*Participant, error) {
	result := r.DB.Save(participant)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to save participant: %w", result.Error)
	}
	return participant, nil
}
