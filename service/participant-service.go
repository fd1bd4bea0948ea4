package service

import (
	"errors"
	"log"
	"time"

	"arena-backend/app_error"
	"arena-backend/repository"

	"gorm.io/gorm"
)

const referralCodeLength = 8

type ParticipantService struct {
	db                    *gorm.DB
	participantRepository *repository.ParticipantRepository
	referralService       *ReferralService
	eventService          *EventService
}

func NewParticipantService(db *gorm.DB) *ParticipantService {
	return &ParticipantService{
		db:                    db,
		participantRepository: repository.NewParticipantRepository(db),
		referralService:       NewReferralService(db),
		eventService:          NewEventService(db),
	}
}

func (p *ParticipantService) GetParticipantById(participantId int) (*repository.Participant, error) {
	participant, err := p.participantRepository.GetParticipantById(participantId)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, app_error.NotFound("participant %d not found", participantId)
		}
		return nil, err
	}
	return participant, nil
}

func (p *ParticipantService) GetParticipantsForEvent(eventId int) ([]*repository.Participant, error) {
	return p.participantRepository.GetParticipantsForEvent(eventId)
}

// Register creates a profile on an open event. The referral code is
// assigned here and never changes afterwards. If the registrant supplied
// someone's code, that referral is credited after the profile commits;
// a bad code only logs, a typo should not undo a registration.
func (p *ParticipantService) Register(eventId int, participant *repository.Participant, referredBy string) (*repository.Participant, error) {
	event, err := p.eventService.GetEventById(eventId)
	if err != nil {
		return nil, err
	}
	if event.Status == repository.EventClosed {
		return nil, app_error.State("event %d is closed for registration", eventId)
	}
	if participant.Name == "" || participant.RegNo == "" {
		return nil, app_error.Validation("participant name and reg no are required")
	}
	participant.EventId = eventId
	participant.ReferralCode = randomCode(referralCodeLength)
	participant.RegisteredAt = time.Now()
	saved, err := p.participantRepository.Save(participant)
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, app_error.Conflict("reg no %s is already registered for event %d", participant.RegNo, eventId)
		}
		return nil, err
	}
	if referredBy != "" {
		if _, err := p.referralService.RecordReferral(referredBy, saved.Id); err != nil {
			log.Printf("Could not credit referral code %s for participant %d: %v", referredBy, saved.Id, err)
		}
	}
	return saved, nil
}
