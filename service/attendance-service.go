package service

import (
	"errors"
	"time"

	"arena-backend/app_error"
	"arena-backend/auth"
	"arena-backend/repository"

	"gorm.io/gorm"
)

type AttendanceService struct {
	attendanceRepository  *repository.AttendanceRepository
	participantRepository *repository.ParticipantRepository
	eventService          *EventService
}

func NewAttendanceService(db *gorm.DB) *AttendanceService {
	return &AttendanceService{
		attendanceRepository:  repository.NewAttendanceRepository(db),
		participantRepository: repository.NewParticipantRepository(db),
		eventService:          NewEventService(db),
	}
}

// IssueToken signs a fresh check-in credential and makes it the single
// current token for the (event, participant) pair. Every earlier token
// stops verifying the moment the new one is stored.
func (a *AttendanceService) IssueToken(eventId int, participantId int) (string, error) {
	participant, err := a.participantRepository.GetParticipantById(participantId)
	if err != nil || participant.EventId != eventId {
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return "", err
		}
		return "", app_error.NotFound("participant %d is not registered for event %d", participantId, eventId)
	}
	token, tokenId, err := auth.CreateAttendanceToken(eventId, participantId)
	if err != nil {
		return "", err
	}
	err = a.attendanceRepository.ReplaceToken(&repository.AttendanceToken{
		EventId:       eventId,
		ParticipantId: participantId,
		TokenId:       tokenId,
		IssuedAt:      time.Now(),
	})
	if err != nil {
		return "", err
	}
	return token, nil
}

// VerifyToken checks a scanned credential against the stored current
// token id and returns the participant it belongs to.
func (a *AttendanceService) VerifyToken(token string) (*repository.Participant, error) {
	eventId, participantId, tokenId, err := auth.ParseAttendanceToken(token)
	if err != nil {
		return nil, app_error.Validation("invalid attendance token")
	}
	current, err := a.attendanceRepository.GetCurrentToken(eventId, participantId)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, app_error.NotFound("no attendance token issued for participant %d", participantId)
		}
		return nil, err
	}
	if current.TokenId != tokenId {
		return nil, app_error.Conflict("attendance token has been superseded")
	}
	return a.participantRepository.GetParticipantById(participantId)
}
