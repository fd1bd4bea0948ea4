package service

import (
	"errors"

	"arena-backend/app_error"
	"arena-backend/repository"

	"gorm.io/gorm"
)

type EventService struct {
	eventRepository *repository.EventRepository
	teamRepository  *repository.TeamRepository
}

func NewEventService(db *gorm.DB) *EventService {
	return &EventService{
		eventRepository: repository.NewEventRepository(db),
		teamRepository:  repository.NewTeamRepository(db),
	}
}

func (e *EventService) GetAllEvents(preloads ...string) ([]*repository.Event, error) {
	return e.eventRepository.FindAll(preloads...)
}

func (e *EventService) GetEventById(eventId int, preloads ...string) (*repository.Event, error) {
	event, err := e.eventRepository.GetEventById(eventId, preloads...)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, app_error.NotFound("event %d not found", eventId)
		}
		return nil, err
	}
	return event, nil
}

func (e *EventService) CreateEvent(event *repository.Event) (*repository.Event, error) {
	if event.ParticipantMode == repository.ModeTeam {
		if event.TeamMinSize < 1 || event.TeamMaxSize < event.TeamMinSize {
			return nil, app_error.Validation("team size bounds must satisfy 1 <= min <= max")
		}
	}
	event.Status = repository.EventOpen
	saved, err := e.eventRepository.Save(event)
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, app_error.Conflict("an event with slug %s already exists", event.Slug)
		}
		return nil, err
	}
	return saved, nil
}

func (e *EventService) UpdateEvent(eventId int, updateEvent *repository.Event) (*repository.Event, error) {
	event, err := e.GetEventById(eventId)
	if err != nil {
		return nil, err
	}
	if updateEvent.Name != "" {
		event.Name = updateEvent.Name
	}
	if updateEvent.TeamMinSize != 0 {
		event.TeamMinSize = updateEvent.TeamMinSize
	}
	if updateEvent.TeamMaxSize != 0 {
		event.TeamMaxSize = updateEvent.TeamMaxSize
	}
	if event.ParticipantMode == repository.ModeTeam && event.TeamMaxSize < event.TeamMinSize {
		return nil, app_error.Validation("team size bounds must satisfy min <= max")
	}
	return e.eventRepository.Save(event)
}

// FlaggedTeam reports a team below the event's minimum size. The teams
// are flagged, never deleted; organizers decide what to do with them.
type FlaggedTeam struct {
	TeamId  int
	Members int
	MinSize int
}

// CloseEvent closes registration and runs the team size validation pass.
func (e *EventService) CloseEvent(eventId int) (*repository.Event, []*FlaggedTeam, error) {
	event, err := e.GetEventById(eventId)
	if err != nil {
		return nil, nil, err
	}
	if event.Status == repository.EventClosed {
		return nil, nil, app_error.State("event %d is already closed", eventId)
	}
	event.Status = repository.EventClosed
	event, err = e.eventRepository.Save(event)
	if err != nil {
		return nil, nil, err
	}
	flagged, err := e.FlagUndersizedTeams(event)
	if err != nil {
		return nil, nil, err
	}
	return event, flagged, nil
}

func (e *EventService) FlagUndersizedTeams(event *repository.Event) ([]*FlaggedTeam, error) {
	if event.ParticipantMode != repository.ModeTeam {
		return nil, nil
	}
	undersized, err := e.teamRepository.UndersizedTeams(event.Id, event.TeamMinSize)
	if err != nil {
		return nil, err
	}
	flagged := make([]*FlaggedTeam, 0, len(undersized))
	for teamId, members := range undersized {
		flagged = append(flagged, &FlaggedTeam{TeamId: teamId, Members: members, MinSize: event.TeamMinSize})
	}
	return flagged, nil
}

func (e *EventService) DeleteEvent(eventId int) error {
	event, err := e.GetEventById(eventId)
	if err != nil {
		return err
	}
	return e.eventRepository.Delete(event)
}
