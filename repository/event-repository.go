package repository

import (
	"fmt"

	"gorm.io/gorm"
)

type ParticipantMode string

const (
	ModeIndividual ParticipantMode = "individual"
	ModeTeam       ParticipantMode = "team"
)

type EventStatus string

const (
	EventOpen   EventStatus = "open"
	EventClosed EventStatus = "closed"
)

type Event struct {
	Id              int             `gorm:"primaryKey"`
	Name            string          `gorm:"not null"`
	Slug            string          `gorm:"not null;uniqueIndex"`
	ParticipantMode ParticipantMode `gorm:"type:arena.participant_mode;not null"`
	Status          EventStatus     `gorm:"type:arena.event_status;not null;default:open"`
	TeamMinSize     int             `gorm:"not null;default:1"`
	TeamMaxSize     int             `gorm:"not null;default:1"`
	Rounds          []*Round        `gorm:"foreignKey:EventId;constraint:OnDelete:CASCADE"`
	Teams           []*Team         `gorm:"foreignKey:EventId;constraint:OnDelete:CASCADE"`
}

type EventRepository struct {
	DB *gorm.DB
}

func NewEventRepository(db *gorm.DB) *EventRepository {
	return &EventRepository{DB: db}
}

func (r *EventRepository) GetEventById(eventId int, preloads ...string) (*Event, error) {
	var event Event
	query := r.DB
	for _, preload := range preloads {
		query = query.Preload(preload)
	}
	result := query.First(&event, eventId)
	if result.Error != nil {
		return nil, result.Error
	}
	return &event, nil
}

func (r *EventRepository) GetEventBySlug(slug string, preloads ...string) (*Event, error) {
	var event Event
	query := r.DB
	for _, preload := range preloads {
		query = query.Preload(preload)
	}
	result := query.First(&event, "slug = ?", slug)
	if result.Error != nil {
		return nil, result.Error
	}
	return &event, nil
}

func (r *EventRepository) Save(event *Event) (*Event, error) {
	result := r.DB.Save(event)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to save event: %w", result.Error)
	}
	return event, nil
}

func (r *EventRepository) Delete(event *Event) error {
	return r.DB.Delete(event).Error
}

func (r *EventRepository) FindAll(preloads ...string) ([]*Event, error) {
	var events []*Event
	query := r.DB
	for _, preload := range preloads {
		query = query.Preload(preload)
	}
	result := query.Find(&events)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to find events: %v", result.Error)
	}
	return events, nil
}
