package service

import (
	"errors"
	"time"

	"arena-backend/app_error"
	"arena-backend/repository"

	"gorm.io/gorm"
)

var stateOrder = map[repository.RoundState]int{
	repository.RoundDraft:     0,
	repository.RoundPublished: 1,
	repository.RoundActive:    2,
	repository.RoundCompleted: 3,
}

type RoundService struct {
	db              *gorm.DB
	roundRepository *repository.RoundRepository
	eventService    *EventService
}

func NewRoundService(db *gorm.DB) *RoundService {
	return &RoundService{
		db:              db,
		roundRepository: repository.NewRoundRepository(db),
		eventService:    NewEventService(db),
	}
}

func (r *RoundService) GetRoundById(roundId int) (*repository.Round, error) {
	round, err := r.roundRepository.GetRoundById(roundId)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, app_error.NotFound("round %d not found", roundId)
		}
		return nil, err
	}
	return round, nil
}

func (r *RoundService) GetRoundsForEvent(eventId int) ([]*repository.Round, error) {
	return r.roundRepository.GetRoundsForEvent(eventId)
}

// validateCriteria also rejects duplicate names: score rows are keyed by
// criterion name at the API boundary, so a duplicate would silently
// collapse into one criterion while still counting twice in max_total.
func validateCriteria(criteria []*repository.Criterion) error {
	seen := make(map[string]bool, len(criteria))
	for _, criterion := range criteria {
		if criterion.Name == "" {
			return app_error.Validation("criterion name must not be empty")
		}
		if criterion.MaxMarks < 0 {
			return app_error.Validation("criterion %q: max_marks must be >= 0", criterion.Name)
		}
		if seen[criterion.Name] {
			return app_error.Validation("duplicate criterion name %q", criterion.Name)
		}
		seen[criterion.Name] = true
	}
	return nil
}

// CreateRound assigns the next sequential round number for the event.
// The number is claimed inside the insert transaction, so two concurrent
// creates cannot end up with the same round_no.
func (r *RoundService) CreateRound(eventId int, round *repository.Round) (*repository.Round, error) {
	if _, err := r.eventService.GetEventById(eventId); err != nil {
		return nil, err
	}
	if err := validateCriteria(round.Criteria); err != nil {
		return nil, err
	}
	err := r.db.Transaction(func(tx *gorm.DB) error {
		roundNo, err := r.roundRepository.NextRoundNo(tx, eventId)
		if err != nil {
			return err
		}
		round.EventId = eventId
		round.RoundNo = roundNo
		round.State = repository.RoundDraft
		round.IsFrozen = false
		for i, criterion := range round.Criteria {
			criterion.SortOrder = i
		}
		return tx.Create(round).Error
	})
	if err != nil {
		return nil, err
	}
	return round, nil
}

type RoundUpdate struct {
	Name        *string
	Description *string
	Date        *time.Time
	State       *repository.RoundState
	Criteria    []*repository.Criterion
}

// UpdateRound edits name/description/criteria/date and advances the state
// machine. Frozen rounds are read-only: the only way back is the explicit
// unfreeze operation. State moves forward only; round_no never changes.
func (r *RoundService) UpdateRound(roundId int, update *RoundUpdate) (*repository.Round, error) {
	round, err := r.GetRoundById(roundId)
	if err != nil {
		return nil, err
	}
	if round.IsFrozen {
		return nil, app_error.State("round %d is frozen; unfreeze it before editing", roundId)
	}
	if update.State != nil {
		if _, ok := stateOrder[*update.State]; !ok {
			return nil, app_error.Validation("unknown round state %q", *update.State)
		}
		if stateOrder[*update.State] < stateOrder[round.State] {
			return nil, app_error.State("round state cannot move back from %s to %s", round.State, *update.State)
		}
		round.State = *update.State
	}
	if update.Name != nil {
		round.Name = *update.Name
	}
	if update.Description != nil {
		round.Description = update.Description
	}
	if update.Date != nil {
		round.Date = update.Date
	}
	err = r.db.Transaction(func(tx *gorm.DB) error {
		if update.Criteria != nil {
			if err := validateCriteria(update.Criteria); err != nil {
				return err
			}
			if err := r.roundRepository.ReplaceCriteria(tx, round.Id, update.Criteria); err != nil {
				return err
			}
		}
		round.Criteria = nil
		return tx.Save(round).Error
	})
	if err != nil {
		return nil, err
	}
	return r.GetRoundById(roundId)
}

func (r *RoundService) DeleteRound(roundId int) error {
	round, err := r.GetRoundById(roundId)
	if err != nil {
		return err
	}
	if round.State != repository.RoundDraft {
		return app_error.State("round %d is in state %s; only draft rounds can be deleted", roundId, round.State)
	}
	return r.roundRepository.Delete(round)
}
