package service

import (
	"errors"
	"fmt"

	"arena-backend/app_error"
	"arena-backend/metrics"
	"arena-backend/repository"

	"gorm.io/gorm"
)

type ScoreService struct {
	db                    *gorm.DB
	roundRepository       *repository.RoundRepository
	scoreRepository       *repository.ScoreRepository
	participantRepository *repository.ParticipantRepository
	teamRepository        *repository.TeamRepository
	eventService          *EventService
}

func NewScoreService(db *gorm.DB) *ScoreService {
	return &ScoreService{
		db:                    db,
		roundRepository:       repository.NewRoundRepository(db),
		scoreRepository:       repository.NewScoreRepository(db),
		participantRepository: repository.NewParticipantRepository(db),
		teamRepository:        repository.NewTeamRepository(db),
		eventService:          NewEventService(db),
	}
}

// ScoreRow is one scoring unit's marks for a round.
type ScoreRow struct {
	ParticipantId  int
	CriteriaScores map[string]float64
	IsPresent      bool
}

// scoringUnits returns the set of ids that may be scored for the event:
// individual registrations or teams depending on participant mode.
func (s *ScoreService) scoringUnits(eventId int) (map[int]bool, error) {
	event, err := s.eventService.GetEventById(eventId)
	if err != nil {
		return nil, err
	}
	units := make(map[int]bool)
	if event.ParticipantMode == repository.ModeTeam {
		teams, err := s.teamRepository.GetTeamsForEvent(eventId)
		if err != nil {
			return nil, err
		}
		for _, team := range teams {
			units[team.Id] = true
		}
		return units, nil
	}
	participants, err := s.participantRepository.GetParticipantsForEvent(eventId)
	if err != nil {
		return nil, err
	}
	for _, participant := range participants {
		units[participant.Id] = true
	}
	return units, nil
}

func clamp(value float64, max float64) float64 {
	if value < 0 {
		return 0
	}
	if value > max {
		return max
	}
	return value
}

// SetScores writes a batch of rows for one round, all-or-nothing. Values
// are clamped into [0, max_marks]. The round lock is held for the whole
// write so it cannot interleave with a freeze.
func (s *ScoreService) SetScores(roundId int, rows []*ScoreRow) ([]*repository.RoundEntry, error) {
	entries := make([]*repository.RoundEntry, 0, len(rows))
	err := s.db.Transaction(func(tx *gorm.DB) error {
		round, err := s.roundRepository.LockRound(tx, roundId)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return app_error.NotFound("round %d not found", roundId)
			}
			return err
		}
		if round.IsFrozen {
			metrics.ScoreWritesCounter.WithLabelValues("frozen").Inc()
			return app_error.State("round %d is frozen; scores are read-only", roundId)
		}
		units, err := s.scoringUnits(round.EventId)
		if err != nil {
			return err
		}
		criteriaByName := make(map[string]*repository.Criterion)
		for _, criterion := range round.Criteria {
			criteriaByName[criterion.Name] = criterion
		}
		for _, row := range rows {
			if !units[row.ParticipantId] {
				return app_error.Validation("participant %d is not registered for this event", row.ParticipantId)
			}
			for name, value := range row.CriteriaScores {
				criterion, ok := criteriaByName[name]
				if !ok {
					return app_error.Validation("round %d has no criterion %q", roundId, name)
				}
				err := s.scoreRepository.UpsertScore(tx, &repository.Score{
					RoundId:       roundId,
					ParticipantId: row.ParticipantId,
					CriterionId:   criterion.Id,
					Value:         clamp(value, criterion.MaxMarks),
				})
				if err != nil {
					return err
				}
			}
			entry := &repository.RoundEntry{
				RoundId:       roundId,
				ParticipantId: row.ParticipantId,
				IsPresent:     row.IsPresent,
				Status:        repository.EntryPending,
			}
			if err := s.scoreRepository.UpsertEntry(tx, entry); err != nil {
				return err
			}
			entries = append(entries, entry)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	metrics.ScoreWritesCounter.WithLabelValues("accepted").Add(float64(len(rows)))
	return entries, nil
}

type ImportResult struct {
	CommittedCount int
	Errors         []string
}

// ImportScores is the one partial-success mutation in the API: each row
// is validated on its own, bad rows are skipped and reported, and the
// remaining rows commit in a single transaction. Out-of-range values are
// errors here, not clamped; a bulk sheet with impossible marks is more
// likely a mapping mistake than a generous judge.
func (s *ScoreService) ImportScores(roundId int, rows []*ScoreRow) (*ImportResult, error) {
	importResult := &ImportResult{Errors: make([]string, 0)}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		round, err := s.roundRepository.LockRound(tx, roundId)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return app_error.NotFound("round %d not found", roundId)
			}
			return err
		}
		if round.IsFrozen {
			return app_error.State("round %d is frozen; scores are read-only", roundId)
		}
		units, err := s.scoringUnits(round.EventId)
		if err != nil {
			return err
		}
		criteriaByName := make(map[string]*repository.Criterion)
		for _, criterion := range round.Criteria {
			criteriaByName[criterion.Name] = criterion
		}
	rowLoop:
		for i, row := range rows {
			if !units[row.ParticipantId] {
				importResult.Errors = append(importResult.Errors, fmt.Sprintf("row %d: unknown participant", i+1))
				continue
			}
			for name, value := range row.CriteriaScores {
				criterion, ok := criteriaByName[name]
				if !ok {
					importResult.Errors = append(importResult.Errors, fmt.Sprintf("row %d: unknown criterion %q", i+1, name))
					continue rowLoop
				}
				if value < 0 || value > criterion.MaxMarks {
					importResult.Errors = append(importResult.Errors,
						fmt.Sprintf("row %d: value %g for %q outside [0, %g]", i+1, value, name, criterion.MaxMarks))
					continue rowLoop
				}
			}
			for name, value := range row.CriteriaScores {
				criterion := criteriaByName[name]
				err := s.scoreRepository.UpsertScore(tx, &repository.Score{
					RoundId:       roundId,
					ParticipantId: row.ParticipantId,
					CriterionId:   criterion.Id,
					Value:         value,
				})
				if err != nil {
					return err
				}
			}
			err := s.scoreRepository.UpsertEntry(tx, &repository.RoundEntry{
				RoundId:       roundId,
				ParticipantId: row.ParticipantId,
				IsPresent:     row.IsPresent,
				Status:        repository.EntryPending,
			})
			if err != nil {
				return err
			}
			importResult.CommittedCount++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	metrics.ImportRowsCounter.WithLabelValues("committed").Add(float64(importResult.CommittedCount))
	metrics.ImportRowsCounter.WithLabelValues("rejected").Add(float64(len(importResult.Errors)))
	return importResult, nil
}

// GetRoundEntries is the read side the UI renders after a freeze.
func (s *ScoreService) GetRoundEntries(roundId int) ([]*repository.RoundEntry, error) {
	if _, err := s.roundRepository.GetRoundById(roundId); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, app_error.NotFound("round %d not found", roundId)
		}
		return nil, err
	}
	return s.scoreRepository.GetEntriesForRound(s.db, roundId)
}
