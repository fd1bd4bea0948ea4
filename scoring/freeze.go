// should be in service package, but would lead to circular imports

package scoring

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"arena-backend/app_error"
	"arena-backend/config"
	"arena-backend/metrics"
	"arena-backend/repository"
	"arena-backend/utils"

	"github.com/segmentio/kafka-go"
	"gorm.io/gorm"
)

type FreezeService struct {
	db              *gorm.DB
	roundRepository *repository.RoundRepository
	scoreRepository *repository.ScoreRepository
	eventRepository *repository.EventRepository
	teamRepository  *repository.TeamRepository
}

func NewFreezeService(db *gorm.DB) *FreezeService {
	return &FreezeService{
		db:              db,
		roundRepository: repository.NewRoundRepository(db),
		scoreRepository: repository.NewScoreRepository(db),
		eventRepository: repository.NewEventRepository(db),
		teamRepository:  repository.NewTeamRepository(db),
	}
}

// Freeze runs the elimination rule over a consistent snapshot of the
// round's scores and locks the round. The whole computation and commit
// happen under a round-level lock, so in-flight score writes either land
// before the snapshot or get rejected afterwards. Either every entry
// status commits or none do.
func (s *FreezeService) Freeze(roundId int, eliminationType repository.EliminationType, eliminationValue float64) ([]*RoundResult, error) {
	timer := time.Now()
	var results []*RoundResult
	var eventId int
	err := s.db.Transaction(func(tx *gorm.DB) error {
		round, err := s.roundRepository.LockRound(tx, roundId)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return app_error.NotFound("round %d not found", roundId)
			}
			return err
		}
		if round.IsFrozen {
			return app_error.State("round %d is already frozen; unfreeze it first to re-run elimination", roundId)
		}
		if round.State != repository.RoundActive && round.State != repository.RoundCompleted {
			return app_error.State("round %d cannot be frozen in state %s", roundId, round.State)
		}
		if len(round.Criteria) == 0 {
			return app_error.State("round %d has no evaluation criteria", roundId)
		}
		eventId = round.EventId

		scores, err := s.scoreRepository.GetScoresForRound(tx, roundId)
		if err != nil {
			return err
		}
		entries, err := s.scoreRepository.GetEntriesForRound(tx, roundId)
		if err != nil {
			return err
		}
		results = ComputeResults(round.Criteria, scores, entries)
		ApplyElimination(results, eliminationType, eliminationValue)

		entryMap := make(map[int]*repository.RoundEntry, len(entries))
		for _, entry := range entries {
			entryMap[entry.ParticipantId] = entry
		}
		for _, result := range results {
			entry := entryMap[result.ParticipantId]
			entry.Status = result.Status
			entry.Total = result.Total
			entry.Normalized = result.Normalized
		}
		if err := s.scoreRepository.SaveEntries(tx, entries); err != nil {
			return err
		}

		round.IsFrozen = true
		round.EliminationType = &eliminationType
		round.EliminationValue = &eliminationValue
		// Criteria are already persisted; saving them again would
		// duplicate the association rows.
		round.Criteria = nil
		return tx.Save(round).Error
	})
	if err != nil {
		return nil, err
	}
	metrics.RoundsFrozenCounter.Inc()
	metrics.FreezeDuration.Observe(time.Since(timer).Seconds())
	log.Printf("Froze round %d: %d of %d entries survive", roundId, SurvivorCount(results), len(results))
	s.flagUndersizedTeams(eventId, roundId)
	s.publishResults(eventId, roundId, results)
	return results, nil
}

// flagUndersizedTeams reports (never deletes) teams below the event
// minimum so organizers see them alongside the freeze outcome.
func (s *FreezeService) flagUndersizedTeams(eventId int, roundId int) {
	event, err := s.eventRepository.GetEventById(eventId)
	if err != nil || event.ParticipantMode != repository.ModeTeam {
		return
	}
	undersized, err := s.teamRepository.UndersizedTeams(eventId, event.TeamMinSize)
	if err != nil {
		log.Printf("Could not check team sizes for event %d: %v", eventId, err)
		return
	}
	for teamId, members := range undersized {
		log.Printf("Round %d frozen with team %d below minimum size (%d of %d members)",
			roundId, teamId, members, event.TeamMinSize)
	}
}

// Unfreeze clears the frozen flag so scores can be edited and elimination
// re-run. It deliberately does NOT revert the entry statuses the last
// freeze committed; callers see the previous outcome until the next
// freeze overwrites it. The asymmetry is part of the API contract.
func (s *FreezeService) Unfreeze(roundId int) (*repository.Round, error) {
	var round *repository.Round
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		round, err = s.roundRepository.LockRound(tx, roundId)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return app_error.NotFound("round %d not found", roundId)
			}
			return err
		}
		if !round.IsFrozen {
			return app_error.State("round %d is not frozen", roundId)
		}
		round.IsFrozen = false
		round.Criteria = nil
		return tx.Save(round).Error
	})
	if err != nil {
		return nil, err
	}
	metrics.RoundsUnfrozenCounter.Inc()
	log.Printf("Unfroze round %d; previously committed statuses remain until the next freeze", roundId)
	return round, nil
}

type resultMessage struct {
	RoundId       int     `json:"round_id"`
	ParticipantId int     `json:"participant_id"`
	Total         float64 `json:"total"`
	Normalized    float64 `json:"normalized"`
	Status        string  `json:"status"`
}

// publishResults sends the freeze outcome to the event's result topic.
// Best-effort: the freeze has already committed, a broker outage only
// costs the audit trail, so failures are logged and swallowed.
func (s *FreezeService) publishResults(eventId int, roundId int, results []*RoundResult) {
	if config.Env().KafkaBroker == "" {
		return
	}
	writer, err := config.GetWriter(eventId)
	if err != nil {
		log.Printf("Could not create result writer for event %d: %v", eventId, err)
		return
	}
	defer utils.Closer(writer)()
	messages := make([]kafka.Message, 0, len(results))
	for _, result := range results {
		serialized, err := json.Marshal(resultMessage{
			RoundId:       roundId,
			ParticipantId: result.ParticipantId,
			Total:         result.Total,
			Normalized:    result.Normalized,
			Status:        string(result.Status),
		})
		if err != nil {
			continue
		}
		messages = append(messages, kafka.Message{Value: serialized})
	}
	if err := writer.WriteMessages(context.Background(), messages...); err != nil {
		log.Printf("Could not publish results for round %d: %v", roundId, err)
	}
}
