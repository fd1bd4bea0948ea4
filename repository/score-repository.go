package repository

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

type EntryStatus string

const (
	EntryPending    EntryStatus = "pending"
	EntryActive     EntryStatus = "active"
	EntryEliminated EntryStatus = "eliminated"
	EntryAbsent     EntryStatus = "absent"
)

// Score is one raw mark for one criterion. ParticipantId is the event's
// scoring unit: a participant row in individual mode, a team row in team
// mode.
type Score struct {
	RoundId       int       `gorm:"primaryKey"`
	ParticipantId int       `gorm:"primaryKey"`
	CriterionId   int       `gorm:"primaryKey"`
	Value         float64   `gorm:"not null"`
	UpdatedAt     time.Time `gorm:"not null"`
}

// RoundEntry tracks presence while a round is open and receives the
// computed totals and the elimination outcome when the round is frozen.
type RoundEntry struct {
	RoundId       int         `gorm:"primaryKey"`
	ParticipantId int         `gorm:"primaryKey"`
	IsPresent     bool        `gorm:"not null;default:true"`
	Status        EntryStatus `gorm:"type:arena.entry_status;not null;default:pending"`
	Total         float64     `gorm:"not null;default:0"`
	Normalized    float64     `gorm:"not null;default:0"`
}

type ScoreRepository struct {
	DB *gorm.DB
}

func NewScoreRepository(db *gorm.DB) *ScoreRepository {
	return &ScoreRepository{DB: db}
}

func (r *ScoreRepository) UpsertScore(tx *gorm.DB, score *Score) error {
	result := tx.Save(score)
	if result.Error != nil {
		return fmt.Errorf("failed to save score: %v", result.Error)
	}
	return nil
}

func (r *ScoreRepository) UpsertEntry(tx *gorm.DB, entry *RoundEntry) error {
	result := tx.Save(entry)
	if result.Error != nil {
		return fmt.Errorf("failed to save round entry: %v", result.Error)
	}
	return nil
}

func (r *ScoreRepository) GetEntry(tx *gorm.DB, roundId int, participantId int) (*RoundEntry, error) {
	var entry RoundEntry
	result := tx.First(&entry, &RoundEntry{RoundId: roundId, ParticipantId: participantId})
	if result.Error != nil {
		return nil, result.Error
	}
	return &entry, nil
}

func (r *ScoreRepository) GetScoresForRound(tx *gorm.DB, roundId int) ([]*Score, error) {
	timer := queryTimer("GetScoresForRound")
	defer timer.ObserveDuration()
	scores := make([]*Score, 0)
	result := tx.Find(&scores, &Score{RoundId: roundId})
	if result.Error != nil {
		return nil, result.Error
	}
	return scores, nil
}

func (r *ScoreRepository) GetEntriesForRound(tx *gorm.DB, roundId int) ([]*RoundEntry, error) {
	timer := queryTimer("GetEntriesForRound")
	defer timer.ObserveDuration()
	entries := make([]*RoundEntry, 0)
	result := tx.Order("participant_id ASC").Find(&entries, &RoundEntry{RoundId: roundId})
	if result.Error != nil {
		return nil, result.Error
	}
	return entries, nil
}

func (r *ScoreRepository) SaveEntries(tx *gorm.DB, entries []*RoundEntry) error {
	if len(entries) == 0 {
		return nil
	}
	return tx.Save(entries).Error
}

// FrozenEntries returns the entries of all frozen rounds of the event,
// keyed for the leaderboard projection.
func (r *ScoreRepository) FrozenEntries(eventId int) ([]*RoundEntry, error) {
	timer := queryTimer("FrozenEntries")
	defer timer.ObserveDuration()
	query := `
	SELECT round_entries.*
	FROM arena.round_entries
	JOIN arena.rounds ON rounds.id = round_entries.round_id
	WHERE rounds.event_id = @eventId AND rounds.is_frozen = true
	`
	entries := make([]*RoundEntry, 0)
	result := r.DB.Raw(query, map[string]interface{}{"eventId": eventId}).Scan(&entries)
	if result.Error != nil {
		return nil, result.Error
	}
	return entries, nil
}
