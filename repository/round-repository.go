package repository

import (
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RoundState string

const (
	RoundDraft     RoundState = "draft"
	RoundPublished RoundState = "published"
	RoundActive    RoundState = "active"
	RoundCompleted RoundState = "completed"
)

type EliminationType string

const (
	EliminationTopK     EliminationType = "top_k"
	EliminationMinScore EliminationType = "min_score"
)

type Round struct {
	Id               int              `gorm:"primaryKey"`
	EventId          int              `gorm:"not null;index;uniqueIndex:idx_event_round_no"`
	RoundNo          int              `gorm:"not null;uniqueIndex:idx_event_round_no"`
	Name             string           `gorm:"not null"`
	Description      *string          `gorm:"null"`
	Date             *time.Time       `gorm:"null"`
	State            RoundState       `gorm:"type:arena.round_state;not null;default:draft"`
	IsFrozen         bool             `gorm:"not null;default:false"`
	EliminationType  *EliminationType `gorm:"type:arena.elimination_type;null"`
	EliminationValue *float64         `gorm:"null"`
	Criteria         []*Criterion     `gorm:"foreignKey:RoundId;constraint:OnDelete:CASCADE"`
}

type Criterion struct {
	Id        int     `gorm:"primaryKey"`
	RoundId   int     `gorm:"not null;index"`
	SortOrder int     `gorm:"not null"`
	Name      string  `gorm:"not null"`
	MaxMarks  float64 `gorm:"not null"`
}

type RoundRepository struct {
	DB *gorm.DB
}

func NewRoundRepository(db *gorm.DB) *RoundRepository {
	return &RoundRepository{DB: db}
}

func (r *RoundRepository) GetRoundById(roundId int) (*Round, error) {
	var round Round
	result := r.DB.Preload("Criteria", func(db *gorm.DB) *gorm.DB {
		return db.Order("criteria.sort_order ASC")
	}).First(&round, roundId)
	if result.Error != nil {
		return nil, result.Error
	}
	return &round, nil
}

func (r *RoundRepository) GetRoundsForEvent(eventId int) ([]*Round, error) {
	rounds := make([]*Round, 0)
	result := r.DB.Preload("Criteria", func(db *gorm.DB) *gorm.DB {
		return db.Order("criteria.sort_order ASC")
	}).Order("round_no ASC").Find(&rounds, &Round{EventId: eventId})
	if result.Error != nil {
		return nil, result.Error
	}
	return rounds, nil
}

// NextRoundNo must run inside the same transaction that inserts the round,
// otherwise two concurrent creates can claim the same number.
func (r *RoundRepository) NextRoundNo(tx *gorm.DB, eventId int) (int, error) {
	var maxNo int
	result := tx.Model(&Round{}).Where("event_id = ?", eventId).
		Select("COALESCE(MAX(round_no), 0)").Scan(&maxNo)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to determine next round number: %v", result.Error)
	}
	return maxNo + 1, nil
}

func (r *RoundRepository) Save(round *Round) (*Round, error) {
	result := r.DB.Save(round)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to save round: %v", result.Error)
	}
	return round, nil
}

func (r *RoundRepository) Delete(round *Round) error {
	return r.DB.Delete(round).Error
}

// LockRound takes a row-level lock on the round for the lifetime of tx.
// Score writes and freeze runs both go through this so a freeze always
// sees a consistent snapshot of the round's scores.
func (r *RoundRepository) LockRound(tx *gorm.DB, roundId int) (*Round, error) {
	var round Round
	result := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&round, roundId)
	if result.Error != nil {
		return nil, result.Error
	}
	if err := tx.Order("sort_order ASC").Find(&round.Criteria, &Criterion{RoundId: round.Id}).Error; err != nil {
		return nil, err
	}
	return &round, nil
}

// ReplaceCriteria swaps the round's criteria wholesale. The old criterion
// rows (and their ids) go away, so every existing score for the round is
// orphaned and dropped with them; judges re-enter marks against the new
// rubric.
func (r *RoundRepository) ReplaceCriteria(tx *gorm.DB, roundId int, criteria []*Criterion) error {
	if err := tx.Delete(&Criterion{}, "round_id = ?", roundId).Error; err != nil {
		return fmt.Errorf("failed to clear criteria: %v", err)
	}
	if err := tx.Delete(&Score{}, "round_id = ?", roundId).Error; err != nil {
		return fmt.Errorf("failed to clear scores: %v", err)
	}
	for i, criterion := range criteria {
		criterion.Id = 0
		criterion.RoundId = roundId
		criterion.SortOrder = i
	}
	if len(criteria) == 0 {
		return nil
	}
	return tx.CreateInBatches(criteria, len(criteria)).Error
}
