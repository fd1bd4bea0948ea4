package repository

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AttendanceToken records the single current token id per
// (event, participant). Issuing a new token overwrites the row, which is
// what invalidates the previous one.
type AttendanceToken struct {
	EventId       int       `gorm:"primaryKey"`
	ParticipantId int       `gorm:"primaryKey"`
	TokenId       string    `gorm:"not null"`
	IssuedAt      time.Time `gorm:"not null"`
}

type AttendanceRepository struct {
	DB *gorm.DB
}

func NewAttendanceRepository(db *gorm.DB) *AttendanceRepository {
	return &AttendanceRepository{DB: db}
}

func (r *AttendanceRepository) ReplaceToken(token *AttendanceToken) error {
	return r.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "event_id"}, {Name: "participant_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"token_id", "issued_at"}),
	}).Create(token).Error
}

func (r *AttendanceRepository) GetCurrentToken(eventId int, participantId int) (*AttendanceToken, error) {
	var token AttendanceToken
	result := r.DB.First(&token, &AttendanceToken{EventId: eventId, ParticipantId: participantId})
	if result.Error != nil {
		return nil, result.Error
	}
	return &token, nil
}
