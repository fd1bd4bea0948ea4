package repository

import (
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Team struct {
	Id      int         `gorm:"primaryKey"`
	EventId int         `gorm:"not null;index;uniqueIndex:idx_event_code"`
	Name    string      `gorm:"not null"`
	Code    string      `gorm:"not null;uniqueIndex:idx_event_code"`
	Members []*TeamUser `gorm:"foreignKey:TeamId;constraint:OnDelete:CASCADE"`
}

// TeamUser carries the event id alongside the membership so the unique
// index can enforce one team per participant per event at the database
// level; the team row lock alone only serializes joins into the same team.
type TeamUser struct {
	TeamId        int  `gorm:"primaryKey"`
	ParticipantId int  `gorm:"primaryKey;uniqueIndex:idx_event_participant"`
	EventId       int  `gorm:"not null;uniqueIndex:idx_event_participant"`
	IsLeader      bool `gorm:"not null;default:false"`
}

type TeamRepository struct {
	DB *gorm.DB
}

func NewTeamRepository(db *gorm.DB) *TeamRepository {
	return &TeamRepository{DB: db}
}

func (r *TeamRepository) GetTeamById(teamId int) (*Team, error) {
	var team Team
	result := r.DB.Preload("Members").First(&team, teamId)
	if result.Error != nil {
		return nil, result.Error
	}
	return &team, nil
}

func (r *TeamRepository) GetTeamByCode(eventId int, code string) (*Team, error) {
	var team Team
	result := r.DB.Preload("Members").First(&team, &Team{EventId: eventId, Code: code})
	if result.Error != nil {
		return nil, result.Error
	}
	return &team, nil
}

func (r *TeamRepository) GetTeamsForEvent(eventId int) ([]*Team, error) {
	timer := queryTimer("GetTeamsForEvent")
	defer timer.ObserveDuration()
	teams := make([]*Team, 0)
	result := r.DB.Preload("Members").Find(&teams, &Team{EventId: eventId})
	if result.Error != nil {
		return nil, result.Error
	}
	return teams, nil
}

func (r *TeamRepository) Save(team *Team) (*Team, error) {
	result := r.DB.Save(team)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to save team: %v", result.Error)
	}
	return team, nil
}

// GetTeamForParticipant returns the team a participant belongs to within an
// event, or gorm.ErrRecordNotFound.
func (r *TeamRepository) GetTeamForParticipant(eventId int, participantId int) (*Team, error) {
	var team Team
	result := r.DB.Joins("JOIN arena.team_users ON team_users.team_id = teams.id").
		Where("team_users.participant_id = ? AND team_users.event_id = ?", participantId, eventId).
		First(&team)
	if result.Error != nil {
		return nil, result.Error
	}
	return &team, nil
}

// GetMembership looks up a participant's membership row for an event
// within tx, or gorm.ErrRecordNotFound.
func (r *TeamRepository) GetMembership(tx *gorm.DB, eventId int, participantId int) (*TeamUser, error) {
	var membership TeamUser
	result := tx.First(&membership, &TeamUser{EventId: eventId, ParticipantId: participantId})
	if result.Error != nil {
		return nil, result.Error
	}
	return &membership, nil
}

// LockTeam locks the team row for the lifetime of tx. Joins and invites
// serialize on this so the member count check and insert are atomic.
func (r *TeamRepository) LockTeam(tx *gorm.DB, teamId int) (*Team, error) {
	var team Team
	result := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&team, teamId)
	if result.Error != nil {
		return nil, result.Error
	}
	return &team, nil
}

func (r *TeamRepository) CountMembers(tx *gorm.DB, teamId int) (int, error) {
	var count int64
	result := tx.Model(&TeamUser{}).Where("team_id = ?", teamId).Count(&count)
	if result.Error != nil {
		return 0, result.Error
	}
	return int(count), nil
}

func (r *TeamRepository) AddMember(tx *gorm.DB, teamUser *TeamUser) error {
	return tx.Create(teamUser).Error
}

func (r *TeamRepository) CodeExists(tx *gorm.DB, eventId int, code string) (bool, error) {
	var count int64
	result := tx.Model(&Team{}).Where("event_id = ? AND code = ?", eventId, code).Count(&count)
	if result.Error != nil {
		return false, result.Error
	}
	return count > 0, nil
}

// UndersizedTeams returns teams below minSize together with their current
// member count. Used at event close and round freeze to flag (not
// delete) teams that never filled up.
func (r *TeamRepository) UndersizedTeams(eventId int, minSize int) (map[int]int, error) {
	timer := queryTimer("UndersizedTeams")
	defer timer.ObserveDuration()
	query := `
	SELECT teams.id, COUNT(team_users.participant_id) AS members
	FROM arena.teams
	LEFT JOIN arena.team_users ON team_users.team_id = teams.id
	WHERE teams.event_id = @eventId
	GROUP BY teams.id
	HAVING COUNT(team_users.participant_id) < @minSize
	`
	rows := make([]struct {
		Id      int
		Members int
	}, 0)
	result := r.DB.Raw(query, map[string]interface{}{"eventId": eventId, "minSize": minSize}).Scan(&rows)
	if result.Error != nil {
		return nil, result.Error
	}
	undersized := make(map[int]int)
	for _, row := range rows {
		undersized[row.Id] = row.Members
	}
	return undersized, nil
}
