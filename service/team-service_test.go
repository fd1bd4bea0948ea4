package service

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"testing"
	"time"

	"arena-backend/app_error"
	"arena-backend/repository"

	"gorm.io/driver/postgres"
	_ "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"

	"github.com/ory/dockertest/v3"
	"github.com/stretchr/testify/assert"
)

var db *gorm.DB
var enumQueries = []string{
	`CREATE TYPE arena.participant_mode AS ENUM ('individual', 'team')`,
	`CREATE TYPE arena.event_status AS ENUM ('open', 'closed')`,
	`CREATE TYPE arena.round_state AS ENUM ('draft', 'published', 'active', 'completed')`,
	`CREATE TYPE arena.elimination_type AS ENUM ('top_k', 'min_score')`,
	`CREATE TYPE arena.entry_status AS ENUM ('pending', 'active', 'eliminated', 'absent')`,
}

func TestMain(m *testing.M) {
	pool, err := dockertest.NewPool("")
	if err != nil {
		log.Fatalf("Could not construct pool: %s", err)
	}

	err = pool.Client.Ping()
	if err != nil {
		log.Fatalf("Could not connect to Docker: %s", err)
	}

	resource, err := pool.Run("postgres", "17.2-alpine", []string{"POSTGRES_USER=postgres", "POSTGRES_PASSWORD=postgres", "DATABASE_NAME=postgres"})
	if err != nil {
		log.Fatalf("Could not start resource: %s", err)
	}
	resource.Expire(600)
	sqlInfo := fmt.Sprintf(
		"host=localhost port=%s user=postgres password=postgres dbname=postgres sslmode=disable search_path=arena",
		resource.GetPort("5432/tcp"))

	if err := pool.Retry(func() error {
		var err error
		db, err = gorm.Open(postgres.Open(sqlInfo), &gorm.Config{
			NamingStrategy: schema.NamingStrategy{
				TablePrefix:   "arena.",
				SingularTable: false,
			},
			Logger:         logger.Default.LogMode(logger.Silent),
			TranslateError: true,
		})

		if err != nil {
			return err
		}
		db.Exec(`CREATE SCHEMA IF NOT EXISTS arena`)
		for _, query := range enumQueries {
			x := db.Exec(query)
			if x.Error != nil {
				if strings.Contains(x.Error.Error(), "already exists") {
					continue
				}
			}
		}
		return repository.AutoMigrate(db)
	}); err != nil {
		log.Fatalf("Could not connect to database: %s", err)
	}

	defer func() {
		if err := pool.Purge(resource); err != nil {
			log.Fatalf("Could not purge resource: %s", err)
		}
	}()
	m.Run()
}

func TearDown() {
	db.Exec("DELETE FROM arena.scores")
	db.Exec("DELETE FROM arena.round_entries")
	db.Exec("DELETE FROM arena.criteria")
	db.Exec("DELETE FROM arena.rounds")
	db.Exec("DELETE FROM arena.team_users")
	db.Exec("DELETE FROM arena.teams")
	db.Exec("DELETE FROM arena.referral_credits")
	db.Exec("DELETE FROM arena.attendance_tokens")
	db.Exec("DELETE FROM arena.participants")
	db.Exec("DELETE FROM arena.events")
}

func seedTeamEvent(minSize int, maxSize int) *repository.Event {
	event := &repository.Event{
		Name:            "hackathon",
		Slug:            "hackathon",
		ParticipantMode: repository.ModeTeam,
		Status:          repository.EventOpen,
		TeamMinSize:     minSize,
		TeamMaxSize:     maxSize,
	}
	if err := db.Create(event).Error; err != nil {
		log.Fatalf("Error creating event: %v", err)
	}
	return event
}

func seedParticipant(eventId int, index int) *repository.Participant {
	participant := &repository.Participant{
		EventId:      eventId,
		Name:         fmt.Sprintf("participant%d", index),
		RegNo:        fmt.Sprintf("REG%03d", index),
		ReferralCode: fmt.Sprintf("CODE%03d", index),
		RegisteredAt: time.Now(),
	}
	if err := db.Create(participant).Error; err != nil {
		log.Fatalf("Error creating participant: %v", err)
	}
	return participant
}

func TestCreateTeamAssignsCode(t *testing.T) {
	event := seedTeamEvent(2, 4)
	defer TearDown()
	leader := seedParticipant(event.Id, 1)

	team, err := NewTeamService(db).CreateTeam(event.Id, leader.Id, "gophers")
	assert.Nil(t, err)
	assert.Len(t, team.Code, 5)
	for _, c := range team.Code {
		assert.Contains(t, codeAlphabet, string(c))
	}
	assert.Len(t, team.Members, 1)
	assert.True(t, team.Members[0].IsLeader)
	assert.Equal(t, leader.Id, team.Members[0].ParticipantId)
}

func TestCreateTeamRejectsIndividualEvent(t *testing.T) {
	event := &repository.Event{
		Name:            "quiz",
		Slug:            "quiz",
		ParticipantMode: repository.ModeIndividual,
	}
	db.Create(event)
	defer TearDown()
	participant := seedParticipant(event.Id, 1)

	_, err := NewTeamService(db).CreateTeam(event.Id, participant.Id, "solo")
	assert.Equal(t, app_error.KindState, app_error.KindOf(err))
}

func TestJoinTeamCapacity(t *testing.T) {
	event := seedTeamEvent(2, 4)
	defer TearDown()
	teamService := NewTeamService(db)
	leader := seedParticipant(event.Id, 1)
	team, err := teamService.CreateTeam(event.Id, leader.Id, "gophers")
	assert.Nil(t, err)

	// three joins fill the team to its max of 4
	for i := 2; i <= 4; i++ {
		joiner := seedParticipant(event.Id, i)
		joined, err := teamService.JoinTeam(event.Id, joiner.Id, team.Code)
		assert.Nil(t, err)
		assert.Len(t, joined.Members, i)
	}

	late := seedParticipant(event.Id, 5)
	_, err = teamService.JoinTeam(event.Id, late.Id, team.Code)
	assert.Equal(t, app_error.KindConflict, app_error.KindOf(err))
}

func TestJoinTeamUnknownCode(t *testing.T) {
	event := seedTeamEvent(2, 4)
	defer TearDown()
	participant := seedParticipant(event.Id, 1)

	_, err := NewTeamService(db).JoinTeam(event.Id, participant.Id, "ZZZZZ")
	assert.Equal(t, app_error.KindNotFound, app_error.KindOf(err))
}

func TestJoinTeamRejectsSecondMembership(t *testing.T) {
	event := seedTeamEvent(2, 4)
	defer TearDown()
	teamService := NewTeamService(db)
	leader1 := seedParticipant(event.Id, 1)
	leader2 := seedParticipant(event.Id, 2)
	team1, err := teamService.CreateTeam(event.Id, leader1.Id, "gophers")
	assert.Nil(t, err)
	_, err = teamService.CreateTeam(event.Id, leader2.Id, "rustaceans")
	assert.Nil(t, err)

	_, err = teamService.JoinTeam(event.Id, leader2.Id, team1.Code)
	assert.Equal(t, app_error.KindConflict, app_error.KindOf(err))
}

func TestMembershipUniquePerEvent(t *testing.T) {
	event := seedTeamEvent(2, 4)
	defer TearDown()
	teamService := NewTeamService(db)
	leader1 := seedParticipant(event.Id, 1)
	leader2 := seedParticipant(event.Id, 2)
	joiner := seedParticipant(event.Id, 3)
	team1, err := teamService.CreateTeam(event.Id, leader1.Id, "gophers")
	assert.Nil(t, err)
	team2, err := teamService.CreateTeam(event.Id, leader2.Id, "rustaceans")
	assert.Nil(t, err)
	_, err = teamService.JoinTeam(event.Id, joiner.Id, team1.Code)
	assert.Nil(t, err)

	// a second membership row for the same participant in the same event
	// must be stopped by the database even when it bypasses the service
	// checks, since joins into different teams never contend for the
	// same team row lock
	err = repository.NewTeamRepository(db).AddMember(db, &repository.TeamUser{
		TeamId:        team2.Id,
		ParticipantId: joiner.Id,
		EventId:       event.Id,
	})
	assert.True(t, errors.Is(err, gorm.ErrDuplicatedKey))

	// creating a team while already on one is a conflict, not a new team
	_, err = teamService.CreateTeam(event.Id, joiner.Id, "defectors")
	assert.Equal(t, app_error.KindConflict, app_error.KindOf(err))
}

func TestDuplicateTeamCodeDetected(t *testing.T) {
	event := seedTeamEvent(2, 4)
	defer TearDown()
	leader := seedParticipant(event.Id, 1)
	team, err := NewTeamService(db).CreateTeam(event.Id, leader.Id, "gophers")
	assert.Nil(t, err)

	// the create-team retry loop keys off this translated error when two
	// allocations race to the same code
	err = db.Create(&repository.Team{EventId: event.Id, Name: "copycats", Code: team.Code}).Error
	assert.True(t, errors.Is(err, gorm.ErrDuplicatedKey))
}

func TestInvite(t *testing.T) {
	event := seedTeamEvent(2, 4)
	defer TearDown()
	teamService := NewTeamService(db)
	leader := seedParticipant(event.Id, 1)
	member := seedParticipant(event.Id, 2)
	target := seedParticipant(event.Id, 3)
	team, err := teamService.CreateTeam(event.Id, leader.Id, "gophers")
	assert.Nil(t, err)
	_, err = teamService.JoinTeam(event.Id, member.Id, team.Code)
	assert.Nil(t, err)

	// a plain member cannot invite
	_, err = teamService.Invite(event.Id, member.Id, team.Code, target.RegNo)
	assert.Equal(t, app_error.KindConflict, app_error.KindOf(err))

	// the leader can, and the target joins without an accept step
	invited, err := teamService.Invite(event.Id, leader.Id, team.Code, target.RegNo)
	assert.Nil(t, err)
	assert.Len(t, invited.Members, 3)

	_, err = teamService.Invite(event.Id, leader.Id, team.Code, "NOSUCH")
	assert.Equal(t, app_error.KindNotFound, app_error.KindOf(err))
}

func TestClosedEventRejectsTeamChanges(t *testing.T) {
	event := seedTeamEvent(2, 4)
	defer TearDown()
	teamService := NewTeamService(db)
	leader := seedParticipant(event.Id, 1)
	team, err := teamService.CreateTeam(event.Id, leader.Id, "gophers")
	assert.Nil(t, err)

	db.Model(event).Update("status", repository.EventClosed)

	joiner := seedParticipant(event.Id, 2)
	_, err = teamService.JoinTeam(event.Id, joiner.Id, team.Code)
	assert.Equal(t, app_error.KindState, app_error.KindOf(err))
}

func TestCloseEventFlagsUndersizedTeams(t *testing.T) {
	event := seedTeamEvent(3, 5)
	defer TearDown()
	teamService := NewTeamService(db)
	leader1 := seedParticipant(event.Id, 1)
	leader2 := seedParticipant(event.Id, 2)
	member := seedParticipant(event.Id, 3)
	extra := seedParticipant(event.Id, 4)
	small, err := teamService.CreateTeam(event.Id, leader1.Id, "duo")
	assert.Nil(t, err)
	full, err := teamService.CreateTeam(event.Id, leader2.Id, "trio")
	assert.Nil(t, err)
	_, err = teamService.JoinTeam(event.Id, member.Id, small.Code)
	assert.Nil(t, err)
	_, err = teamService.JoinTeam(event.Id, extra.Id, full.Code)
	assert.Nil(t, err)
	_, err = teamService.Invite(event.Id, leader2.Id, full.Code, leader1.RegNo)
	// leader1 already leads "duo"
	assert.Equal(t, app_error.KindConflict, app_error.KindOf(err))

	fifth := seedParticipant(event.Id, 5)
	_, err = teamService.JoinTeam(event.Id, fifth.Id, full.Code)
	assert.Nil(t, err)

	closed, flagged, err := NewEventService(db).CloseEvent(event.Id)
	assert.Nil(t, err)
	assert.Equal(t, repository.EventClosed, closed.Status)
	assert.Len(t, flagged, 1)
	assert.Equal(t, small.Id, flagged[0].TeamId)
	assert.Equal(t, 2, flagged[0].Members)
	assert.Equal(t, 3, flagged[0].MinSize)
}
