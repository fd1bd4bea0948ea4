package service

import (
	"errors"
	"log"

	"arena-backend/app_error"
	"arena-backend/config"
	"arena-backend/metrics"
	"arena-backend/repository"

	"gorm.io/gorm"
)

type TeamService struct {
	db                    *gorm.DB
	teamRepository        *repository.TeamRepository
	eventService          *EventService
	participantRepository *repository.ParticipantRepository
}

func NewTeamService(db *gorm.DB) *TeamService {
	return &TeamService{
		db:                    db,
		teamRepository:        repository.NewTeamRepository(db),
		eventService:          NewEventService(db),
		participantRepository: repository.NewParticipantRepository(db),
	}
}

func (e *TeamService) GetTeamsForEvent(eventId int) ([]*repository.Team, error) {
	return e.teamRepository.GetTeamsForEvent(eventId)
}

// GetTeamForParticipant resolves the team a participant belongs to in an
// event, for the "my team" view.
func (e *TeamService) GetTeamForParticipant(eventId int, participantId int) (*repository.Team, error) {
	team, err := e.teamRepository.GetTeamForParticipant(eventId, participantId)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, app_error.NotFound("participant %d is not on a team in event %d", participantId, eventId)
		}
		return nil, err
	}
	return e.GetTeamById(team.Id)
}

func (e *TeamService) GetTeamById(teamId int) (*repository.Team, error) {
	team, err := e.teamRepository.GetTeamById(teamId)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, app_error.NotFound("team %d not found", teamId)
		}
		return nil, err
	}
	return team, nil
}

// allocateCode draws codes until one is free for the event. The check and
// the later insert run in the same transaction, so a concurrent create
// cannot take the code in between. Collisions are vanishingly rare at
// realistic team counts; the attempt bound exists so a pathological state
// fails loudly instead of spinning.
func (e *TeamService) allocateCode(tx *gorm.DB, eventId int) (string, error) {
	cfg := config.Env()
	for attempt := 0; attempt < cfg.TeamCodeAttempts; attempt++ {
		code := randomCode(cfg.TeamCodeLength)
		exists, err := e.teamRepository.CodeExists(tx, eventId, code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
		metrics.TeamCodeRetriesCounter.Inc()
	}
	log.Printf("Team code space exhausted for event %d after %d attempts", eventId, cfg.TeamCodeAttempts)
	return "", app_error.ResourceExhausted("could not allocate a unique team code for event %d", eventId)
}

func (e *TeamService) checkTeamEvent(eventId int) (*repository.Event, error) {
	event, err := e.eventService.GetEventById(eventId)
	if err != nil {
		return nil, err
	}
	if event.ParticipantMode != repository.ModeTeam {
		return nil, app_error.State("event %d is not a team event", eventId)
	}
	if event.Status == repository.EventClosed {
		return nil, app_error.State("event %d is closed", eventId)
	}
	return event, nil
}

func (e *TeamService) checkNotOnTeam(tx *gorm.DB, eventId int, participantId int) error {
	_, err := e.teamRepository.GetMembership(tx, eventId, participantId)
	if err == nil {
		return app_error.Conflict("participant %d already belongs to a team in event %d", participantId, eventId)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return nil
}

// errCodeTaken signals that a concurrent create claimed the same code
// between our free check and the insert; the caller retries with a fresh
// code in a new transaction.
var errCodeTaken = errors.New("team code taken concurrently")

func (e *TeamService) CreateTeam(eventId int, leaderId int, name string) (*repository.Team, error) {
	if name == "" {
		return nil, app_error.Validation("team name must not be empty")
	}
	if _, err := e.checkTeamEvent(eventId); err != nil {
		return nil, err
	}
	if _, err := e.participantRepository.GetParticipantById(leaderId); err != nil {
		return nil, app_error.NotFound("participant %d not found", leaderId)
	}
	cfg := config.Env()
	for attempt := 0; attempt < cfg.TeamCodeAttempts; attempt++ {
		var team *repository.Team
		err := e.db.Transaction(func(tx *gorm.DB) error {
			code, err := e.allocateCode(tx, eventId)
			if err != nil {
				return err
			}
			team = &repository.Team{
				EventId: eventId,
				Name:    name,
				Code:    code,
			}
			if err := tx.Create(team).Error; err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return errCodeTaken
				}
				return err
			}
			err = e.teamRepository.AddMember(tx, &repository.TeamUser{
				TeamId:        team.Id,
				EventId:       eventId,
				ParticipantId: leaderId,
				IsLeader:      true,
			})
			if err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return app_error.Conflict("participant %d already belongs to a team in event %d", leaderId, eventId)
				}
				return err
			}
			return nil
		})
		if err == nil {
			return e.GetTeamById(team.Id)
		}
		if errors.Is(err, errCodeTaken) {
			metrics.TeamCodeRetriesCounter.Inc()
			continue
		}
		return nil, err
	}
	log.Printf("Team code space exhausted for event %d after %d attempts", eventId, cfg.TeamCodeAttempts)
	return nil, app_error.ResourceExhausted("could not allocate a unique team code for event %d", eventId)
}

// addMember is the single capacity gate for joins and invites. The team
// row lock serializes concurrent calls on the same team, so the count
// check and the insert are atomic and the last open slot cannot be taken
// twice. Joins into different teams are not serialized by the lock; the
// (event, participant) unique index is what stops a participant landing
// on two teams at once.
func (e *TeamService) addMember(event *repository.Event, teamId int, participantId int) error {
	return e.db.Transaction(func(tx *gorm.DB) error {
		if _, err := e.teamRepository.LockTeam(tx, teamId); err != nil {
			return err
		}
		if err := e.checkNotOnTeam(tx, event.Id, participantId); err != nil {
			return err
		}
		members, err := e.teamRepository.CountMembers(tx, teamId)
		if err != nil {
			return err
		}
		if members >= event.TeamMaxSize {
			metrics.TeamJoinsCounter.WithLabelValues("capacity").Inc()
			return app_error.Conflict("team %d is already at its maximum size of %d", teamId, event.TeamMaxSize)
		}
		err = e.teamRepository.AddMember(tx, &repository.TeamUser{
			TeamId:        teamId,
			EventId:       event.Id,
			ParticipantId: participantId,
		})
		if err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return app_error.Conflict("participant %d already belongs to a team in event %d", participantId, event.Id)
			}
			return err
		}
		metrics.TeamJoinsCounter.WithLabelValues("joined").Inc()
		return nil
	})
}

func (e *TeamService) JoinTeam(eventId int, participantId int, teamCode string) (*repository.Team, error) {
	event, err := e.checkTeamEvent(eventId)
	if err != nil {
		return nil, err
	}
	if _, err := e.participantRepository.GetParticipantById(participantId); err != nil {
		return nil, app_error.NotFound("participant %d not found", participantId)
	}
	team, err := e.teamRepository.GetTeamByCode(eventId, teamCode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, app_error.NotFound("no team with code %s in event %d", teamCode, eventId)
		}
		return nil, err
	}
	if err := e.addMember(event, team.Id, participantId); err != nil {
		return nil, err
	}
	return e.GetTeamById(team.Id)
}

// Invite adds the target directly as a member: no accept step exists, the
// leader vouching for the reg no is the whole flow.
func (e *TeamService) Invite(eventId int, leaderId int, teamCode string, targetRegNo string) (*repository.Team, error) {
	event, err := e.checkTeamEvent(eventId)
	if err != nil {
		return nil, err
	}
	team, err := e.teamRepository.GetTeamByCode(eventId, teamCode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, app_error.NotFound("no team with code %s in event %d", teamCode, eventId)
		}
		return nil, err
	}
	isLeader := false
	for _, member := range team.Members {
		if member.ParticipantId == leaderId && member.IsLeader {
			isLeader = true
			break
		}
	}
	if !isLeader {
		return nil, app_error.Conflict("only the team leader may invite members")
	}
	target, err := e.participantRepository.GetParticipantByRegNo(eventId, targetRegNo)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, app_error.NotFound("no participant with reg no %s in event %d", targetRegNo, eventId)
		}
		return nil, err
	}
	if err := e.addMember(event, team.Id, target.Id); err != nil {
		return nil, err
	}
	return e.GetTeamById(team.Id)
}
