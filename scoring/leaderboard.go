package scoring

import (
	"sort"
	"strings"
	"time"

	"arena-backend/metrics"
	"arena-backend/repository"

	"gorm.io/gorm"
)

// LeaderboardFilter narrows the ranked set before ranks are computed.
// Rank numbers therefore reflect the filtered set, not the global one:
// "rank 3 of the CS department" is the intended reading.
type LeaderboardFilter struct {
	Department string
	Year       int
	Search     string
}

type LeaderboardEntry struct {
	ParticipantId      int
	Name               string
	RegNo              string
	Department         string
	Year               int
	CumulativeScore    float64
	RoundsParticipated int
	Rank               int
}

type LeaderboardService struct {
	eventRepository       *repository.EventRepository
	scoreRepository       *repository.ScoreRepository
	participantRepository *repository.ParticipantRepository
	teamRepository        *repository.TeamRepository
}

func NewLeaderboardService(db *gorm.DB) *LeaderboardService {
	return &LeaderboardService{
		eventRepository:       repository.NewEventRepository(db),
		scoreRepository:       repository.NewScoreRepository(db),
		participantRepository: repository.NewParticipantRepository(db),
		teamRepository:        repository.NewTeamRepository(db),
	}
}

type cumulative struct {
	score  float64
	rounds int
}

// accumulate folds the frozen entries into per-unit cumulative scores.
// Only Active rounds add score; Eliminated and Absent rounds add 0 but
// stay in the sum (cumulative is additive across rounds, never averaged).
// Absent rounds do not count as participated.
func accumulate(entries []*repository.RoundEntry) map[int]*cumulative {
	totals := make(map[int]*cumulative)
	for _, entry := range entries {
		c, ok := totals[entry.ParticipantId]
		if !ok {
			c = &cumulative{}
			totals[entry.ParticipantId] = c
		}
		if entry.Status == repository.EntryActive {
			c.score += entry.Normalized
		}
		if entry.Status != repository.EntryAbsent {
			c.rounds++
		}
	}
	return totals
}

// GetLeaderboard is a pure projection over frozen rounds: it owns no
// state and depends only on the set of frozen rounds, not the order they
// were frozen in.
func (s *LeaderboardService) GetLeaderboard(eventId int, filter LeaderboardFilter) ([]*LeaderboardEntry, error) {
	timer := time.Now()
	defer func() {
		metrics.LeaderboardDuration.Observe(time.Since(timer).Seconds())
	}()
	event, err := s.eventRepository.GetEventById(eventId)
	if err != nil {
		return nil, err
	}
	frozenEntries, err := s.scoreRepository.FrozenEntries(eventId)
	if err != nil {
		return nil, err
	}
	totals := accumulate(frozenEntries)
	if event.ParticipantMode == repository.ModeTeam {
		return s.teamLeaderboard(eventId, filter, totals)
	}
	return s.individualLeaderboard(eventId, filter, totals)
}

func (s *LeaderboardService) individualLeaderboard(eventId int, filter LeaderboardFilter, totals map[int]*cumulative) ([]*LeaderboardEntry, error) {
	participants, err := s.participantRepository.GetParticipantsForEvent(eventId)
	if err != nil {
		return nil, err
	}
	registeredAt := make(map[int]time.Time, len(participants))
	entries := make([]*LeaderboardEntry, 0, len(participants))
	for _, participant := range participants {
		if !matchesFilter(participant, filter) {
			continue
		}
		registeredAt[participant.Id] = participant.RegisteredAt
		entry := &LeaderboardEntry{
			ParticipantId: participant.Id,
			Name:          participant.Name,
			RegNo:         participant.RegNo,
			Department:    participant.Department,
			Year:          participant.Year,
		}
		if c, ok := totals[participant.Id]; ok {
			entry.CumulativeScore = c.score
			entry.RoundsParticipated = c.rounds
		}
		entries = append(entries, entry)
	}
	rank(entries, func(i, j *LeaderboardEntry) bool {
		return registeredAt[i.ParticipantId].Before(registeredAt[j.ParticipantId])
	})
	return entries, nil
}

func (s *LeaderboardService) teamLeaderboard(eventId int, filter LeaderboardFilter, totals map[int]*cumulative) ([]*LeaderboardEntry, error) {
	teams, err := s.teamRepository.GetTeamsForEvent(eventId)
	if err != nil {
		return nil, err
	}
	entries := make([]*LeaderboardEntry, 0, len(teams))
	for _, team := range teams {
		if filter.Search != "" && !containsFold(team.Name, filter.Search) {
			continue
		}
		entry := &LeaderboardEntry{
			ParticipantId: team.Id,
			Name:          team.Name,
		}
		if c, ok := totals[team.Id]; ok {
			entry.CumulativeScore = c.score
			entry.RoundsParticipated = c.rounds
		}
		entries = append(entries, entry)
	}
	// team ids are assigned in creation order, so this is the same
	// earliest-registration tie-break as the individual board
	rank(entries, func(i, j *LeaderboardEntry) bool {
		return i.ParticipantId < j.ParticipantId
	})
	return entries, nil
}

func rank(entries []*LeaderboardEntry, earlier func(i, j *LeaderboardEntry) bool) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].CumulativeScore != entries[j].CumulativeScore {
			return entries[i].CumulativeScore > entries[j].CumulativeScore
		}
		return earlier(entries[i], entries[j])
	})
	for i, entry := range entries {
		entry.Rank = i + 1
	}
}

func matchesFilter(participant *repository.Participant, filter LeaderboardFilter) bool {
	if filter.Department != "" && participant.Department != filter.Department {
		return false
	}
	if filter.Year != 0 && participant.Year != filter.Year {
		return false
	}
	if filter.Search != "" &&
		!containsFold(participant.Name, filter.Search) &&
		!containsFold(participant.RegNo, filter.Search) {
		return false
	}
	return true
}

func containsFold(haystack string, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
