package scoring

import (
	"testing"

	"arena-backend/repository"

	"github.com/stretchr/testify/assert"
)

func criteria(maxMarks ...float64) []*repository.Criterion {
	result := make([]*repository.Criterion, 0, len(maxMarks))
	for i, max := range maxMarks {
		result = append(result, &repository.Criterion{Id: i + 1, SortOrder: i, MaxMarks: max})
	}
	return result
}

func entry(participantId int, present bool) *repository.RoundEntry {
	return &repository.RoundEntry{RoundId: 1, ParticipantId: participantId, IsPresent: present}
}

func score(participantId int, criterionId int, value float64) *repository.Score {
	return &repository.Score{RoundId: 1, ParticipantId: participantId, CriterionId: criterionId, Value: value}
}

func TestComputeResultsNormalizes(t *testing.T) {
	results := ComputeResults(
		criteria(50, 50),
		[]*repository.Score{score(1, 1, 40), score(1, 2, 35)},
		[]*repository.RoundEntry{entry(1, true)},
	)
	assert.Len(t, results, 1)
	assert.Equal(t, 75.0, results[0].Total)
	assert.Equal(t, 75.0, results[0].Normalized)
}

func TestComputeResultsBounds(t *testing.T) {
	results := ComputeResults(
		criteria(30, 20),
		[]*repository.Score{
			score(1, 1, 30), score(1, 2, 20),
			score(2, 1, 0), score(2, 2, 0),
		},
		[]*repository.RoundEntry{entry(1, true), entry(2, true)},
	)
	for _, result := range results {
		assert.GreaterOrEqual(t, result.Normalized, 0.0)
		assert.LessOrEqual(t, result.Normalized, 100.0)
	}
	assert.Equal(t, 100.0, results[0].Normalized)
	assert.Equal(t, 0.0, results[1].Normalized)
}

func TestComputeResultsIgnoresStaleCriteria(t *testing.T) {
	// a score row keyed to a criterion that was since replaced must not
	// count against the new, smaller max_total
	current := []*repository.Criterion{{Id: 2, Name: "B", MaxMarks: 10}}
	results := ComputeResults(
		current,
		[]*repository.Score{
			{RoundId: 1, ParticipantId: 1, CriterionId: 1, Value: 80},
			{RoundId: 1, ParticipantId: 1, CriterionId: 2, Value: 8},
		},
		[]*repository.RoundEntry{entry(1, true)},
	)
	assert.Equal(t, 8.0, results[0].Total)
	assert.Equal(t, 80.0, results[0].Normalized)
	assert.LessOrEqual(t, results[0].Normalized, 100.0)
}

func TestComputeResultsZeroMaxTotal(t *testing.T) {
	results := ComputeResults(
		criteria(0),
		[]*repository.Score{score(1, 1, 0)},
		[]*repository.RoundEntry{entry(1, true)},
	)
	assert.Equal(t, 0.0, results[0].Normalized)
}

func TestComputeResultsAbsent(t *testing.T) {
	results := ComputeResults(
		criteria(50),
		[]*repository.Score{score(1, 1, 40)},
		[]*repository.RoundEntry{entry(1, false)},
	)
	assert.Equal(t, repository.EntryAbsent, results[0].Status)
	assert.Equal(t, 0.0, results[0].Total)
}

func topKResults(normalized ...float64) []*RoundResult {
	results := make([]*RoundResult, 0, len(normalized))
	for i, n := range normalized {
		results = append(results, &RoundResult{ParticipantId: i + 1, Total: n, Normalized: n})
	}
	return results
}

func statusOf(results []*RoundResult, participantId int) repository.EntryStatus {
	for _, result := range results {
		if result.ParticipantId == participantId {
			return result.Status
		}
	}
	return ""
}

func TestTopKKeepsHighest(t *testing.T) {
	results := topKResults(75, 60, 90)
	ApplyElimination(results, repository.EliminationTopK, 1)
	assert.Equal(t, repository.EntryActive, statusOf(results, 3))
	assert.Equal(t, repository.EntryEliminated, statusOf(results, 1))
	assert.Equal(t, repository.EntryEliminated, statusOf(results, 2))
}

func TestTopKBounds(t *testing.T) {
	results := topKResults(10, 20, 30)
	ApplyElimination(results, repository.EliminationTopK, 10)
	assert.Equal(t, 3, SurvivorCount(results))

	results = topKResults(10, 20, 30)
	ApplyElimination(results, repository.EliminationTopK, 0)
	assert.Equal(t, 0, SurvivorCount(results))

	results = topKResults(10, 20, 30)
	ApplyElimination(results, repository.EliminationTopK, 2)
	assert.Equal(t, 2, SurvivorCount(results))
}

func TestTopKTieBreak(t *testing.T) {
	// equal normalized and raw total: the lower participant id survives
	results := []*RoundResult{
		{ParticipantId: 2, Total: 50, Normalized: 50},
		{ParticipantId: 1, Total: 50, Normalized: 50},
	}
	ApplyElimination(results, repository.EliminationTopK, 1)
	assert.Equal(t, repository.EntryActive, statusOf(results, 1))
	assert.Equal(t, repository.EntryEliminated, statusOf(results, 2))
}

func TestTopKIgnoresAbsent(t *testing.T) {
	results := []*RoundResult{
		{ParticipantId: 1, Normalized: 90},
		{ParticipantId: 2, Status: repository.EntryAbsent},
	}
	ApplyElimination(results, repository.EliminationTopK, 2)
	assert.Equal(t, repository.EntryActive, statusOf(results, 1))
	assert.Equal(t, repository.EntryAbsent, statusOf(results, 2))
}

func TestMinScoreInclusiveBoundary(t *testing.T) {
	results := topKResults(70, 69.9, 75)
	ApplyElimination(results, repository.EliminationMinScore, 70)
	assert.Equal(t, repository.EntryActive, statusOf(results, 1))
	assert.Equal(t, repository.EntryEliminated, statusOf(results, 2))
	assert.Equal(t, repository.EntryActive, statusOf(results, 3))
}

func TestMinScoreScenario(t *testing.T) {
	results := ComputeResults(
		criteria(50, 50),
		[]*repository.Score{score(1, 1, 40), score(1, 2, 35)},
		[]*repository.RoundEntry{entry(1, true)},
	)
	ApplyElimination(results, repository.EliminationMinScore, 70)
	assert.Equal(t, repository.EntryActive, results[0].Status)
}
