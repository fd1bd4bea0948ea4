package scoring

import (
	"sort"

	"arena-backend/repository"
)

// RoundResult is the computed outcome for one scoring unit in one round.
type RoundResult struct {
	ParticipantId int
	Total         float64
	MaxTotal      float64
	Normalized    float64
	Status        repository.EntryStatus
}

// ComputeResults derives totals and normalized scores from the raw marks.
// Only scores belonging to the given criteria are summed; rows keyed to a
// criterion that no longer exists must not count, or a rubric change could
// push normalized past 100. Absent entries get status Absent immediately
// and a zero total: they are non-scoring, not zero-scoring, and never
// enter the elimination ranking.
func ComputeResults(criteria []*repository.Criterion, scores []*repository.Score, entries []*repository.RoundEntry) []*RoundResult {
	maxTotal := 0.0
	known := make(map[int]bool, len(criteria))
	for _, criterion := range criteria {
		maxTotal += criterion.MaxMarks
		known[criterion.Id] = true
	}
	totals := make(map[int]float64)
	for _, score := range scores {
		if !known[score.CriterionId] {
			continue
		}
		totals[score.ParticipantId] += score.Value
	}
	results := make([]*RoundResult, 0, len(entries))
	for _, entry := range entries {
		result := &RoundResult{
			ParticipantId: entry.ParticipantId,
			MaxTotal:      maxTotal,
		}
		if !entry.IsPresent {
			result.Status = repository.EntryAbsent
			results = append(results, result)
			continue
		}
		result.Total = totals[entry.ParticipantId]
		if maxTotal > 0 {
			result.Normalized = result.Total / maxTotal * 100
		}
		results = append(results, result)
	}
	return results
}

// ApplyElimination fills in Active/Eliminated for every present result.
// top_k ranks by normalized score, raw total, then lowest participant id,
// so the outcome is fully deterministic; min_score keeps everyone at or
// above the threshold (inclusive boundary).
func ApplyElimination(results []*RoundResult, eliminationType repository.EliminationType, eliminationValue float64) {
	present := make([]*RoundResult, 0, len(results))
	for _, result := range results {
		if result.Status != repository.EntryAbsent {
			present = append(present, result)
		}
	}
	switch eliminationType {
	case repository.EliminationTopK:
		sort.SliceStable(present, func(i, j int) bool {
			if present[i].Normalized != present[j].Normalized {
				return present[i].Normalized > present[j].Normalized
			}
			if present[i].Total != present[j].Total {
				return present[i].Total > present[j].Total
			}
			return present[i].ParticipantId < present[j].ParticipantId
		})
		k := int(eliminationValue)
		if k > len(present) {
			k = len(present)
		}
		if k < 0 {
			k = 0
		}
		for i, result := range present {
			if i < k {
				result.Status = repository.EntryActive
			} else {
				result.Status = repository.EntryEliminated
			}
		}
	case repository.EliminationMinScore:
		for _, result := range present {
			if result.Normalized >= eliminationValue {
				result.Status = repository.EntryActive
			} else {
				result.Status = repository.EntryEliminated
			}
		}
	}
}

// SurvivorCount returns the number of Active results, mostly for logging
// after a freeze.
func SurvivorCount(results []*RoundResult) int {
	count := 0
	for _, result := range results {
		if result.Status == repository.EntryActive {
			count++
		}
	}
	return count
}
