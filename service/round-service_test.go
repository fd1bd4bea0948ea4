package service

import (
	"testing"

	"arena-backend/app_error"
	"arena-backend/repository"

	"github.com/stretchr/testify/assert"
)

func draftRound(name string) *repository.Round {
	return &repository.Round{
		Name: name,
		Criteria: []*repository.Criterion{
			{Name: "Idea", MaxMarks: 50},
			{Name: "Delivery", MaxMarks: 50},
		},
	}
}

func statePtr(state repository.RoundState) *repository.RoundState {
	return &state
}

func TestCreateRoundSequentialNumbers(t *testing.T) {
	event := seedOpenEvent()
	defer TearDown()
	roundService := NewRoundService(db)

	first, err := roundService.CreateRound(event.Id, draftRound("prelims"))
	assert.Nil(t, err)
	assert.Equal(t, 1, first.RoundNo)
	assert.Equal(t, repository.RoundDraft, first.State)

	second, err := roundService.CreateRound(event.Id, draftRound("finals"))
	assert.Nil(t, err)
	assert.Equal(t, 2, second.RoundNo)
}

func TestCreateRoundValidatesCriteria(t *testing.T) {
	event := seedOpenEvent()
	defer TearDown()

	round := &repository.Round{
		Name:     "prelims",
		Criteria: []*repository.Criterion{{Name: "", MaxMarks: 50}},
	}
	_, err := NewRoundService(db).CreateRound(event.Id, round)
	assert.Equal(t, app_error.KindValidation, app_error.KindOf(err))

	round = &repository.Round{
		Name:     "prelims",
		Criteria: []*repository.Criterion{{Name: "Idea", MaxMarks: -5}},
	}
	_, err = NewRoundService(db).CreateRound(event.Id, round)
	assert.Equal(t, app_error.KindValidation, app_error.KindOf(err))
}

func TestCreateRoundRejectsDuplicateCriterionNames(t *testing.T) {
	event := seedOpenEvent()
	defer TearDown()
	roundService := NewRoundService(db)

	// scores come in keyed by criterion name, so two criteria sharing a
	// name could never be scored independently
	round := &repository.Round{
		Name: "prelims",
		Criteria: []*repository.Criterion{
			{Name: "Idea", MaxMarks: 50},
			{Name: "Idea", MaxMarks: 30},
		},
	}
	_, err := roundService.CreateRound(event.Id, round)
	assert.Equal(t, app_error.KindValidation, app_error.KindOf(err))

	created, err := roundService.CreateRound(event.Id, draftRound("prelims"))
	assert.Nil(t, err)
	_, err = roundService.UpdateRound(created.Id, &RoundUpdate{
		Criteria: []*repository.Criterion{
			{Name: "Pitch", MaxMarks: 10},
			{Name: "Pitch", MaxMarks: 20},
		},
	})
	assert.Equal(t, app_error.KindValidation, app_error.KindOf(err))
}

func TestRoundStateForwardOnly(t *testing.T) {
	event := seedOpenEvent()
	defer TearDown()
	roundService := NewRoundService(db)
	round, err := roundService.CreateRound(event.Id, draftRound("prelims"))
	assert.Nil(t, err)

	updated, err := roundService.UpdateRound(round.Id, &RoundUpdate{State: statePtr(repository.RoundActive)})
	assert.Nil(t, err)
	assert.Equal(t, repository.RoundActive, updated.State)

	_, err = roundService.UpdateRound(round.Id, &RoundUpdate{State: statePtr(repository.RoundPublished)})
	assert.Equal(t, app_error.KindState, app_error.KindOf(err))

	// re-asserting the current state is a no-op, not a violation
	updated, err = roundService.UpdateRound(round.Id, &RoundUpdate{State: statePtr(repository.RoundActive)})
	assert.Nil(t, err)
	assert.Equal(t, repository.RoundActive, updated.State)
}

func TestUpdateRoundReplacesCriteria(t *testing.T) {
	event := seedOpenEvent()
	defer TearDown()
	roundService := NewRoundService(db)
	round, err := roundService.CreateRound(event.Id, draftRound("prelims"))
	assert.Nil(t, err)

	updated, err := roundService.UpdateRound(round.Id, &RoundUpdate{
		Criteria: []*repository.Criterion{
			{Name: "Execution", MaxMarks: 60},
			{Name: "Presentation", MaxMarks: 40},
		},
	})
	assert.Nil(t, err)
	assert.Len(t, updated.Criteria, 2)
	assert.Equal(t, "Execution", updated.Criteria[0].Name)
	assert.Equal(t, 0, updated.Criteria[0].SortOrder)
	assert.Equal(t, "Presentation", updated.Criteria[1].Name)
	assert.Equal(t, 1, updated.Criteria[1].SortOrder)
}

func TestUpdateFrozenRoundRejected(t *testing.T) {
	event := seedOpenEvent()
	defer TearDown()
	roundService := NewRoundService(db)
	round, err := roundService.CreateRound(event.Id, draftRound("prelims"))
	assert.Nil(t, err)
	db.Model(round).Updates(map[string]any{"state": repository.RoundActive, "is_frozen": true})

	name := "renamed"
	_, err = roundService.UpdateRound(round.Id, &RoundUpdate{Name: &name})
	assert.Equal(t, app_error.KindState, app_error.KindOf(err))
}

func TestDeleteRoundDraftOnly(t *testing.T) {
	event := seedOpenEvent()
	defer TearDown()
	roundService := NewRoundService(db)
	round, err := roundService.CreateRound(event.Id, draftRound("prelims"))
	assert.Nil(t, err)

	_, err = roundService.UpdateRound(round.Id, &RoundUpdate{State: statePtr(repository.RoundPublished)})
	assert.Nil(t, err)
	err = roundService.DeleteRound(round.Id)
	assert.Equal(t, app_error.KindState, app_error.KindOf(err))

	draft, err := roundService.CreateRound(event.Id, draftRound("finals"))
	assert.Nil(t, err)
	assert.Nil(t, roundService.DeleteRound(draft.Id))
}
