package service

import (
	"testing"

	"arena-backend/app_error"
	"arena-backend/repository"

	"github.com/stretchr/testify/assert"
)

func seedOpenEvent() *repository.Event {
	event := &repository.Event{
		Name:            "quiz",
		Slug:            "quiz",
		ParticipantMode: repository.ModeIndividual,
		Status:          repository.EventOpen,
	}
	if err := db.Create(event).Error; err != nil {
		panic(err)
	}
	return event
}

func TestRegisterAssignsReferralCode(t *testing.T) {
	event := seedOpenEvent()
	defer TearDown()

	participant, err := NewParticipantService(db).Register(event.Id, &repository.Participant{
		Name:  "alice",
		RegNo: "REG001",
	}, "")
	assert.Nil(t, err)
	assert.Len(t, participant.ReferralCode, referralCodeLength)
	assert.Equal(t, 0, participant.ReferralCount)
	assert.False(t, participant.RegisteredAt.IsZero())
}

func TestRegisterDuplicateRegNo(t *testing.T) {
	event := seedOpenEvent()
	defer TearDown()
	participantService := NewParticipantService(db)

	_, err := participantService.Register(event.Id, &repository.Participant{Name: "alice", RegNo: "REG001"}, "")
	assert.Nil(t, err)
	_, err = participantService.Register(event.Id, &repository.Participant{Name: "impostor", RegNo: "REG001"}, "")
	assert.Equal(t, app_error.KindConflict, app_error.KindOf(err))
}

func TestRegisterClosedEvent(t *testing.T) {
	event := seedOpenEvent()
	defer TearDown()
	db.Model(event).Update("status", repository.EventClosed)

	_, err := NewParticipantService(db).Register(event.Id, &repository.Participant{Name: "alice", RegNo: "REG001"}, "")
	assert.Equal(t, app_error.KindState, app_error.KindOf(err))
}

func TestRegisterWithReferral(t *testing.T) {
	event := seedOpenEvent()
	defer TearDown()
	participantService := NewParticipantService(db)

	referrer, err := participantService.Register(event.Id, &repository.Participant{Name: "alice", RegNo: "REG001"}, "")
	assert.Nil(t, err)

	_, err = participantService.Register(event.Id, &repository.Participant{Name: "bob", RegNo: "REG002"}, referrer.ReferralCode)
	assert.Nil(t, err)

	refreshed, err := participantService.GetParticipantById(referrer.Id)
	assert.Nil(t, err)
	assert.Equal(t, 1, refreshed.ReferralCount)
}

func TestRegisterBadReferralStillCommits(t *testing.T) {
	event := seedOpenEvent()
	defer TearDown()

	participant, err := NewParticipantService(db).Register(event.Id, &repository.Participant{
		Name:  "alice",
		RegNo: "REG001",
	}, "NOSUCHCODE")
	assert.Nil(t, err)
	assert.NotZero(t, participant.Id)
}

func TestReferralIdempotent(t *testing.T) {
	event := seedOpenEvent()
	defer TearDown()
	participantService := NewParticipantService(db)
	referralService := NewReferralService(db)

	referrer, err := participantService.Register(event.Id, &repository.Participant{Name: "alice", RegNo: "REG001"}, "")
	assert.Nil(t, err)
	referred, err := participantService.Register(event.Id, &repository.Participant{Name: "bob", RegNo: "REG002"}, "")
	assert.Nil(t, err)

	count, err := referralService.RecordReferral(referrer.ReferralCode, referred.Id)
	assert.Nil(t, err)
	assert.Equal(t, 1, count)

	// the retry credits nothing and reports the unchanged count
	count, err = referralService.RecordReferral(referrer.ReferralCode, referred.Id)
	assert.Nil(t, err)
	assert.Equal(t, 1, count)
}

func TestReferralSelfAndUnknownCode(t *testing.T) {
	event := seedOpenEvent()
	defer TearDown()
	participantService := NewParticipantService(db)
	referralService := NewReferralService(db)

	participant, err := participantService.Register(event.Id, &repository.Participant{Name: "alice", RegNo: "REG001"}, "")
	assert.Nil(t, err)

	_, err = referralService.RecordReferral(participant.ReferralCode, participant.Id)
	assert.Equal(t, app_error.KindValidation, app_error.KindOf(err))

	_, err = referralService.RecordReferral("NOSUCHCODE", participant.Id)
	assert.Equal(t, app_error.KindNotFound, app_error.KindOf(err))
}

func TestAttendanceTokenSupersede(t *testing.T) {
	event := seedOpenEvent()
	defer TearDown()
	participant := seedParticipant(event.Id, 1)
	attendanceService := NewAttendanceService(db)

	first, err := attendanceService.IssueToken(event.Id, participant.Id)
	assert.Nil(t, err)

	verified, err := attendanceService.VerifyToken(first)
	assert.Nil(t, err)
	assert.Equal(t, participant.Id, verified.Id)

	second, err := attendanceService.IssueToken(event.Id, participant.Id)
	assert.Nil(t, err)
	assert.NotEqual(t, first, second)

	// re-issuing invalidates the earlier credential
	_, err = attendanceService.VerifyToken(first)
	assert.Equal(t, app_error.KindConflict, app_error.KindOf(err))
	verified, err = attendanceService.VerifyToken(second)
	assert.Nil(t, err)
	assert.Equal(t, participant.Id, verified.Id)
}

func TestAttendanceTokenWrongEvent(t *testing.T) {
	event := seedOpenEvent()
	defer TearDown()
	participant := seedParticipant(event.Id, 1)

	_, err := NewAttendanceService(db).IssueToken(event.Id+1, participant.Id)
	assert.Equal(t, app_error.KindNotFound, app_error.KindOf(err))
}
