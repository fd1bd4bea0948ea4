package repository

import "gorm.io/gorm"

func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&Event{},
		&Round{},
		&Criterion{},
		&Participant{},
		&Team{},
		&TeamUser{},
		&Score{},
		&RoundEntry{},
		&AttendanceToken{},
		&ReferralCredit{},
		&User{},
	)
}
