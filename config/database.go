package config

import (
	"fmt"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

var enumQueries = []string{
	`CREATE TYPE arena.participant_mode AS ENUM ('individual', 'team')`,
	`CREATE TYPE arena.event_status AS ENUM ('open', 'closed')`,
	`CREATE TYPE arena.round_state AS ENUM ('draft', 'published', 'active', 'completed')`,
	`CREATE TYPE arena.elimination_type AS ENUM ('top_k', 'min_score')`,
	`CREATE TYPE arena.entry_status AS ENUM ('pending', 'active', 'eliminated', 'absent')`,
}

func InitDB(host string, port string, user string, password string, dbName string) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbName)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		NamingStrategy: schema.NamingStrategy{
			TablePrefix:   "arena.",
			SingularTable: false,
		},
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}
	err = Prepare(db)
	if err != nil {
		return nil, err
	}
	return db, nil
}

// Prepare creates the schema and enum types. Table migration itself is
// driven from main via AutoMigrate so tests can reuse this against
// throwaway databases.
func Prepare(db *gorm.DB) error {
	x := db.Exec(`CREATE SCHEMA IF NOT EXISTS arena`)
	if x.Error != nil {
		return x.Error
	}
	for _, query := range enumQueries {
		x := db.Exec(query)
		if x.Error != nil {
			if strings.Contains(x.Error.Error(), "already exists") {
				continue
			}
			return x.Error
		}
	}
	return nil
}
