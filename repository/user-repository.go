package repository

import (
	"fmt"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

type Permission string

const (
	PermissionAdmin     Permission = "admin"
	PermissionOrganizer Permission = "organizer"
)

// User is an admin/organizer identity. Authentication itself (who gets a
// session) is handled by an external identity provider; this table only
// carries the typed permission set the router middleware checks.
type User struct {
	Id          int            `gorm:"primaryKey"`
	DisplayName string         `gorm:"not null"`
	Permissions pq.StringArray `gorm:"type:text[];not null;default:'{}'"`
}

type UserRepository struct {
	DB *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{DB: db}
}

func (r *UserRepository) GetUserById(userId int) (*User, error) {
	var user User
	result := r.DB.First(&user, userId)
	if result.Error != nil {
		return nil, fmt.Errorf("user with id %d not found", userId)
	}
	return &user, nil
}

func (r *UserRepository) SaveUser(user *User) (*User, error) {
	result := r.DB.Save(user)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to save user: %v", result.Error)
	}
	return user, nil
}
