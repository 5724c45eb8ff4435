package models

import (
	"time"

	"github.com/google/uuid"
)

// Роли пользователей платформы
const (
	RoleClient       = "client"
	RolePhotographer = "photographer"
	RoleAdmin        = "admin"
)

// User описывает сущность пользователя платформы.
type User struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	Email        string     `db:"email" json:"email"`
	Username     string     `db:"username" json:"username"`
	PasswordHash string     `db:"password_hash" json:"-"`
	Role         string     `db:"role" json:"role"`
	IsActive     bool       `db:"is_active" json:"is_active"`
	LastLoginAt  *time.Time `db:"last_login_at" json:"last_login_at,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// IsValidRole проверяет, что роль поддерживается.
func IsValidRole(role string) bool {
	switch role {
	case RoleClient, RolePhotographer, RoleAdmin:
		return true
	}
	return false
}
