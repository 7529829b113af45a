package models

import (
	"time"

	"gorm.io/gorm"
)

/** --------------------ENTITIES-------------------- */
// User represents the user entity
type User struct {
	gorm.Model
	Username string `gorm:"uniqueIndex;not null" json:"username"` // Unique login name
	Password string `json:"-"`                                    // Password is hashed and never returned in responses
	// DisplayName is what other users see in chats and presence lists.
	DisplayName  string     `gorm:"not null" json:"displayName"`
	ProfileImage *string    `json:"profileImage,omitempty"`
	Status       string     `gorm:"default:Available" json:"status"`
	LastSeen     *time.Time `json:"lastSeen,omitempty"`
	IsOnline     bool       `gorm:"default:false" json:"isOnline"`
}

/** -------------------- DTOs -------------------- */
// Request
type RegisterRequest struct {
	Username    string `json:"username" binding:"required,min=3,max=50"`
	Password    string `json:"password" binding:"required,min=6"`
	DisplayName string `json:"displayName" binding:"required,min=1,max=100"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required,max=100"`
}

// Response
type UserResponse struct {
	ID           uint       `json:"id"`
	Username     string     `json:"username"`
	DisplayName  string     `json:"displayName"`
	ProfileImage *string    `json:"profileImage,omitempty"`
	Status       string     `json:"status"`
	LastSeen     *time.Time `json:"lastSeen,omitempty"`
	IsOnline     bool       `json:"isOnline"`
	CreatedAt    time.Time  `json:"createdAt"`
}

type LoginResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

// ToResponse maps the entity to its API shape.
func (u *User) ToResponse() UserResponse {
	return UserResponse{
		ID:           u.ID,
		Username:     u.Username,
		DisplayName:  u.DisplayName,
		ProfileImage: u.ProfileImage,
		Status:       u.Status,
		LastSeen:     u.LastSeen,
		IsOnline:     u.IsOnline,
		CreatedAt:    u.CreatedAt,
	}
}
