package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role is the access level stored on a user document.
type Role string

const (
	RoleStudent Role = "student"
	RoleTutor   Role = "tutor"
	RoleAdmin   Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleTutor, RoleAdmin:
		return true
	}
	return false
}

// User model, keyed by email.
type User struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Name          string             `bson:"name" json:"name"`
	Email         string             `bson:"email" json:"email"`
	Role          Role               `bson:"role" json:"role"`
	Photo         string             `bson:"photo,omitempty" json:"photo,omitempty"`
	Phone         string             `bson:"phone,omitempty" json:"phone,omitempty"`
	Qualification string             `bson:"qualification,omitempty" json:"qualification,omitempty"`
	Experience    string             `bson:"experience,omitempty" json:"experience,omitempty"`
	Location      string             `bson:"location,omitempty" json:"location,omitempty"`
	CreatedAt     time.Time          `bson:"created_at" json:"created_at"`
	LastLoggedIn  time.Time          `bson:"last_loggedIn" json:"last_loggedIn"`
}

// UserUpdate carries the fields an admin may change. Nil fields are left alone.
type UserUpdate struct {
	Name          *string `json:"name"`
	Role          *Role   `json:"role"`
	Photo         *string `json:"photo"`
	Phone         *string `json:"phone"`
	Qualification *string `json:"qualification"`
	Experience    *string `json:"experience"`
	Location      *string `json:"location"`
}
