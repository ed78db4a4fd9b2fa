package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Status is the moderation state shared by tuitions and applications.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Terminal reports whether s is a state a transition can move into.
func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// Tuition is a request posted by a student looking for a tutor.
type Tuition struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	StudentEmail string             `bson:"studentEmail" json:"studentEmail"`
	StudentName  string             `bson:"studentName,omitempty" json:"studentName,omitempty"`
	Subject      string             `bson:"subject" json:"subject"`
	Class        string             `bson:"class" json:"class"`
	Location     string             `bson:"location" json:"location"`
	Budget       float64            `bson:"budget,omitempty" json:"budget,omitempty"`
	Schedule     string             `bson:"schedule,omitempty" json:"schedule,omitempty"`
	Description  string             `bson:"description,omitempty" json:"description,omitempty"`
	Status       Status             `bson:"status" json:"status"`
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
}

// TuitionUpdate carries the fields the owner may edit.
type TuitionUpdate struct {
	Subject     *string  `json:"subject"`
	Class       *string  `json:"class"`
	Location    *string  `json:"location"`
	Budget      *float64 `json:"budget"`
	Schedule    *string  `json:"schedule"`
	Description *string  `json:"description"`
}
