package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Payment is recorded once the payment provider confirms a checkout session.
type Payment struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	TransactionID string             `bson:"transactionId" json:"transactionId"`
	SessionID     string             `bson:"sessionId" json:"sessionId"`
	ApplicationID string             `bson:"applicationId" json:"applicationId"`
	TuitionID     string             `bson:"tuitionId,omitempty" json:"tuitionId,omitempty"`
	TutorEmail    string             `bson:"tutorEmail" json:"tutorEmail"`
	StudentEmail  string             `bson:"studentEmail" json:"studentEmail"`
	Amount        float64            `bson:"amount" json:"amount"`
	Currency      string             `bson:"currency" json:"currency"`
	Status        string             `bson:"status" json:"status"`
	CreatedAt     time.Time          `bson:"created_at" json:"created_at"`
}
