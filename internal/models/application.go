package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Application is a tutor's bid on a tuition.
type Application struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	TuitionID      string             `bson:"tuitionId" json:"tuitionId"`
	Subject        string             `bson:"subject,omitempty" json:"subject,omitempty"`
	StudentEmail   string             `bson:"studentEmail" json:"studentEmail"`
	TutorEmail     string             `bson:"tutorEmail" json:"tutorEmail"`
	TutorName      string             `bson:"tutorName,omitempty" json:"tutorName,omitempty"`
	Qualifications string             `bson:"qualifications,omitempty" json:"qualifications,omitempty"`
	Experience     string             `bson:"experience,omitempty" json:"experience,omitempty"`
	ExpectedSalary float64            `bson:"expectedSalary" json:"expectedSalary"`
	Status         Status             `bson:"status" json:"status"`
	AppliedAt      time.Time          `bson:"appliedAt" json:"appliedAt"`
}
