package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/markjakearzadon/eduplus-gobackend/internal/db"
	"github.com/markjakearzadon/eduplus-gobackend/internal/models"
)

type UserService struct {
	collection *mongo.Collection
	log        *zap.Logger
}

func NewUserService(database *mongo.Database, log *zap.Logger) *UserService {
	return &UserService{collection: database.Collection(db.Users), log: log}
}

// UpsertUser records a sign-in in a single upsert. A new email is inserted
// with created_at and last_loggedIn set and the role defaulted to student;
// only student and tutor may be self-assigned. An existing email only gets
// last_loggedIn bumped. The returned bool is true when the user was created.
func (s *UserService) UpsertUser(ctx context.Context, user *models.User) (*models.User, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	user.Email = strings.TrimSpace(user.Email)
	if user.Email == "" {
		return nil, false, fmt.Errorf("%w: email is required", ErrInvalidInput)
	}
	if user.Role != models.RoleTutor {
		user.Role = models.RoleStudent
	}

	// a concurrent first sign-in can lose the race on the unique email
	// index; the second attempt then finds the winner's document
	for attempt := 0; ; attempt++ {
		existing, created, err := s.upsert(ctx, user)
		if mongo.IsDuplicateKeyError(err) && attempt == 0 {
			continue
		}
		if err != nil {
			return nil, false, fmt.Errorf("upsert user: %w", err)
		}
		if created {
			s.log.Info("user created", zap.String("email", user.Email), zap.String("role", string(user.Role)))
			return user, true, nil
		}
		return existing, false, nil
	}
}

func (s *UserService) upsert(ctx context.Context, user *models.User) (*models.User, bool, error) {
	ts := now()
	id := primitive.NewObjectID()

	onInsert := bson.M{
		"_id":        id,
		"name":       user.Name,
		"role":       user.Role,
		"created_at": ts,
	}
	for field, value := range map[string]string{
		"photo":         user.Photo,
		"phone":         user.Phone,
		"qualification": user.Qualification,
		"experience":    user.Experience,
		"location":      user.Location,
	} {
		if value != "" {
			onInsert[field] = value
		}
	}

	var existing models.User
	err := s.collection.FindOneAndUpdate(ctx,
		bson.M{"email": user.Email},
		bson.M{
			"$set":         bson.M{"last_loggedIn": ts},
			"$setOnInsert": onInsert,
		},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.Before),
	).Decode(&existing)
	switch {
	case err == nil:
		existing.LastLoggedIn = ts
		return &existing, false, nil
	case errors.Is(err, mongo.ErrNoDocuments):
		user.ID = id
		user.CreatedAt = ts
		user.LastLoggedIn = ts
		return user, true, nil
	}
	return nil, false, err
}

// RoleByEmail returns the stored role, or "" when no user has that email.
func (s *UserService) RoleByEmail(ctx context.Context, email string) (models.Role, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	opts := options.FindOne().SetProjection(bson.M{"role": 1})
	user, err := findOne[models.User](ctx, s.collection, bson.M{"email": email}, opts)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return user.Role, nil
}

func (s *UserService) ListUsers(ctx context.Context) ([]models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	return findAll[models.User](ctx, s.collection, bson.M{}, newestFirst("created_at"))
}

// ListTutors returns tutors newest first. limit <= 0 returns all of them.
func (s *UserService) ListTutors(ctx context.Context, limit int64) ([]models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	opts := newestFirst("created_at")
	if limit > 0 {
		opts.SetLimit(limit)
	}
	return findAll[models.User](ctx, s.collection, bson.M{"role": models.RoleTutor}, opts)
}

func (s *UserService) GetTutor(ctx context.Context, id string) (*models.User, error) {
	objID, err := objectID(id)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	return findOne[models.User](ctx, s.collection, bson.M{"_id": objID, "role": models.RoleTutor})
}

func (s *UserService) GetUser(ctx context.Context, id string) (*models.User, error) {
	objID, err := objectID(id)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	return findOne[models.User](ctx, s.collection, bson.M{"_id": objID})
}

// UpdateUser applies an admin edit. Email, created_at and last_loggedIn
// cannot be changed this way.
func (s *UserService) UpdateUser(ctx context.Context, id string, update models.UserUpdate) (*mongo.UpdateResult, error) {
	objID, err := objectID(id)
	if err != nil {
		return nil, err
	}

	set := bson.M{}
	if update.Name != nil {
		set["name"] = *update.Name
	}
	if update.Role != nil {
		if !update.Role.Valid() {
			return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, *update.Role)
		}
		set["role"] = *update.Role
	}
	if update.Photo != nil {
		set["photo"] = *update.Photo
	}
	if update.Phone != nil {
		set["phone"] = *update.Phone
	}
	if update.Qualification != nil {
		set["qualification"] = *update.Qualification
	}
	if update.Experience != nil {
		set["experience"] = *update.Experience
	}
	if update.Location != nil {
		set["location"] = *update.Location
	}
	if len(set) == 0 {
		return nil, fmt.Errorf("%w: nothing to update", ErrInvalidInput)
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := s.collection.UpdateOne(ctx, bson.M{"_id": objID}, bson.M{"$set": set})
	if err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	if res.MatchedCount == 0 {
		return nil, ErrNotFound
	}
	return res, nil
}

func (s *UserService) DeleteUser(ctx context.Context, id string) (*mongo.DeleteResult, error) {
	objID, err := objectID(id)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := s.collection.DeleteOne(ctx, bson.M{"_id": objID})
	if err != nil {
		return nil, fmt.Errorf("delete user: %w", err)
	}
	if res.DeletedCount == 0 {
		return nil, ErrNotFound
	}
	s.log.Info("user deleted", zap.String("id", id))
	return res, nil
}
