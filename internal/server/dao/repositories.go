package dao

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/invin-app/invin-core/internal/db"
	"github.com/invin-app/invin-core/internal/server"
)

const (
	usersCollection     = "users"
	sessionsCollection  = "user_sessions"
	playablesCollection = "playables"
	progressCollection  = "user_progress"
)

const queryTimeout = time.Second

type UserRepository interface {
	FindByEmail(email string) (*server.User, error)
	FindByID(userID string) (*server.User, error)
	Insert(user server.User) error
	UpdateStats(user *server.User) error
}

type SessionRepository interface {
	Find(token string) (*server.Session, error)
	Insert(session server.Session) error
	Delete(token string) error
}

type PlayableRepository interface {
	FindByID(playableID string) (*server.StoredPlayable, error)
	Feed(excludeIDs []string, skip, limit int) ([]server.StoredPlayable, error)
	Insert(playable server.StoredPlayable) error
	InsertAll(playables []server.StoredPlayable) error
	Count() (int64, error)
}

type ProgressRepository interface {
	AnsweredIDs(userID string) ([]string, error)
	Insert(progress server.Progress) error
}

func NewUserRepository(client *db.Client) UserRepository {
	return &userRepository{client.Collection(usersCollection)}
}

func NewSessionRepository(client *db.Client) SessionRepository {
	return &sessionRepository{client.Collection(sessionsCollection)}
}

func NewPlayableRepository(client *db.Client) PlayableRepository {
	return &playableRepository{client.Collection(playablesCollection)}
}

func NewProgressRepository(client *db.Client) ProgressRepository {
	return &progressRepository{client.Collection(progressCollection)}
}

type userRepository struct {
	col *mongo.Collection
}

func (r *userRepository) FindByEmail(email string) (*server.User, error) {
	ctx, cancel := context.WithTimeout(context.TODO(), queryTimeout)
	defer cancel()

	var user server.User
	err := r.col.FindOne(ctx, bson.D{{Key: "email", Value: email}}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByID(userID string) (*server.User, error) {
	ctx, cancel := context.WithTimeout(context.TODO(), queryTimeout)
	defer cancel()

	var user server.User
	err := r.col.FindOne(ctx, bson.D{{Key: "user_id", Value: userID}}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) Insert(user server.User) error {
	ctx, cancel := context.WithTimeout(context.TODO(), queryTimeout)
	defer cancel()

	_, err := r.col.InsertOne(ctx, user)
	return err
}

func (r *userRepository) UpdateStats(user *server.User) error {
	ctx, cancel := context.WithTimeout(context.TODO(), queryTimeout)
	defer cancel()

	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "total_played", Value: user.TotalPlayed},
		{Key: "correct_answers", Value: user.CorrectAnswers},
		{Key: "current_streak", Value: user.CurrentStreak},
		{Key: "best_streak", Value: user.BestStreak},
	}}}
	_, err := r.col.UpdateOne(ctx, bson.D{{Key: "user_id", Value: user.UserID}}, update)
	return err
}

type sessionRepository struct {
	col *mongo.Collection
}

func (r *sessionRepository) Find(token string) (*server.Session, error) {
	ctx, cancel := context.WithTimeout(context.TODO(), queryTimeout)
	defer cancel()

	var session server.Session
	err := r.col.FindOne(ctx, bson.D{{Key: "session_token", Value: token}}).Decode(&session)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepository) Insert(session server.Session) error {
	ctx, cancel := context.WithTimeout(context.TODO(), queryTimeout)
	defer cancel()

	_, err := r.col.InsertOne(ctx, session)
	return err
}

func (r *sessionRepository) Delete(token string) error {
	ctx, cancel := context.WithTimeout(context.TODO(), queryTimeout)
	defer cancel()

	_, err := r.col.DeleteOne(ctx, bson.D{{Key: "session_token", Value: token}})
	return err
}

type playableRepository struct {
	col *mongo.Collection
}

func (r *playableRepository) FindByID(playableID string) (*server.StoredPlayable, error) {
	ctx, cancel := context.WithTimeout(context.TODO(), queryTimeout)
	defer cancel()

	var playable server.StoredPlayable
	err := r.col.FindOne(ctx, bson.D{{Key: "playable_id", Value: playableID}}).Decode(&playable)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &playable, nil
}

func (r *playableRepository) Feed(excludeIDs []string, skip, limit int) ([]server.StoredPlayable, error) {
	ctx, cancel := context.WithTimeout(context.TODO(), queryTimeout)
	defer cancel()

	filter := bson.D{}
	if len(excludeIDs) > 0 {
		filter = bson.D{{Key: "playable_id", Value: bson.D{{Key: "$nin", Value: excludeIDs}}}}
	}
	opts := options.Find().
		SetSkip(int64(skip)).
		SetLimit(int64(limit)).
		SetSort(bson.D{{Key: "created_at", Value: 1}})

	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	var playables []server.StoredPlayable
	if err = cur.All(ctx, &playables); err != nil {
		return nil, err
	}
	return playables, nil
}

func (r *playableRepository) Insert(playable server.StoredPlayable) error {
	ctx, cancel := context.WithTimeout(context.TODO(), queryTimeout)
	defer cancel()

	_, err := r.col.InsertOne(ctx, playable)
	return err
}

func (r *playableRepository) InsertAll(playables []server.StoredPlayable) error {
	ctx, cancel := context.WithTimeout(context.TODO(), queryTimeout)
	defer cancel()

	docs := make([]interface{}, 0, len(playables))
	for _, p := range playables {
		docs = append(docs, p)
	}
	_, err := r.col.InsertMany(ctx, docs)
	return err
}

func (r *playableRepository) Count() (int64, error) {
	ctx, cancel := context.WithTimeout(context.TODO(), queryTimeout)
	defer cancel()

	return r.col.CountDocuments(ctx, bson.D{})
}

type progressRepository struct {
	col *mongo.Collection
}

func (r *progressRepository) AnsweredIDs(userID string) ([]string, error) {
	ctx, cancel := context.WithTimeout(context.TODO(), queryTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, bson.D{{Key: "user_id", Value: userID}})
	if err != nil {
		return nil, err
	}
	var rows []server.Progress
	if err = cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.PlayableID)
	}
	return ids, nil
}

func (r *progressRepository) Insert(progress server.Progress) error {
	ctx, cancel := context.WithTimeout(context.TODO(), queryTimeout)
	defer cancel()

	_, err := r.col.InsertOne(ctx, progress)
	return err
}
