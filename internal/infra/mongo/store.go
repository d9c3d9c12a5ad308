package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"quizhub-service/internal/app"
	"quizhub-service/internal/domain"
)

// Store implements app.Store on MongoDB. Transactions need a replica set.
type Store struct {
	client      *mongo.Client
	users       *mongo.Collection
	quizzes     *mongo.Collection
	questions   *mongo.Collection
	submissions *mongo.Collection
}

func NewStore(client *mongo.Client, database string) *Store {
	db := client.Database(database)
	return &Store{
		client:      client,
		users:       db.Collection("users"),
		quizzes:     db.Collection("quizzes"),
		questions:   db.Collection("questions"),
		submissions: db.Collection("submissions"),
	}
}

// EnsureIndexes creates the unique indexes the store relies on.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	specs := []struct {
		coll  *mongo.Collection
		model mongo.IndexModel
	}{
		{s.users, mongo.IndexModel{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		}},
		{s.quizzes, mongo.IndexModel{Keys: bson.D{{Key: "createdBy", Value: 1}}}},
		{s.questions, mongo.IndexModel{Keys: bson.D{{Key: "quizId", Value: 1}, {Key: "createdAt", Value: 1}}}},
		{s.submissions, mongo.IndexModel{
			Keys:    bson.D{{Key: "quizId", Value: 1}, {Key: "userId", Value: 1}},
			Options: options.Index().SetUnique(true),
		}},
		{s.submissions, mongo.IndexModel{Keys: bson.D{{Key: "userId", Value: 1}}}},
	}
	for _, spec := range specs {
		if _, err := spec.coll.Indexes().CreateOne(ctx, spec.model); err != nil {
			return fmt.Errorf("create index on %s: %w", spec.coll.Name(), err)
		}
	}
	return nil
}

// RunInTx runs fn inside a session transaction. Operations issued with the
// callback's ctx join it; nested calls reuse the open session.
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context, tx app.Store) error) error {
	if mongo.SessionFromContext(ctx) != nil {
		return fn(ctx, s)
	}

	session, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc, s)
	})
	return err
}

func (s *Store) CreateUser(ctx context.Context, user *domain.User) error {
	if _, err := s.users.InsertOne(ctx, toUserDoc(*user)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrEmailTaken
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, id string) (domain.User, error) {
	var doc userDoc
	if err := s.users.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		return domain.User{}, notFound(err, domain.ErrUserNotFound, "find user")
	}
	return doc.toDomain(), nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	var doc userDoc
	if err := s.users.FindOne(ctx, bson.M{"email": email}).Decode(&doc); err != nil {
		return domain.User{}, notFound(err, domain.ErrUserNotFound, "find user by email")
	}
	return doc.toDomain(), nil
}

func (s *Store) CreateQuiz(ctx context.Context, quiz *domain.Quiz) error {
	if _, err := s.quizzes.InsertOne(ctx, toQuizDoc(*quiz)); err != nil {
		return fmt.Errorf("insert quiz: %w", err)
	}
	return nil
}

func (s *Store) GetQuiz(ctx context.Context, id string) (domain.Quiz, error) {
	var doc quizDoc
	if err := s.quizzes.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		return domain.Quiz{}, notFound(err, domain.ErrQuizNotFound, "find quiz")
	}
	return doc.toDomain(), nil
}

func (s *Store) ListQuizzes(ctx context.Context, ownerID string) ([]domain.Quiz, error) {
	filter := bson.M{}
	if ownerID != "" {
		filter["createdBy"] = ownerID
	}
	var docs []quizDoc
	if err := findAll(ctx, s.quizzes, filter, "createdAt", &docs); err != nil {
		return nil, fmt.Errorf("find quizzes: %w", err)
	}

	out := make([]domain.Quiz, len(docs))
	for i, d := range docs {
		out[i] = d.toDomain()
	}
	return out, nil
}

func (s *Store) UpdateQuiz(ctx context.Context, quiz *domain.Quiz) error {
	set := bson.M{
		"title":       quiz.Title,
		"description": quiz.Description,
		"updatedAt":   quiz.UpdatedAt,
	}
	update := bson.M{"$set": set}
	if quiz.TimeLimit != nil {
		set["timeLimit"] = *quiz.TimeLimit
	} else {
		update["$unset"] = bson.M{"timeLimit": ""}
	}

	var doc quizDoc
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	if err := s.quizzes.FindOneAndUpdate(ctx, bson.M{"_id": quiz.ID}, update, opts).Decode(&doc); err != nil {
		return notFound(err, domain.ErrQuizNotFound, "update quiz")
	}
	quiz.IsPublished = doc.IsPublished
	return nil
}

func (s *Store) PublishQuiz(ctx context.Context, id string, at time.Time) error {
	res, err := s.quizzes.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"isPublished": true, "updatedAt": at}},
	)
	if err != nil {
		return fmt.Errorf("publish quiz: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrQuizNotFound
	}
	return nil
}

// LockQuiz bumps a revision counter on the document. Inside a transaction the
// write makes any concurrent writer to the quiz conflict and retry.
func (s *Store) LockQuiz(ctx context.Context, id string) (domain.Quiz, error) {
	var doc quizDoc
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err := s.quizzes.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$inc": bson.M{"revision": 1}}, opts).Decode(&doc)
	if err != nil {
		return domain.Quiz{}, notFound(err, domain.ErrQuizNotFound, "lock quiz")
	}
	return doc.toDomain(), nil
}

func (s *Store) DeleteQuiz(ctx context.Context, id string) error {
	res, err := s.quizzes.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete quiz: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrQuizNotFound
	}
	return nil
}

func (s *Store) CreateQuestion(ctx context.Context, question *domain.Question) error {
	if _, err := s.questions.InsertOne(ctx, toQuestionDoc(*question)); err != nil {
		return fmt.Errorf("insert question: %w", err)
	}
	return nil
}

func (s *Store) GetQuestion(ctx context.Context, id string) (domain.Question, error) {
	var doc questionDoc
	if err := s.questions.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		return domain.Question{}, notFound(err, domain.ErrQuestionNotFound, "find question")
	}
	return doc.toDomain(), nil
}

func (s *Store) ListQuestions(ctx context.Context, quizID string) ([]domain.Question, error) {
	var docs []questionDoc
	if err := findAll(ctx, s.questions, bson.M{"quizId": quizID}, "createdAt", &docs); err != nil {
		return nil, fmt.Errorf("find questions: %w", err)
	}

	out := make([]domain.Question, len(docs))
	for i, d := range docs {
		out[i] = d.toDomain()
	}
	return out, nil
}

func (s *Store) CountQuestions(ctx context.Context, quizID string) (int, error) {
	n, err := s.questions.CountDocuments(ctx, bson.M{"quizId": quizID})
	if err != nil {
		return 0, fmt.Errorf("count questions: %w", err)
	}
	return int(n), nil
}

func (s *Store) UpdateQuestion(ctx context.Context, question *domain.Question) error {
	res, err := s.questions.ReplaceOne(ctx, bson.M{"_id": question.ID}, toQuestionDoc(*question))
	if err != nil {
		return fmt.Errorf("update question: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrQuestionNotFound
	}
	return nil
}

func (s *Store) DeleteQuestion(ctx context.Context, id string) error {
	res, err := s.questions.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete question: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrQuestionNotFound
	}
	return nil
}

func (s *Store) DeleteQuestionsByQuiz(ctx context.Context, quizID string) (int, error) {
	res, err := s.questions.DeleteMany(ctx, bson.M{"quizId": quizID})
	if err != nil {
		return 0, fmt.Errorf("delete questions: %w", err)
	}
	return int(res.DeletedCount), nil
}

// CreateSubmission relies on the unique {quizId, userId} index to reject a
// second submission, even when two inserts race.
func (s *Store) CreateSubmission(ctx context.Context, submission *domain.Submission) error {
	if _, err := s.submissions.InsertOne(ctx, toSubmissionDoc(*submission)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrAlreadySubmitted
		}
		return fmt.Errorf("insert submission: %w", err)
	}
	return nil
}

func (s *Store) HasSubmission(ctx context.Context, quizID, userID string) (bool, error) {
	n, err := s.submissions.CountDocuments(ctx,
		bson.M{"quizId": quizID, "userId": userID},
		options.Count().SetLimit(1),
	)
	if err != nil {
		return false, fmt.Errorf("check submission: %w", err)
	}
	return n > 0, nil
}

func (s *Store) ListSubmissionsByQuiz(ctx context.Context, quizID string) ([]domain.Submission, error) {
	return s.listSubmissions(ctx, bson.M{"quizId": quizID})
}

func (s *Store) ListSubmissionsByUser(ctx context.Context, userID string) ([]domain.Submission, error) {
	return s.listSubmissions(ctx, bson.M{"userId": userID})
}

func (s *Store) DeleteSubmissionsByQuiz(ctx context.Context, quizID string) (int, error) {
	res, err := s.submissions.DeleteMany(ctx, bson.M{"quizId": quizID})
	if err != nil {
		return 0, fmt.Errorf("delete submissions: %w", err)
	}
	return int(res.DeletedCount), nil
}

func (s *Store) listSubmissions(ctx context.Context, filter bson.M) ([]domain.Submission, error) {
	var docs []submissionDoc
	if err := findAll(ctx, s.submissions, filter, "submittedAt", &docs); err != nil {
		return nil, fmt.Errorf("find submissions: %w", err)
	}

	out := make([]domain.Submission, len(docs))
	for i, d := range docs {
		out[i] = d.toDomain()
	}
	return out, nil
}

func findAll(ctx context.Context, coll *mongo.Collection, filter bson.M, sortField string, out interface{}) error {
	opts := options.Find().SetSort(bson.D{{Key: sortField, Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := coll.Find(ctx, filter, opts)
	if err != nil {
		return err
	}
	return cursor.All(ctx, out)
}

func notFound(err error, sentinel error, op string) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return sentinel
	}
	return fmt.Errorf("%s: %w", op, err)
}
