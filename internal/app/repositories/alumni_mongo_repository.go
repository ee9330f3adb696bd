package repositories

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/yigit/alumnisphere/internal/app/models"
	"github.com/yigit/alumnisphere/internal/pkg/apperrors"
	"github.com/yigit/alumnisphere/internal/pkg/dberrors"
	"github.com/yigit/alumnisphere/internal/pkg/logger"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// AlumniCollection is the MongoDB collection holding alumni documents
const AlumniCollection = "alumni"

// MongoAlumniRepository stores alumni as MongoDB documents
type MongoAlumniRepository struct {
	coll *mongo.Collection
}

// NewMongoAlumniRepository creates a new MongoAlumniRepository
func NewMongoAlumniRepository(db *mongo.Database) *MongoAlumniRepository {
	return &MongoAlumniRepository{coll: db.Collection(AlumniCollection)}
}

// EnsureIndexes creates the unique registration number index and the listing index
func (r *MongoAlumniRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "registrationNumber", Value: 1}},
			Options: options.Index().SetUnique(true).SetName(AlumniRegistrationNumberConstraint),
		},
		{
			Keys:    bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}},
			Options: options.Index().SetName("alumni_created_at_idx"),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create alumni indexes: %w", err)
	}
	return nil
}

// Create inserts a new document, assigning an id when none is set
func (r *MongoAlumniRepository) Create(ctx context.Context, alumni *models.Alumni) error {
	if alumni.ID == "" {
		alumni.ID = uuid.New().String()
	}

	if _, err := r.coll.InsertOne(ctx, alumni); err != nil {
		if dberrors.IsMongoDuplicateKeyError(err) {
			return apperrors.ErrRegistrationNumberDuplicated
		}
		logger.Error().Err(err).Str("registrationNumber", alumni.RegistrationNumber).Msg("Error inserting alumni document")
		return fmt.Errorf("%w: error creating alumni: %w", apperrors.ErrStorageFailure, err)
	}
	return nil
}

// GetByID retrieves a document by id
func (r *MongoAlumniRepository) GetByID(ctx context.Context, id string) (*models.Alumni, error) {
	var alumni models.Alumni
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&alumni)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.ErrAlumniNotFound
		}
		logger.Error().Err(err).Str("alumniID", id).Msg("Error finding alumni document")
		return nil, fmt.Errorf("%w: error getting alumni by ID: %w", apperrors.ErrStorageFailure, err)
	}
	return &alumni, nil
}

// ExistsByRegistrationNumber reports whether any document uses registrationNumber
func (r *MongoAlumniRepository) ExistsByRegistrationNumber(ctx context.Context, registrationNumber string) (bool, error) {
	n, err := r.coll.CountDocuments(ctx, bson.M{"registrationNumber": registrationNumber}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("%w: error checking alumni existence: %w", apperrors.ErrStorageFailure, err)
	}
	return n > 0, nil
}

// Update replaces the stored document with alumni
func (r *MongoAlumniRepository) Update(ctx context.Context, alumni *models.Alumni) error {
	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": alumni.ID}, alumni)
	if err != nil {
		if dberrors.IsMongoDuplicateKeyError(err) {
			return apperrors.ErrRegistrationNumberDuplicated
		}
		logger.Error().Err(err).Str("alumniID", alumni.ID).Msg("Error replacing alumni document")
		return fmt.Errorf("%w: error updating alumni: %w", apperrors.ErrStorageFailure, err)
	}
	if res.MatchedCount == 0 {
		return apperrors.ErrAlumniNotFound
	}
	return nil
}

// Delete removes a document by id
func (r *MongoAlumniRepository) Delete(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		logger.Error().Err(err).Str("alumniID", id).Msg("Error deleting alumni document")
		return fmt.Errorf("%w: error deleting alumni: %w", apperrors.ErrStorageFailure, err)
	}
	if res.DeletedCount == 0 {
		return apperrors.ErrAlumniNotFound
	}
	return nil
}

func containsRegex(s string) bson.M {
	return bson.M{"$regex": regexp.QuoteMeta(s), "$options": "i"}
}

// alumniMongoFilter translates a filter into a query document
func alumniMongoFilter(filter models.AlumniFilter) bson.M {
	query := bson.M{}
	if v := strings.TrimSpace(filter.AcademicUnit); v != "" {
		query["academicUnit"] = v
	}
	if v := strings.TrimSpace(filter.PassingYear); v != "" {
		query["passingYear"] = v
	}
	if v := strings.TrimSpace(filter.Program); v != "" {
		query["program"] = containsRegex(v)
	}
	if v := strings.TrimSpace(filter.Query); v != "" {
		query["$or"] = bson.A{
			bson.M{"name": containsRegex(v)},
			bson.M{"registrationNumber": containsRegex(v)},
			bson.M{"program": containsRegex(v)},
		}
	}
	return query
}

// List returns one page of matching documents, newest first, and the total match count
func (r *MongoAlumniRepository) List(ctx context.Context, filter models.AlumniFilter, offset uint64, limit int) ([]*models.Alumni, int64, error) {
	query := alumniMongoFilter(filter)

	total, err := r.coll.CountDocuments(ctx, query)
	if err != nil {
		logger.Error().Err(err).Msg("Error counting alumni documents")
		return nil, 0, fmt.Errorf("%w: failed to count alumni: %w", apperrors.ErrStorageFailure, err)
	}
	if total == 0 || offset >= uint64(total) {
		return []*models.Alumni{}, total, nil
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := r.coll.Find(ctx, query, opts)
	if err != nil {
		logger.Error().Err(err).Msg("Error querying alumni documents")
		return nil, 0, fmt.Errorf("%w: failed to query alumni: %w", apperrors.ErrStorageFailure, err)
	}

	result := make([]*models.Alumni, 0, limit)
	if err := cursor.All(ctx, &result); err != nil {
		return nil, 0, fmt.Errorf("%w: failed to decode alumni documents: %w", apperrors.ErrStorageFailure, err)
	}

	return result, total, nil
}
