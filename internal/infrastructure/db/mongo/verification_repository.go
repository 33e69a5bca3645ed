package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/veriscribe/signature-api/internal/core/domain"
	"github.com/veriscribe/signature-api/internal/core/ports"
)

const verificationsCollection = "verifications"

type VerificationRepository struct {
	coll *mongo.Collection
}

func NewVerificationRepository(db *mongo.Database) *VerificationRepository {
	return &VerificationRepository{coll: db.Collection(verificationsCollection)}
}

type mongoVerification struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	UserID      primitive.ObjectID `bson:"user_id"`
	FileName    string             `bson:"file_name"`
	ImagePath   string             `bson:"image_path,omitempty"`
	VerifiedFor string             `bson:"verified_for"`
	Label       string             `bson:"label"`
	Confidence  float64            `bson:"confidence"`
	Timestamp   time.Time          `bson:"timestamp"`
}

func (mv *mongoVerification) toDomain() domain.VerificationRecord {
	return domain.VerificationRecord{
		ID:          mv.ID.Hex(),
		UserID:      mv.UserID.Hex(),
		FileName:    mv.FileName,
		ImagePath:   mv.ImagePath,
		VerifiedFor: mv.VerifiedFor,
		Label:       domain.Label(mv.Label),
		Confidence:  mv.Confidence,
		Timestamp:   mv.Timestamp,
	}
}

func (r *VerificationRepository) Insert(ctx context.Context, rec *domain.VerificationRecord) error {
	owner, err := primitive.ObjectIDFromHex(rec.UserID)
	if err != nil {
		return fmt.Errorf("insert verification: bad owner id %q", rec.UserID)
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := mongoVerification{
		UserID:      owner,
		FileName:    rec.FileName,
		ImagePath:   rec.ImagePath,
		VerifiedFor: rec.VerifiedFor,
		Label:       string(rec.Label),
		Confidence:  rec.Confidence,
		Timestamp:   rec.Timestamp,
	}

	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		return fmt.Errorf("insert verification: %w", err)
	}
	rec.ID = res.InsertedID.(primitive.ObjectID).Hex()
	return nil
}

// ownerFilter builds the query document for one owner plus optional list
// filters. A malformed owner id matches nothing (ownership checks are not
// bypassable).
func ownerFilter(userID string, f ports.HistoryFilter) (bson.M, error) {
	owner, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, domain.ErrRecordNotFound
	}

	filter := bson.M{"user_id": owner}
	if f.Search != "" {
		filter["verified_for"] = bson.M{"$regex": f.Search, "$options": "i"}
	}
	if f.Date != nil {
		start := time.Date(f.Date.Year(), f.Date.Month(), f.Date.Day(), 0, 0, 0, 0, f.Date.Location())
		filter["timestamp"] = bson.M{"$gte": start, "$lt": start.AddDate(0, 0, 1)}
	}
	switch f.Status {
	case ports.StatusGenuine:
		filter["label"] = string(domain.LabelGenuine)
	case ports.StatusForged:
		filter["label"] = string(domain.LabelForged)
	}
	return filter, nil
}

func (r *VerificationRepository) List(ctx context.Context, userID string, q ports.HistoryQuery) ([]domain.VerificationRecord, int64, error) {
	filter, err := ownerFilter(userID, q.Filter)
	if err != nil {
		return nil, 0, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count verifications: %w", err)
	}

	skip := int64(q.Page-1) * int64(q.Limit)
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetSkip(skip).
		SetLimit(int64(q.Limit))

	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("find verifications: %w", err)
	}
	defer cur.Close(ctx)

	records := make([]domain.VerificationRecord, 0, q.Limit)
	for cur.Next(ctx) {
		var mv mongoVerification
		if err := cur.Decode(&mv); err != nil {
			return nil, 0, fmt.Errorf("decode verification: %w", err)
		}
		records = append(records, mv.toDomain())
	}
	if err := cur.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate verifications: %w", err)
	}
	return records, total, nil
}

// Summary aggregates the owner's entire history in a single pipeline,
// deliberately ignoring list filters.
func (r *VerificationRepository) Summary(ctx context.Context, userID string) (*domain.HistorySummary, error) {
	owner, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, domain.ErrRecordNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"user_id": owner}}},
		{{Key: "$group", Value: bson.M{
			"_id":     nil,
			"total":   bson.M{"$sum": 1},
			"genuine": bson.M{"$sum": bson.M{"$cond": bson.A{bson.M{"$eq": bson.A{"$label", string(domain.LabelGenuine)}}, 1, 0}}},
			"forged":  bson.M{"$sum": bson.M{"$cond": bson.A{bson.M{"$eq": bson.A{"$label", string(domain.LabelForged)}}, 1, 0}}},
			"avg":     bson.M{"$avg": "$confidence"},
		}}},
	}

	cur, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate summary: %w", err)
	}
	defer cur.Close(ctx)

	summary := &domain.HistorySummary{}
	if cur.Next(ctx) {
		var row struct {
			Total   int64   `bson:"total"`
			Genuine int64   `bson:"genuine"`
			Forged  int64   `bson:"forged"`
			Avg     float64 `bson:"avg"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, fmt.Errorf("decode summary: %w", err)
		}
		summary.Total = row.Total
		summary.Genuine = row.Genuine
		summary.Forged = row.Forged
		summary.AvgConfidence = row.Avg
	}
	return summary, nil
}

func (r *VerificationRepository) FindOwned(ctx context.Context, userID, id string) (*domain.VerificationRecord, error) {
	owner, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, domain.ErrRecordNotFound
	}
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrRecordNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var mv mongoVerification
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid, "user_id": owner}).Decode(&mv); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrRecordNotFound
		}
		return nil, fmt.Errorf("find verification: %w", err)
	}
	rec := mv.toDomain()
	return &rec, nil
}

// FindOwnedByIDs silently drops ids that are malformed or belong to someone
// else; the result contains only records the owner may act on.
func (r *VerificationRepository) FindOwnedByIDs(ctx context.Context, userID string, ids []string) ([]domain.VerificationRecord, error) {
	owner, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, domain.ErrRecordNotFound
	}

	oids := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			oids = append(oids, oid)
		}
	}
	if len(oids) == 0 {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.coll.Find(ctx, bson.M{"_id": bson.M{"$in": oids}, "user_id": owner})
	if err != nil {
		return nil, fmt.Errorf("find verifications by ids: %w", err)
	}
	defer cur.Close(ctx)

	return decodeAll(ctx, cur)
}

func (r *VerificationRepository) FindAllOwned(ctx context.Context, userID string) ([]domain.VerificationRecord, error) {
	owner, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, domain.ErrRecordNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.coll.Find(ctx, bson.M{"user_id": owner})
	if err != nil {
		return nil, fmt.Errorf("find all verifications: %w", err)
	}
	defer cur.Close(ctx)

	return decodeAll(ctx, cur)
}

func decodeAll(ctx context.Context, cur *mongo.Cursor) ([]domain.VerificationRecord, error) {
	var records []domain.VerificationRecord
	for cur.Next(ctx) {
		var mv mongoVerification
		if err := cur.Decode(&mv); err != nil {
			return nil, fmt.Errorf("decode verification: %w", err)
		}
		records = append(records, mv.toDomain())
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("iterate verifications: %w", err)
	}
	return records, nil
}

func (r *VerificationRepository) DeleteOwned(ctx context.Context, userID, id string) error {
	owner, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return domain.ErrRecordNotFound
	}
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrRecordNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid, "user_id": owner})
	if err != nil {
		return fmt.Errorf("delete verification: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrRecordNotFound
	}
	return nil
}

func (r *VerificationRepository) DeleteOwnedByIDs(ctx context.Context, userID string, ids []string) (int64, error) {
	owner, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return 0, domain.ErrRecordNotFound
	}

	oids := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			oids = append(oids, oid)
		}
	}
	if len(oids) == 0 {
		return 0, nil
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.coll.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": oids}, "user_id": owner})
	if err != nil {
		return 0, fmt.Errorf("bulk delete verifications: %w", err)
	}
	return res.DeletedCount, nil
}

func (r *VerificationRepository) DeleteAllOwned(ctx context.Context, userID string) (int64, error) {
	owner, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return 0, domain.ErrRecordNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.coll.DeleteMany(ctx, bson.M{"user_id": owner})
	if err != nil {
		return 0, fmt.Errorf("delete all verifications: %w", err)
	}
	return res.DeletedCount, nil
}

func (r *VerificationRepository) Count(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	n, err := r.coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("count verifications: %w", err)
	}
	return n, nil
}

func (r *VerificationRepository) GlobalCounts(ctx context.Context) (int64, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":     nil,
			"genuine": bson.M{"$sum": bson.M{"$cond": bson.A{bson.M{"$eq": bson.A{"$label", string(domain.LabelGenuine)}}, 1, 0}}},
			"forged":  bson.M{"$sum": bson.M{"$cond": bson.A{bson.M{"$eq": bson.A{"$label", string(domain.LabelForged)}}, 1, 0}}},
		}}},
	}

	cur, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, 0, fmt.Errorf("aggregate global counts: %w", err)
	}
	defer cur.Close(ctx)

	if cur.Next(ctx) {
		var row struct {
			Genuine int64 `bson:"genuine"`
			Forged  int64 `bson:"forged"`
		}
		if err := cur.Decode(&row); err != nil {
			return 0, 0, fmt.Errorf("decode global counts: %w", err)
		}
		return row.Genuine, row.Forged, nil
	}
	return 0, 0, nil
}

// EnsureIndexes creates the indexes the history queries rely on.
func (r *VerificationRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "timestamp", Value: -1}}},
		{Keys: bson.D{{Key: "verified_for", Value: 1}}},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexes)
	return err
}
