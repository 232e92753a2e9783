package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"coursegen/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type SectionRepository struct {
	coll *mongo.Collection
}

func NewSectionRepository(database *mongo.Database) *SectionRepository {
	return &SectionRepository{coll: database.Collection(SectionsCollectionName)}
}

// InsertSections stores stubs in one ordered batch.
func (r *SectionRepository) InsertSections(ctx context.Context, sections []models.Section) error {
	if len(sections) == 0 {
		return nil
	}
	docs := make([]interface{}, len(sections))
	for i := range sections {
		docs[i] = sections[i]
	}
	if _, err := r.coll.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("insert sections: %w", err)
	}
	return nil
}

func (r *SectionRepository) FindSection(ctx context.Context, id primitive.ObjectID) (*models.Section, error) {
	var section models.Section
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&section)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find section: %w", err)
	}
	return &section, nil
}

// claimFilter matches a stub with no claim or an expired one.
func claimFilter(id primitive.ObjectID, now time.Time) bson.M {
	return bson.M{
		"_id":       id,
		"course_id": nil,
		"$or": bson.A{
			bson.M{"claim": nil},
			bson.M{"claim.expires_at": bson.M{"$lte": now}},
		},
	}
}

func claimUpdate(token string, now time.Time, ttl time.Duration) bson.M {
	return bson.M{"$set": bson.M{"claim": models.GenerationClaim{Token: token, ExpiresAt: now.Add(ttl)}}}
}

func releaseFilter(id primitive.ObjectID, token string) bson.M {
	return bson.M{"_id": id, "claim.token": token}
}

// finalizeFilter matches only while the stub is unfinalized and token holds it.
func finalizeFilter(id primitive.ObjectID, token string) bson.M {
	return bson.M{"_id": id, "course_id": nil, "claim.token": token}
}

func finalizeUpdate(courseID primitive.ObjectID, content models.SectionContent) bson.M {
	return bson.M{
		"$set":   bson.M{"course_id": courseID, "content": content},
		"$unset": bson.M{"claim": ""},
	}
}

// ClaimSection takes the generation lease on a stub. It reports false when
// the section is already finalized or another live claim holds it.
func (r *SectionRepository) ClaimSection(ctx context.Context, id primitive.ObjectID, token string, now time.Time, ttl time.Duration) (bool, error) {
	res, err := r.coll.UpdateOne(ctx, claimFilter(id, now), claimUpdate(token, now, ttl))
	if err != nil {
		return false, fmt.Errorf("claim section: %w", err)
	}
	return res.MatchedCount == 1, nil
}

// ReleaseSection drops the claim if token still holds it.
func (r *SectionRepository) ReleaseSection(ctx context.Context, id primitive.ObjectID, token string) error {
	_, err := r.coll.UpdateOne(ctx, releaseFilter(id, token), bson.M{"$unset": bson.M{"claim": ""}})
	if err != nil {
		return fmt.Errorf("release section: %w", err)
	}
	return nil
}

// FinalizeSection writes the generated content and course link. The write
// only lands while the section is still a stub claimed by token.
func (r *SectionRepository) FinalizeSection(ctx context.Context, id primitive.ObjectID, token string, courseID primitive.ObjectID, content models.SectionContent) (*models.Section, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var section models.Section
	err := r.coll.FindOneAndUpdate(ctx, finalizeFilter(id, token), finalizeUpdate(courseID, content), opts).Decode(&section)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotClaimed
	}
	if err != nil {
		return nil, fmt.Errorf("finalize section: %w", err)
	}
	return &section, nil
}

func (r *SectionRepository) DeleteSections(ctx context.Context, ids []primitive.ObjectID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := r.coll.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return 0, fmt.Errorf("delete sections: %w", err)
	}
	return res.DeletedCount, nil
}
