package services

import (
	"context"
	"time"

	"coursegen/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CourseStore persists courses. Lookups that match nothing return an error
// satisfying errors.Is(err, db.ErrNotFound).
type CourseStore interface {
	InsertCourse(ctx context.Context, course *models.Course) error
	FindCourse(ctx context.Context, id primitive.ObjectID) (*models.Course, error)
	ListCourses(ctx context.Context, userID primitive.ObjectID, limit int64) ([]models.Course, error)
	DeleteCourse(ctx context.Context, id primitive.ObjectID) error
}

// SectionStore persists sections and guards the stub to finalized
// transition with a claim token.
type SectionStore interface {
	InsertSections(ctx context.Context, sections []models.Section) error
	FindSection(ctx context.Context, id primitive.ObjectID) (*models.Section, error)
	ClaimSection(ctx context.Context, id primitive.ObjectID, token string, now time.Time, ttl time.Duration) (bool, error)
	ReleaseSection(ctx context.Context, id primitive.ObjectID, token string) error
	FinalizeSection(ctx context.Context, id primitive.ObjectID, token string, courseID primitive.ObjectID, content models.SectionContent) (*models.Section, error)
	DeleteSections(ctx context.Context, ids []primitive.ObjectID) (int64, error)
}

// MediaResolver is satisfied by *media.Resolver.
type MediaResolver interface {
	Resolve(ctx context.Context, imageQueries, videoQueries map[string]string) (map[string]string, map[string]string)
}
