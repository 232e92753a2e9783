package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"coursegen/internal/llmjson"
	"coursegen/internal/placeholder"
	"coursegen/logger"
	"coursegen/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// maxListedCourses caps ListCourses.
const maxListedCourses = 100

// CourseStructure is the course outline the model is asked to produce.
type CourseStructure struct {
	Title        string            `json:"title"`
	Description  string            `json:"description"`
	Sections     []string          `json:"sections"`
	ImageQueries map[string]string `json:"image_queries"`
	VideoQueries map[string]string `json:"ytvid_queries"`
}

// DecodeCourseStructure reads a normalized model response leniently.
func DecodeCourseStructure(m map[string]any) CourseStructure {
	return CourseStructure{
		Title:        strings.TrimSpace(llmjson.String(m, "title")),
		Description:  llmjson.String(m, "description"),
		Sections:     llmjson.StringList(m["sections"]),
		ImageQueries: llmjson.StringMap(m["image_queries"]),
		VideoQueries: llmjson.StringMap(m["ytvid_queries"]),
	}
}

type CourseService struct {
	llm        Completer
	media      MediaResolver
	courses    CourseStore
	sections   SectionStore
	llmTimeout time.Duration
	log        *logger.Logger
	now        func() time.Time
}

func NewCourseService(llm Completer, media MediaResolver, courses CourseStore, sections SectionStore, llmTimeout time.Duration, log *logger.Logger) *CourseService {
	if log == nil {
		log = logger.Nop()
	}
	return &CourseService{
		llm:        llm,
		media:      media,
		courses:    courses,
		sections:   sections,
		llmTimeout: llmTimeout,
		log:        log,
		now:        time.Now,
	}
}

// GenerateCourse runs one course generation cycle and persists the course
// with one empty section stub per section title. Nothing is persisted when
// the model call or normalization fails.
func (s *CourseService) GenerateCourse(ctx context.Context, userID primitive.ObjectID, prompt string) (*models.Course, error) {
	log := s.log.With("user_id", userID.Hex())

	parsed, err := complete(ctx, s.llm, s.llmTimeout, coursePrompt(prompt), log)
	if err != nil {
		return nil, err
	}
	structure := DecodeCourseStructure(parsed)
	if structure.Title == "" {
		structure.Title = strings.TrimSpace(prompt)
	}

	images, videos := s.media.Resolve(ctx, structure.ImageQueries, structure.VideoQueries)

	description, err := json.Marshal(models.CourseDescription{
		Text:       placeholder.Substitute(structure.Description, images, videos),
		ImageLinks: images,
		VideoLinks: videos,
	})
	if err != nil {
		return nil, fmt.Errorf("encode course description: %w", err)
	}

	stubs := make([]models.Section, len(structure.Sections))
	sectionIDs := make([]primitive.ObjectID, len(structure.Sections))
	for i, title := range structure.Sections {
		sectionIDs[i] = primitive.NewObjectID()
		stubs[i] = models.Section{
			ID:      sectionIDs[i],
			Title:   title,
			Content: models.EmptySectionContent(),
			Order:   i,
		}
	}

	now := s.now().UTC()
	course := &models.Course{
		ID:            primitive.NewObjectID(),
		UserID:        userID,
		Prompt:        prompt,
		Title:         structure.Title,
		Description:   string(description),
		Sections:      sectionIDs,
		SectionTitles: structure.Sections,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.sections.InsertSections(ctx, stubs); err != nil {
		return nil, fmt.Errorf("store section stubs: %w", err)
	}
	if err := s.courses.InsertCourse(ctx, course); err != nil {
		// the stubs are unreachable without their course
		if _, rbErr := s.sections.DeleteSections(context.WithoutCancel(ctx), sectionIDs); rbErr != nil {
			log.Error("failed to roll back section stubs", "error", rbErr, "sections", len(sectionIDs))
		}
		return nil, fmt.Errorf("store course: %w", err)
	}

	log.Info("course generated",
		"course_id", course.ID.Hex(),
		"sections", len(sectionIDs),
		"images", len(images),
		"videos", len(videos),
	)
	return course, nil
}

// ListCourses returns the user's courses, newest first.
func (s *CourseService) ListCourses(ctx context.Context, userID primitive.ObjectID) ([]models.Course, error) {
	courses, err := s.courses.ListCourses(ctx, userID, maxListedCourses)
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return courses, nil
}

// GetCourse returns a course owned by userID.
func (s *CourseService) GetCourse(ctx context.Context, userID, courseID primitive.ObjectID) (*models.Course, error) {
	course, err := s.courses.FindCourse(ctx, courseID)
	if err != nil {
		return nil, storeErr(err, "find course")
	}
	if course.UserID != userID {
		return nil, fmt.Errorf("course %s: %w", courseID.Hex(), ErrForbidden)
	}
	return course, nil
}

// DeleteCourse removes a course owned by userID together with every section
// it lists, and reports how many sections were removed.
func (s *CourseService) DeleteCourse(ctx context.Context, userID, courseID primitive.ObjectID) (int64, error) {
	course, err := s.GetCourse(ctx, userID, courseID)
	if err != nil {
		return 0, err
	}

	deleted, err := s.sections.DeleteSections(ctx, course.Sections)
	if err != nil {
		return 0, fmt.Errorf("delete course sections: %w", err)
	}
	if err := s.courses.DeleteCourse(ctx, courseID); err != nil {
		return deleted, storeErr(err, "delete course")
	}

	s.log.Info("course deleted", "course_id", courseID.Hex(), "sections_deleted", deleted)
	return deleted, nil
}
