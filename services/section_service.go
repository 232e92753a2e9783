package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"coursegen/db"
	"coursegen/internal/llmjson"
	"coursegen/internal/media"
	"coursegen/logger"
	"coursegen/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SectionDraft is the section content the model is asked to produce.
type SectionDraft struct {
	Text         string
	ImageQueries map[string]string
	VideoQueries map[string]string
	Headings     models.Headings
	MCQs         []models.MCQ
}

// DecodeSectionDraft reads a normalized model response leniently.
func DecodeSectionDraft(m map[string]any) SectionDraft {
	headings := llmjson.Object(m, "headings")
	if headings == nil {
		headings = llmjson.Object(m, "headers")
	}
	return SectionDraft{
		Text:         llmjson.String(m, "text"),
		ImageQueries: llmjson.StringMap(m["image_queries"]),
		VideoQueries: llmjson.StringMap(m["ytvid_queries"]),
		Headings: models.Headings{
			H1: llmjson.StringMap(headings["h1"]),
			H2: llmjson.StringMap(headings["h2"]),
		},
		MCQs: decodeMCQs(m["mcqs"]),
	}
}

func decodeMCQs(v any) []models.MCQ {
	items, _ := v.([]any)
	mcqs := make([]models.MCQ, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		question := strings.TrimSpace(llmjson.String(obj, "question"))
		if question == "" {
			continue
		}
		mcqs = append(mcqs, models.MCQ{
			Question: question,
			Options:  llmjson.StringList(obj["options"]),
			Answer:   strings.TrimSpace(llmjson.String(obj, "answer")),
		})
	}
	return mcqs
}

type SectionServiceConfig struct {
	LLMTimeout time.Duration
	// ClaimTTL bounds how long a crashed generator can block a stub.
	ClaimTTL time.Duration
	// PollInterval is how often a caller that lost the claim re-reads the
	// section.
	PollInterval time.Duration
}

type SectionService struct {
	llm      Completer
	media    MediaResolver
	courses  CourseStore
	sections SectionStore
	cfg      SectionServiceConfig
	log      *logger.Logger
	now      func() time.Time
}

func NewSectionService(llm Completer, media MediaResolver, courses CourseStore, sections SectionStore, cfg SectionServiceConfig, log *logger.Logger) *SectionService {
	if cfg.ClaimTTL <= 0 {
		cfg.ClaimTTL = 5 * time.Minute
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	if log == nil {
		log = logger.Nop()
	}
	return &SectionService{
		llm:      llm,
		media:    media,
		courses:  courses,
		sections: sections,
		cfg:      cfg,
		log:      log,
		now:      time.Now,
	}
}

// GenerateSection finalizes a section stub. A section that is already
// finalized is returned as stored without any model or media calls. When
// several callers race on one stub, one generates and the rest wait for its
// result.
func (s *SectionService) GenerateSection(ctx context.Context, sectionID, courseID primitive.ObjectID) (*models.Section, error) {
	section, err := s.sections.FindSection(ctx, sectionID)
	if err != nil {
		return nil, storeErr(err, "find section")
	}
	if section.Finalized() {
		if *section.CourseID != courseID {
			return nil, fmt.Errorf("section %s is not part of course %s: %w", sectionID.Hex(), courseID.Hex(), ErrNotFound)
		}
		return section, nil
	}

	course, err := s.courses.FindCourse(ctx, courseID)
	if err != nil {
		return nil, storeErr(err, "find course")
	}
	if !containsID(course.Sections, sectionID) {
		return nil, fmt.Errorf("section %s is not part of course %s: %w", sectionID.Hex(), courseID.Hex(), ErrNotFound)
	}

	log := s.log.With("section_id", sectionID.Hex(), "course_id", courseID.Hex())

	token := uuid.NewString()
	claimed, err := s.sections.ClaimSection(ctx, sectionID, token, s.now().UTC(), s.cfg.ClaimTTL)
	if err != nil {
		return nil, fmt.Errorf("claim section: %w", err)
	}
	if !claimed {
		log.Info("section generation in progress elsewhere; waiting")
		return s.awaitSection(ctx, sectionID)
	}

	result, err := s.generate(ctx, section, course, token, log)
	if err != nil {
		if relErr := s.sections.ReleaseSection(context.WithoutCancel(ctx), sectionID, token); relErr != nil {
			log.Error("failed to release section claim", "error", relErr)
		}
		return nil, err
	}
	return result, nil
}

func (s *SectionService) generate(ctx context.Context, section *models.Section, course *models.Course, token string, log *logger.Logger) (*models.Section, error) {
	parsed, err := complete(ctx, s.llm, s.cfg.LLMTimeout, sectionPrompt(section.Title, course.Title), log)
	if err != nil {
		return nil, err
	}
	draft := DecodeSectionDraft(parsed)

	images, videos := s.media.Resolve(ctx, draft.ImageQueries, draft.VideoQueries)

	// placeholders stay in the text; clients render them
	content := models.SectionContent{
		Text:         draft.Text,
		ImageLinks:   media.OrderedValues(images),
		YoutubeLinks: media.OrderedValues(videos),
		MCQs:         draft.MCQs,
		Headers:      draft.Headings,
	}

	finalized, err := s.sections.FinalizeSection(ctx, section.ID, token, course.ID, content)
	if errors.Is(err, db.ErrNotClaimed) {
		// claim expired and someone else finished first
		return s.awaitSection(ctx, section.ID)
	}
	if err != nil {
		return nil, fmt.Errorf("finalize section: %w", err)
	}

	log.Info("section generated",
		"images", len(content.ImageLinks),
		"videos", len(content.YoutubeLinks),
		"mcqs", len(content.MCQs),
	)
	return finalized, nil
}

// awaitSection polls until another caller's generation finishes.
func (s *SectionService) awaitSection(ctx context.Context, sectionID primitive.ObjectID) (*models.Section, error) {
	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}

		section, err := s.sections.FindSection(ctx, sectionID)
		if err != nil {
			return nil, storeErr(err, "find section")
		}
		if section.Finalized() {
			return section, nil
		}
		if section.Claim == nil || !section.Claim.ExpiresAt.After(s.now().UTC()) {
			return nil, fmt.Errorf("section %s: %w", sectionID.Hex(), ErrGenerationFailed)
		}
	}
}

func containsID(ids []primitive.ObjectID, id primitive.ObjectID) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}
