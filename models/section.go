package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MCQ is a multiple-choice question. Answer is expected to be one of Options
// but nothing enforces it.
type MCQ struct {
	Question string   `bson:"question" json:"question"`
	Options  []string `bson:"options" json:"options"`
	Answer   string   `bson:"answer" json:"answer"`
}

// Headings maps heading slot ids to heading text, per level.
type Headings struct {
	H1 map[string]string `bson:"h1" json:"h1"`
	H2 map[string]string `bson:"h2" json:"h2"`
}

// SectionContent is filled in once, when the section is generated. Text keeps
// its placeholder tokens; rendering happens on the client.
type SectionContent struct {
	Text         string   `bson:"text" json:"text"`
	ImageLinks   []string `bson:"image_links" json:"image_links"`
	YoutubeLinks []string `bson:"youtube_links" json:"youtube_links"`
	MCQs         []MCQ    `bson:"mcqs" json:"mcqs"`
	Headers      Headings `bson:"headers" json:"headers"`
}

// GenerationClaim marks a stub as being generated by one caller until
// ExpiresAt.
type GenerationClaim struct {
	Token     string    `bson:"token"`
	ExpiresAt time.Time `bson:"expires_at"`
}

// Section starts life as a stub (CourseID nil, empty content) created with its
// course and is finalized exactly once by section generation.
type Section struct {
	ID       primitive.ObjectID  `bson:"_id" json:"id"`
	CourseID *primitive.ObjectID `bson:"course_id" json:"course_id"`
	Title    string              `bson:"title" json:"title"`
	Content  SectionContent      `bson:"content" json:"content"`
	Order    int                 `bson:"order" json:"order"`
	Claim    *GenerationClaim    `bson:"claim,omitempty" json:"-"`
}

// Finalized reports whether the section content has been generated.
func (s *Section) Finalized() bool {
	return s.CourseID != nil && !s.CourseID.IsZero()
}

// EmptySectionContent is the content stored on a fresh stub.
func EmptySectionContent() SectionContent {
	return SectionContent{
		Text:         "",
		ImageLinks:   []string{},
		YoutubeLinks: []string{},
		MCQs:         []MCQ{},
		Headers:      Headings{H1: map[string]string{}, H2: map[string]string{}},
	}
}

// GenerateSectionRequest is the body of POST /section.
type GenerateSectionRequest struct {
	SectionID string `json:"section_id" binding:"required"`
	CourseID  string `json:"course_id" binding:"required"`
}
