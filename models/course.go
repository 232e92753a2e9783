package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Course is a generated course outline owned by a single user.
// Sections and SectionTitles are index-aligned.
type Course struct {
	ID            primitive.ObjectID   `bson:"_id" json:"id"`
	UserID        primitive.ObjectID   `bson:"user_id" json:"user_id"`
	Prompt        string               `bson:"prompt" json:"prompt"`
	Title         string               `bson:"title" json:"title"`
	Description   string               `bson:"description" json:"description"` // JSON-encoded CourseDescription
	Sections      []primitive.ObjectID `bson:"sections" json:"sections"`
	SectionTitles []string             `bson:"section_titles" json:"section_titles"`
	CreatedAt     time.Time            `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time            `bson:"updated_at" json:"updated_at"`
}

// CourseDescription is the payload serialized into Course.Description: the
// rendered text plus the raw slot -> link mappings it was rendered from.
type CourseDescription struct {
	Text       string            `json:"text"`
	ImageLinks map[string]string `json:"img_links"`
	VideoLinks map[string]string `json:"ytvid_links"`
}

// CreateCourseRequest is the body of POST /course.
type CreateCourseRequest struct {
	UserID     string `json:"user_id" binding:"required"`
	PromptText string `json:"prompt_text" binding:"required"`
}
