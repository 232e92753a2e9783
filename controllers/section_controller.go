package controllers

import (
	"context"
	"net/http"

	"coursegen/logger"
	"coursegen/middlewares"
	"coursegen/models"
	"coursegen/services"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SectionAPI is implemented by *services.SectionService.
type SectionAPI interface {
	GenerateSection(ctx context.Context, sectionID, courseID primitive.ObjectID) (*models.Section, error)
}

type SectionController struct {
	sections SectionAPI
	courses  CourseAPI
	log      *logger.Logger
}

func NewSectionController(sections SectionAPI, courses CourseAPI, log *logger.Logger) *SectionController {
	return &SectionController{sections: sections, courses: courses, log: log}
}

// GenerateSection returns the section's content, generating it on first
// request. The caller must own the course.
func (sc *SectionController) GenerateSection(c *gin.Context) {
	log := middlewares.RequestLog(c, sc.log)

	var req models.GenerateSectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	userID, err := currentUser(c)
	if err != nil {
		respondError(c, log, err)
		return
	}
	sectionID, err := services.ParseObjectID(req.SectionID)
	if err != nil {
		respondError(c, log, err)
		return
	}
	courseID, err := services.ParseObjectID(req.CourseID)
	if err != nil {
		respondError(c, log, err)
		return
	}

	if _, err := sc.courses.GetCourse(c.Request.Context(), userID, courseID); err != nil {
		respondError(c, log, err)
		return
	}

	section, err := sc.sections.GenerateSection(c.Request.Context(), sectionID, courseID)
	if err != nil {
		respondError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, section)
}
