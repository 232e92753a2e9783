package controllers

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"coursegen/logger"
	"coursegen/middlewares"
	"coursegen/models"
	"coursegen/services"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CourseAPI is implemented by *services.CourseService.
type CourseAPI interface {
	GenerateCourse(ctx context.Context, userID primitive.ObjectID, prompt string) (*models.Course, error)
	ListCourses(ctx context.Context, userID primitive.ObjectID) ([]models.Course, error)
	GetCourse(ctx context.Context, userID, courseID primitive.ObjectID) (*models.Course, error)
	DeleteCourse(ctx context.Context, userID, courseID primitive.ObjectID) (int64, error)
}

type CourseController struct {
	courses CourseAPI
	log     *logger.Logger
}

func NewCourseController(courses CourseAPI, log *logger.Logger) *CourseController {
	return &CourseController{courses: courses, log: log}
}

// currentUser reads the authenticated subject set by AuthMiddleware.
func currentUser(c *gin.Context) (primitive.ObjectID, error) {
	return services.ParseObjectID(c.GetString(middlewares.UserIDKey))
}

func (cc *CourseController) CreateCourse(c *gin.Context) {
	log := middlewares.RequestLog(c, cc.log)

	var req models.CreateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	prompt := strings.TrimSpace(req.PromptText)
	if prompt == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "prompt_text must not be blank"})
		return
	}

	userID, err := currentUser(c)
	if err != nil {
		respondError(c, log, err)
		return
	}
	if req.UserID != userID.Hex() {
		respondError(c, log, fmt.Errorf("user_id does not match the authenticated user: %w", services.ErrForbidden))
		return
	}

	course, err := cc.courses.GenerateCourse(c.Request.Context(), userID, prompt)
	if err != nil {
		respondError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, course)
}

func (cc *CourseController) ListCourses(c *gin.Context) {
	log := middlewares.RequestLog(c, cc.log)

	userID, err := currentUser(c)
	if err != nil {
		respondError(c, log, err)
		return
	}
	courses, err := cc.courses.ListCourses(c.Request.Context(), userID)
	if err != nil {
		respondError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, courses)
}

func (cc *CourseController) GetCourse(c *gin.Context) {
	log := middlewares.RequestLog(c, cc.log)

	userID, courseID, err := userAndCourse(c)
	if err != nil {
		respondError(c, log, err)
		return
	}
	course, err := cc.courses.GetCourse(c.Request.Context(), userID, courseID)
	if err != nil {
		respondError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, course)
}

func (cc *CourseController) DeleteCourse(c *gin.Context) {
	log := middlewares.RequestLog(c, cc.log)

	userID, courseID, err := userAndCourse(c)
	if err != nil {
		respondError(c, log, err)
		return
	}
	deleted, err := cc.courses.DeleteCourse(c.Request.Context(), userID, courseID)
	if err != nil {
		respondError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":          "Course and associated sections deleted successfully",
		"course_id":        courseID.Hex(),
		"sections_deleted": deleted,
	})
}

func userAndCourse(c *gin.Context) (primitive.ObjectID, primitive.ObjectID, error) {
	userID, err := currentUser(c)
	if err != nil {
		return primitive.NilObjectID, primitive.NilObjectID, err
	}
	courseID, err := services.ParseObjectID(c.Param("id"))
	if err != nil {
		return primitive.NilObjectID, primitive.NilObjectID, err
	}
	return userID, courseID, nil
}
