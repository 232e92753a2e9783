package routes

import (
	"coursegen/controllers"

	"github.com/gin-gonic/gin"
)

func SetupSectionRoutes(router *gin.RouterGroup, ctrl *controllers.SectionController, generate gin.HandlerFunc) {
	router.POST("/section", withGuard(generate, ctrl.GenerateSection)...)
}
