package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/studypilot/assessment-service/internal/services"
	"github.com/studypilot/assessment-service/internal/utils"
)

type HandlerManager struct {
	quizHandler    *QuizHandler
	sessionHandler *SessionHandler
	gradingHandler *GradingHandler
	sessions       services.SessionService
	gatherer       prometheus.Gatherer
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	logger utils.Logger,
	gatherer prometheus.Gatherer,
) *HandlerManager {
	return &HandlerManager{
		quizHandler:    NewQuizHandler(serviceManager.Quiz(), serviceManager.ImportExport(), logger),
		sessionHandler: NewSessionHandler(serviceManager.Session(), serviceManager.ImportExport(), logger),
		gradingHandler: NewGradingHandler(serviceManager.Grading(), logger),
		sessions:       serviceManager.Session(),
		gatherer:       gatherer,
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/health", hm.HealthCheck)
	if hm.gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(hm.gatherer, promhttp.HandlerOpts{})))
	}

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		quizzes := v1.Group("/quizzes")
		{
			quizzes.POST("", hm.quizHandler.RegisterQuiz)
			quizzes.GET("", hm.quizHandler.ListQuizzes)
			quizzes.POST("/import", hm.quizHandler.ImportQuiz)
			quizzes.GET("/:id", hm.quizHandler.GetQuiz)
			quizzes.DELETE("/:id", hm.quizHandler.DeleteQuiz)
		}

		sessions := v1.Group("/sessions")
		{
			sessions.POST("", hm.sessionHandler.CreateSession)
			sessions.GET("/:id", hm.sessionHandler.GetSession)
			sessions.DELETE("/:id", hm.sessionHandler.DeleteSession)
			sessions.POST("/:id/configure", hm.sessionHandler.ConfigureSession)
			sessions.PUT("/:id/answers/:index", hm.sessionHandler.SetAnswer)
			sessions.POST("/:id/submit", hm.sessionHandler.SubmitSession)
			sessions.GET("/:id/result", hm.sessionHandler.GetResult)
			sessions.POST("/:id/reset", hm.sessionHandler.ResetSession)
			sessions.GET("/:id/report", hm.sessionHandler.ExportReport)
		}

		grading := v1.Group("/grading")
		{
			grading.POST("/short-answer", hm.gradingHandler.GradeShortAnswer)
		}
	}
}

// HealthCheck reports liveness and the number of sessions held in memory
func (hm *HandlerManager) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":          "healthy",
		"service":         "assessment-service",
		"active_sessions": hm.sessions.Count(),
	})
}
