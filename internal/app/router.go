package app

import (
	"github.com/EthanMiao/manaboo/internal/config"
	"github.com/EthanMiao/manaboo/internal/middleware"
	"github.com/EthanMiao/manaboo/internal/util"
	"github.com/EthanMiao/manaboo/pkg/monitoring"
	"github.com/gin-gonic/gin"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	router.GET("/metrics", monitoring.PrometheusHandler())

	if cfg.Storage.Type == util.StorageLocal && cfg.Storage.LocalPath != "" {
		router.Static("/uploads", cfg.Storage.LocalPath)
	}

	api := router.Group("/api")
	api.Use(middleware.UserMiddleware(cfg.JWT.Secret))
	{
		api.GET("/health", c.health.HealthCheck)

		a.registerGrammarRoutes(api, c)
		a.registerDialogueRoutes(api, c)
		a.registerStatsRoutes(api, c)
	}
}

func (a *App) registerGrammarRoutes(api *gin.RouterGroup, c *controllers) {
	grammar := api.Group("/grammar")
	{
		grammar.GET("/list", c.grammar.ListGrammar)
		grammar.GET("/:id", c.grammar.GetGrammar)
	}

	exercise := api.Group("/exercise")
	{
		exercise.POST("/generate", c.grammar.GenerateExercises)
		exercise.POST("/submit", c.grammar.SubmitAnswer)
	}

	api.GET("/mistakes", c.grammar.ListMistakes)
	api.GET("/mistakes/detail", c.grammar.GetMistake)
	api.GET("/proficiency/:grammarId", c.grammar.GetProficiency)
	api.GET("/recommendations/grammar", c.recommendation.RecommendGrammar)
}

func (a *App) registerDialogueRoutes(api *gin.RouterGroup, c *controllers) {
	api.GET("/scenarios", c.dialogue.ListScenarios)

	dialogue := api.Group("/dialogue")
	{
		dialogue.POST("/send", c.dialogue.Send)
		dialogue.POST("/correct", c.dialogue.Correct)
		dialogue.GET("/history/:sessionId", c.dialogue.GetHistory)
		dialogue.DELETE("/session/:sessionId", c.dialogue.DeleteSession)
	}
}

func (a *App) registerStatsRoutes(api *gin.RouterGroup, c *controllers) {
	stats := api.Group("/stats")
	{
		stats.GET("/weekly", c.stats.Weekly)
		stats.GET("/summary", c.stats.Summary)
		stats.GET("/export", c.stats.Export)
	}
}
