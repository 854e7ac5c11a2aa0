package handlers

import (
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/justsurfingit/pipeline-crm/internal/middleware"
	"go.uber.org/zap"
)

// Handlers groups everything the router mounts.
type Handlers struct {
	Auth          *AuthHandler
	Companies     *CompanyHandler
	Contacts      *ContactHandler
	Conversations *ConversationHandler
	Jobs          *JobHandler
	Opportunities *OpportunityHandler
	Pipeline      *PipelineHandler
	Categories    *CategoryHandler
	Tasks         *TaskHandler
	Challenges    *ChallengeHandler
	Today         *TodayHandler
	Settings      *SettingsHandler
	Sync          *SyncHandler
	Imports       *ImportHandler
}

type RouterConfig struct {
	AllowedOrigins []string
	CookieName     string
	Verifier       middleware.TokenVerifier
	Metrics        *middleware.Metrics
}

var registerTagNames sync.Once

// NewRouter builds the engine with middleware and every /api route.
func NewRouter(h Handlers, cfg RouterConfig, log *zap.Logger) *gin.Engine {
	registerTagNames.Do(useJSONFieldNames)

	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Recovery(log), middleware.Logger(log.Named("http")))
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware())
		r.GET("/metrics", cfg.Metrics.Handler())
	}
	r.Use(cors.New(corsConfig(cfg.AllowedOrigins)))

	api := r.Group("/api")
	api.GET("/health", Health)
	api.POST("/auth/session", h.Auth.Session)
	api.POST("/auth/signout", h.Auth.SignOut)

	authed := api.Group("")
	authed.Use(middleware.RequireUser(cfg.Verifier, cfg.CookieName, log))
	{
		authed.GET("/auth/me", h.Auth.Me)

		companies := authed.Group("/companies")
		companies.GET("", h.Companies.List)
		companies.POST("", h.Companies.Create)
		companies.GET("/:id", h.Companies.Get)
		companies.PATCH("/:id", h.Companies.Update)
		companies.DELETE("/:id", h.Companies.Delete)

		contacts := authed.Group("/contacts")
		contacts.GET("", h.Contacts.List)
		contacts.POST("", h.Contacts.Create)
		contacts.GET("/:id", h.Contacts.Get)
		contacts.PATCH("/:id", h.Contacts.Update)
		contacts.DELETE("/:id", h.Contacts.Delete)

		convs := authed.Group("/conversations")
		convs.GET("", h.Conversations.List)
		convs.POST("", h.Conversations.Create)
		convs.GET("/:id", h.Conversations.Get)
		convs.PATCH("/:id", h.Conversations.Update)
		convs.DELETE("/:id", h.Conversations.Delete)
		convs.GET("/:id/messages", h.Conversations.Messages)
		convs.POST("/:id/messages", h.Conversations.AddMessage)
		convs.POST("/:id/analyze", h.Conversations.Analyze)

		messages := authed.Group("/messages")
		messages.PATCH("/:id", h.Conversations.UpdateMessage)
		messages.POST("/:id/toggle", h.Conversations.ToggleMessage)
		messages.DELETE("/:id", h.Conversations.DeleteMessage)

		jobs := authed.Group("/job-postings")
		jobs.GET("", h.Jobs.List)
		jobs.POST("", h.Jobs.CreateJob)
		jobs.POST("/extract", h.Jobs.ParseJob)
		jobs.GET("/:id", h.Jobs.Get)
		jobs.PATCH("/:id", h.Jobs.Update)
		jobs.DELETE("/:id", h.Jobs.Delete)

		opps := authed.Group("/opportunities")
		opps.GET("", h.Opportunities.List)
		opps.POST("", h.Opportunities.Create)
		opps.GET("/:id", h.Opportunities.Get)
		opps.PATCH("/:id", h.Opportunities.Update)
		opps.DELETE("/:id", h.Opportunities.Delete)

		authed.GET("/pipeline", h.Pipeline.Board)
		authed.PATCH("/pipeline/:id", h.Pipeline.Move)

		stages := authed.Group("/stages")
		stages.GET("", h.Pipeline.ListStages)
		stages.POST("", h.Pipeline.CreateStage)
		stages.PATCH("/:id", h.Pipeline.UpdateStage)
		stages.DELETE("/:id", h.Pipeline.DeleteStage)

		categories := authed.Group("/categories")
		categories.GET("", h.Categories.List)
		categories.POST("", h.Categories.Create)
		categories.PATCH("/:id", h.Categories.Update)
		categories.DELETE("/:id", h.Categories.Delete)

		tasks := authed.Group("/tasks")
		tasks.GET("", h.Tasks.List)
		tasks.POST("", h.Tasks.Create)
		tasks.GET("/:id", h.Tasks.Get)
		tasks.PATCH("/:id", h.Tasks.Update)
		tasks.DELETE("/:id", h.Tasks.Delete)

		challenges := authed.Group("/challenges")
		challenges.GET("", h.Challenges.List)
		challenges.POST("", h.Challenges.Create)
		challenges.GET("/:id", h.Challenges.Get)
		challenges.PATCH("/:id", h.Challenges.Update)
		challenges.DELETE("/:id", h.Challenges.Delete)

		authed.GET("/today", h.Today.Get)
		authed.GET("/settings", h.Settings.Get)
		authed.PATCH("/settings", h.Settings.Update)
		authed.GET("/sync/status", h.Sync.Status)
		authed.POST("/sync/gmail", h.Sync.SyncGmail)
		authed.POST("/imports/linkedin", h.Imports.LinkedIn)
	}
	return r
}

// corsConfig allows credentials only for an explicit origin list; "*" cannot carry cookies.
func corsConfig(origins []string) cors.Config {
	config := cors.DefaultConfig()
	config.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "X-Request-ID"}
	config.AllowMethods = []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"}
	config.ExposeHeaders = []string{"X-Request-ID"}
	config.MaxAge = 12 * time.Hour
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		config.AllowAllOrigins = true
		return config
	}
	config.AllowOrigins = origins
	config.AllowCredentials = true
	return config
}

// useJSONFieldNames makes validation messages name fields as clients send them.
func useJSONFieldNames() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return f.Name
	})
}
