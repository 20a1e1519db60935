package routes

import (
	"github.com/Dosada05/tournament-live/handlers"
	"github.com/Dosada05/tournament-live/middleware"
	"github.com/Dosada05/tournament-live/models"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
)

// SetupRoutes собирает маршрутизатор. Публичная часть — опубликованный
// таймлайн и live-канал; всё остальное требует токена, а управление
// расписанием и overrides — роли организатора или админа.
func SetupRoutes(
	router *chi.Mux,
	auth *middleware.Authenticator,
	scheduleHandler *handlers.ScheduleHandler,
	gameHandler *handlers.GameHandler,
	timelineHandler *handlers.TimelineHandler,
	auditHandler *handlers.AuditHandler,
	wsHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Handle("/metrics", promhttp.Handler())
	router.Get("/swagger/*", httpSwagger.WrapHandler)

	// Публичные маршруты
	router.Get("/events/{eventID}/timeline", timelineHandler.Public)
	router.Get("/ws/events/{eventID}", wsHandler.ServeWS)

	// Игровые переходы: участники подтверждают и оспаривают счёт сами.
	router.Group(func(r chi.Router) {
		r.Use(auth.Authenticate)

		r.Post("/games/{gameID}/score", gameHandler.SubmitScore)
		r.Post("/games/{gameID}/verify", gameHandler.VerifyScore)
	})

	// Организаторские маршруты
	router.Group(func(r chi.Router) {
		r.Use(auth.Authenticate)
		r.Use(middleware.RequireRole(string(models.RoleOrganizer), string(models.RoleAdmin)))

		r.Get("/events/{eventID}/timeline/draft", timelineHandler.Organizer)
		r.Post("/events/{eventID}/schedule/assignments", scheduleHandler.BulkAssign)
		r.Get("/events/{eventID}/schedule/validate", scheduleHandler.ValidationReport)
		r.Post("/events/{eventID}/schedule/validate", scheduleHandler.Validate)
		r.Post("/events/{eventID}/schedule/publish", scheduleHandler.Publish)
		r.Delete("/events/{eventID}/schedule/publish", scheduleHandler.Unpublish)

		r.Put("/divisions/{divisionID}/court-groups", scheduleHandler.ReplaceBindings)
		r.Post("/divisions/{divisionID}/schedule/auto-assign", scheduleHandler.AutoAssign)
		r.Delete("/divisions/{divisionID}/schedule/assignments", scheduleHandler.ClearAssignments)

		r.Post("/encounters/{encounterID}/queue", gameHandler.Queue)
		r.Post("/encounters/{encounterID}/start", gameHandler.Start)
		r.Post("/games/{gameID}/override", gameHandler.Override)
		r.Get("/games/{gameID}/history", auditHandler.History)
		r.Post("/games/{gameID}/history/export", auditHandler.Export)
	})
}
