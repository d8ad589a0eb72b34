package routes

import (
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/ligadmin/league-system/handlers"
	"github.com/ligadmin/league-system/middleware"
	"github.com/ligadmin/league-system/models"
	httpSwagger "github.com/swaggo/http-swagger"
)

// SetupRoutes mounts the fixture API. Reads are public; everything that
// generates fixtures or records results requires an admin token.
func SetupRoutes(
	router *chi.Mux,
	jwtSecret []byte,
	fixtureHandler *handlers.FixtureHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Get("/swagger/*", httpSwagger.WrapHandler)

	router.Route("/competitions", func(r chi.Router) {
		r.Get("/{competitionID}/matches", fixtureHandler.ListCompetitionMatchesHandler)
		r.Get("/{competitionID}/bracket", fixtureHandler.GetKnockoutBracketHandler)
		r.Get("/{competitionID}/overview", fixtureHandler.GetCompetitionOverviewHandler)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(jwtSecret))
			r.Use(middleware.RequireRole(models.RoleAdmin))

			r.Post("/{competitionID}/fixtures/league", fixtureHandler.CreateLeagueFixtureHandler)
			r.Post("/{competitionID}/fixtures/groups", fixtureHandler.CreateGroupStageHandler)
			r.Post("/{competitionID}/fixtures/knockout", fixtureHandler.CreateKnockoutHandler)
		})
	})

	router.Route("/matches", func(r chi.Router) {
		r.Get("/{matchID}", fixtureHandler.GetMatchHandler)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(jwtSecret))
			r.Use(middleware.RequireRole(models.RoleAdmin, models.RoleStaff))

			r.Post("/{matchID}/result", fixtureHandler.FinishMatchHandler)
		})
	})

	router.Get("/ws/competitions/{competitionID}", webSocketHandler.ServeWs)
}
