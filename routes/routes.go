package routes

import (
	"github.com/Dosada05/prediction-league/handlers"
	"github.com/Dosada05/prediction-league/middleware"
	"github.com/Dosada05/prediction-league/models"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Handlers struct {
	Auth       *handlers.AuthHandler
	User       *handlers.UserHandler
	Team       *handlers.TeamHandler
	Tournament *handlers.TournamentHandler
	Match      *handlers.MatchHandler
	League     *handlers.LeagueHandler
	Prediction *handlers.PredictionHandler
	Bonus      *handlers.BonusHandler
	WebSocket  *handlers.WebSocketHandler
}

func SetupRoutes(router *chi.Mux, h Handlers, jwtSecret string) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Get("/swagger/*", httpSwagger.Handler())

	router.Post("/auth/register", h.Auth.Register)
	router.Post("/auth/login", h.Auth.Login)

	// Лента событий турнира доступна без авторизации.
	router.Get("/ws/tournaments/{tournamentID}", h.WebSocket.ServeWs)

	router.Route("/teams", func(r chi.Router) {
		r.Get("/", h.Team.List)
		r.Get("/{teamID}", h.Team.GetByID)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(jwtSecret))
			r.Use(middleware.Authorize(models.RoleAdmin))

			r.Post("/", h.Team.Create)
			r.Put("/{teamID}", h.Team.Update)
			r.Post("/{teamID}/crest", h.Team.UploadCrest)
			r.Delete("/{teamID}", h.Team.Delete)
		})
	})

	router.Route("/tournaments", func(r chi.Router) {
		r.Get("/", h.Tournament.List)
		r.Get("/{tournamentID}", h.Tournament.GetByID)
		r.Get("/{tournamentID}/matches", h.Match.ListByTournament)
		r.Get("/{tournamentID}/bonus-questions", h.Bonus.ListQuestionsByTournament)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(jwtSecret))
			r.Use(middleware.Authorize(models.RoleAdmin))

			r.Post("/", h.Tournament.Create)
			r.Put("/{tournamentID}", h.Tournament.Update)
			r.Delete("/{tournamentID}", h.Tournament.Delete)
			r.Post("/{tournamentID}/recalculate", h.League.RecalculateTournamentStandings)
		})
	})

	router.Route("/matches", func(r chi.Router) {
		r.Get("/{matchID}", h.Match.GetByID)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(jwtSecret))

			r.Get("/{matchID}/predictions", h.Prediction.ListForMatch)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(jwtSecret))
			r.Use(middleware.Authorize(models.RoleAdmin))

			r.Post("/", h.Match.Create)
			r.Patch("/{matchID}/status", h.Match.UpdateStatus)
			r.Post("/{matchID}/result", h.Match.FinalizeResult)
			r.Delete("/{matchID}", h.Match.Delete)
		})
	})

	router.Route("/bonus-questions", func(r chi.Router) {
		r.Get("/{questionID}", h.Bonus.GetQuestionByID)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(jwtSecret))
			r.Use(middleware.Authorize(models.RoleAdmin))

			r.Post("/", h.Bonus.CreateQuestion)
			r.Post("/{questionID}/resolve", h.Bonus.ResolveQuestion)
		})
	})

	router.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(jwtSecret))

		r.Route("/users/me", func(r chi.Router) {
			r.Get("/", h.User.GetMe)
			r.Put("/", h.User.UpdateMe)
			r.Post("/avatar", h.User.UploadAvatar)
		})

		r.Route("/leagues", func(r chi.Router) {
			r.Post("/", h.League.Create)
			r.Get("/", h.League.ListMine)
			r.Post("/join", h.League.Join)
			r.Get("/{leagueID}", h.League.GetByID)
			r.Delete("/{leagueID}/membership", h.League.Leave)
			r.Get("/{leagueID}/members", h.League.ListMembers)
			r.Post("/{leagueID}/invitations", h.League.Invite)
			r.Post("/{leagueID}/logo", h.League.UploadLogo)
			r.Get("/{leagueID}/settings", h.League.GetSettings)
			r.Put("/{leagueID}/settings", h.League.UpdateSettings)
			r.Get("/{leagueID}/standings", h.League.GetStandings)
			r.Get("/{leagueID}/predictions", h.Prediction.ListMine)

			r.Group(func(r chi.Router) {
				r.Use(middleware.Authorize(models.RoleAdmin))

				r.Post("/{leagueID}/recalculate", h.League.RecalculateStandings)
				r.Post("/{leagueID}/reranks", h.League.RecalculateRanks)
			})
		})

		r.Post("/predictions", h.Prediction.Submit)
		r.Post("/bonus-predictions", h.Bonus.SubmitPrediction)
	})
}
