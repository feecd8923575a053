package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ramonehamilton/manaforge/internal/api/handlers"
	"github.com/ramonehamilton/manaforge/internal/api/response"
	"github.com/ramonehamilton/manaforge/internal/version"
)

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	// Health check endpoint (no versioning)
	s.router.Get("/health", s.healthCheck)

	// WebSocket endpoint (no timeout, no JSON content-type requirement)
	s.router.Get("/ws", s.wsHub.ServeWs)

	// API v1 routes
	s.router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Timeout(s.requestTimeout))
		r.Use(jsonContentTypeMiddleware)

		r.Get("/formats", handlers.ListFormats)
		r.Get("/metrics", s.metricsSnapshot)

		deckHandler := handlers.NewDeckHandler(s.deps.Decks, s.deps.Cards, s.deps.Sessions, s.wsHub)
		stagingHandler := handlers.NewStagingHandler(s.deps.Sessions, s.deps.Decks, s.deps.Committer, s.wsHub)
		historyHandler := handlers.NewHistoryHandler(s.deps.Decks, s.deps.History, s.deps.Committer, s.wsHub)
		cardHandler := handlers.NewCardHandler(s.deps.Search, s.deps.Cards)
		collectionHandler := handlers.NewCollectionHandler(s.deps.Collections, s.deps.Decks, s.wsHub)

		r.Route("/cards", func(r chi.Router) {
			r.Get("/search", cardHandler.Search)
			r.Get("/{cardID}", cardHandler.GetCard)
		})

		r.Route("/decks", func(r chi.Router) {
			r.Get("/", deckHandler.ListDecks)
			r.Post("/", deckHandler.CreateDeck)
			r.Get("/{deckID}", deckHandler.GetDeck)
			r.Put("/{deckID}", deckHandler.UpdateDeck)
			r.Delete("/{deckID}", deckHandler.DeleteDeck)
			r.Get("/{deckID}/validate", deckHandler.ValidateDeck)
			r.Get("/{deckID}/stats", deckHandler.GetDeckStats)
			r.Post("/{deckID}/can-add", deckHandler.CanAddCard)

			// Staging session of the calling user
			r.Get("/{deckID}/staged", stagingHandler.GetStaged)
			r.Post("/{deckID}/staged", stagingHandler.Stage)
			r.Delete("/{deckID}/staged", stagingHandler.ClearStaged)
			r.Delete("/{deckID}/staged/{changeID}", stagingHandler.DiscardChange)
			r.Post("/{deckID}/commit", stagingHandler.Commit)

			r.Get("/{deckID}/history", historyHandler.ListHistory)

			if s.deps.Collections != nil {
				r.Get("/{deckID}/ownership", collectionHandler.DeckOwnership)
			}
		})

		if s.deps.Collections != nil {
			r.Route("/collections", func(r chi.Router) {
				r.Get("/", collectionHandler.ListCollections)
				r.Post("/", collectionHandler.CreateCollection)
				r.Get("/{collectionID}", collectionHandler.GetCollection)
				r.Put("/{collectionID}", collectionHandler.UpdateCollection)
				r.Delete("/{collectionID}", collectionHandler.DeleteCollection)
				r.Post("/{collectionID}/cards", collectionHandler.AddCard)
				r.Put("/{collectionID}/cards/{entryID}", collectionHandler.UpdateCard)
				r.Delete("/{collectionID}/cards/{entryID}", collectionHandler.RemoveCard)
			})
		}

		r.Post("/history/{historyID}/revert", historyHandler.Revert)
	})
}

// healthCheck returns server health status.
func (s *Server) healthCheck(w http.ResponseWriter, _ *http.Request) {
	response.JSON(w, http.StatusOK, map[string]any{
		"status":   "healthy",
		"service":  "manaforge-api",
		"version":  version.GetVersion(),
		"sessions": s.deps.Sessions.Len(),
		"clients":  s.wsHub.ClientCount(),
	})
}

// metricsSnapshot returns commit and card lookup counters.
func (s *Server) metricsSnapshot(w http.ResponseWriter, _ *http.Request) {
	response.Success(w, s.deps.Metrics.Snapshot())
}
