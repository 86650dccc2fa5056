package router

import (
	"net/http"
	"strings"

	chatHandler "chatstate/internal/chat"
	"chatstate/internal/chat/service"
	"chatstate/middleware"
	"chatstate/socket"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type Options struct {
	JWTSecret     string
	DefaultUserID string
	CORSOrigin    string // comma separated, "*" allows any origin
}

func Setup(svc *service.ChatService, hub *socket.Hub, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.StripSlashes)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: strings.Split(opts.CORSOrigin, ","),
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	auth := middleware.AuthMiddleware(opts.JWTSecret, opts.DefaultUserID)
	h := chatHandler.NewChatHandler(svc)

	// WebSocket
	r.With(auth).Get("/ws", func(w http.ResponseWriter, r *http.Request) {
		socket.ServeWs(hub, w, r, middleware.UserID(r.Context()))
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"status":"ok"}`))
		})

		r.Group(func(r chi.Router) {
			r.Use(auth)

			r.Post("/chat", h.PostChat)
			r.Delete("/chat", h.DeleteChat)
			r.Get("/chat/{id}/messages", h.GetMessages)
			r.Put("/chat/{id}/messages", h.SaveMessages)
			r.Patch("/chat/{id}/visibility", h.UpdateVisibility)
			r.Patch("/chat/{id}/context", h.UpdateContext)
			r.Get("/chat/{id}/stream", h.ResumeStream)
			r.Get("/chat/{id}/streams", h.GetStreams)

			r.Delete("/messages/{id}/trailing", h.DeleteTrailingMessages)

			r.Get("/history", h.GetHistory)
			r.Delete("/history", h.DeleteHistory)

			r.Get("/vote", h.GetVotes)
			r.Patch("/vote", h.Vote)

			r.Get("/document", h.GetDocuments)
			r.Post("/document", h.SaveDocument)
			r.Delete("/document", h.DeleteDocuments)

			r.Get("/suggestions", h.GetSuggestions)
			r.Post("/suggestions", h.SaveSuggestions)
		})
	})

	return r
}
