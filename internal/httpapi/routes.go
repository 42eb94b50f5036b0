package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/wordduel/wordduel-backend/internal/registry"
	"github.com/wordduel/wordduel-backend/internal/ws"
)

func SetupRoutes(reg *registry.Registry, log *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Post("/lobbies", CreateLobby(reg))
	r.Get("/lobbies/{code}", GetLobby(reg))
	r.Get("/lobbies/{code}/qr", LobbyQR(reg))
	r.Get("/healthz", Healthz)
	r.Get("/ws", ws.Handler(reg, log.Named("ws")))

	return r
}
