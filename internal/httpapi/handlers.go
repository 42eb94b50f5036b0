package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/wordduel/wordduel-backend/internal/lobby"
	"github.com/wordduel/wordduel-backend/internal/registry"
	"github.com/wordduel/wordduel-backend/internal/words"
)

type createLobbyRequest struct {
	Words []words.Pair `json:"words"`
	Mode  string       `json:"mode"`
}

type createLobbyResponse struct {
	Code      string `json:"code"`
	TimeLimit int    `json:"timeLimit"`
}

// CreateLobby pre-creates a lobby over REST so a client can show the code
// before opening its websocket. The creator still claims the host seat by
// joining over the socket.
func CreateLobby(reg *registry.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createLobbyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}

		timeLimit := lobby.TimeLimitForMode(req.Mode)
		code, _, err := reg.Create(words.NewQueue(req.Words), timeLimit)
		if err != nil {
			http.Error(w, "failed to create lobby", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(createLobbyResponse{Code: code, TimeLimit: timeLimit})
	}
}

// GetLobby is the existence probe join pages use before connecting.
func GetLobby(reg *registry.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "code")
		lb := reg.Lookup(code)
		if lb == nil {
			http.Error(w, "lobby not found", http.StatusNotFound)
			return
		}

		v := lb.View()
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(struct {
			Code    string `json:"code"`
			State   string `json:"state"`
			Players int    `json:"players"`
		}{Code: lb.Code(), State: string(v.State), Players: len(v.Players)})
	}
}

// LobbyQR renders a PNG QR code of the join link for sharing across the
// table.
func LobbyQR(reg *registry.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "code")
		if reg.Lookup(code) == nil {
			http.Error(w, "lobby not found", http.StatusNotFound)
			return
		}

		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		joinURL := fmt.Sprintf("%s://%s/join?code=%s", scheme, r.Host, code)

		png, err := qrcode.Encode(joinURL, qrcode.Medium, 256)
		if err != nil {
			http.Error(w, "failed to render qr code", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(png)
	}
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
