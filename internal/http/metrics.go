package httpapi

import (
	"net/http"

	"indorunners-backend-go/internal/apperr"
	"indorunners-backend-go/internal/services"

	"github.com/gorilla/websocket"
)

const maxMetricsHistory = 500

type MetricsHistoryResponse struct {
	Items []services.MetricSample `json:"items"`
}

func (s *Server) MetricsHistory(w http.ResponseWriter, r *http.Request) {
	limit := parseInt(r.URL.Query().Get("limit"), 120)
	if limit > maxMetricsHistory {
		limit = maxMetricsHistory
	}
	items, err := services.LatestMetrics(r.Context(), s.Store, limit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, MetricsHistoryResponse{Items: items})
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// MetricsSocket streams live samples to admins. Browsers cannot set headers
// on a websocket handshake so the access token rides in the query string.
func (s *Server) MetricsSocket(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("token")
	if raw == "" {
		raw, _ = bearerToken(r)
	}
	if raw == "" {
		unauthorized(w)
		return
	}
	caller, err := s.Tokens.CallerFromAccessToken(raw)
	if err != nil {
		unauthorized(w)
		return
	}
	if !caller.IsAdmin() {
		s.fail(w, r, apperr.ErrForbidden)
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.MetricsHub.Add(conn)
	defer func() {
		s.MetricsHub.Remove(conn)
		_ = conn.Close()
	}()
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}
