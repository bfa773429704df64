package server

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"babysitter/internal/metrics"
	"babysitter/internal/models"
)

const (
	livePushInterval = 60 * time.Second
	liveWriteTimeout = 5 * time.Second
)

var liveUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		host := strings.ToLower(strings.TrimSpace(r.Host))
		originHost := strings.ToLower(strings.TrimSpace(u.Host))
		return host == originHost
	},
}

type liveSnapshot struct {
	GeneratedAt time.Time              `json:"generated_at"`
	Latest      *models.CycleRecord    `json:"latest,omitempty"`
	Uptime      []metrics.TargetUptime `json:"uptime"`
}

func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	conn, err := liveUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.serveLiveConnection(conn)
}

func (s *Server) serveLiveConnection(conn *websocket.Conn) {
	defer conn.Close()

	if err := writeLivePayload(conn, s.buildLiveSnapshot()); err != nil {
		return
	}

	ticker := time.NewTicker(livePushInterval)
	defer ticker.Stop()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-ticker.C:
			if err := writeLivePayload(conn, s.buildLiveSnapshot()); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

func (s *Server) buildLiveSnapshot() liveSnapshot {
	snapshot := liveSnapshot{
		GeneratedAt: time.Now().UTC(),
		Uptime:      metrics.ComputeTargetUptime(s.storage.HistoryN(s.historyLimit)),
	}
	if latest, ok := s.storage.Latest(); ok {
		snapshot.Latest = &latest
	}
	return snapshot
}

func writeLivePayload(conn *websocket.Conn, payload liveSnapshot) error {
	_ = conn.SetWriteDeadline(time.Now().Add(liveWriteTimeout))
	return conn.WriteJSON(payload)
}
