package http

import (
	"net/http"
	"time"

	"mcq-contest-service/internal/app"
	"mcq-contest-service/internal/auth"
	"mcq-contest-service/internal/metrics"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Deps are the collaborators the HTTP layer drives.
type Deps struct {
	Contests    *app.ContestService
	Attempts    *app.AttemptService
	Leaderboard *app.LeaderboardService
	Hub         *app.LeaderboardHub
	Users       app.UserDirectory
	Tokens      *auth.TokenIssuer
	Limiter     *RateLimiter
	Gatherer    prometheus.Gatherer
	Log         *zap.Logger
	Location    *time.Location
	Now         func() time.Time
}

// Server exposes the contest API over HTTP and websockets.
type Server struct {
	contests *app.ContestService
	attempts *app.AttemptService
	board    *app.LeaderboardService
	hub      *app.LeaderboardHub
	users    app.UserDirectory
	tokens   *auth.TokenIssuer
	limiter  *RateLimiter
	gatherer prometheus.Gatherer
	log      *zap.Logger
	loc      *time.Location
	now      func() time.Time
	upgrader websocket.Upgrader
}

func NewServer(d Deps) *Server {
	s := &Server{
		contests: d.Contests,
		attempts: d.Attempts,
		board:    d.Leaderboard,
		hub:      d.Hub,
		users:    d.Users,
		tokens:   d.Tokens,
		limiter:  d.Limiter,
		gatherer: d.Gatherer,
		log:      d.Log,
		loc:      d.Location,
		now:      d.Now,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if s.loc == nil {
		s.loc = time.UTC
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.gatherer == nil {
		s.gatherer = prometheus.DefaultGatherer
	}
	return s
}

// Handler builds the routing table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.Handle("GET /metrics", metrics.Handler(s.gatherer))

	mux.HandleFunc("GET /api/contests", s.authenticated(s.listContests))
	mux.HandleFunc("POST /api/contests", s.authenticated(s.limited(s.createContest)))
	mux.HandleFunc("GET /api/contests/{id}", s.authenticated(s.getContest))
	mux.HandleFunc("PUT /api/contests/{id}", s.authenticated(s.limited(s.updateContest)))
	mux.HandleFunc("DELETE /api/contests/{id}", s.authenticated(s.limited(s.deleteContest)))

	mux.HandleFunc("GET /api/contests/{id}/attempt", s.authenticated(s.limited(s.resolveAttempt)))
	mux.HandleFunc("POST /api/contests/{id}/attempt", s.authenticated(s.limited(s.submitAttempt)))
	mux.HandleFunc("GET /api/contests/{id}/attempt/status", s.authenticated(s.attemptStatus))

	mux.HandleFunc("GET /api/contests/{id}/leaderboard", s.authenticated(s.leaderboard))
	mux.HandleFunc("GET /ws/contests/{id}/leaderboard", s.authenticated(s.serveLeaderboardFeed))

	return s.observe(mux)
}
