package http

import (
	"encoding/json"
	"net/http"

	"mcq-contest-service/internal/app"
	"mcq-contest-service/internal/domain"
)

const maxBodyBytes = 1 << 20

// listContests serves the dashboard matching the caller's role.
func (s *Server) listContests(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFrom(r.Context())
	if identity.Role == domain.RoleAdmin {
		dash, err := s.contests.AdminDashboard(r.Context(), identity)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		for i := range dash.Contests {
			dash.Contests[i].Contest = localize(dash.Contests[i].Contest, s.loc)
		}
		writeJSON(w, http.StatusOK, dash)
		return
	}

	dash, err := s.contests.StudentDashboard(r.Context(), identity)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	localizeRows(dash.Ongoing, s)
	localizeRows(dash.Upcoming, s)
	writeJSON(w, http.StatusOK, dash)
}

func localizeRows(rows []app.StudentContest, s *Server) {
	for i := range rows {
		rows[i].Contest = localize(rows[i].Contest, s.loc)
	}
}

func (s *Server) createContest(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFrom(r.Context())
	in, ok := decodeContest(w, r)
	if !ok {
		return
	}
	created, err := s.contests.Create(r.Context(), identity, in.toContest())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, localize(created, s.loc))
}

func (s *Server) getContest(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFrom(r.Context())
	if identity.Role != domain.RoleAdmin {
		s.writeError(w, r, domain.ErrForbidden)
		return
	}
	contest, err := s.contests.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, localize(contest, s.loc))
}

func (s *Server) updateContest(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFrom(r.Context())
	in, ok := decodeContest(w, r)
	if !ok {
		return
	}
	updated, err := s.contests.Update(r.Context(), identity, r.PathValue("id"), in.toContest())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, localize(updated, s.loc))
}

func (s *Server) deleteContest(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFrom(r.Context())
	if err := s.contests.Delete(r.Context(), identity, r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type leaderboardResponse struct {
	domain.Leaderboard
	Status   domain.ContestStatus `json:"status"`
	MaxScore int                  `json:"maxScore"`
}

func (s *Server) leaderboard(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFrom(r.Context())
	if identity.Role != domain.RoleAdmin {
		s.writeError(w, r, domain.ErrForbidden)
		return
	}
	contestID := r.PathValue("id")
	contest, err := s.contests.Get(r.Context(), contestID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	lb, err := s.board.BuildLeaderboard(r.Context(), contestID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	lb.UpdatedAt = lb.UpdatedAt.In(s.loc)
	writeJSON(w, http.StatusOK, leaderboardResponse{
		Leaderboard: lb,
		Status:      contest.Status(s.now()),
		MaxScore:    contest.MaxScore(),
	})
}

func decodeContest(w http.ResponseWriter, r *http.Request) (contestInput, bool) {
	var in contestInput
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&in); err != nil {
		writeBadRequest(w, "invalid contest payload")
		return contestInput{}, false
	}
	return in, true
}
