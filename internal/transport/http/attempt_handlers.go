package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"mcq-contest-service/internal/domain"
)

type statusResponse struct {
	State   domain.AttemptState `json:"state"`
	Attempt *attemptView        `json:"attempt,omitempty"`
}

// resolveAttempt starts or resumes the caller's attempt and returns the
// contest without its answers.
func (s *Server) resolveAttempt(w http.ResponseWriter, r *http.Request) {
	student, ok := s.requireStudent(w, r)
	if !ok {
		return
	}
	attempt, contest, err := s.attempts.Resolve(r.Context(), r.PathValue("id"), student.ID)
	if err != nil {
		s.writeErrorWith(w, r, err, newAttemptView(attempt, contest, s.now(), s.loc))
		return
	}
	writeJSON(w, http.StatusOK, attemptResponse{
		Attempt: newAttemptView(attempt, contest, s.now(), s.loc),
		Contest: localize(contest.PublicView(), s.loc),
	})
}

func (s *Server) submitAttempt(w http.ResponseWriter, r *http.Request) {
	student, ok := s.requireStudent(w, r)
	if !ok {
		return
	}
	var in submitInput
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&in); err != nil {
		writeBadRequest(w, "invalid submission payload")
		return
	}

	contestID := r.PathValue("id")
	attempt, err := s.attempts.Submit(r.Context(), contestID, student.ID, in.Answers)
	if err != nil {
		s.writeErrorWith(w, r, err, s.viewFor(r, attempt, contestID))
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{
		State:   attempt.State(),
		Attempt: s.viewFor(r, attempt, contestID),
	})
}

// attemptStatus checks the time budget of the caller's attempt.
func (s *Server) attemptStatus(w http.ResponseWriter, r *http.Request) {
	student, ok := s.requireStudent(w, r)
	if !ok {
		return
	}
	attempt, contest, err := s.attempts.Check(r.Context(), r.PathValue("id"), student.ID)
	switch {
	case errors.Is(err, domain.ErrAttemptNotFound):
		writeJSON(w, http.StatusOK, statusResponse{State: domain.AttemptNone})
		return
	case err != nil:
		s.writeErrorWith(w, r, err, newAttemptView(attempt, contest, s.now(), s.loc))
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{
		State:   attempt.State(),
		Attempt: newAttemptView(attempt, contest, s.now(), s.loc),
	})
}

func (s *Server) requireStudent(w http.ResponseWriter, r *http.Request) (domain.Identity, bool) {
	identity, _ := identityFrom(r.Context())
	if identity.Role != domain.RoleStudent {
		s.writeError(w, r, domain.ErrForbidden)
		return domain.Identity{}, false
	}
	return identity, true
}

// viewFor renders attempt against its contest; Submit does not hand the
// contest back, so it is looked up again when needed.
func (s *Server) viewFor(r *http.Request, attempt domain.Attempt, contestID string) *attemptView {
	if attempt.ID == "" {
		return nil
	}
	contest, err := s.contests.Get(r.Context(), contestID)
	if err != nil {
		return nil
	}
	return newAttemptView(attempt, contest, s.now(), s.loc)
}
