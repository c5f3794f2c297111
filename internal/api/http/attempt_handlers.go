package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/studyhall/studyhall-lms/internal/attempt"
	auth "github.com/studyhall/studyhall-lms/internal/auth/middleware"
	"github.com/studyhall/studyhall-lms/internal/store"
)

func StartAttemptHandler(m *attempt.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			QuizID    string `json:"quiz_id"`
			LearnerID string `json:"learner_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", 400)
			return
		}
		if req.LearnerID == "" {
			req.LearnerID = auth.SubjectFromContext(r.Context())
		}
		if req.QuizID == "" || req.LearnerID == "" {
			http.Error(w, "quiz_id and learner_id required", 400)
			return
		}
		s, err := m.Start(r.Context(), req.QuizID, req.LearnerID)
		if err != nil {
			http.Error(w, err.Error(), 400)
			return
		}
		_ = json.NewEncoder(w).Encode(s.Attempt())
	}
}

func CurrentQuestionHandler(m *attempt.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := m.Session(chi.URLParam(r, "attemptID"))
		if err != nil {
			http.Error(w, err.Error(), 404)
			return
		}
		q, saved, err := s.CurrentQuestion()
		if err != nil {
			http.Error(w, err.Error(), 409)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"question":     q,
			"saved_answer": saved,
		})
	}
}

func SubmitAnswerHandler(m *attempt.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := m.Session(chi.URLParam(r, "attemptID"))
		if err != nil {
			http.Error(w, err.Error(), 404)
			return
		}
		var req struct {
			Answer []string `json:"answer"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", 400)
			return
		}
		if err := s.SubmitAnswer(req.Answer); err != nil {
			http.Error(w, err.Error(), 409)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func AdvanceHandler(m *attempt.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := m.Session(chi.URLParam(r, "attemptID"))
		if err != nil {
			http.Error(w, err.Error(), 404)
			return
		}
		var req struct {
			Direction attempt.Direction `json:"direction"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", 400)
			return
		}
		if err := s.Advance(req.Direction); err != nil {
			http.Error(w, err.Error(), 409)
			return
		}
		q, saved, err := s.CurrentQuestion()
		if err != nil {
			http.Error(w, err.Error(), 409)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"question":     q,
			"saved_answer": saved,
		})
	}
}

func FinalizeAttemptHandler(m *attempt.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := m.Finalize(r.Context(), chi.URLParam(r, "attemptID"))
		if err != nil {
			http.Error(w, err.Error(), 409)
			return
		}
		_ = json.NewEncoder(w).Encode(out)
	}
}

func RemainingTimeHandler(m *attempt.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := m.Session(chi.URLParam(r, "attemptID"))
		if err != nil {
			http.Error(w, err.Error(), 404)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]int{
			"remaining_seconds": s.RemainingSeconds(),
		})
	}
}

// ListMyAttemptsHandler returns the caller's finalized attempts.
func ListMyAttemptsHandler(gw *store.Gateway) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		learnerID := auth.SubjectFromContext(r.Context())
		if learnerID == "" {
			http.Error(w, "unauthenticated", 401)
			return
		}
		attempts, err := gw.ListAttemptsByLearner(r.Context(), learnerID)
		if err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		_ = json.NewEncoder(w).Encode(attempts)
	}
}
