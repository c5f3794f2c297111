package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	auth "github.com/studyhall/studyhall-lms/internal/auth/middleware"
	"github.com/studyhall/studyhall-lms/internal/generate"
	"github.com/studyhall/studyhall-lms/internal/quiz"
	"github.com/studyhall/studyhall-lms/internal/store"
)

// GenerateQuizHandler produces an unpublished draft. Generation never blocks
// on storage: the draft is returned to the author to review, edit, or discard.
func GenerateQuizHandler(svc *generate.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req generate.GenerateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", 400)
			return
		}
		if req.Topic == "" {
			http.Error(w, "topic required", 400)
			return
		}
		if req.AuthorID == "" {
			req.AuthorID = auth.SubjectFromContext(r.Context())
		}
		z, err := svc.GenerateQuiz(r.Context(), req)
		if err != nil {
			http.Error(w, err.Error(), 422)
			return
		}
		_ = json.NewEncoder(w).Encode(z)
	}
}

// PublishQuizHandler commits a draft. Partial persistence is reported in the
// result warnings, not hidden behind an error.
func PublishQuizHandler(gw *store.Gateway) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var z quiz.Quiz
		if err := json.NewDecoder(r.Body).Decode(&z); err != nil {
			http.Error(w, "bad json", 400)
			return
		}
		if z.ID == "" || z.CourseID == "" {
			http.Error(w, "id and course_id required", 400)
			return
		}
		if z.AuthorID == "" {
			z.AuthorID = auth.SubjectFromContext(r.Context())
		}
		res, err := gw.PublishQuiz(r.Context(), &z)
		if err != nil {
			http.Error(w, err.Error(), 422)
			return
		}
		_ = json.NewEncoder(w).Encode(res)
	}
}

// GetQuizHandler serves a stored quiz. Learners get an answer-key-stripped
// view; the author and teachers see the full document.
func GetQuizHandler(gw *store.Gateway) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "quizID")
		z, err := gw.GetQuiz(r.Context(), id)
		if err != nil {
			http.Error(w, err.Error(), 404)
			return
		}
		role := auth.RoleFromContext(r.Context())
		if role == "teacher" || auth.SubjectFromContext(r.Context()) == z.AuthorID {
			_ = json.NewEncoder(w).Encode(z)
			return
		}
		safe := z.StripAnswers()
		_ = json.NewEncoder(w).Encode(&safe)
	}
}
