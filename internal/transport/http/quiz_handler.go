package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"quizhub-service/internal/app"
)

type QuizHandler struct {
	service *app.QuizService
	errs    errorResponder
}

func NewQuizHandler(service *app.QuizService, errs errorResponder) *QuizHandler {
	return &QuizHandler{service: service, errs: errs}
}

func (h *QuizHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createQuizRequest
	if err := decodeBody(r, &req); err != nil {
		h.errs.write(w, r, err)
		return
	}
	quiz, err := h.service.CreateQuiz(r.Context(), requesterFrom(r.Context()), req.toInput())
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, quiz)
}

func (h *QuizHandler) List(w http.ResponseWriter, r *http.Request) {
	quizzes, err := h.service.ListQuizzes(r.Context(), requesterFrom(r.Context()))
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	writeList(w, toQuizList(quizzes), len(quizzes))
}

func (h *QuizHandler) Get(w http.ResponseWriter, r *http.Request) {
	detail, err := h.service.GetQuiz(r.Context(), requesterFrom(r.Context()), chi.URLParam(r, "quizId"))
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	writeData(w, http.StatusOK, quizDetailView{Quiz: detail.Quiz, Questions: toQuestionViews(detail.Questions)})
}

func (h *QuizHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateQuizRequest
	if err := decodeBody(r, &req); err != nil {
		h.errs.write(w, r, err)
		return
	}
	quiz, err := h.service.UpdateQuiz(r.Context(), requesterFrom(r.Context()), chi.URLParam(r, "quizId"), req.toPatch())
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	writeData(w, http.StatusOK, quiz)
}

func (h *QuizHandler) Publish(w http.ResponseWriter, r *http.Request) {
	quiz, err := h.service.PublishQuiz(r.Context(), requesterFrom(r.Context()), chi.URLParam(r, "quizId"))
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	writeData(w, http.StatusOK, quiz)
}

func (h *QuizHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteQuiz(r.Context(), requesterFrom(r.Context()), chi.URLParam(r, "quizId")); err != nil {
		h.errs.write(w, r, err)
		return
	}
	writeData(w, http.StatusOK, struct{}{})
}
