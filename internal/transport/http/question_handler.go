package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"quizhub-service/internal/app"
)

type QuestionHandler struct {
	service *app.QuizService
	errs    errorResponder
}

func NewQuestionHandler(service *app.QuizService, errs errorResponder) *QuestionHandler {
	return &QuestionHandler{service: service, errs: errs}
}

func (h *QuestionHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req createQuestionRequest
	if err := decodeBody(r, &req); err != nil {
		h.errs.write(w, r, err)
		return
	}
	question, err := h.service.AddQuestion(r.Context(), requesterFrom(r.Context()), chi.URLParam(r, "quizId"), req.toInput())
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, toQuestionView(question))
}

func (h *QuestionHandler) List(w http.ResponseWriter, r *http.Request) {
	questions, err := h.service.ListQuestions(r.Context(), requesterFrom(r.Context()), chi.URLParam(r, "quizId"))
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	writeList(w, toQuestionViews(questions), len(questions))
}

func (h *QuestionHandler) Get(w http.ResponseWriter, r *http.Request) {
	question, err := h.service.GetQuestion(r.Context(), requesterFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	writeData(w, http.StatusOK, toQuestionView(question))
}

func (h *QuestionHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateQuestionRequest
	if err := decodeBody(r, &req); err != nil {
		h.errs.write(w, r, err)
		return
	}
	question, err := h.service.UpdateQuestion(r.Context(), requesterFrom(r.Context()), chi.URLParam(r, "id"), req.toPatch())
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	writeData(w, http.StatusOK, toQuestionView(question))
}

func (h *QuestionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteQuestion(r.Context(), requesterFrom(r.Context()), chi.URLParam(r, "id")); err != nil {
		h.errs.write(w, r, err)
		return
	}
	writeData(w, http.StatusOK, struct{}{})
}
