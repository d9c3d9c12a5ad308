package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"quizhub-service/internal/app"
)

type SubmissionHandler struct {
	service *app.SubmissionService
	errs    errorResponder
}

func NewSubmissionHandler(service *app.SubmissionService, errs errorResponder) *SubmissionHandler {
	return &SubmissionHandler{service: service, errs: errs}
}

func (h *SubmissionHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := decodeBody(r, &req); err != nil {
		h.errs.write(w, r, err)
		return
	}
	in, err := req.toInput()
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	result, err := h.service.Submit(r.Context(), requesterFrom(r.Context()), chi.URLParam(r, "quizId"), in)
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, result)
}

func (h *SubmissionHandler) Results(w http.ResponseWriter, r *http.Request) {
	results, err := h.service.Results(r.Context(), requesterFrom(r.Context()), chi.URLParam(r, "quizId"))
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	writeData(w, http.StatusOK, results)
}

func (h *SubmissionHandler) Mine(w http.ResponseWriter, r *http.Request) {
	submissions, err := h.service.MySubmissions(r.Context(), requesterFrom(r.Context()))
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	writeList(w, submissions, len(submissions))
}
