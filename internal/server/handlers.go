package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/retropress/retropress/internal/content"
	"github.com/retropress/retropress/internal/orchestrator"
	"github.com/retropress/retropress/internal/render"
	"github.com/retropress/retropress/pkg/models"
)

type textStageRequest struct {
	Date            string                  `json:"date"`
	Style           string                  `json:"style,omitempty"`
	Personalization *models.Personalization `json:"personalization,omitempty"`
}

type textStageResponse struct {
	Session models.SessionSnapshot `json:"session"`
	Bundle  *models.ArticleBundle  `json:"bundle"`
}

type imageSlotView struct {
	Present bool   `json:"present"`
	URI     string `json:"uri,omitempty"`
}

type imageStageResponse struct {
	Session models.SessionSnapshot `json:"session"`
	Images  []imageSlotView        `json:"images"`
}

type errorResponse struct {
	Error         string `json:"error"`
	MissingImages int    `json:"missing_images,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handlePricing(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{"tiers": s.pricing.Tiers()})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.orch.Snapshot())
}

func (s *Server) handleTextStage(w http.ResponseWriter, r *http.Request) {
	var req textStageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, &orchestrator.ValidationError{Field: "body", Reason: "invalid json"})
		return
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		s.writeError(w, &orchestrator.ValidationError{
			Field:  "date",
			Reason: fmt.Sprintf("%q is not a valid date, use YYYY-MM-DD", req.Date),
		})
		return
	}

	var style models.Style
	if req.Style != "" {
		style, err = models.ParseStyle(req.Style)
		if err != nil {
			s.writeError(w, &orchestrator.ValidationError{Field: "style", Reason: err.Error()})
			return
		}
	}

	snap, err := s.orch.StartTextStage(r.Context(), orchestrator.TextRequest{
		Date:            date,
		Style:           style,
		Personalization: req.Personalization,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	bundle, _ := s.orch.Bundle()
	s.writeJSON(w, http.StatusOK, textStageResponse{Session: snap, Bundle: bundle})
}

func (s *Server) handleImageStage(w http.ResponseWriter, r *http.Request) {
	snap, err := s.orch.StartImageStage(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, imageStageResponse{Session: snap, Images: s.slotViews()})
}

func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request) {
	doc, _, err := s.orch.RenderDocument(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}

	filename := "retropress.pdf"
	if bundle, ok := s.orch.Bundle(); ok {
		filename = render.Filename(bundle)
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(doc); err != nil {
		s.logger.Error("Failed to write document response", "error", err)
	}
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.orch.Reset())
}

func (s *Server) slotViews() []imageSlotView {
	images, ok := s.orch.Images()
	if !ok {
		return nil
	}
	views := make([]imageSlotView, images.SlotCount())
	for i := range views {
		slot := images.Slot(i)
		views[i] = imageSlotView{Present: slot.Present, URI: slot.URI}
	}
	return views
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("Failed to encode response", "error", err)
	}
}

// writeError maps pipeline errors onto HTTP status codes.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var (
		validationErr *orchestrator.ValidationError
		stateErr      *orchestrator.StateError
		paymentErr    *orchestrator.PaymentRequiredError
		partialErr    *orchestrator.PartialFailureError
		generationErr *orchestrator.GenerationError
		providerErr   *content.ProviderError
		renderErr     *orchestrator.RenderError
	)

	status := http.StatusInternalServerError
	body := errorResponse{Error: err.Error()}

	switch {
	case errors.As(err, &validationErr):
		status = http.StatusBadRequest
	case errors.As(err, &stateErr):
		status = http.StatusConflict
	case errors.As(err, &paymentErr):
		status = http.StatusPaymentRequired
	case errors.As(err, &partialErr):
		status = http.StatusBadGateway
		body.MissingImages = partialErr.Missing
	case errors.As(err, &generationErr), errors.As(err, &providerErr):
		status = http.StatusBadGateway
	case errors.As(err, &renderErr):
		status = http.StatusInternalServerError
	}

	s.logger.Warn("Request failed", "status", status, "error", err)
	s.writeJSON(w, status, body)
}
