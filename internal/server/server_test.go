package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/retropress/retropress/internal/config"
	"github.com/retropress/retropress/internal/metrics"
	"github.com/retropress/retropress/internal/orchestrator"
	"github.com/retropress/retropress/internal/payment"
	"github.com/retropress/retropress/pkg/models"
)

type stubContent struct {
	err error
}

func (s *stubContent) Generate(ctx context.Context, date time.Time, style models.Style, p *models.Personalization) (*models.ArticleBundle, error) {
	if s.err != nil {
		return nil, s.err
	}
	article := func(headline, imagePrompt string) models.Article {
		return models.Article{
			Headline:    headline,
			Body:        "本文。",
			Category:    models.CategorySociety,
			ImagePrompt: imagePrompt,
		}
	}
	return &models.ArticleBundle{
		Date:     date,
		Masthead: "時空新報",
		Edition:  "第一号 朝刊",
		Weather:  "晴れ",
		Main:     article("一面記事", "slot-main"),
		SubArticles: []models.Article{
			article("経済", "slot-sub1"),
			article("文化", "slot-sub2"),
			article("スポーツ", "slot-sub3"),
		},
		Editorial:   article("社説", ""),
		ColumnTitle: "余滴",
		ColumnBody:  "コラム。",
	}, nil
}

type stubImages struct {
	failPrompts map[string]bool
}

func (s *stubImages) Generate(ctx context.Context, prompt string, style models.Style) (string, bool) {
	if s.failPrompts[prompt] {
		return "", false
	}
	return "data:image/png;base64,AA==", true
}

type stubRenderer struct{}

func (stubRenderer) Render(bundle *models.ArticleBundle, images *models.ImageSet) ([]byte, error) {
	return []byte("%PDF-1.7 stub"), nil
}

func newTestServer(t *testing.T, content orchestrator.ContentGenerator, images orchestrator.ImageGenerator) *Server {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)
	cfg := &config.Config{
		Server: config.ServerConfig{Port: "8080", ShutdownTimeoutSeconds: 1},
		Generation: config.GenerationConfig{
			MinYear:          1900,
			ImageMaxRetries:  1,
			RetryDelayMillis: 1,
		},
		Payment: config.PaymentConfig{TestMode: true, Currency: "jpy", TextPrice: 80, ImagePrice: 500},
	}
	gate := payment.New(cfg.Payment, "", logger)
	orch := orchestrator.New(cfg, content, images, gate, stubRenderer{}, metrics.NewCollector(logger), logger)
	return New(cfg.Server, orch, gate, logger)
}

func doJSON(t *testing.T, handler http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthAndPricing(t *testing.T) {
	srv := newTestServer(t, &stubContent{}, &stubImages{})
	router := srv.Router()

	rec := doJSON(t, router, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Errorf("healthz status = %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodGet, "/api/pricing", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("pricing status = %d", rec.Code)
	}
	var pricing struct {
		Tiers []payment.TierInfo `json:"tiers"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &pricing); err != nil {
		t.Fatalf("failed to decode pricing: %v", err)
	}
	if len(pricing.Tiers) != 2 {
		t.Errorf("tiers = %d, want 2", len(pricing.Tiers))
	}
}

func TestPipelineOverHTTP(t *testing.T) {
	srv := newTestServer(t, &stubContent{}, &stubImages{})
	router := srv.Router()

	rec := doJSON(t, router, http.MethodPost, "/api/newspaper", `{"date":"1964-10-10","style":"showa"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("text stage status = %d, body %s", rec.Code, rec.Body)
	}
	var textResp textStageResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &textResp); err != nil {
		t.Fatalf("failed to decode text response: %v", err)
	}
	if textResp.Session.Stage != models.StageTextReady {
		t.Errorf("stage = %q, want text_ready", textResp.Session.Stage)
	}
	if textResp.Bundle == nil || textResp.Bundle.Masthead != "時空新報" {
		t.Errorf("unexpected bundle: %+v", textResp.Bundle)
	}

	rec = doJSON(t, router, http.MethodPost, "/api/newspaper/images", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("image stage status = %d, body %s", rec.Code, rec.Body)
	}
	var imageResp imageStageResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &imageResp); err != nil {
		t.Fatalf("failed to decode image response: %v", err)
	}
	if len(imageResp.Images) != 4 {
		t.Fatalf("image slots = %d, want 4", len(imageResp.Images))
	}
	for i, slot := range imageResp.Images {
		if !slot.Present || slot.URI == "" {
			t.Errorf("slot %d not filled: %+v", i, slot)
		}
	}

	rec = doJSON(t, router, http.MethodGet, "/api/newspaper/document", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("document status = %d, body %s", rec.Code, rec.Body)
	}
	if got := rec.Header().Get("Content-Type"); got != "application/pdf" {
		t.Errorf("content type = %q", got)
	}
	if got := rec.Header().Get("Content-Disposition"); !strings.Contains(got, "retropress-1964-10-10.pdf") {
		t.Errorf("content disposition = %q", got)
	}

	rec = doJSON(t, router, http.MethodGet, "/api/newspaper", "")
	var snap models.SessionSnapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatalf("failed to decode status: %v", err)
	}
	if snap.Stage != models.StageComplete {
		t.Errorf("status stage = %q, want complete", snap.Stage)
	}

	rec = doJSON(t, router, http.MethodPost, "/api/newspaper/reset", "")
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatalf("failed to decode reset: %v", err)
	}
	if snap.Stage != models.StageIdle {
		t.Errorf("stage after reset = %q, want idle", snap.Stage)
	}
}

func TestValidationResponses(t *testing.T) {
	srv := newTestServer(t, &stubContent{}, &stubImages{})
	router := srv.Router()

	tests := []struct {
		name string
		body string
	}{
		{"invalid json", `{"date":`},
		{"bad date format", `{"date":"10/10/1964"}`},
		{"date too early", `{"date":"1850-01-01"}`},
		{"unknown style", `{"date":"1964-10-10","style":"meiji"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, router, http.MethodPost, "/api/newspaper", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400, body %s", rec.Code, rec.Body)
			}
		})
	}
}

func TestOutOfOrderReturnsConflict(t *testing.T) {
	srv := newTestServer(t, &stubContent{}, &stubImages{})
	router := srv.Router()

	rec := doJSON(t, router, http.MethodPost, "/api/newspaper/images", "")
	if rec.Code != http.StatusConflict {
		t.Errorf("images before text: status = %d, want 409", rec.Code)
	}
	rec = doJSON(t, router, http.MethodGet, "/api/newspaper/document", "")
	if rec.Code != http.StatusPaymentRequired {
		t.Errorf("document before paying for images: status = %d, want 402", rec.Code)
	}
}

func TestUpstreamFailureReturnsBadGateway(t *testing.T) {
	srv := newTestServer(t, &stubContent{err: errors.New("model overloaded")}, &stubImages{})
	router := srv.Router()

	rec := doJSON(t, router, http.MethodPost, "/api/newspaper", `{"date":"1964-10-10"}`)
	if rec.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502, body %s", rec.Code, rec.Body)
	}
}

func TestPartialImageFailureResponse(t *testing.T) {
	srv := newTestServer(t, &stubContent{}, &stubImages{failPrompts: map[string]bool{"slot-main": true}})
	router := srv.Router()

	rec := doJSON(t, router, http.MethodPost, "/api/newspaper", `{"date":"1964-10-10"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("text stage status = %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodPost, "/api/newspaper/images", "")
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502, body %s", rec.Code, rec.Body)
	}
	var resp errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode error: %v", err)
	}
	if resp.MissingImages != 1 {
		t.Errorf("missing_images = %d, want 1", resp.MissingImages)
	}
}
