package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/retropress/retropress/internal/config"
	"github.com/retropress/retropress/internal/metrics"
	"github.com/retropress/retropress/internal/payment"
	"github.com/retropress/retropress/pkg/models"
)

// ContentGenerator produces the full article bundle for a target date.
type ContentGenerator interface {
	Generate(ctx context.Context, date time.Time, style models.Style, personalization *models.Personalization) (*models.ArticleBundle, error)
}

// ImageGenerator produces one image for a prompt. A false result means the
// slot stays absent for this attempt; it is never a hard error.
type ImageGenerator interface {
	Generate(ctx context.Context, prompt string, style models.Style) (string, bool)
}

// PaymentGate confirms and verifies stage payments.
type PaymentGate interface {
	Confirm(ctx context.Context, tier payment.Tier, metadata map[string]string) (string, error)
	Verify(ctx context.Context, token string) (bool, error)
	Refund(ctx context.Context, token, reason string) error
}

// DocumentRenderer lays out a finished bundle as a PDF.
type DocumentRenderer interface {
	Render(bundle *models.ArticleBundle, images *models.ImageSet) ([]byte, error)
}

// Orchestrator drives a single newspaper generation session through the
// text, image and document stages.
type Orchestrator struct {
	cfg       *config.Config
	content   ContentGenerator
	images    ImageGenerator
	payments  PaymentGate
	renderer  DocumentRenderer
	collector *metrics.Collector
	logger    *slog.Logger

	mu      sync.Mutex
	epoch   uint64
	session *session
}

// New creates an orchestrator with an idle session.
func New(
	cfg *config.Config,
	content ContentGenerator,
	images ImageGenerator,
	payments PaymentGate,
	renderer DocumentRenderer,
	collector *metrics.Collector,
	logger *slog.Logger,
) *Orchestrator {
	return &Orchestrator{
		cfg:       cfg,
		content:   content,
		images:    images,
		payments:  payments,
		renderer:  renderer,
		collector: collector,
		logger:    logger.With("component", "orchestrator"),
		session:   newSession(0),
	}
}

// TextRequest carries the inputs for the text stage.
type TextRequest struct {
	Date            time.Time
	Style           models.Style
	Personalization *models.Personalization
}

// Snapshot returns the current session view.
func (o *Orchestrator) Snapshot() models.SessionSnapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.session.snapshot()
}

// Bundle returns the generated article bundle, if the text stage completed.
func (o *Orchestrator) Bundle() (*models.ArticleBundle, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.session.bundle == nil {
		return nil, false
	}
	bundle := *o.session.bundle
	bundle.SubArticles = append([]models.Article(nil), o.session.bundle.SubArticles...)
	bundle.Advertisements = append([]models.Advertisement(nil), o.session.bundle.Advertisements...)
	return &bundle, true
}

// Images returns the current image set, if the text stage completed.
func (o *Orchestrator) Images() (*models.ImageSet, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.session.images == nil {
		return nil, false
	}
	images := *o.session.images
	images.Subs = append([]models.ImageSlot(nil), o.session.images.Subs...)
	return &images, true
}

// Reset discards the session and starts a fresh one. In-flight stage work
// from the old session is discarded when it tries to land.
func (o *Orchestrator) Reset() models.SessionSnapshot {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.epoch++
	old := o.session.id
	o.session = newSession(o.epoch)
	o.logger.Info("Session reset", "old_session_id", old, "session_id", o.session.id)
	return o.session.snapshot()
}

// StartTextStage validates the target date, confirms the text payment and
// generates the article bundle. On success the session advances to
// text_ready with an empty image set sized to the bundle.
func (o *Orchestrator) StartTextStage(ctx context.Context, req TextRequest) (models.SessionSnapshot, error) {
	if err := o.validateDate(req.Date); err != nil {
		return o.Snapshot(), err
	}
	if req.Style == "" {
		req.Style = models.StyleShowa
	}

	o.mu.Lock()
	if o.session.stage != models.StageIdle {
		err := &StateError{Op: "text generation", Current: string(o.session.stage)}
		o.mu.Unlock()
		return o.Snapshot(), err
	}
	o.session.stage = models.StageText
	o.session.targetDate = req.Date
	o.session.style = req.Style
	o.session.personalization = req.Personalization
	o.session.progress = 0
	o.session.lastError = ""
	epoch := o.session.epoch
	o.mu.Unlock()

	start := time.Now()

	token, err := o.payments.Confirm(ctx, payment.TierText, map[string]string{
		"target_date": req.Date.Format("2006-01-02"),
	})
	if err != nil {
		o.collector.RecordPayment(string(payment.TierText), false)
		payErr := &PaymentRequiredError{Tier: string(payment.TierText), Err: err}
		o.failStage(epoch, models.StageIdle, payErr)
		return o.Snapshot(), payErr
	}
	o.collector.RecordPayment(string(payment.TierText), true)

	o.updateProgress(epoch, 30)
	bundle, err := o.content.Generate(ctx, req.Date, req.Style, req.Personalization)
	o.collector.RecordProviderCall("text", err == nil)
	if err != nil {
		if refundErr := o.payments.Refund(ctx, token, "text generation failed"); refundErr != nil {
			o.logger.Error("Refund failed", "token", token, "error", refundErr)
		}
		genErr := &GenerationError{Stage: "text", Err: err}
		o.failStage(epoch, models.StageIdle, genErr)
		o.collector.RecordStage("text", time.Since(start), false)
		return o.Snapshot(), genErr
	}

	o.mu.Lock()
	if o.session.epoch != epoch {
		o.mu.Unlock()
		o.logger.Warn("Discarding text result from reset session")
		return o.Snapshot(), &StateError{Op: "text generation", Current: string(models.StageIdle)}
	}
	o.session.bundle = bundle
	o.session.images = models.NewImageSet(len(bundle.SubArticles))
	o.session.textPaid = true
	o.session.stage = models.StageTextReady
	o.session.progress = 100
	snap := o.session.snapshot()
	o.mu.Unlock()

	o.collector.RecordStage("text", time.Since(start), true)
	o.logger.Info("Text stage complete",
		"session_id", snap.ID,
		"date", req.Date.Format("2006-01-02"),
		"style", req.Style,
		"duration_ms", time.Since(start).Milliseconds())
	return snap, nil
}

// StartImageStage fills the image slots for the generated bundle. Payment
// is confirmed once; invocations after a partial failure reuse the cached
// token and only regenerate the absent slots. Calling it again once every
// slot is filled is a no-op.
func (o *Orchestrator) StartImageStage(ctx context.Context) (models.SessionSnapshot, error) {
	o.mu.Lock()
	if o.session.stage.AtLeast(models.StageImagesReady) {
		snap := o.session.snapshot()
		o.mu.Unlock()
		return snap, nil
	}
	if o.session.stage != models.StageTextReady {
		err := &StateError{Op: "image generation", Current: string(o.session.stage)}
		o.mu.Unlock()
		return o.Snapshot(), err
	}
	// Progress restarts for each stage; it only ever climbs within one.
	o.session.stage = models.StageImages
	o.session.lastError = ""
	o.session.progress = 0
	epoch := o.session.epoch
	bundle := o.session.bundle
	style := o.session.style
	token := o.session.imageToken
	o.mu.Unlock()

	start := time.Now()

	if token == "" {
		confirmed, err := o.payments.Confirm(ctx, payment.TierImages, map[string]string{
			"target_date": bundle.Date.Format("2006-01-02"),
		})
		if err != nil {
			o.collector.RecordPayment(string(payment.TierImages), false)
			payErr := &PaymentRequiredError{Tier: string(payment.TierImages), Err: err}
			o.failStage(epoch, models.StageTextReady, payErr)
			return o.Snapshot(), payErr
		}
		o.collector.RecordPayment(string(payment.TierImages), true)
		token = confirmed

		o.mu.Lock()
		if o.session.epoch == epoch {
			o.session.imageToken = token
		}
		o.mu.Unlock()
	}

	rounds, err := o.runImageBatch(ctx, epoch, bundle, style)
	if err != nil {
		var stateErr *StateError
		if !errors.As(err, &stateErr) {
			o.failStage(epoch, models.StageTextReady, err)
		}
		o.collector.RecordStage("images", time.Since(start), false)
		return o.Snapshot(), err
	}

	o.mu.Lock()
	if o.session.epoch != epoch {
		o.mu.Unlock()
		return o.Snapshot(), &StateError{Op: "image generation", Current: string(models.StageIdle)}
	}
	missing := o.session.images.MissingCount()
	if missing > 0 {
		o.session.stage = models.StageTextReady
		partial := &PartialFailureError{Missing: missing, Rounds: rounds}
		o.session.lastError = partial.Error()
		snap := o.session.snapshot()
		o.mu.Unlock()

		o.collector.RecordStage("images", time.Since(start), false)
		o.collector.ObserveImageBatch(rounds-1, missing)
		o.logger.Warn("Image stage incomplete", "session_id", snap.ID, "missing", missing, "rounds", rounds)
		return snap, partial
	}
	o.session.imagesPaid = true
	o.session.stage = models.StageImagesReady
	o.session.progress = 100
	snap := o.session.snapshot()
	o.mu.Unlock()

	o.collector.RecordStage("images", time.Since(start), true)
	o.collector.ObserveImageBatch(rounds-1, 0)
	o.logger.Info("Image stage complete",
		"session_id", snap.ID,
		"rounds", rounds,
		"duration_ms", time.Since(start).Milliseconds())
	return snap, nil
}

// RenderDocument lays out the finished page as a PDF. Rendering is free
// but requires the image stage to have completed. The result is cached so
// repeated downloads do not re-render.
func (o *Orchestrator) RenderDocument(ctx context.Context) ([]byte, models.SessionSnapshot, error) {
	o.mu.Lock()
	if len(o.session.document) > 0 {
		doc := o.session.document
		snap := o.session.snapshot()
		o.mu.Unlock()
		return doc, snap, nil
	}
	if !o.session.imagesPaid {
		err := &PaymentRequiredError{Tier: string(payment.TierImages)}
		o.mu.Unlock()
		return nil, o.Snapshot(), err
	}
	if !o.session.stage.AtLeast(models.StageImagesReady) {
		err := &StateError{Op: "document render", Current: string(o.session.stage)}
		o.mu.Unlock()
		return nil, o.Snapshot(), err
	}
	o.session.stage = models.StageDocument
	o.session.progress = 0
	epoch := o.session.epoch
	bundle := o.session.bundle
	images := o.session.images
	o.mu.Unlock()

	start := time.Now()
	doc, err := o.renderer.Render(bundle, images)
	if err != nil {
		renderErr := &RenderError{Err: err}
		o.failStage(epoch, models.StageImagesReady, renderErr)
		o.collector.RecordStage("document", time.Since(start), false)
		return nil, o.Snapshot(), renderErr
	}

	o.mu.Lock()
	if o.session.epoch != epoch {
		o.mu.Unlock()
		return nil, o.Snapshot(), &StateError{Op: "document render", Current: string(models.StageIdle)}
	}
	o.session.document = doc
	o.session.stage = models.StageComplete
	o.session.progress = 100
	snap := o.session.snapshot()
	o.mu.Unlock()

	o.collector.RecordStage("document", time.Since(start), true)
	o.logger.Info("Document stage complete", "session_id", snap.ID, "bytes", len(doc))
	return doc, snap, nil
}

func (o *Orchestrator) validateDate(date time.Time) error {
	if date.IsZero() {
		return &ValidationError{Field: "date", Reason: "a target date is required"}
	}
	minYear := o.cfg.Generation.MinYear
	if date.Year() < minYear {
		return &ValidationError{
			Field:  "date",
			Reason: fmt.Sprintf("dates before %d are not supported", minYear),
		}
	}
	if date.After(time.Now()) {
		return &ValidationError{Field: "date", Reason: "the date must not be in the future"}
	}
	return nil
}

// failStage records a stage failure and rolls the session back, unless a
// reset happened while the stage was running.
func (o *Orchestrator) failStage(epoch uint64, revertTo models.Stage, cause error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.session.epoch != epoch {
		return
	}
	o.session.stage = revertTo
	o.session.lastError = cause.Error()
}

func (o *Orchestrator) updateProgress(epoch uint64, progress int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.session.epoch == epoch && progress > o.session.progress {
		o.session.progress = progress
	}
}
