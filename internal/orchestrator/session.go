package orchestrator

import (
	"time"

	"github.com/google/uuid"

	"github.com/retropress/retropress/pkg/models"
)

// session holds all mutable pipeline state. Access is guarded by the
// orchestrator mutex; long-running stages release the lock and use the
// epoch to discard results that land after a Reset.
type session struct {
	id    string
	epoch uint64
	stage models.Stage

	targetDate      time.Time
	style           models.Style
	personalization *models.Personalization

	bundle   *models.ArticleBundle
	images   *models.ImageSet
	document []byte

	textPaid   bool
	imagesPaid bool
	// imageToken caches the image stage payment so retry invocations
	// after a partial failure never charge twice.
	imageToken string

	progress  int
	lastError string
}

func newSession(epoch uint64) *session {
	return &session{
		id:    uuid.NewString(),
		epoch: epoch,
		stage: models.StageIdle,
	}
}

func (s *session) snapshot() models.SessionSnapshot {
	snap := models.SessionSnapshot{
		ID:          s.id,
		Stage:       s.stage,
		Progress:    s.progress,
		TargetDate:  s.targetDate,
		Style:       s.style,
		TextPaid:    s.textPaid,
		ImagesPaid:  s.imagesPaid,
		HasBundle:   s.bundle != nil,
		HasImages:   s.images != nil && s.images.Filled(),
		HasDocument: len(s.document) > 0,
		LastError:   s.lastError,
	}
	if s.images != nil {
		snap.MissingImages = s.images.MissingCount()
	}
	return snap
}
