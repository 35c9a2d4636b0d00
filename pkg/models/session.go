package models

import "time"

// Stage identifies where a generation session sits in the pipeline.
type Stage string

const (
	StageIdle        Stage = "idle"
	StageText        Stage = "text"
	StageTextReady   Stage = "text_ready"
	StageImages      Stage = "images"
	StageImagesReady Stage = "images_ready"
	StageDocument    Stage = "document"
	StageComplete    Stage = "complete"
)

// stageRank orders stages along the pipeline for precondition checks.
var stageRank = map[Stage]int{
	StageIdle:        0,
	StageText:        1,
	StageTextReady:   2,
	StageImages:      3,
	StageImagesReady: 4,
	StageDocument:    5,
	StageComplete:    6,
}

// AtLeast reports whether s has reached other in pipeline order.
func (s Stage) AtLeast(other Stage) bool {
	return stageRank[s] >= stageRank[other]
}

// SessionSnapshot is the read-only session view handed to the UI for
// progress polling. It never exposes the mutable session itself.
type SessionSnapshot struct {
	ID            string    `json:"id"`
	Stage         Stage     `json:"stage"`
	Progress      int       `json:"progress"`
	TargetDate    time.Time `json:"target_date,omitzero"`
	Style         Style     `json:"style,omitempty"`
	TextPaid      bool      `json:"text_paid"`
	ImagesPaid    bool      `json:"images_paid"`
	HasBundle     bool      `json:"has_bundle"`
	HasImages     bool      `json:"has_images"`
	HasDocument   bool      `json:"has_document"`
	MissingImages int       `json:"missing_images,omitempty"`
	LastError     string    `json:"last_error,omitempty"`
}
