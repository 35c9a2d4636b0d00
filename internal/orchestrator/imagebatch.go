package orchestrator

import (
	"context"
	"sync"
	"time"

	"github.com/retropress/retropress/internal/imagegen"
	"github.com/retropress/retropress/pkg/models"
)

type slotResult struct {
	index int
	uri   string
	ok    bool
}

// runImageBatch fills the absent image slots over up to
// 1 + image_max_retries rounds. Every round fans one goroutine out per
// absent slot, so filled slots are never regenerated and slot positions
// stay stable. Returns the number of rounds actually executed.
func (o *Orchestrator) runImageBatch(ctx context.Context, epoch uint64, bundle *models.ArticleBundle, style models.Style) (int, error) {
	maxRounds := 1 + o.cfg.Generation.ImageMaxRetries
	rounds := 0

	for round := 1; round <= maxRounds; round++ {
		if err := ctx.Err(); err != nil {
			return rounds, &GenerationError{Stage: "images", Err: err}
		}

		missing, ok := o.missingSlots(epoch)
		if !ok {
			return rounds, &StateError{Op: "image generation", Current: string(models.StageIdle)}
		}
		if len(missing) == 0 {
			break
		}

		if round > 1 {
			select {
			case <-ctx.Done():
				return rounds, &GenerationError{Stage: "images", Err: ctx.Err()}
			case <-time.After(o.cfg.Generation.RetryDelay()):
			}
			o.logger.Info("Retrying absent image slots", "round", round, "slots", missing)
		}

		rounds++
		results := make(chan slotResult, len(missing))
		var wg sync.WaitGroup

		for _, index := range missing {
			wg.Add(1)
			go func(index int) {
				defer wg.Done()
				prompt := imagegen.ArticlePrompt(slotArticle(bundle, index), style)
				uri, ok := o.images.Generate(ctx, prompt, style)
				results <- slotResult{index: index, uri: uri, ok: ok}
			}(index)
		}

		wg.Wait()
		close(results)

		if ok := o.applySlotResults(epoch, results); !ok {
			return rounds, &StateError{Op: "image generation", Current: string(models.StageIdle)}
		}
	}

	return rounds, nil
}

// slotArticle maps a flat slot index to its article: slot 0 is the main
// article, slots 1..n are the sub-articles in order.
func slotArticle(bundle *models.ArticleBundle, index int) models.Article {
	if index == 0 {
		return bundle.Main
	}
	return bundle.SubArticles[index-1]
}

func (o *Orchestrator) missingSlots(epoch uint64) ([]int, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.session.epoch != epoch || o.session.images == nil {
		return nil, false
	}
	var missing []int
	for i := 0; i < o.session.images.SlotCount(); i++ {
		if !o.session.images.Slot(i).Present {
			missing = append(missing, i)
		}
	}
	return missing, true
}

func (o *Orchestrator) applySlotResults(epoch uint64, results <-chan slotResult) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.session.epoch != epoch || o.session.images == nil {
		return false
	}
	for result := range results {
		o.collector.RecordProviderCall("image", result.ok)
		if result.ok {
			o.session.images.SetSlot(result.index, result.uri)
		}
	}

	total := o.session.images.SlotCount()
	filled := total - o.session.images.MissingCount()
	progress := (95 * filled) / total
	if progress > o.session.progress {
		o.session.progress = progress
	}
	return true
}
