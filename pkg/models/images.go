package models

// ImageSlot is one position in an ImageSet. Present distinguishes a slot
// that was never successfully generated from one whose value is empty.
type ImageSlot struct {
	URI     string `json:"uri"`
	Present bool   `json:"present"`
}

// ImageSet holds the generated images for a bundle: one main slot plus one
// slot per sub-article, positionally aligned with the sub-article order.
type ImageSet struct {
	Main ImageSlot   `json:"main"`
	Subs []ImageSlot `json:"subs"`
}

// NewImageSet returns an ImageSet with subCount empty sub slots.
func NewImageSet(subCount int) *ImageSet {
	return &ImageSet{Subs: make([]ImageSlot, subCount)}
}

// SlotCount is the total number of slots including the main slot.
func (s *ImageSet) SlotCount() int {
	return 1 + len(s.Subs)
}

// Slot returns the slot at a flat index: 0 is the main slot, 1..n are the
// sub slots in sub-article order.
func (s *ImageSet) Slot(i int) ImageSlot {
	if i == 0 {
		return s.Main
	}
	return s.Subs[i-1]
}

// SetSlot fills the slot at a flat index and marks it present.
func (s *ImageSet) SetSlot(i int, uri string) {
	slot := ImageSlot{URI: uri, Present: true}
	if i == 0 {
		s.Main = slot
		return
	}
	s.Subs[i-1] = slot
}

// MissingCount reports how many slots are still absent.
func (s *ImageSet) MissingCount() int {
	missing := 0
	for i := 0; i < s.SlotCount(); i++ {
		if !s.Slot(i).Present {
			missing++
		}
	}
	return missing
}

// Filled reports whether every slot holds a generated image.
func (s *ImageSet) Filled() bool {
	return s.MissingCount() == 0
}
