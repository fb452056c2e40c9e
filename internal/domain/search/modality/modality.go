package modality

import (
	"fmt"
	"math"
)

// Modality is one query input channel.
type Modality string

const (
	// Image searches the image embedding collection.
	Image Modality = "image"
	// Audio searches the audio embedding collection.
	Audio Modality = "audio"
	// Text scores catalog metadata against a phrase.
	Text Modality = "text"
	// Hybrid searches the joint image+audio collection.
	Hybrid Modality = "hybrid"
)

// IsValid checks if the modality is one of the supported values.
func (m Modality) IsValid() bool {
	return m == Image || m == Audio || m == Text || m == Hybrid
}

// Default per-modality weights.
const (
	DefaultImageWeight = 0.4
	DefaultAudioWeight = 0.4
	DefaultTextWeight  = 0.2
	// JointWeight is the fixed weight of the joint image+audio search.
	JointWeight = 0.3
)

// Weights holds the caller-tunable fusion weights.
type Weights struct {
	Image float64
	Audio float64
	Text  float64
}

// DefaultWeights returns image 0.4, audio 0.4, text 0.2.
func DefaultWeights() Weights {
	return Weights{Image: DefaultImageWeight, Audio: DefaultAudioWeight, Text: DefaultTextWeight}
}

// NewWeights applies overrides on top of the defaults.
// Only image, audio and text are tunable; weights must be finite and non-negative.
func NewWeights(overrides map[Modality]float64) (Weights, error) {
	w := DefaultWeights()
	for m, v := range overrides {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return Weights{}, fmt.Errorf("weight for %q must be a finite non-negative number", m)
		}
		switch m {
		case Image:
			w.Image = v
		case Audio:
			w.Audio = v
		case Text:
			w.Text = v
		default:
			return Weights{}, fmt.Errorf("weight for %q is not tunable", m)
		}
	}
	return w, nil
}

// Of returns the weight for a modality. Hybrid always yields JointWeight.
func (w Weights) Of(m Modality) float64 {
	switch m {
	case Image:
		return w.Image
	case Audio:
		return w.Audio
	case Text:
		return w.Text
	case Hybrid:
		return JointWeight
	default:
		return 0
	}
}
