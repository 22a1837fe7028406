package audio

import "time"

// Segmenter cuts one utterance out of a stream of frames using a peak
// amplitude threshold. Frames before the first loud frame are dropped; the
// utterance ends after minSilence of quiet or at maxLength.
type Segmenter struct {
	threshold      int16
	silenceSamples int
	maxSamples     int

	samples []int16
	speech  bool
	quiet   int
}

func NewSegmenter(threshold int, minSilence, maxLength time.Duration, sampleRate int) *Segmenter {
	if threshold <= 0 || threshold > 32767 {
		threshold = 500
	}
	return &Segmenter{
		threshold:      int16(threshold),
		silenceSamples: int(minSilence.Seconds() * float64(sampleRate)),
		maxSamples:     int(maxLength.Seconds() * float64(sampleRate)),
	}
}

// Feed consumes one frame and reports whether the utterance is complete.
func (s *Segmenter) Feed(frame []int16) bool {
	loud := s.isLoud(frame)

	if !s.speech {
		if !loud {
			return false
		}
		s.speech = true
	}

	s.samples = append(s.samples, frame...)

	if loud {
		s.quiet = 0
	} else {
		s.quiet += len(frame)
	}

	if s.quiet >= s.silenceSamples {
		return true
	}
	return s.maxSamples > 0 && len(s.samples) >= s.maxSamples
}

// Take returns the captured samples and resets the segmenter.
func (s *Segmenter) Take() []int16 {
	out := s.samples
	s.samples = nil
	s.speech = false
	s.quiet = 0
	return out
}

func (s *Segmenter) isLoud(frame []int16) bool {
	for _, sample := range frame {
		if sample > s.threshold || sample < -s.threshold {
			return true
		}
	}
	return false
}
