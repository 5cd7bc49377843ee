package logging

// ProgressSampler suppresses repetitive per-frame progress logs while
// preserving signal each time processing crosses a percentage bucket.
type ProgressSampler struct {
	bucketSize float64
	lastBucket int
}

// NewProgressSampler constructs a sampler that emits when the percent crosses
// bucket boundaries (default 10%).
func NewProgressSampler(bucketSize float64) *ProgressSampler {
	if bucketSize <= 0 {
		bucketSize = 10
	}
	return &ProgressSampler{bucketSize: bucketSize, lastBucket: -1}
}

// ShouldLog reports whether a progress event at percent should be logged.
// Negative values mean unknown progress and never emit.
func (s *ProgressSampler) ShouldLog(percent float64) bool {
	if s == nil {
		return true
	}
	if percent < 0 {
		return false
	}
	if percent > 100 {
		percent = 100
	}
	bucket := int(percent / s.bucketSize)
	if bucket <= s.lastBucket {
		return false
	}
	s.lastBucket = bucket
	return true
}

// ShouldLogFrame reports whether completing frame index (zero-based) out of
// total crosses a new bucket. The final frame always logs.
func (s *ProgressSampler) ShouldLogFrame(index, total int) bool {
	if total <= 0 {
		return false
	}
	if index+1 >= total {
		if s != nil {
			s.lastBucket = int(100 / s.bucketSize)
		}
		return true
	}
	return s.ShouldLog(float64(index+1) * 100 / float64(total))
}

// Reset clears the sampler state (e.g. when a new run starts).
func (s *ProgressSampler) Reset() {
	if s == nil {
		return
	}
	s.lastBucket = -1
}
