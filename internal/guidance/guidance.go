// Package guidance computes the per-frame adaptive guidance weight.
package guidance

import (
	"fmt"
	"math"

	"omnisync/internal/services"
)

// DefaultBaseStrength is the guidance strength applied mid-sequence at full
// audio power.
const DefaultBaseStrength = 0.7

const (
	edgeFalloff   = 0.3
	powerGain     = 2.0
	sequenceMidpt = 0.5
)

// Scheduler weights synthesis guidance by temporal position and audio energy.
type Scheduler struct {
	Base float64
}

// NewScheduler returns a Scheduler with the given base strength. A zero base
// disables guidance.
func NewScheduler(base float64) Scheduler {
	return Scheduler{Base: base}
}

// Weight returns the guidance weight for frameIndex of totalFrames.
func (s Scheduler) Weight(audioPower float64, frameIndex, totalFrames int) (float64, error) {
	return Weight(s.Base, audioPower, frameIndex, totalFrames)
}

// Weight returns base * temporal * audio where temporal peaks at 1.0 mid
// sequence and falls to 0.85 at either end, and audio ramps linearly with
// power until it saturates at 1.0. The result lies in [0, base].
func Weight(base, audioPower float64, frameIndex, totalFrames int) (float64, error) {
	if totalFrames <= 0 {
		return 0, services.Wrap(services.ErrInvalidArgument, "guidance", "weight", fmt.Sprintf("total frames must be positive, got %d", totalFrames), nil)
	}
	if base < 0 || math.IsNaN(base) {
		return 0, services.Wrap(services.ErrInvalidArgument, "guidance", "weight", fmt.Sprintf("base strength must not be negative, got %v", base), nil)
	}
	if frameIndex < 0 || frameIndex > totalFrames {
		return 0, services.Wrap(services.ErrInvalidArgument, "guidance", "weight", fmt.Sprintf("frame index %d outside [0, %d]", frameIndex, totalFrames), nil)
	}
	return base * TemporalFactor(frameIndex, totalFrames) * AudioFactor(audioPower), nil
}

// TemporalFactor is 1 - |frameIndex/totalFrames - 0.5| * 0.3.
func TemporalFactor(frameIndex, totalFrames int) float64 {
	pos := float64(frameIndex) / float64(totalFrames)
	return 1 - math.Abs(pos-sequenceMidpt)*edgeFalloff
}

// AudioFactor is min(power*2, 1), floored at zero. NaN power yields zero.
func AudioFactor(power float64) float64 {
	f := power * powerGain
	if !(f > 0) {
		return 0
	}
	return math.Min(f, 1)
}
