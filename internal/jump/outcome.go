package jump

import "github.com/san-kum/bungeesim/internal/physics"

const (
	msgSafe       = "OUTCOME: A safe bungee jump happened"
	msgImpact     = "OUTCOME: The jumper hit the ground after %.2f seconds"
	msgVelocity   = "WARNING: Velocity is set to 0 beyond %.2f seconds"
	reasonSlack   = "REASON: l value was set too high"
	reasonSpringK = "REASON: k value was set too low"
)

// HitsGround reports whether any height sample is at or below ground level.
func HitsGround(tr Trajectory) bool {
	for _, x := range tr {
		if x[physics.Height] <= 0 {
			return true
		}
	}
	return false
}

// ImpactIndex is the first sample strictly below ground. A trajectory that
// only touches zero yields 0, which splices the whole primary phase away;
// callers rely on that long-standing behaviour.
func ImpactIndex(tr Trajectory) int {
	for i, x := range tr {
		if x[physics.Height] < 0 {
			return i
		}
	}
	return 0
}

// Classify inspects a trajectory started from rest on the ground. If the
// rope can never lift the jumper again the rope was slack at impact;
// otherwise the spring was too weak to stop the fall in time.
func Classify(crash Trajectory) Outcome {
	for _, x := range crash {
		if x[physics.Velocity] > 0 {
			return GroundImpactWeakSpring
		}
	}
	return GroundImpactSlackRope
}

// Splice joins primary[:impactIndex] with crash[:len(primary)-impactIndex].
// The crash samples keep their own time origin; they are not shifted to the
// impact time.
func Splice(primary, crash Trajectory, impactIndex int) Trajectory {
	n := len(primary)
	if impactIndex < 0 {
		impactIndex = 0
	}
	if impactIndex > n {
		impactIndex = n
	}
	tail := n - impactIndex
	if tail > len(crash) {
		tail = len(crash)
	}

	out := make(Trajectory, 0, impactIndex+tail)
	for _, x := range primary[:impactIndex] {
		out = append(out, x.Clone())
	}
	for _, x := range crash[:tail] {
		out = append(out, x.Clone())
	}
	return out
}

func zeroVelocities(tr Trajectory) {
	for _, x := range tr {
		x[physics.Velocity] = 0
	}
}
