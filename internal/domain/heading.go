package domain

// HeadingTracker maintains a monotonically continuous rotation value from a
// wrapping 0-360 degree compass heading and a target azimuth, for driving a
// direction indicator without snap-back when the raw heading crosses north.
//
// The tracker is a two-state machine: uninitialized until the first Update
// seeds the rotation, then tracking. While tracking, each update moves the
// rotation by the shortest angular delta in (-180, 180], so the displayed
// value grows or shrinks past multiples of 360 instead of being
// re-normalized. Owned by a single UI-update caller; not safe for
// concurrent use.
type HeadingTracker struct {
	initialized bool
	rotation    float64
	lastHeading float64
}

// Update consumes a heading sample and the current target azimuth and
// returns the new continuous rotation (targetAzimuth - heading, unwrapped).
// Inputs outside [0, 360) are normalized defensively; callers are expected
// to hand over normalized headings.
func (t *HeadingTracker) Update(headingDegrees, targetAzimuthDegrees float64) float64 {
	heading := normalizeDegrees(headingDegrees)
	target := normalizeDegrees(targetAzimuthDegrees - heading)

	if !t.initialized {
		t.initialized = true
		t.rotation = target
		t.lastHeading = heading
		return t.rotation
	}

	delta := target - normalizeDegrees(t.rotation)
	if delta > 180 {
		delta -= 360
	} else if delta <= -180 {
		delta += 360
	}

	t.rotation += delta
	t.lastHeading = heading
	return t.rotation
}

// Reset returns the tracker to the uninitialized state. Call when the
// tracked target changes identity so the next update re-seeds instead of
// animating across the swap.
func (t *HeadingTracker) Reset() {
	*t = HeadingTracker{}
}

// Rotation returns the current continuous rotation value.
func (t *HeadingTracker) Rotation() float64 {
	return t.rotation
}

// LastHeading returns the most recent raw heading sample in [0, 360).
// The second value is false before the first update.
func (t *HeadingTracker) LastHeading() (float64, bool) {
	return t.lastHeading, t.initialized
}
