package synth

// windowSlice is one piecewise-constant segment of a window group: a scan
// range with its isolation window and collision energy.
type windowSlice struct {
	scanStart       int
	scanEnd         int
	isolationMz     float64
	isolationWidth  float64
	collisionEnergy float64
}

func buildGroupWindows(settings []WindowGroupSettingSim) map[int][]windowSlice {
	groups := make(map[int][]windowSlice)
	for _, w := range settings {
		groups[w.WindowGroup] = append(groups[w.WindowGroup], windowSlice{
			scanStart:       w.ScanStart,
			scanEnd:         w.ScanEnd,
			isolationMz:     w.IsolationMz,
			isolationWidth:  w.IsolationWidth,
			collisionEnergy: w.CollisionEnergy,
		})
	}
	return groups
}

func buildFrameToGroup(mapping []FrameToWindowGroupSim) map[int]int {
	m := make(map[int]int, len(mapping))
	for _, fw := range mapping {
		m[fw.FrameID] = fw.WindowGroup
	}
	return m
}

// TransmissionDIA answers whether an m/z passes the quadrupole isolation
// window active at a (frame, scan) coordinate. Outside any configured
// window nothing is transmitted.
type TransmissionDIA struct {
	frameToGroup map[int]int
	groupWindows map[int][]windowSlice
}

// NewTransmissionDIA builds the transmission model from the frame/window
// tables.
func NewTransmissionDIA(mapping []FrameToWindowGroupSim, settings []WindowGroupSettingSim) *TransmissionDIA {
	return &TransmissionDIA{
		frameToGroup: buildFrameToGroup(mapping),
		groupWindows: buildGroupWindows(settings),
	}
}

func (t *TransmissionDIA) window(frameID, scan int) (windowSlice, bool) {
	group, ok := t.frameToGroup[frameID]
	if !ok {
		return windowSlice{}, false
	}
	for _, w := range t.groupWindows[group] {
		if scan >= w.scanStart && scan <= w.scanEnd {
			return w, true
		}
	}
	return windowSlice{}, false
}

// IsTransmitted reports whether mz falls inside the isolation window active
// at (frameID, scan).
func (t *TransmissionDIA) IsTransmitted(frameID, scan int, mz float64) bool {
	w, ok := t.window(frameID, scan)
	if !ok {
		return false
	}
	half := w.isolationWidth / 2
	return mz >= w.isolationMz-half && mz <= w.isolationMz+half
}

// AnyTransmitted reports whether any m/z of the candidate spectrum is
// transmitted at (frameID, scan), short-circuiting on the first match.
func (t *TransmissionDIA) AnyTransmitted(frameID, scan int, mzs []float64) bool {
	w, ok := t.window(frameID, scan)
	if !ok {
		return false
	}
	half := w.isolationWidth / 2
	for _, mz := range mzs {
		if mz >= w.isolationMz-half && mz <= w.isolationMz+half {
			return true
		}
	}
	return false
}

// CollisionEnergyDIA answers which collision energy applies at a
// (frame, scan) coordinate. Outside any configured window the energy is 0.
type CollisionEnergyDIA struct {
	frameToGroup map[int]int
	groupWindows map[int][]windowSlice
}

// NewCollisionEnergyDIA builds the collision-energy model from the
// frame/window tables.
func NewCollisionEnergyDIA(mapping []FrameToWindowGroupSim, settings []WindowGroupSettingSim) *CollisionEnergyDIA {
	return &CollisionEnergyDIA{
		frameToGroup: buildFrameToGroup(mapping),
		groupWindows: buildGroupWindows(settings),
	}
}

// Get returns the collision energy at (frameID, scan), 0 outside any
// configured window.
func (c *CollisionEnergyDIA) Get(frameID, scan int) float64 {
	group, ok := c.frameToGroup[frameID]
	if !ok {
		return 0
	}
	for _, w := range c.groupWindows[group] {
		if scan >= w.scanStart && scan <= w.scanEnd {
			return w.collisionEnergy
		}
	}
	return 0
}
