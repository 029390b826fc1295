package replay

import "fightnet/internal/kernel"

// Play steps initial through every recorded frame in order, feeding
// each frame's (p0, p1) pair directly into kernel.Step (spec §6:
// "Playback feeds the pairs into Kernel.step directly"). The returned
// slice has one entry per input frame, holding the state *after* that
// frame was stepped.
func Play(initial kernel.State, rp Replay) []kernel.State {
	states := make([]kernel.State, 0, len(rp.Frames))
	s := initial
	for _, f := range rp.Frames {
		s = kernel.Step(s, f.P0, f.P1)
		states = append(states, s)
	}
	return states
}
