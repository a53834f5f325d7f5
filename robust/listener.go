package robust

// Listener receives progress callbacks from Driver.Run (spec §4.5's
// progress-narration hook). Both fields are optional; a nil field is
// simply never called. Callbacks run synchronously on the calling
// goroutine between iterations.
type Listener struct {
	// OnIteration is called after each completed iteration with the
	// 0-based iteration index and the best score found so far.
	OnIteration func(iteration int, bestScore float64)
	// OnProgress is called with a 0..1 estimate of how much of the
	// confidence-driven iteration bound has been consumed.
	OnProgress func(fraction float64)
}

func (l *Listener) iteration(i int, score float64) {
	if l != nil && l.OnIteration != nil {
		l.OnIteration(i, score)
	}
}

func (l *Listener) progress(frac float64) {
	if l != nil && l.OnProgress != nil {
		l.OnProgress(frac)
	}
}
