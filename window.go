package roundbias

// movingWindow keeps the most recent values of a scan in a fixed-size ring
// buffer and maintains their running sum.
//
// The sum is recomputed from the buffer instead of being updated by
// subtract-on-evict, so floating-point drift cannot accumulate along long
// strata.
type movingWindow struct {
	values     []float64 // ring buffer of recent values
	size       int       // buffer capacity (the smoothing window)
	writeIndex int       // next write position
	count      int       // values recorded so far (saturates at size)
}

func newMovingWindow(size int) *movingWindow {
	return &movingWindow{
		values: make([]float64, size),
		size:   size,
	}
}

// Push records a value, overwriting the oldest once the buffer is full.
func (w *movingWindow) Push(x float64) {
	w.values[w.writeIndex] = x
	w.writeIndex = (w.writeIndex + 1) % w.size
	if w.count < w.size {
		w.count++
	}
}

// Full reports whether the window holds size values.
func (w *movingWindow) Full() bool {
	return w.count == w.size
}

// Len returns how many values the window currently holds.
func (w *movingWindow) Len() int {
	return w.count
}

// Mean returns the arithmetic mean of the held values, or 0 when empty.
func (w *movingWindow) Mean() float64 {
	if w.count == 0 {
		return 0
	}

	var sum float64
	for i := 0; i < w.count; i++ {
		sum += w.values[i]
	}
	return sum / float64(w.count)
}

// Reset empties the window for the next stratum.
func (w *movingWindow) Reset() {
	w.writeIndex = 0
	w.count = 0
}
