package mdview

// reconciler owns the single authoritative document height consumed by
// the host layout. All methods run on the engine loop.
type reconciler struct {
	height     float64
	onRendered func(float64)
	invalidate func()
}

// update stores a fresh whole-document measurement. Equal values are
// suppressed so redundant layout passes never happen.
func (r *reconciler) update(h float64) {
	if h < 0 {
		h = 0
	}
	if h == r.height {
		return
	}
	r.height = h
	r.notify()
}

// toggled applies a collapsible-region state change. Collapsing
// subtracts the region's cached inner height; expanding adds nothing
// here and relies on the whole-document measurement that follows the
// layout change.
func (r *reconciler) toggled(open bool, innerHeight float64) {
	if open {
		if r.onRendered != nil {
			r.onRendered(r.height)
		}
		return
	}
	h := r.height - innerHeight
	if h < 0 {
		h = 0
	}
	r.height = h
	r.notify()
}

func (r *reconciler) notify() {
	if r.invalidate != nil {
		r.invalidate()
	}
	if r.onRendered != nil {
		r.onRendered(r.height)
	}
}

// reset silently returns the stored height to 0, pending the first
// measurement of a freshly loaded document.
func (r *reconciler) reset() {
	r.height = 0
}
