package pipeline

import "github.com/lvillar/docpipe"

// Reporter normalizes progress callbacks. Percent values are clamped into
// [0,100] and never regress within one run. All methods are safe on a nil
// receiver and with nil callbacks.
type Reporter struct {
	onProgress func(percent int, label string)
	onItem     func(index int, status docpipe.ItemStatus)
	last       int
}

// NewReporter wraps the caller's callbacks. Either may be nil.
func NewReporter(onProgress func(int, string), onItem func(int, docpipe.ItemStatus)) *Reporter {
	return &Reporter{onProgress: onProgress, onItem: onItem}
}

// Step reports run-level progress with a step label.
func (r *Reporter) Step(percent int, label string) {
	if r == nil {
		return
	}
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	if percent < r.last {
		percent = r.last
	}
	r.last = percent
	if r.onProgress != nil {
		r.onProgress(percent, label)
	}
}

// Item reports a per-item status change. Index is 0-based, matching the
// submitted task order.
func (r *Reporter) Item(index int, status docpipe.ItemStatus) {
	if r == nil || r.onItem == nil {
		return
	}
	r.onItem(index, status)
}
