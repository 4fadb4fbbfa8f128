package scroller

import (
	"sync"

	"github.com/northbay-wholesale/storefront/pkg/metrics"
)

// ImageLoader applies a resolved image to its card slot, replacing the
// placeholder.
type ImageLoader interface {
	LoadImage(ref ImageRef)
}

// ImageObserver defers image loads until a card slot is reported near the
// viewport. Each slot loads at most once; sources that loaded before skip
// the deferral entirely on re-render.
type ImageObserver struct {
	mu      sync.Mutex
	pending map[string]ImageRef
	seen    map[string]struct{}
	margin  int
	loader  ImageLoader
	mets    *metrics.RenderMetrics
}

func newImageObserver(loader ImageLoader, margin int) *ImageObserver {
	return &ImageObserver{
		pending: make(map[string]ImageRef),
		seen:    make(map[string]struct{}),
		margin:  margin,
		loader:  loader,
	}
}

// Margin is the preload distance in pixels the viewport adapter should use
// when deciding whether a slot counts as visible.
func (o *ImageObserver) Margin() int {
	return o.margin
}

// Observe registers freshly appended image slots. Refs without a real
// source stay on their placeholder; refs whose source already loaded once
// are applied immediately.
func (o *ImageObserver) Observe(refs []ImageRef) {
	var immediate []ImageRef

	o.mu.Lock()
	for _, ref := range refs {
		if !ref.Deferred() {
			continue
		}
		if _, ok := o.seen[ref.Source]; ok {
			immediate = append(immediate, ref)
			continue
		}
		o.pending[ref.ProductID] = ref
	}
	o.mu.Unlock()

	for _, ref := range immediate {
		o.apply(ref)
	}
}

// Visible reports that a slot entered the preload margin. The first report
// per slot triggers the load; later reports are no-ops.
func (o *ImageObserver) Visible(productID string) {
	o.mu.Lock()
	ref, ok := o.pending[productID]
	if ok {
		delete(o.pending, productID)
		o.seen[ref.Source] = struct{}{}
	}
	o.mu.Unlock()

	if !ok {
		return
	}
	o.apply(ref)
	o.mets.IncImageLoaded()
}

// PendingCount returns how many slots still await visibility.
func (o *ImageObserver) PendingCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.pending)
}

func (o *ImageObserver) apply(ref ImageRef) {
	if o.loader == nil {
		return
	}
	o.loader.LoadImage(ref)
}
