package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// RenderMetrics records catalog rendering activity for one page session.
// A nil receiver or nil registerer turns every method into a no-op.
type RenderMetrics struct {
	pages          prometheus.Counter
	cards          prometheus.Counter
	imagesLoaded   prometheus.Counter
	cacheFallbacks *prometheus.CounterVec
}

// NewRenderMetrics registers the render metrics on the provided registerer.
func NewRenderMetrics(reg prometheus.Registerer) *RenderMetrics {
	if reg == nil {
		return &RenderMetrics{}
	}
	pages := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "catalog_pages_rendered_total",
		Help: "Pages appended by the incremental renderer.",
	})
	cards := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "catalog_cards_rendered_total",
		Help: "Product cards appended to the grid.",
	})
	imagesLoaded := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "catalog_lazy_images_loaded_total",
		Help: "Deferred images swapped to their real source.",
	})
	cacheFallbacks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_cache_fallback_total",
		Help: "Catalog fetches served from the local cache after a remote failure.",
	}, []string{"resource"})
	reg.MustRegister(pages, cards, imagesLoaded, cacheFallbacks)
	return &RenderMetrics{
		pages:          pages,
		cards:          cards,
		imagesLoaded:   imagesLoaded,
		cacheFallbacks: cacheFallbacks,
	}
}

// IncPage records one appended page of the given size.
func (m *RenderMetrics) IncPage(cards int) {
	if m == nil || m.pages == nil {
		return
	}
	m.pages.Inc()
	m.cards.Add(float64(cards))
}

// IncImageLoaded records one lazy image swap.
func (m *RenderMetrics) IncImageLoaded() {
	if m == nil || m.imagesLoaded == nil {
		return
	}
	m.imagesLoaded.Inc()
}

// IncCacheFallback records a catalog read served from the local cache.
func (m *RenderMetrics) IncCacheFallback(resource string) {
	if m == nil || m.cacheFallbacks == nil {
		return
	}
	if resource == "" {
		resource = "unknown"
	}
	m.cacheFallbacks.WithLabelValues(resource).Inc()
}
