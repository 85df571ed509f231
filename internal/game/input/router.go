package input

// Router reads one snapshot per frame from a Source and dispatches it to at
// most one primary consumer (the possessed entity) and one secondary
// consumer (camera look).
//
// Invariant: each Tick reads the source at most once and delivers the same
// snapshot to both consumers.
type Router struct {
	source    Source
	primary   Consumer
	secondary Consumer
}

// NewRouter creates a Router reading from source.
//
// Precondition: source must be non-nil.
func NewRouter(source Source) *Router {
	if source == nil {
		panic("input.NewRouter: source must not be nil")
	}
	return &Router{source: source}
}

// SetPrimaryConsumer replaces the primary consumer. nil detaches it.
func (r *Router) SetPrimaryConsumer(c Consumer) {
	r.primary = c
}

// SetSecondaryConsumer replaces the secondary consumer. nil detaches it.
func (r *Router) SetSecondaryConsumer(c Consumer) {
	r.secondary = c
}

// Primary returns the current primary consumer, or nil.
func (r *Router) Primary() Consumer {
	return r.primary
}

// Tick reads a snapshot and dispatches it, secondary first.
// The source is not read when no consumer is attached.
//
// Postcondition: both attached consumers received the same snapshot.
func (r *Router) Tick() {
	if r.primary == nil && r.secondary == nil {
		return
	}

	in := r.source.Read().Clamped()

	if r.secondary != nil {
		r.secondary.Consume(in)
	}
	if r.primary != nil {
		r.primary.Consume(in)
	}
}
