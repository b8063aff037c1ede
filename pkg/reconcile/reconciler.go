package reconcile

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Default tracer name for reconciler spans.
const defaultTracerName = "attrsync"

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Reconciler) {
		r.logger = logger
	}
}

// WithMetrics records mutations and update latency into m.
func WithMetrics(m *Metrics) Option {
	return func(r *Reconciler) {
		r.metrics = m
	}
}

// WithTracer sets the tracer used by UpdateContext.
// Default: the global provider's "attrsync" tracer.
func WithTracer(tracer trace.Tracer) Option {
	return func(r *Reconciler) {
		r.tracer = tracer
	}
}

// WithStrategy pins the strategy for an attribute name, bypassing Select.
// The pinned strategy is still checked against the host and element on
// first use.
func WithStrategy(name string, kind Kind) Option {
	return func(r *Reconciler) {
		r.overrides[name] = kind
	}
}

// WithAttributeNamespace registers the namespace URI used for attributes
// with the given prefix by the namespaced strategy. "xlink" is registered
// by default.
func WithAttributeNamespace(prefix, uri string) Option {
	return func(r *Reconciler) {
		r.namespaces[prefix] = uri
	}
}

// UpdateStats summarises the host calls made by one Update.
type UpdateStats struct {
	Mutations  int // Host mutation calls
	Suppressed int // Updates skipped on a focused control
	Removed    int // Entries discarded
}

// Reconciler owns the attribute state of a single Node. It is not safe for
// concurrent use.
type Reconciler struct {
	node       Node
	caps       capabilities
	entries    map[string]*entry
	overrides  map[string]Kind
	namespaces map[string]string
	logger     *slog.Logger
	metrics    *Metrics
	tracer     trace.Tracer
	last       UpdateStats
}

// New binds a reconciler to node. host must implement the capability
// interfaces needed by the attributes it will be asked to manage.
func New(node Node, host any, opts ...Option) *Reconciler {
	r := &Reconciler{
		node:       node,
		caps:       resolveCapabilities(host),
		entries:    make(map[string]*entry),
		overrides:  make(map[string]Kind),
		namespaces: map[string]string{"xlink": XLinkNamespace},
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	if r.tracer == nil {
		r.tracer = otel.Tracer(defaultTracerName)
	}
	return r
}

// Node returns the node the reconciler is bound to.
func (r *Reconciler) Node() Node {
	return r.node
}

// Update brings the node in line with desired. See UpdateContext.
func (r *Reconciler) Update(desired Attrs) error {
	return r.UpdateContext(context.Background(), desired)
}

// UpdateContext brings the node in line with desired inside a trace span.
//
// Desired values are validated before any host call, and strategies for
// newly seen attributes are selected and checked against the host before
// any host call, so a returned error means the node was not touched.
// Removals of tracked attributes run before sets, each group in name order.
func (r *Reconciler) UpdateContext(ctx context.Context, desired Attrs) (err error) {
	_, span := r.tracer.Start(ctx, "attrsync.update",
		trace.WithAttributes(
			attribute.String("attrsync.tag", r.node.TagName()),
			attribute.Int("attrsync.desired", len(desired)),
		),
	)
	start := time.Now()
	defer func() {
		r.metrics.recordUpdate(start, err)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetAttributes(
				attribute.Int("attrsync.mutations", r.last.Mutations),
				attribute.Int("attrsync.suppressed", r.last.Suppressed),
			)
		}
		span.End()
	}()

	next, err := desired.normalize()
	if err != nil {
		return err
	}

	created := make(map[string]*entry)
	for _, name := range sortedKeys(next) {
		if _, tracked := r.entries[name]; tracked || !next[name].present {
			continue
		}
		e, err := r.newEntry(name)
		if err != nil {
			return err
		}
		created[name] = e
	}

	r.last = UpdateStats{}

	for _, name := range sortedKeys(r.entries) {
		if v := next[name]; v.present {
			continue
		}
		e := r.entries[name]
		if !r.apply(name, e, present(e.last), absent) {
			// Retried on the next pass.
			continue
		}
		delete(r.entries, name)
		r.last.Removed++
		r.logger.Debug("attribute discarded", "attr", name, "strategy", e.kind)
	}

	for _, name := range sortedKeys(next) {
		v := next[name]
		if !v.present {
			// Tracked ones were removed above; untracked ones are no-ops.
			continue
		}
		e, tracked := r.entries[name]
		old := absent
		if tracked {
			old = present(e.last)
		} else {
			e = created[name]
		}
		if old.equal(v) {
			continue
		}
		if !r.apply(name, e, old, v) {
			continue
		}
		e.last = v.s
		r.entries[name] = e
	}
	return nil
}

// apply runs e's strategy and records the outcome.
func (r *Reconciler) apply(name string, e *entry, old, next value) bool {
	applied, o := strategies[e.kind].apply(call{
		caps: &r.caps,
		node: r.node,
		name: name,
		ent:  e,
	}, old, next)
	if !applied {
		r.last.Suppressed++
		r.metrics.recordSuppressed(e.kind)
		r.logger.Debug("attribute update suppressed on focused control",
			"attr", name,
			"tag", r.node.TagName(),
		)
		return false
	}
	r.last.Mutations++
	r.metrics.recordMutation(e.kind, o)
	return true
}

// LastUpdate returns the stats of the most recent successful Update.
func (r *Reconciler) LastUpdate() UpdateStats {
	return r.last
}

// Tracked returns the names of the attributes the reconciler owns, sorted.
func (r *Reconciler) Tracked() []string {
	return sortedKeys(r.entries)
}

// Value returns the last value applied for name.
func (r *Reconciler) Value(name string) (string, bool) {
	e, ok := r.entries[name]
	if !ok {
		return "", false
	}
	return e.last, true
}

// Strategy returns the strategy bound to a tracked attribute.
func (r *Reconciler) Strategy(name string) (Kind, bool) {
	e, ok := r.entries[name]
	if !ok {
		return 0, false
	}
	return e.kind, true
}

// Discard forgets every tracked attribute without touching the node. Call
// it when the node itself is thrown away.
func (r *Reconciler) Discard() {
	clear(r.entries)
}
