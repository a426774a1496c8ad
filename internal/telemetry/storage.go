package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"property-portal/internal/model"
	"property-portal/internal/store"
	"property-portal/internal/visibility"
)

const storageScopeName = "property-portal/storage"

// InstrumentedListings decorates a ListingStore with a span per call and
// portal.storage.* metrics. Status writes are also counted by target status.
type InstrumentedListings struct {
	inner        store.ListingStore
	tracer       trace.Tracer
	ops          metric.Int64Counter
	dur          metric.Float64Histogram
	errs         metric.Int64Counter
	statusWrites metric.Int64Counter
}

// WrapListings returns s instrumented, or s itself when telemetry is off.
func WrapListings(s store.ListingStore, enabled bool) store.ListingStore {
	if !enabled {
		return s
	}
	m := Meter(storageScopeName)
	ops, _ := m.Int64Counter("portal.storage.operations",
		metric.WithDescription("Listing storage operations executed"),
	)
	dur, _ := m.Float64Histogram("portal.storage.operation.duration",
		metric.WithDescription("Listing storage operation duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	errs, _ := m.Int64Counter("portal.storage.errors",
		metric.WithDescription("Listing storage operation errors"),
	)
	statusWrites, _ := m.Int64Counter("portal.listing.status_writes",
		metric.WithDescription("Listing status writes by target status"),
	)
	return &InstrumentedListings{
		inner:        s,
		tracer:       Tracer(storageScopeName),
		ops:          ops,
		dur:          dur,
		errs:         errs,
		statusWrites: statusWrites,
	}
}

func (s *InstrumentedListings) op(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span, time.Time) {
	all := append([]attribute.KeyValue{attribute.String("db.operation", name)}, attrs...)
	ctx, span := s.tracer.Start(ctx, "storage."+name,
		trace.WithAttributes(all...),
		trace.WithSpanKind(trace.SpanKindClient),
	)
	s.ops.Add(ctx, 1, metric.WithAttributes(all...))
	return ctx, span, time.Now()
}

func (s *InstrumentedListings) done(ctx context.Context, span trace.Span, start time.Time, err error) {
	s.dur.Record(ctx, float64(time.Since(start).Milliseconds()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.errs.Add(ctx, 1)
	}
	span.End()
}

func (s *InstrumentedListings) Create(ctx context.Context, l *model.Listing) error {
	ctx, span, t := s.op(ctx, "Create", attribute.String("listing.kind", string(l.Kind)))
	err := s.inner.Create(ctx, l)
	s.done(ctx, span, t, err)
	return err
}

func (s *InstrumentedListings) GetByID(ctx context.Context, id string) (*model.Listing, error) {
	ctx, span, t := s.op(ctx, "GetByID", attribute.String("listing.id", id))
	v, err := s.inner.GetByID(ctx, id)
	s.done(ctx, span, t, err)
	return v, err
}

func (s *InstrumentedListings) UpdateStatus(ctx context.Context, l *model.Listing) error {
	status := attribute.String("listing.status", string(l.Status))
	ctx, span, t := s.op(ctx, "UpdateStatus", attribute.String("listing.id", l.ID), status)
	err := s.inner.UpdateStatus(ctx, l)
	if err == nil {
		s.statusWrites.Add(ctx, 1, metric.WithAttributes(status))
	}
	s.done(ctx, span, t, err)
	return err
}

func (s *InstrumentedListings) Update(ctx context.Context, l *model.Listing) error {
	status := attribute.String("listing.status", string(l.Status))
	ctx, span, t := s.op(ctx, "Update", attribute.String("listing.id", l.ID), status)
	err := s.inner.Update(ctx, l)
	if err == nil {
		s.statusWrites.Add(ctx, 1, metric.WithAttributes(status))
	}
	s.done(ctx, span, t, err)
	return err
}

func (s *InstrumentedListings) List(ctx context.Context, p visibility.Predicate, sort visibility.Sort, limit, offset int) ([]*model.Listing, error) {
	ctx, span, t := s.op(ctx, "List",
		attribute.Int("query.limit", limit),
		attribute.Int("query.offset", offset),
		attribute.String("query.sort", string(sort.Field)),
	)
	v, err := s.inner.List(ctx, p, sort, limit, offset)
	s.done(ctx, span, t, err)
	return v, err
}

func (s *InstrumentedListings) Count(ctx context.Context, p visibility.Predicate) (int, error) {
	ctx, span, t := s.op(ctx, "Count")
	v, err := s.inner.Count(ctx, p)
	s.done(ctx, span, t, err)
	return v, err
}

func (s *InstrumentedListings) AppendMedia(ctx context.Context, id string, col store.MediaColumn, url string) error {
	ctx, span, t := s.op(ctx, "AppendMedia", attribute.String("listing.id", id), attribute.String("media.column", string(col)))
	err := s.inner.AppendMedia(ctx, id, col, url)
	s.done(ctx, span, t, err)
	return err
}
