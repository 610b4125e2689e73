package observer

import (
	"context"
	"time"

	"github.com/nevindra/sift"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	otellog "go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// ObservedSink wraps a sift.Sink with OTEL instrumentation. The backend
// name labels every span, metric, and log the wrapper emits.
type ObservedSink struct {
	inner   sift.Sink
	backend string
	inst    *Instruments
}

var _ sift.Sink = (*ObservedSink)(nil)

// WrapSink returns an instrumented sink.
func WrapSink(inner sift.Sink, backend string, inst *Instruments) *ObservedSink {
	return &ObservedSink{inner: inner, backend: backend, inst: inst}
}

func (o *ObservedSink) Write(ctx context.Context, records []sift.ChunkRecord) error {
	spanAttrs := []attribute.KeyValue{
		AttrSinkBackend.String(o.backend),
		AttrSinkRecordCount.Int(len(records)),
	}
	if len(records) > 0 {
		spanAttrs = append(spanAttrs,
			AttrDocumentID.String(records[0].DocumentID),
			AttrFieldPath.String(records[0].FieldPath),
		)
	}
	ctx, span := o.inst.Tracer.Start(ctx, "sink.write", trace.WithAttributes(spanAttrs...))
	defer span.End()
	start := time.Now()

	err := o.inner.Write(ctx, records)

	durationMs := float64(time.Since(start).Milliseconds())
	status := "ok"
	if err != nil {
		status = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	attrs := metric.WithAttributes(
		AttrSinkBackend.String(o.backend),
	)

	o.inst.SinkWrites.Add(ctx, 1, metric.WithAttributes(
		AttrSinkBackend.String(o.backend),
		attribute.String("status", status),
	))
	o.inst.SinkRecords.Add(ctx, int64(len(records)), attrs)
	o.inst.SinkDuration.Record(ctx, durationMs, attrs)

	var rec otellog.Record
	rec.SetSeverity(otellog.SeverityInfo)
	rec.SetBody(otellog.StringValue("sink write completed"))
	rec.AddAttributes(
		otellog.String("sink.backend", o.backend),
		otellog.Int("sink.record_count", len(records)),
		otellog.Float64("sink.duration_ms", durationMs),
		otellog.String("status", status),
	)
	o.inst.Logger.Emit(ctx, rec)

	return err
}
