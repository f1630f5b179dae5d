package service

import (
	"errors"

	"github.com/rs/zerolog/log"
	"github.com/teresa-solution/tenant-order-service/internal/monitoring"
	"github.com/teresa-solution/tenant-order-service/internal/store"
	"github.com/teresa-solution/tenant-order-service/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var tracer = telemetry.Tracer("github.com/teresa-solution/tenant-order-service/internal/service")

// internalError logs and alerts on an infrastructure failure and hides it
// behind an Internal status carrying msg.
func internalError(err error, msg string) error {
	log.Error().Err(err).Msg(msg)
	monitoring.Alert("internal_error", msg, map[string]string{"cause": err.Error()})
	return status.Error(codes.Internal, msg)
}

// listError maps a failed page read. Bad cursors are the caller's fault.
func listError(err error, msg string) error {
	if errors.Is(err, store.ErrInvalidCursor) {
		return status.Error(codes.InvalidArgument, "Invalid pagination cursor")
	}
	return internalError(err, msg)
}

func invalidArgument(err error) error {
	return status.Error(codes.InvalidArgument, err.Error())
}

func withID(key, id string) trace.SpanStartOption {
	return trace.WithAttributes(attribute.String(key, id))
}

func finishSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
	}
	span.End()
}
