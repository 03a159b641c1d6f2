package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	otelmetric "go.opentelemetry.io/otel/metric"
)

// Metrics counts profile activity. A nil *Metrics records nothing.
type Metrics struct {
	visits  otelmetric.Int64Counter
	qrScans otelmetric.Int64Counter
	created otelmetric.Int64Counter
}

func NewMetrics(meter otelmetric.Meter) (*Metrics, error) {
	visits, err := meter.Int64Counter("profile.visits",
		otelmetric.WithDescription("Profile page views"))
	if err != nil {
		return nil, fmt.Errorf("create profile.visits counter: %w", err)
	}
	qrScans, err := meter.Int64Counter("profile.qr_scans",
		otelmetric.WithDescription("Profile views arriving from a QR code"))
	if err != nil {
		return nil, fmt.Errorf("create profile.qr_scans counter: %w", err)
	}
	created, err := meter.Int64Counter("profile.created",
		otelmetric.WithDescription("Profiles created"))
	if err != nil {
		return nil, fmt.Errorf("create profile.created counter: %w", err)
	}
	return &Metrics{visits: visits, qrScans: qrScans, created: created}, nil
}

// Visits and scans are recorded without attributes. Per-profile totals live
// in the profiles table.
func (m *Metrics) RecordVisit(ctx context.Context) {
	if m == nil {
		return
	}
	m.visits.Add(ctx, 1)
}

func (m *Metrics) RecordQRScan(ctx context.Context) {
	if m == nil {
		return
	}
	m.qrScans.Add(ctx, 1)
}

func (m *Metrics) RecordCreated(ctx context.Context, source string) {
	if m == nil {
		return
	}
	m.created.Add(ctx, 1, otelmetric.WithAttributes(attribute.String("source", source)))
}
