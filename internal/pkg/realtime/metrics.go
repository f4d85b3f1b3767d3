package realtime

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	resultDelivered = "delivered"
	resultMiss      = "miss"
	resultDropped   = "dropped"
)

// Metrics records hub activity to OpenTelemetry and to a Prometheus registry.
// A nil *Metrics records nothing.
type Metrics struct {
	deliveries  metric.Int64Counter
	connections metric.Int64UpDownCounter

	promDeliveries  *prometheus.CounterVec
	promConnections prometheus.Gauge
}

// NewMetrics creates the hub instruments and registers the Prometheus collectors on reg.
func NewMetrics(meter metric.Meter, reg prometheus.Registerer) (*Metrics, error) {
	deliveries, err := meter.Int64Counter("realtime.delivery",
		metric.WithDescription("Realtime envelope deliveries by result"))
	if err != nil {
		return nil, err
	}

	connections, err := meter.Int64UpDownCounter("realtime.connections",
		metric.WithDescription("Live realtime subscribers"))
	if err != nil {
		return nil, err
	}

	m := &Metrics{
		deliveries:  deliveries,
		connections: connections,
		promDeliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "levelup_realtime_deliveries_total",
			Help: "Realtime envelope deliveries by result (delivered, miss, dropped)",
		}, []string{"result"}),
		promConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "levelup_realtime_connections",
			Help: "Number of live realtime subscribers",
		}),
	}

	if reg != nil {
		for _, c := range []prometheus.Collector{m.promDeliveries, m.promConnections} {
			if err := reg.Register(c); err != nil {
				var are prometheus.AlreadyRegisteredError
				if !errors.As(err, &are) {
					return nil, err
				}
			}
		}
	}

	return m, nil
}

func (m *Metrics) delivery(ctx context.Context, kind EventKind, result string) {
	if m == nil {
		return
	}
	m.deliveries.Add(ctx, 1, metric.WithAttributes(
		attribute.String("event", string(kind)),
		attribute.String("result", result),
	))
	m.promDeliveries.WithLabelValues(result).Inc()
}

func (m *Metrics) connection(ctx context.Context, delta int64) {
	if m == nil {
		return
	}
	m.connections.Add(ctx, delta)
	m.promConnections.Add(float64(delta))
}
