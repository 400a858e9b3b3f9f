package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

// Metrics exposes settlement instruments.
type Metrics struct {
	awardedLines       metric.Int64Counter
	settlementNoop     metric.Int64Counter
	settlementFailures metric.Int64Counter
	takeAllAccepted    metric.Int64Counter
	roundsCreated      metric.Int64Counter
	inviteBackfills    metric.Int64Counter
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				log.Info("shutting down meter provider")
				return provider.Shutdown(ctx)
			},
		})
	}

	log.Info("metrics initialized",
		zap.String("endpoint", cfg.ExporterEndpoint),
		zap.String("protocol", cfg.ExporterProtocol),
	)
	return provider, nil
}

// New configures the settlement instruments on the given provider.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "lotbid"
	}
	meter := provider.Meter(name)

	m := &Metrics{}
	counters := []struct {
		dst  *metric.Int64Counter
		name string
	}{
		{&m.awardedLines, "lotbid_awarded_lines_total"},
		{&m.settlementNoop, "lotbid_settlement_noop_total"},
		{&m.settlementFailures, "lotbid_settlement_failures_total"},
		{&m.takeAllAccepted, "lotbid_take_all_accepted_total"},
		{&m.roundsCreated, "lotbid_rounds_created_total"},
		{&m.inviteBackfills, "lotbid_invitation_round_backfills_total"},
	}
	for _, c := range counters {
		counter, err := meter.Int64Counter(c.name)
		if err != nil {
			return nil, err
		}
		*c.dst = counter
	}
	return m, nil
}

// NewNoop returns instruments bound to a noop provider, for tests and tools.
func NewNoop() *Metrics {
	m, _ := New(Config{}, noop.NewMeterProvider())
	return m
}

// RecordAwardedLines counts rows written by the award writer.
func (m *Metrics) RecordAwardedLines(ctx context.Context, source string, count int) {
	if m == nil || count <= 0 {
		return
	}
	attrs := FilterAttributes(attribute.String("source", strings.TrimSpace(source)))
	m.awardedLines.Add(ctx, int64(count), metric.WithAttributes(attrs...))
}

// RecordSettlementNoop counts optimizer or take-all runs that had nothing to award.
func (m *Metrics) RecordSettlementNoop(ctx context.Context, source string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("source", strings.TrimSpace(source)))
	m.settlementNoop.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordSettlementFailure counts failed settlement runs by reason.
func (m *Metrics) RecordSettlementFailure(ctx context.Context, source, reason string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("source", strings.TrimSpace(source)),
		attribute.String("reason", strings.TrimSpace(reason)),
	)
	m.settlementFailures.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func (m *Metrics) RecordTakeAllAccepted(ctx context.Context) {
	if m == nil {
		return
	}
	m.takeAllAccepted.Add(ctx, 1)
}

func (m *Metrics) RecordRoundCreated(ctx context.Context, scope string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("scope", strings.TrimSpace(scope)))
	m.roundsCreated.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func (m *Metrics) RecordInvitationBackfill(ctx context.Context) {
	if m == nil {
		return
	}
	m.inviteBackfills.Add(ctx, 1)
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	protocol = strings.ToLower(strings.TrimSpace(protocol))
	switch protocol {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{}
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		}
		return otlpmetrichttp.New(context.Background(), opts...)
	case "grpc", "grpc/protobuf", "":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(endpoint))
		}
		return otlpmetricgrpc.New(context.Background(), opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", protocol)
	}
}

// Lot, buyer and offer ids are unbounded and must never become labels.
var allowedLabelKeys = map[attribute.Key]struct{}{
	"source": {},
	"reason": {},
	"scope":  {},
	"status": {},
}

// FilterAttributes strips disallowed labels to keep metrics low-cardinality.
func FilterAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	filtered := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if _, ok := allowedLabelKeys[attr.Key]; !ok {
			continue
		}
		filtered = append(filtered, attr)
	}
	return filtered
}
