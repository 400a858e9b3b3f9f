package metrics

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/attribute"
)

func TestFilterAttributesDropsHighCardinalityLabels(t *testing.T) {
	attrs := FilterAttributes(
		attribute.String("lot_id", "123"),
		attribute.String("buyer_id", "456"),
		attribute.String("source", "optimizer"),
		attribute.String("reason", "storage_conflict"),
	)
	if len(attrs) != 2 {
		t.Fatalf("expected 2 attributes, got %d", len(attrs))
	}
	if attrs[0].Key != "source" || attrs[1].Key != "reason" {
		t.Fatalf("unexpected attributes retained: %v", attrs)
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	ctx := context.Background()
	m.RecordAwardedLines(ctx, "optimizer", 3)
	m.RecordSettlementNoop(ctx, "take_all")
	m.RecordSettlementFailure(ctx, "take_all", "partial")
	m.RecordTakeAllAccepted(ctx)
	m.RecordRoundCreated(ctx, "all")
	m.RecordInvitationBackfill(ctx)
}

func TestNewNoop(t *testing.T) {
	m := NewNoop()
	if m == nil {
		t.Fatalf("expected metrics instance")
	}
	m.RecordAwardedLines(context.Background(), "optimizer", 2)
}
