package telemetry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dpnk/backend/internal/domain/identity"
	"github.com/dpnk/backend/internal/domain/payment"
	"github.com/dpnk/backend/internal/domain/shared"
	"github.com/dpnk/backend/internal/domain/trip"
	"github.com/dpnk/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"
)

func newTestBusinessMetrics(t *testing.T) (*telemetry.BusinessMetrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	bm, err := telemetry.NewBusinessMetrics(mp.Meter("test"), zap.NewNop())
	require.NoError(t, err)
	return bm, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	return rm
}

func findMetric(rm metricdata.ResourceMetrics, name string) (metricdata.Metrics, bool) {
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name == name {
				return m, true
			}
		}
	}
	return metricdata.Metrics{}, false
}

func counterTotal(t *testing.T, rm metricdata.ResourceMetrics, name string) int64 {
	t.Helper()
	m, ok := findMetric(rm, name)
	if !ok {
		return 0
	}
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "%s is not an int64 sum", name)
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func histogramCount(t *testing.T, rm metricdata.ResourceMetrics, name string) uint64 {
	t.Helper()
	m, ok := findMetric(rm, name)
	if !ok {
		return 0
	}
	hist, ok := m.Data.(metricdata.Histogram[float64])
	require.True(t, ok, "%s is not a float64 histogram", name)
	var count uint64
	for _, dp := range hist.DataPoints {
		count += dp.Count
	}
	return count
}

func TestNewBusinessMetrics_NilMeter(t *testing.T) {
	bm, err := telemetry.NewBusinessMetrics(nil, zap.NewNop())
	assert.ErrorIs(t, err, telemetry.ErrMeterNil)
	assert.Nil(t, bm)
}

func TestBusinessMetrics_EventTypes(t *testing.T) {
	bm, _ := newTestBusinessMetrics(t)
	assert.ElementsMatch(t, []string{
		identity.EventTypeUserRegistered,
		trip.EventTypeTripSaved,
		payment.EventTypePaymentStatusChanged,
	}, bm.EventTypes())
}

func TestBusinessMetrics_Handle(t *testing.T) {
	campaignID := uuid.New()
	uaID := uuid.New()

	tripEvent := func(mode trip.CommuteMode, km string) *trip.TripSavedEvent {
		return &trip.TripSavedEvent{
			BaseDomainEvent:  shared.NewBaseDomainEvent(trip.EventTypeTripSaved, trip.AggregateTypeTrip, uuid.New(), campaignID),
			UserAttendanceID: uaID,
			CommuteMode:      mode,
			Distance:         decimal.RequireFromString(km),
		}
	}
	paymentEvent := func(from, to payment.Status) *payment.PaymentStatusChangedEvent {
		return &payment.PaymentStatusChangedEvent{
			BaseDomainEvent:  shared.NewBaseDomainEvent(payment.EventTypePaymentStatusChanged, payment.AggregateTypePayment, uuid.New(), campaignID),
			UserAttendanceID: uaID,
			OldStatus:        from,
			NewStatus:        to,
			PayType:          payment.PayTypeCard,
			Amount:           decimal.NewFromInt(300),
		}
	}

	tests := []struct {
		name          string
		events        []shared.DomainEvent
		registrations int64
		trips         int64
		distances     uint64
		payments      int64
		amounts       uint64
	}{
		{
			name: "registration",
			events: []shared.DomainEvent{
				&identity.UserRegisteredEvent{
					BaseDomainEvent: shared.NewBaseDomainEvent(identity.EventTypeUserRegistered, identity.AggregateTypeUser, uuid.New(), uuid.Nil),
					Email:           "jan@example.cz",
					Language:        identity.LanguageCS,
				},
			},
			registrations: 1,
		},
		{
			name:      "trips with and without distance",
			events:    []shared.DomainEvent{tripEvent(trip.ModeBicycle, "12.5"), tripEvent(trip.ModeNoWork, "0")},
			trips:     2,
			distances: 1,
		},
		{
			name:     "payment reaching done",
			events:   []shared.DomainEvent{paymentEvent(payment.StatusNew, payment.StatusDone)},
			payments: 1,
			amounts:  1,
		},
		{
			name:     "payment moving between done statuses",
			events:   []shared.DomainEvent{paymentEvent(payment.StatusCompanyAccepts, payment.StatusInvoiceMade)},
			payments: 1,
		},
		{
			name:   "unchanged payment status",
			events: []shared.DomainEvent{paymentEvent(payment.StatusDone, payment.StatusDone)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bm, reader := newTestBusinessMetrics(t)
			for _, e := range tt.events {
				require.NoError(t, bm.Handle(context.Background(), e))
			}

			rm := collect(t, reader)
			assert.Equal(t, tt.registrations, counterTotal(t, rm, "dpnk_registrations_total"))
			assert.Equal(t, tt.trips, counterTotal(t, rm, "dpnk_trips_logged_total"))
			assert.Equal(t, tt.distances, histogramCount(t, rm, "dpnk_trip_distance_km"))
			assert.Equal(t, tt.payments, counterTotal(t, rm, "dpnk_payments_total"))
			assert.Equal(t, tt.amounts, histogramCount(t, rm, "dpnk_payment_amount_czk"))
		})
	}
}

func TestBusinessMetrics_RecordJob(t *testing.T) {
	bm, reader := newTestBusinessMetrics(t)
	ctx := context.Background()

	bm.RecordJob(ctx, "results_flush", 120*time.Millisecond, nil)
	bm.RecordJob(ctx, "results_flush", time.Second, errors.New("boom"))
	bm.RecordResultsRecalculated(ctx, "length", 4)
	bm.RecordResultsRecalculated(ctx, "length", 0)

	rm := collect(t, reader)
	assert.Equal(t, int64(2), counterTotal(t, rm, "dpnk_job_runs_total"))
	assert.Equal(t, uint64(2), histogramCount(t, rm, "dpnk_job_duration_seconds"))
	assert.Equal(t, int64(4), counterTotal(t, rm, "dpnk_results_recalculated_total"))

	m, ok := findMetric(rm, "dpnk_job_runs_total")
	require.True(t, ok)
	assert.Len(t, m.Data.(metricdata.Sum[int64]).DataPoints, 2, "success and failure are separate series")
}
