package delivery

import (
	"testing"
	"time"

	"github.com/dpnk/backend/internal/domain/campaign"
	"github.com/dpnk/backend/internal/domain/payment"
	"github.com/dpnk/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCampaign(t *testing.T) *campaign.Campaign {
	t.Helper()
	c, err := campaign.NewCampaign("kveten-2026", "Květen 2026", 2026)
	require.NoError(t, err)
	c.TrackingNumberFirst = 100
	c.TrackingNumberLast = 104
	return c
}

func TestPlan(t *testing.T) {
	c := newCampaign(t)
	subA, subB := uuid.New(), uuid.New()
	size := uuid.New()
	candidates := []Candidate{
		{UserAttendanceID: uuid.New(), SubsidiaryID: subA, TShirtSizeID: size},
		{UserAttendanceID: uuid.New(), SubsidiaryID: subB, TShirtSizeID: size},
		{UserAttendanceID: uuid.New(), SubsidiaryID: subA, TShirtSizeID: size},
	}

	t.Run("groups by subsidiary and numbers sequentially", func(t *testing.T) {
		batch := NewBatch(c.ID, uuid.New())
		boxes, err := Plan(c, batch, candidates, nil)
		require.NoError(t, err)

		require.Len(t, boxes, 2)
		assert.Equal(t, 3, batch.PackageCount)
		assert.Equal(t, 2, batch.BoxCount)

		var numbers []int64
		for _, box := range boxes {
			for _, pkg := range box.Packages {
				assert.Equal(t, box.SubsidiaryID, pkg.SubsidiaryID)
				assert.Equal(t, batch.ID, *pkg.BatchID)
				assert.Equal(t, payment.StatusPackageAcceptedForAssembly, pkg.Status)
				numbers = append(numbers, pkg.TrackingNumber)
			}
		}
		assert.Equal(t, []int64{100, 101, 102}, numbers)
	})

	t.Run("continues after last tracking number", func(t *testing.T) {
		last := int64(101)
		boxes, err := Plan(c, NewBatch(c.ID, uuid.New()), candidates[:1], &last)
		require.NoError(t, err)
		assert.Equal(t, int64(102), boxes[0].Packages[0].TrackingNumber)
		assert.Equal(t, "000000102", boxes[0].Packages[0].TrackingCode())
	})

	t.Run("fails when range is exhausted", func(t *testing.T) {
		last := int64(103)
		_, err := Plan(c, NewBatch(c.ID, uuid.New()), candidates, &last)
		assert.ErrorIs(t, err, shared.ErrSequenceExhausted)
	})

	t.Run("fails without candidates", func(t *testing.T) {
		_, err := Plan(c, NewBatch(c.ID, uuid.New()), nil, nil)
		assert.Error(t, err)
	})
}

func TestPackageTransaction_Lifecycle(t *testing.T) {
	pkg := NewPackageTransaction(uuid.New(), Candidate{UserAttendanceID: uuid.New()}, 5)
	assert.Equal(t, payment.StatusPackageNew, pkg.Status)
	assert.Error(t, pkg.MarkDelivered(time.Now()))

	require.NoError(t, pkg.AssignToBatch(uuid.New()))
	assert.Error(t, pkg.AssignToBatch(uuid.New()))
	require.NoError(t, pkg.MarkDelivered(time.Now()))
	assert.Equal(t, payment.StatusPackageDelivered, pkg.Status)
}

func TestBatch_Dispatch(t *testing.T) {
	b := NewBatch(uuid.New(), uuid.New())
	assert.Error(t, b.Dispatch(time.Now()))

	b.OrderFileKey = "delivery/batch.txt"
	require.NoError(t, b.Dispatch(time.Now()))
	assert.True(t, b.Dispatched)
	assert.Error(t, b.Dispatch(time.Now()))
}
