package delivery

import (
	"sort"
	"time"

	"github.com/dpnk/backend/internal/domain/campaign"
	"github.com/dpnk/backend/internal/domain/payment"
	"github.com/dpnk/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// PackageTransaction is the T-shirt package of one participant
type PackageTransaction struct {
	shared.CampaignAggregateRoot
	UserAttendanceID uuid.UUID
	SubsidiaryID     uuid.UUID
	TShirtSizeID     uuid.UUID
	TrackingNumber   int64
	BatchID          *uuid.UUID
	Status           payment.Status
	AuthorID         *uuid.UUID
	DeliveredAt      *time.Time
}

// NewPackageTransaction creates a package waiting for a batch
func NewPackageTransaction(campaignID uuid.UUID, c Candidate, trackingNumber int64) *PackageTransaction {
	return &PackageTransaction{
		CampaignAggregateRoot: shared.NewCampaignAggregateRoot(campaignID),
		UserAttendanceID:      c.UserAttendanceID,
		SubsidiaryID:          c.SubsidiaryID,
		TShirtSizeID:          c.TShirtSizeID,
		TrackingNumber:        trackingNumber,
		Status:                payment.StatusPackageNew,
	}
}

// AssignToBatch puts the package into a delivery batch
func (p *PackageTransaction) AssignToBatch(batchID uuid.UUID) error {
	if p.BatchID != nil {
		return shared.NewDomainError("INVALID_STATE", "package is already in a batch")
	}
	p.BatchID = &batchID
	p.Status = payment.StatusPackageAcceptedForAssembly
	p.UpdatedAt = time.Now()
	return nil
}

// MarkDelivered records the carrier delivery confirmation
func (p *PackageTransaction) MarkDelivered(at time.Time) error {
	if p.BatchID == nil {
		return shared.NewDomainError("INVALID_STATE", "package has not been dispatched")
	}
	p.Status = payment.StatusPackageDelivered
	p.DeliveredAt = &at
	p.UpdatedAt = time.Now()
	return nil
}

// TrackingCode is the tracking number as printed on labels
func (p *PackageTransaction) TrackingCode() string {
	return FormatTrackingNumber(p.TrackingNumber)
}

// Batch is one shipment order sent to the carrier
type Batch struct {
	shared.CampaignAggregateRoot
	AuthorID          uuid.UUID
	PackageCount      int
	BoxCount          int
	CustomerSheetsKey string
	OrderFileKey      string
	Dispatched        bool
	DispatchedAt      *time.Time
}

// NewBatch creates an empty batch
func NewBatch(campaignID, authorID uuid.UUID) *Batch {
	return &Batch{
		CampaignAggregateRoot: shared.NewCampaignAggregateRoot(campaignID),
		AuthorID:              authorID,
	}
}

// Dispatch marks the batch as handed over to the carrier
func (b *Batch) Dispatch(at time.Time) error {
	if b.Dispatched {
		return shared.NewDomainError("INVALID_STATE", "batch was already dispatched")
	}
	if b.OrderFileKey == "" {
		return shared.NewDomainError("INVALID_STATE", "batch has no carrier order file")
	}
	b.Dispatched = true
	b.DispatchedAt = &at
	b.IncrementVersion()
	return nil
}

// Candidate is a paid participant with a shippable t-shirt and no package
type Candidate struct {
	UserAttendanceID uuid.UUID
	SubsidiaryID     uuid.UUID
	TShirtSizeID     uuid.UUID
}

// Box collects the packages sent to one subsidiary
type Box struct {
	SubsidiaryID uuid.UUID
	Packages     []*PackageTransaction
}

// Plan assigns tracking numbers to candidates grouped by subsidiary and
// puts them into the batch. lastTracking is the highest tracking number
// allocated so far in the campaign.
func Plan(c *campaign.Campaign, batch *Batch, candidates []Candidate, lastTracking *int64) ([]Box, error) {
	if len(candidates) == 0 {
		return nil, shared.NewDomainError("INVALID_STATE", "there are no packages to dispatch")
	}
	sorted := make([]Candidate, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].SubsidiaryID.String() < sorted[j].SubsidiaryID.String()
	})

	var boxes []Box
	last := lastTracking
	for _, cand := range sorted {
		next, err := campaign.NextSequence(c.TrackingNumberFirst, c.TrackingNumberLast, last)
		if err != nil {
			return nil, err
		}
		last = &next
		pkg := NewPackageTransaction(c.ID, cand, next)
		if err := pkg.AssignToBatch(batch.ID); err != nil {
			return nil, err
		}
		if len(boxes) == 0 || boxes[len(boxes)-1].SubsidiaryID != cand.SubsidiaryID {
			boxes = append(boxes, Box{SubsidiaryID: cand.SubsidiaryID})
		}
		boxes[len(boxes)-1].Packages = append(boxes[len(boxes)-1].Packages, pkg)
	}
	batch.PackageCount = len(sorted)
	batch.BoxCount = len(boxes)
	return boxes, nil
}
