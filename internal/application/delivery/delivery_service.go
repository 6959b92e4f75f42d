package delivery

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/dpnk/backend/internal/domain/attendance"
	"github.com/dpnk/backend/internal/domain/campaign"
	"github.com/dpnk/backend/internal/domain/delivery"
	"github.com/dpnk/backend/internal/domain/identity"
	"github.com/dpnk/backend/internal/domain/organization"
	"github.com/dpnk/backend/internal/domain/shared"
	carrier "github.com/dpnk/backend/internal/infrastructure/delivery"
	"github.com/dpnk/backend/internal/infrastructure/printing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var grams = decimal.NewFromInt(1000)

// Repositories groups the stores the delivery service works with
type Repositories struct {
	Campaigns    campaign.CampaignRepository
	TShirtSizes  campaign.TShirtSizeRepository
	Attendances  attendance.UserAttendanceRepository
	Users        identity.UserRepository
	Teams        organization.TeamRepository
	Companies    organization.CompanyRepository
	Subsidiaries organization.SubsidiaryRepository
	Packages     delivery.PackageRepository
	Batches      delivery.BatchRepository
}

// Printer renders the box sheets of a batch
type Printer interface {
	CustomerSheetsPDF(ctx context.Context, sheets *printing.CustomerSheets) ([]byte, error)
}

// DeliveryService ships T-shirt packages: it collects paid participants into
// batches, numbers the packages and produces the carrier documents
type DeliveryService struct {
	repos   Repositories
	printer Printer
	writer  *carrier.AVFullWriter
	storage shared.FileStorage
	tx      shared.Transactor
	logger  *zap.Logger
	now     func() time.Time
}

// NewDeliveryService creates a new delivery service
func NewDeliveryService(
	repos Repositories,
	printer Printer,
	writer *carrier.AVFullWriter,
	storage shared.FileStorage,
	tx shared.Transactor,
	logger *zap.Logger,
) *DeliveryService {
	return &DeliveryService{
		repos:   repos,
		printer: printer,
		writer:  writer,
		storage: storage,
		tx:      tx,
		logger:  logger,
		now:     time.Now,
	}
}

// CreateBatch packs every waiting participant into a new batch and stores
// the customer sheets and the AVFULL order file
func (s *DeliveryService) CreateBatch(ctx context.Context, campaignID, authorID uuid.UUID) (*BatchResponse, error) {
	c, err := s.repos.Campaigns.FindByID(ctx, campaignID)
	if err != nil {
		return nil, err
	}

	batch := delivery.NewBatch(campaignID, authorID)
	var boxes []delivery.Box
	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		candidates, err := s.repos.Batches.FindCandidates(ctx, campaignID)
		if err != nil {
			return err
		}
		last, err := s.repos.Packages.LastTrackingNumber(ctx, campaignID)
		if err != nil {
			return err
		}
		boxes, err = delivery.Plan(c, batch, candidates, last)
		if err != nil {
			return err
		}
		if err := s.repos.Batches.Save(ctx, batch); err != nil {
			return err
		}
		var packages []*delivery.PackageTransaction
		for _, box := range boxes {
			packages = append(packages, box.Packages...)
		}
		return s.repos.Packages.SaveBatch(ctx, packages)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Delivery batch created",
		zap.String("batch_id", batch.ID.String()),
		zap.Int("packages", batch.PackageCount),
		zap.Int("boxes", batch.BoxCount))

	if err := s.produceDocuments(ctx, c, batch, boxes); err != nil {
		s.logger.Error("Failed to produce batch documents",
			zap.String("batch_id", batch.ID.String()),
			zap.Error(err))
		return nil, err
	}
	resp := ToBatchResponse(batch)
	return &resp, nil
}

// ListBatches lists the batches of the campaign, oldest first
func (s *DeliveryService) ListBatches(ctx context.Context, campaignID uuid.UUID) ([]BatchResponse, error) {
	batches, err := s.repos.Batches.FindByCampaign(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	out := make([]BatchResponse, len(batches))
	for i := range batches {
		out[i] = ToBatchResponse(&batches[i])
	}
	return out, nil
}

// GetBatch returns a batch with its packages
func (s *DeliveryService) GetBatch(ctx context.Context, campaignID, batchID uuid.UUID) (*BatchDetail, error) {
	batch, err := s.batch(ctx, campaignID, batchID)
	if err != nil {
		return nil, err
	}
	packages, err := s.repos.Packages.FindByBatch(ctx, batchID)
	if err != nil {
		return nil, err
	}
	detail := &BatchDetail{BatchResponse: ToBatchResponse(batch), Packages: make([]PackageResponse, len(packages))}
	for i := range packages {
		detail.Packages[i] = ToPackageResponse(&packages[i])
	}
	return detail, nil
}

// CustomerSheets returns the box sheets PDF of a batch
func (s *DeliveryService) CustomerSheets(ctx context.Context, campaignID, batchID uuid.UUID) (*File, error) {
	batch, err := s.batch(ctx, campaignID, batchID)
	if err != nil {
		return nil, err
	}
	if batch.CustomerSheetsKey == "" {
		return nil, shared.ErrNotFound
	}
	data, err := s.storage.Get(ctx, batch.CustomerSheetsKey)
	if err != nil {
		return nil, err
	}
	return &File{Filename: "zakaznicke-listy-" + batch.ID.String()[:8] + ".pdf", ContentType: "application/pdf", Content: data}, nil
}

// OrderFile returns the AVFULL carrier file of a batch
func (s *DeliveryService) OrderFile(ctx context.Context, campaignID, batchID uuid.UUID) (*File, error) {
	batch, err := s.batch(ctx, campaignID, batchID)
	if err != nil {
		return nil, err
	}
	if batch.OrderFileKey == "" {
		return nil, shared.ErrNotFound
	}
	data, err := s.storage.Get(ctx, batch.OrderFileKey)
	if err != nil {
		return nil, err
	}
	return &File{Filename: "avfull-" + batch.ID.String()[:8] + ".txt", ContentType: "text/plain", Content: data}, nil
}

// Dispatch marks the batch as handed over to the carrier
func (s *DeliveryService) Dispatch(ctx context.Context, campaignID, batchID uuid.UUID) (*BatchResponse, error) {
	batch, err := s.batch(ctx, campaignID, batchID)
	if err != nil {
		return nil, err
	}
	if err := batch.Dispatch(s.now()); err != nil {
		return nil, err
	}
	if err := s.repos.Batches.Save(ctx, batch); err != nil {
		return nil, err
	}
	resp := ToBatchResponse(batch)
	return &resp, nil
}

// MarkDelivered records a carrier delivery confirmation of one package
func (s *DeliveryService) MarkDelivered(ctx context.Context, campaignID uuid.UUID, input MarkDeliveredInput) (*PackageResponse, error) {
	pkg, err := s.repos.Packages.FindByTrackingNumber(ctx, campaignID, input.TrackingNumber)
	if err != nil {
		return nil, err
	}
	at := s.now()
	if input.DeliveredAt != nil {
		at = *input.DeliveredAt
	}
	if err := pkg.MarkDelivered(at); err != nil {
		return nil, err
	}
	if err := s.repos.Packages.Save(ctx, pkg); err != nil {
		return nil, err
	}
	resp := ToPackageResponse(pkg)
	return &resp, nil
}

func (s *DeliveryService) batch(ctx context.Context, campaignID, batchID uuid.UUID) (*delivery.Batch, error) {
	batch, err := s.repos.Batches.FindByID(ctx, batchID)
	if err != nil {
		return nil, err
	}
	if batch.CampaignID != campaignID {
		return nil, shared.ErrNotFound
	}
	return batch, nil
}

// produceDocuments renders the sheets and the order file of a planned batch
func (s *DeliveryService) produceDocuments(ctx context.Context, c *campaign.Campaign, batch *delivery.Batch, boxes []delivery.Box) error {
	sizes, err := s.repos.TShirtSizes.FindByCampaign(ctx, c.ID)
	if err != nil {
		return err
	}
	sizeNames := make(map[uuid.UUID]string, len(sizes))
	for _, size := range sizes {
		sizeNames[size.ID] = size.Name
	}

	sheets := &printing.CustomerSheets{Campaign: c.Name, BatchID: batch.ID.String()[:8], Created: s.now()}
	var records []carrier.Record
	weight := int(c.PackageWeight.Mul(grams).IntPart())

	for i, box := range boxes {
		sub, err := s.repos.Subsidiaries.FindByID(ctx, box.SubsidiaryID)
		if err != nil {
			return err
		}
		company, err := s.repos.Companies.FindByID(ctx, sub.CompanyID)
		if err != nil {
			return err
		}
		recipient := sub.Recipient(company.Name)
		sheet := printing.SheetBox{
			Number:         i + 1,
			Company:        company.Name,
			Street:         sub.Address.StreetLine(),
			City:           sub.Address.City(),
			Zip:            sub.Address.FormattedPSC(),
			AddresseeName:  recipient,
			AddresseePhone: sub.BoxAddressee.Telephone,
			AddresseeEmail: sub.BoxAddressee.Email,
		}

		for _, pkg := range box.Packages {
			name, team, err := s.participant(ctx, pkg.UserAttendanceID)
			if err != nil {
				return err
			}
			sheet.Packages = append(sheet.Packages, printing.SheetPackage{
				TrackingCode: pkg.TrackingCode(),
				Name:         name,
				TShirt:       sizeNames[pkg.TShirtSizeID],
				Team:         team,
			})
			records = append(records, carrier.Record{
				TrackingNumber: pkg.TrackingCode(),
				Name:           recipient,
				Street:         sub.Address.StreetLine(),
				City:           sub.Address.City(),
				Zip:            sub.Address.PSC(),
				Phone:          sub.BoxAddressee.Telephone,
				Email:          sub.BoxAddressee.Email,
				WeightGrams:    weight,
				PackageCount:   1,
				Reference:      name,
			})
		}
		sheets.Boxes = append(sheets.Boxes, sheet)
	}

	pdf, err := s.printer.CustomerSheetsPDF(ctx, sheets)
	if err != nil {
		return err
	}
	var order bytes.Buffer
	if err := s.writer.Write(&order, records); err != nil {
		return err
	}

	prefix := fmt.Sprintf("delivery/%s/%s", c.Slug, batch.ID)
	if err := s.storage.Put(ctx, prefix+"/customer_sheets.pdf", pdf, "application/pdf"); err != nil {
		return err
	}
	if err := s.storage.Put(ctx, prefix+"/avfull.txt", order.Bytes(), "text/plain"); err != nil {
		return err
	}
	batch.CustomerSheetsKey = prefix + "/customer_sheets.pdf"
	batch.OrderFileKey = prefix + "/avfull.txt"
	return s.repos.Batches.Save(ctx, batch)
}

func (s *DeliveryService) participant(ctx context.Context, uaID uuid.UUID) (name, team string, err error) {
	ua, err := s.repos.Attendances.FindByID(ctx, uaID)
	if err != nil {
		return "", "", err
	}
	user, err := s.repos.Users.FindByID(ctx, ua.UserID)
	if err != nil {
		return "", "", err
	}
	if ua.TeamID != nil {
		t, err := s.repos.Teams.FindByID(ctx, *ua.TeamID)
		if err != nil {
			return "", "", err
		}
		team = t.Name
	}
	return user.FullName(), team, nil
}
