package delivery

import (
	"time"

	"github.com/dpnk/backend/internal/domain/delivery"
	"github.com/dpnk/backend/internal/domain/payment"
	"github.com/google/uuid"
)

// BatchResponse represents a delivery batch in API responses
type BatchResponse struct {
	ID                uuid.UUID  `json:"id"`
	CreatedAt         time.Time  `json:"created_at"`
	AuthorID          uuid.UUID  `json:"author_id"`
	PackageCount      int        `json:"package_count"`
	BoxCount          int        `json:"box_count"`
	HasCustomerSheets bool       `json:"has_customer_sheets"`
	HasOrderFile      bool       `json:"has_order_file"`
	Dispatched        bool       `json:"dispatched"`
	DispatchedAt      *time.Time `json:"dispatched_at,omitempty"`
}

// ToBatchResponse converts a domain Batch to BatchResponse
func ToBatchResponse(b *delivery.Batch) BatchResponse {
	return BatchResponse{
		ID:                b.ID,
		CreatedAt:         b.CreatedAt,
		AuthorID:          b.AuthorID,
		PackageCount:      b.PackageCount,
		BoxCount:          b.BoxCount,
		HasCustomerSheets: b.CustomerSheetsKey != "",
		HasOrderFile:      b.OrderFileKey != "",
		Dispatched:        b.Dispatched,
		DispatchedAt:      b.DispatchedAt,
	}
}

// PackageResponse represents a package in API responses
type PackageResponse struct {
	ID               uuid.UUID      `json:"id"`
	UserAttendanceID uuid.UUID      `json:"user_attendance_id"`
	TrackingNumber   string         `json:"tracking_number"`
	TShirtSizeID     uuid.UUID      `json:"t_shirt_size_id"`
	Status           payment.Status `json:"status"`
	StatusName       string         `json:"status_name"`
	DeliveredAt      *time.Time     `json:"delivered_at,omitempty"`
}

// ToPackageResponse converts a domain PackageTransaction to PackageResponse
func ToPackageResponse(p *delivery.PackageTransaction) PackageResponse {
	return PackageResponse{
		ID:               p.ID,
		UserAttendanceID: p.UserAttendanceID,
		TrackingNumber:   p.TrackingCode(),
		TShirtSizeID:     p.TShirtSizeID,
		Status:           p.Status,
		StatusName:       p.Status.String(),
		DeliveredAt:      p.DeliveredAt,
	}
}

// BatchDetail is a batch with its packages
type BatchDetail struct {
	BatchResponse
	Packages []PackageResponse `json:"packages"`
}

// MarkDeliveredInput records a carrier delivery confirmation
type MarkDeliveredInput struct {
	TrackingNumber int64      `json:"tracking_number" binding:"required,min=1"`
	DeliveredAt    *time.Time `json:"delivered_at"`
}

// File is a generated batch document
type File struct {
	Filename    string
	ContentType string
	Content     []byte
}
