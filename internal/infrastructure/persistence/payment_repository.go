package persistence

import (
	"context"

	"github.com/dpnk/backend/internal/domain/payment"
	"github.com/dpnk/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormPaymentRepository implements payment.PaymentRepository using GORM
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewGormPaymentRepository creates a new GormPaymentRepository
func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

func (r *GormPaymentRepository) payments(ctx context.Context) *gorm.DB {
	return conn(ctx, r.db).Model(&models.TransactionModel{}).Where("kind = ?", payment.KindPayment)
}

// FindByID finds a payment by ID
func (r *GormPaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*payment.Payment, error) {
	var model models.TransactionModel
	if err := r.payments(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToPayment(), nil
}

// FindBySessionID finds a payment by its gateway session
func (r *GormPaymentRepository) FindBySessionID(ctx context.Context, sessionID string) (*payment.Payment, error) {
	var model models.TransactionModel
	if err := r.payments(ctx).Where("session_id = ?", sessionID).First(&model).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToPayment(), nil
}

// FindBySessionIDForUpdate finds a payment and locks its row until the transaction ends
func (r *GormPaymentRepository) FindBySessionIDForUpdate(ctx context.Context, sessionID string) (*payment.Payment, error) {
	var model models.TransactionModel
	if err := r.payments(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("session_id = ?", sessionID).
		First(&model).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToPayment(), nil
}

// FindByAttendance lists the payments of a participant, oldest first
func (r *GormPaymentRepository) FindByAttendance(ctx context.Context, userAttendanceID uuid.UUID) ([]payment.Payment, error) {
	var rows []models.TransactionModel
	if err := r.payments(ctx).
		Where("user_attendance_id = ?", userAttendanceID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return paymentsToDomain(rows), nil
}

// FindByIDs finds several payments at once
func (r *GormPaymentRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]payment.Payment, error) {
	if len(ids) == 0 {
		return []payment.Payment{}, nil
	}
	var rows []models.TransactionModel
	if err := r.payments(ctx).Where("id IN ?", ids).Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return paymentsToDomain(rows), nil
}

// FindByInvoice lists the payments covered by an invoice
func (r *GormPaymentRepository) FindByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]payment.Payment, error) {
	var rows []models.TransactionModel
	if err := r.payments(ctx).
		Where("invoice_id = ?", invoiceID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return paymentsToDomain(rows), nil
}

// FindAll lists the payments of a campaign matching the filter
func (r *GormPaymentRepository) FindAll(ctx context.Context, campaignID uuid.UUID, filter payment.Filter) ([]payment.Payment, int64, error) {
	query := r.payments(ctx).Scopes(CampaignScope(campaignID))
	if filter.UserAttendanceID != nil {
		query = query.Where("user_attendance_id = ?", *filter.UserAttendanceID)
	}
	if filter.CompanyID != nil {
		query = query.Where("user_attendance_id IN (?)", conn(ctx, r.db).
			Model(&models.UserAttendanceModel{}).
			Select("user_attendances.id").
			Joins("JOIN teams ON teams.id = user_attendances.team_id").
			Joins("JOIN subsidiaries ON subsidiaries.id = teams.subsidiary_id").
			Where("subsidiaries.company_id = ?", *filter.CompanyID))
	}
	if filter.PayType != "" {
		query = query.Where("pay_type = ?", filter.PayType)
	}
	if len(filter.Statuses) > 0 {
		query = query.Where("status IN ?", filter.Statuses)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.TransactionModel
	orderBy := ValidateSortField(filter.OrderBy, PaymentSortFields, "created_at")
	if err := query.Scopes(Paginate(filter.Filter, orderBy)).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return paymentsToDomain(rows), total, nil
}

// Save creates or updates a payment
func (r *GormPaymentRepository) Save(ctx context.Context, p *payment.Payment) error {
	return conn(ctx, r.db).Save(models.TransactionModelFromPayment(p)).Error
}

func paymentsToDomain(rows []models.TransactionModel) []payment.Payment {
	payments := make([]payment.Payment, 0, len(rows))
	for i := range rows {
		payments = append(payments, *rows[i].ToPayment())
	}
	return payments
}

// GormCommonTransactionRepository implements payment.CommonTransactionRepository using GORM
type GormCommonTransactionRepository struct {
	db *gorm.DB
}

// NewGormCommonTransactionRepository creates a new GormCommonTransactionRepository
func NewGormCommonTransactionRepository(db *gorm.DB) *GormCommonTransactionRepository {
	return &GormCommonTransactionRepository{db: db}
}

// FindByAttendance lists the common transactions of a participant
func (r *GormCommonTransactionRepository) FindByAttendance(ctx context.Context, userAttendanceID uuid.UUID) ([]payment.CommonTransaction, error) {
	var rows []models.TransactionModel
	if err := conn(ctx, r.db).
		Where("kind = ? AND user_attendance_id = ?", payment.KindCommon, userAttendanceID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	transactions := make([]payment.CommonTransaction, 0, len(rows))
	for i := range rows {
		transactions = append(transactions, *rows[i].ToCommon())
	}
	return transactions, nil
}

// Save creates or updates a common transaction
func (r *GormCommonTransactionRepository) Save(ctx context.Context, t *payment.CommonTransaction) error {
	return conn(ctx, r.db).Save(models.TransactionModelFromCommon(t)).Error
}
