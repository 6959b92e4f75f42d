package reporting

import (
	"context"
	"errors"
	"io"
	"regexp"

	"github.com/dpnk/backend/internal/domain/organization"
	"github.com/dpnk/backend/internal/domain/shared"
	"github.com/dpnk/backend/internal/domain/shared/valueobject"
	"github.com/dpnk/backend/internal/infrastructure/export"
	"go.uber.org/zap"
)

const maxImportErrors = 100

var pscPattern = regexp.MustCompile(`^\d{3} ?\d{2}$`)

// CompanyImportRules returns the column rules of a company import file
func CompanyImportRules() []export.Rule {
	return []export.Rule{
		{Column: "name", Required: true, MaxLength: 60, Unique: true},
		{Column: "ico", MaxLength: 10, Check: validateICO},
		{Column: "dic", MaxLength: 14},
		{Column: "street", MaxLength: 50},
		{Column: "street_number", MaxLength: 10},
		{Column: "city", MaxLength: 50},
		{Column: "psc", Pattern: pscPattern},
	}
}

func validateICO(value string) error {
	_, err := organization.NormalizeICO(value)
	return err
}

// ImportCompanies creates or updates companies from a CSV or XLSX upload.
// Rows are matched by ICO first, then by name. Invalid rows are reported
// and skipped.
func (s *ReportService) ImportCompanies(ctx context.Context, r io.Reader, format export.Format) (*ImportResult, error) {
	headers, rows, err := export.Read(r, format)
	if err != nil {
		return nil, shared.NewDomainError("INVALID_INPUT", err.Error())
	}

	validator := &export.Validator{Rules: CompanyImportRules(), MaxErrors: maxImportErrors}
	checked := validator.Validate(headers, rows)
	result := &ImportResult{
		TotalRows:   len(rows),
		ErrorRows:   len(rows) - len(checked.Valid),
		Errors:      checked.Errors,
		IsTruncated: checked.Truncated,
	}
	for _, row := range checked.Valid {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		created, err := s.importCompany(ctx, row)
		var domainErr *shared.DomainError
		switch {
		case errors.As(err, &domainErr):
			result.ErrorRows++
			if len(result.Errors) < maxImportErrors {
				result.Errors = append(result.Errors, export.RowError{
					Line:    row.Line,
					Code:    export.CodeRejectedByRule,
					Message: domainErr.Message,
				})
			} else {
				result.IsTruncated = true
			}
		case err != nil:
			return nil, err
		case created:
			result.ImportedRows++
		default:
			result.UpdatedRows++
		}
	}
	result.TotalErrors = len(result.Errors)

	s.logger.Info("Companies imported",
		zap.Int("total", result.TotalRows),
		zap.Int("imported", result.ImportedRows),
		zap.Int("updated", result.UpdatedRows),
		zap.Int("errors", result.ErrorRows))
	return result, nil
}

func (s *ReportService) importCompany(ctx context.Context, row *export.Row) (bool, error) {
	var addr valueobject.Address
	if row.Get("street") != "" || row.Get("city") != "" {
		a, err := valueobject.NewAddress(row.Get("street"), row.Get("street_number"), row.Get("city"), row.Get("psc"))
		if err != nil {
			return false, shared.NewDomainError("INVALID_INPUT", err.Error())
		}
		addr = a
	}

	created := false
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		existing, err := s.findCompany(ctx, row.Get("ico"), row.Get("name"))
		if err != nil {
			return err
		}
		if existing == nil {
			company, err := organization.NewCompany(row.Get("name"), row.Get("ico"), row.Get("dic"), addr)
			if err != nil {
				return err
			}
			created = true
			return s.repos.Companies.Save(ctx, company)
		}
		if addr.IsEmpty() {
			addr = existing.Address
		}
		if err := existing.Update(row.Get("name"), row.Get("ico"), row.Get("dic"), addr); err != nil {
			return err
		}
		return s.repos.Companies.Save(ctx, existing)
	})
	return created, err
}

func (s *ReportService) findCompany(ctx context.Context, ico, name string) (*organization.Company, error) {
	if normalized, _ := organization.NormalizeICO(ico); normalized != "" {
		company, err := s.repos.Companies.FindByICO(ctx, normalized)
		if err == nil || !errors.Is(err, shared.ErrNotFound) {
			return company, err
		}
	}
	company, err := s.repos.Companies.FindByName(ctx, name)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, nil
	}
	return company, err
}
