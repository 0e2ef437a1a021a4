package app

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/amandagilmer/Rental-Directory-sub002/internal/domain"
)

// ImportService persists a batch of candidate listings, tolerating per-row
// failure. Not idempotent: re-running the same batch creates duplicate
// listings.
type ImportService struct {
	repo domain.DirectoryRepository
}

func NewImportService(r domain.DirectoryRepository) *ImportService {
	return &ImportService{repo: r}
}

type ImportResult struct {
	Successful int
	Failed     int
	Errors     []domain.ImportRowError
}

// ProcessBatch validates and inserts each row independently. No row failure
// aborts the batch; each insert is its own unit of failure. Rows are reported
// 1-indexed.
func (s *ImportService) ProcessBatch(ctx context.Context, rows []domain.ImportRow, importID string) ImportResult {
	var res ImportResult
	fail := func(row int, msg string) {
		res.Failed++
		res.Errors = append(res.Errors, domain.ImportRowError{Row: row, Error: msg})
	}

	for i, row := range rows {
		rowNum := i + 1
		name := strings.TrimSpace(row.BusinessName)
		category := strings.TrimSpace(row.Category)
		if name == "" {
			fail(rowNum, "business_name is required")
			continue
		}
		if category == "" {
			fail(rowNum, "category is required")
			continue
		}

		b := domain.Business{
			ID:       uuid.NewString(),
			Name:     name,
			Category: category,
			Phone:    row.Phone,
			Email:    row.Email,
			Address:  row.Address,
			City:     row.City,
			State:    row.State,
			Zip:      row.Zip,
			PlaceID:  row.PlaceID,
		}
		if err := s.repo.InsertBusiness(ctx, b); err != nil {
			log.Warn().Err(err).Str("import_id", importID).Int("row", rowNum).Msg("import row insert failed")
			fail(rowNum, err.Error())
			continue
		}
		res.Successful++
	}

	status := domain.ImportStatusCompleted
	if res.Failed > 0 {
		status = domain.ImportStatusWithErrors
	}
	run := domain.ImportRun{
		ID:         importID,
		Total:      len(rows),
		Successful: res.Successful,
		Failed:     res.Failed,
		Errors:     res.Errors,
		Status:     status,
		CreatedAt:  time.Now().UTC(),
	}
	// Summary bookkeeping is best-effort; the row inserts already landed.
	if err := s.repo.SaveImportRun(ctx, run); err != nil {
		log.Warn().Err(err).Str("import_id", importID).Msg("save import run failed")
	}
	return res
}
