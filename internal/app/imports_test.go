package app_test

import (
	"context"
	"errors"
	"testing"

	"github.com/amandagilmer/Rental-Directory-sub002/internal/app"
	"github.com/amandagilmer/Rental-Directory-sub002/internal/domain"
)

func importRow(name, category string) domain.ImportRow {
	return domain.ImportRow{BusinessName: name, Category: category}
}

func TestProcessBatch_PartialFailures(t *testing.T) {
	repo := newFakeRepo()
	svc := app.NewImportService(repo)

	rows := make([]domain.ImportRow, 10)
	for i := range rows {
		rows[i] = importRow("Trailer Depot", "trailer_rental")
	}
	rows[2].BusinessName = "" // row 3
	rows[6].BusinessName = "" // row 7

	res := svc.ProcessBatch(context.Background(), rows, "imp-1")
	if res.Successful != 8 || res.Failed != 2 {
		t.Fatalf("expected 8/2, got %d/%d", res.Successful, res.Failed)
	}
	if len(res.Errors) != 2 || res.Errors[0].Row != 3 || res.Errors[1].Row != 7 {
		t.Fatalf("unexpected errors: %+v", res.Errors)
	}
	if len(repo.inserted) != 8 {
		t.Fatalf("all 8 valid rows must be persisted; got %d", len(repo.inserted))
	}

	if len(repo.savedRuns) != 1 {
		t.Fatalf("expected one import run saved, got %d", len(repo.savedRuns))
	}
	run := repo.savedRuns[0]
	if run.ID != "imp-1" || run.Total != 10 || run.Status != domain.ImportStatusWithErrors {
		t.Fatalf("unexpected run: %+v", run)
	}
}

func TestProcessBatch_AllValid(t *testing.T) {
	repo := newFakeRepo()
	svc := app.NewImportService(repo)

	res := svc.ProcessBatch(context.Background(), []domain.ImportRow{
		importRow("A", "dump_trailer"),
		importRow("B", "equipment_rental"),
	}, "imp-2")
	if res.Successful != 2 || res.Failed != 0 || len(res.Errors) != 0 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if repo.savedRuns[0].Status != domain.ImportStatusCompleted {
		t.Fatalf("status: %s", repo.savedRuns[0].Status)
	}
}

func TestProcessBatch_MissingCategory(t *testing.T) {
	repo := newFakeRepo()
	svc := app.NewImportService(repo)

	res := svc.ProcessBatch(context.Background(), []domain.ImportRow{
		importRow("Valid Co", "trailer_rental"),
		importRow("No Category", "  "),
	}, "imp-3")
	if res.Successful != 1 || res.Failed != 1 {
		t.Fatalf("expected 1/1, got %d/%d", res.Successful, res.Failed)
	}
	if res.Errors[0].Row != 2 || res.Errors[0].Error != "category is required" {
		t.Fatalf("unexpected error: %+v", res.Errors[0])
	}
}

func TestProcessBatch_InsertFailureDoesNotAbort(t *testing.T) {
	repo := newFakeRepo()
	repo.insertBizErr = errors.New("duplicate key")
	svc := app.NewImportService(repo)

	res := svc.ProcessBatch(context.Background(), []domain.ImportRow{
		importRow("A", "trailer_rental"),
		importRow("B", "trailer_rental"),
	}, "imp-4")
	if res.Successful != 0 || res.Failed != 2 || len(res.Errors) != 2 {
		t.Fatalf("unexpected result: %+v", res)
	}
	// Batch-level bookkeeping still lands even when every row failed.
	if len(repo.savedRuns) != 1 || repo.savedRuns[0].Failed != 2 {
		t.Fatalf("unexpected runs: %+v", repo.savedRuns)
	}
}
