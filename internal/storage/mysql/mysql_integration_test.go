//go:build integration || !unit

package mysql_test

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"

	"github.com/amandagilmer/Rental-Directory-sub002/internal/domain"
	mysqlrepo "github.com/amandagilmer/Rental-Directory-sub002/internal/storage/mysql"
)

// ---------- small helpers ----------
func pstr(s string) *string { return &s }

func mustEnv(t *testing.T, k string) string {
	t.Helper()
	v := os.Getenv(k)
	if v == "" {
		t.Fatalf("%s not set; export it (e.g. MIGRATIONS_DIR=/path/to/sql)", k)
	}
	return v
}

func applyMigrations(t *testing.T, db *sql.DB) {
	t.Helper()
	dir := mustEnv(t, "MIGRATIONS_DIR")

	st, err := os.Stat(dir)
	if err != nil || !st.IsDir() {
		t.Fatalf("MIGRATIONS_DIR=%s is not a directory or missing", dir)
	}
	ents, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read migrations dir: %v", err)
	}
	var files []string
	for _, e := range ents {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".sql" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	if len(files) == 0 {
		t.Fatalf("no .sql files in %s", dir)
	}
	sort.Strings(files)
	for _, f := range files {
		sqlBytes, err := os.ReadFile(f)
		if err != nil {
			t.Fatalf("read %s: %v", f, err)
		}
		if _, err := db.Exec(string(sqlBytes)); err != nil {
			t.Fatalf("exec %s: %v", f, err)
		}
	}
}

func startMySQL(t *testing.T) *sql.DB {
	t.Helper()
	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Fatalf("dockertest: %v", err)
	}
	runOpts := &dockertest.RunOptions{
		Repository: "mysql",
		Tag:        "8.0.36",
		Env: []string{
			"MYSQL_ROOT_PASSWORD=root",
			"MYSQL_DATABASE=hauls",
		},
	}
	resource, err := pool.RunWithOptions(runOpts, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Fatalf("run mysql: %v", err)
	}
	t.Cleanup(func() { _ = pool.Purge(resource) })

	hostPort := resource.GetPort("3306/tcp")
	dsn := fmt.Sprintf("root:root@tcp(127.0.0.1:%s)/hauls?parseTime=true&multiStatements=true&charset=utf8mb4,utf8&loc=UTC", hostPort)

	var db *sql.DB
	if err := pool.Retry(func() error {
		var e error
		db, e = sql.Open("mysql", dsn)
		if e != nil {
			return e
		}
		return db.Ping()
	}); err != nil {
		t.Fatalf("connect mysql: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	applyMigrations(t, db)
	return db
}

// ---------- the tests ----------

func TestRepo_MySQL_BusinessAndReviews(t *testing.T) {
	db := startMySQL(t)
	repo := mysqlrepo.New(db)
	ctx := context.Background()

	bizID := uuid.NewString()
	b := domain.Business{
		ID:       bizID,
		Name:     "Lone Star Trailer Rentals",
		Category: "trailer_rental",
		City:     pstr("Waco"),
		State:    pstr("TX"),
		PlaceID:  pstr("place-abc"),
	}
	if err := repo.InsertBusiness(ctx, b); err != nil {
		t.Fatalf("InsertBusiness: %v", err)
	}

	got, err := repo.GetBusiness(ctx, bizID)
	if err != nil {
		t.Fatalf("GetBusiness: %v", err)
	}
	if got.Name != b.Name || got.City == nil || *got.City != "Waco" {
		t.Fatalf("unexpected business: %+v", got)
	}
	if _, err := repo.GetBusiness(ctx, uuid.NewString()); err != domain.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	refs, err := repo.ListPlaceRefs(ctx)
	if err != nil {
		t.Fatalf("ListPlaceRefs: %v", err)
	}
	if len(refs) != 1 || refs[0].PlaceID != "place-abc" {
		t.Fatalf("unexpected refs: %+v", refs)
	}

	// Reviews come back newest-first.
	for i := 1; i <= 3; i++ {
		rv := domain.FirstPartyReview{
			ID:         uuid.NewString(),
			BusinessID: bizID,
			AuthorName: fmt.Sprintf("Renter %d", i),
			Rating:     i + 2,
		}
		if err := repo.InsertReview(ctx, rv); err != nil {
			t.Fatalf("InsertReview: %v", err)
		}
		time.Sleep(1100 * time.Millisecond) // distinct created_at seconds
	}
	rs, err := repo.ListRecentReviews(ctx, bizID, 5)
	if err != nil {
		t.Fatalf("ListRecentReviews: %v", err)
	}
	if len(rs) != 3 || rs[0].AuthorName != "Renter 3" || rs[2].AuthorName != "Renter 1" {
		t.Fatalf("unexpected order: %+v", rs)
	}

	// Vendor response lands on the targeted review only.
	if err := repo.SetVendorResponse(ctx, bizID, rs[1].ID, "Thanks for renting with us!", time.Now().UTC()); err != nil {
		t.Fatalf("SetVendorResponse: %v", err)
	}
	rs, err = repo.ListRecentReviews(ctx, bizID, 5)
	if err != nil {
		t.Fatalf("ListRecentReviews: %v", err)
	}
	if rs[1].VendorResponse == nil || rs[0].VendorResponse != nil {
		t.Fatalf("vendor response misplaced: %+v", rs)
	}
	if err := repo.SetVendorResponse(ctx, bizID, uuid.NewString(), "x", time.Now().UTC()); err != domain.ErrNotFound {
		t.Fatalf("expected ErrNotFound for unknown review, got %v", err)
	}
}

func TestRepo_MySQL_ExternalCacheSwapAndExpiry(t *testing.T) {
	db := startMySQL(t)
	repo := mysqlrepo.New(db)
	ctx := context.Background()

	bizID := uuid.NewString()
	if err := repo.InsertBusiness(ctx, domain.Business{ID: bizID, Name: "Swap Test Co", Category: "equipment_rental"}); err != nil {
		t.Fatalf("InsertBusiness: %v", err)
	}

	now := time.Now().UTC().Truncate(time.Second)
	row := func(id string, rating int, expires time.Time) domain.CachedExternalReview {
		return domain.CachedExternalReview{
			BusinessID:       bizID,
			ProviderReviewID: id,
			AuthorName:       "G User",
			Rating:           rating,
			FetchedAt:        now,
			ExpiresAt:        expires,
		}
	}

	// Seed three rows, one already expired.
	initial := []domain.CachedExternalReview{
		row("g1", 5, now.Add(48*time.Hour)),
		row("g2", 3, now.Add(48*time.Hour)),
		row("g3", 4, now.Add(-time.Minute)),
	}
	if err := repo.ReplaceCachedReviews(ctx, bizID, initial); err != nil {
		t.Fatalf("ReplaceCachedReviews: %v", err)
	}

	valid, err := repo.ValidCachedReviews(ctx, bizID, now, 3)
	if err != nil {
		t.Fatalf("ValidCachedReviews: %v", err)
	}
	if len(valid) != 2 {
		t.Fatalf("expected 2 valid rows, got %d", len(valid))
	}
	if valid[0].Rating != 5 || valid[1].Rating != 3 {
		t.Fatalf("expected rating-descending order: %+v", valid)
	}

	// Hidden rows are still returned by the valid query.
	if err := repo.SetCachedReviewHidden(ctx, bizID, "g2", true); err != nil {
		t.Fatalf("SetCachedReviewHidden: %v", err)
	}
	valid, err = repo.ValidCachedReviews(ctx, bizID, now, 3)
	if err != nil {
		t.Fatalf("ValidCachedReviews: %v", err)
	}
	if len(valid) != 2 || !valid[1].AdminHidden {
		t.Fatalf("hidden row must stay present in cache reads: %+v", valid)
	}

	// Swap replaces wholesale: 3 old rows -> exactly 2 new ones.
	swapped := []domain.CachedExternalReview{
		row("h1", 4, now.Add(24*time.Hour)),
		row("h2", 5, now.Add(24*time.Hour)),
	}
	if err := repo.ReplaceCachedReviews(ctx, bizID, swapped); err != nil {
		t.Fatalf("ReplaceCachedReviews: %v", err)
	}
	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM external_review_cache WHERE business_id = ?", bizID).Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 2 {
		t.Fatalf("swap must leave exactly 2 rows, found %d", count)
	}

	// Empty swap clears the business's cache.
	if err := repo.ReplaceCachedReviews(ctx, bizID, nil); err != nil {
		t.Fatalf("ReplaceCachedReviews(empty): %v", err)
	}
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM external_review_cache WHERE business_id = ?", bizID).Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Fatalf("empty swap must clear rows, found %d", count)
	}
}

func TestRepo_MySQL_ImportRuns(t *testing.T) {
	db := startMySQL(t)
	repo := mysqlrepo.New(db)
	ctx := context.Background()

	run := domain.ImportRun{
		ID:         "imp-" + uuid.NewString(),
		Total:      10,
		Successful: 8,
		Failed:     2,
		Errors: []domain.ImportRowError{
			{Row: 3, Error: "business_name is required"},
			{Row: 7, Error: "business_name is required"},
		},
		Status: domain.ImportStatusWithErrors,
	}
	if err := repo.SaveImportRun(ctx, run); err != nil {
		t.Fatalf("SaveImportRun: %v", err)
	}

	var status string
	var failed int
	if err := db.QueryRowContext(ctx, "SELECT status, failed FROM import_runs WHERE id = ?", run.ID).Scan(&status, &failed); err != nil {
		t.Fatalf("select run: %v", err)
	}
	if status != domain.ImportStatusWithErrors || failed != 2 {
		t.Fatalf("unexpected run row: %s/%d", status, failed)
	}

	// Re-saving the same id updates in place.
	run.Failed = 0
	run.Successful = 10
	run.Errors = nil
	run.Status = domain.ImportStatusCompleted
	if err := repo.SaveImportRun(ctx, run); err != nil {
		t.Fatalf("SaveImportRun(update): %v", err)
	}
	if err := db.QueryRowContext(ctx, "SELECT status, failed FROM import_runs WHERE id = ?", run.ID).Scan(&status, &failed); err != nil {
		t.Fatalf("select run: %v", err)
	}
	if status != domain.ImportStatusCompleted || failed != 0 {
		t.Fatalf("unexpected updated row: %s/%d", status, failed)
	}
}
