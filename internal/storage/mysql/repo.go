package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/amandagilmer/Rental-Directory-sub002/internal/domain"
)

func valStr(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

func nullStr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func nullTime(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

// ---- businesses ----

func (r *Repo) InsertBusiness(ctx context.Context, b domain.Business) error {
	_, err := r.db.ExecContext(ctx, insertBusinessSQL,
		b.ID,
		b.Name,
		b.Category,
		valStr(b.Phone),
		valStr(b.Email),
		valStr(b.Address),
		valStr(b.City),
		valStr(b.State),
		valStr(b.Zip),
		valStr(b.PlaceID),
	)
	return err
}

func (r *Repo) GetBusiness(ctx context.Context, id string) (domain.Business, error) {
	row := r.db.QueryRowContext(ctx, getBusinessSQL, id)

	var b domain.Business
	var phone, email, address, city, state, zip, placeID sql.NullString
	if err := row.Scan(
		&b.ID, &b.Name, &b.Category,
		&phone, &email, &address, &city, &state, &zip, &placeID,
		&b.CreatedAt, &b.UpdatedAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return domain.Business{}, domain.ErrNotFound
		}
		return domain.Business{}, err
	}
	b.Phone = nullStr(phone)
	b.Email = nullStr(email)
	b.Address = nullStr(address)
	b.City = nullStr(city)
	b.State = nullStr(state)
	b.Zip = nullStr(zip)
	b.PlaceID = nullStr(placeID)
	return b, nil
}

func (r *Repo) ListBusinesses(ctx context.Context, q domain.BusinessQuery) ([]domain.Business, error) {
	sb := strings.Builder{}
	sb.WriteString(`SELECT id, name, category, phone, email, address, city, state, zip, place_id, created_at, updated_at FROM businesses WHERE 1=1`)
	var args []any
	if q.Q != nil {
		sb.WriteString(" AND name LIKE ?")
		args = append(args, "%"+*q.Q+"%")
	}
	if q.Category != nil {
		sb.WriteString(" AND category = ?")
		args = append(args, *q.Category)
	}
	if q.City != nil {
		sb.WriteString(" AND city = ?")
		args = append(args, *q.City)
	}
	if q.State != nil {
		sb.WriteString(" AND state = ?")
		args = append(args, *q.State)
	}
	limit := q.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	sb.WriteString(" ORDER BY name, id LIMIT ?")
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Business
	for rows.Next() {
		var b domain.Business
		var phone, email, address, city, state, zip, placeID sql.NullString
		if err := rows.Scan(
			&b.ID, &b.Name, &b.Category,
			&phone, &email, &address, &city, &state, &zip, &placeID,
			&b.CreatedAt, &b.UpdatedAt,
		); err != nil {
			return nil, err
		}
		b.Phone = nullStr(phone)
		b.Email = nullStr(email)
		b.Address = nullStr(address)
		b.City = nullStr(city)
		b.State = nullStr(state)
		b.Zip = nullStr(zip)
		b.PlaceID = nullStr(placeID)
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *Repo) ListPlaceRefs(ctx context.Context) ([]domain.PlaceRef, error) {
	rows, err := r.db.QueryContext(ctx, listPlaceRefsSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.PlaceRef
	for rows.Next() {
		var pr domain.PlaceRef
		if err := rows.Scan(&pr.BusinessID, &pr.PlaceID); err != nil {
			return nil, err
		}
		out = append(out, pr)
	}
	return out, rows.Err()
}

// ---- first-party reviews ----

func (r *Repo) InsertReview(ctx context.Context, rv domain.FirstPartyReview) error {
	_, err := r.db.ExecContext(ctx, insertReviewSQL,
		rv.ID,
		rv.BusinessID,
		rv.AuthorName,
		valStr(rv.AuthorEmail),
		rv.Rating,
		valStr(rv.Text),
		rv.ShowInitials,
	)
	return err
}

func (r *Repo) ListRecentReviews(ctx context.Context, businessID string, limit int) ([]domain.FirstPartyReview, error) {
	rows, err := r.db.QueryContext(ctx, listRecentReviewsSQL, businessID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.FirstPartyReview
	for rows.Next() {
		var rv domain.FirstPartyReview
		var email, text, vendorResp sql.NullString
		var vendorAt sql.NullTime
		if err := rows.Scan(
			&rv.ID, &rv.BusinessID, &rv.AuthorName, &email, &rv.Rating, &text,
			&rv.ShowInitials, &vendorResp, &vendorAt, &rv.CreatedAt,
		); err != nil {
			return nil, err
		}
		rv.AuthorEmail = nullStr(email)
		rv.Text = nullStr(text)
		rv.VendorResponse = nullStr(vendorResp)
		rv.VendorRespondedAt = nullTime(vendorAt)
		out = append(out, rv)
	}
	return out, rows.Err()
}

func (r *Repo) SetVendorResponse(ctx context.Context, businessID, reviewID, text string, at time.Time) error {
	res, err := r.db.ExecContext(ctx, setVendorResponseSQL, text, at, businessID, reviewID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ---- external review cache ----

func (r *Repo) ValidCachedReviews(ctx context.Context, businessID string, now time.Time, limit int) ([]domain.CachedExternalReview, error) {
	rows, err := r.db.QueryContext(ctx, validCachedReviewsSQL, businessID, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.CachedExternalReview
	for rows.Next() {
		var cr domain.CachedExternalReview
		var text sql.NullString
		var postedAt sql.NullTime
		if err := rows.Scan(
			&cr.BusinessID, &cr.ProviderReviewID, &cr.AuthorName, &cr.Rating,
			&text, &postedAt, &cr.FetchedAt, &cr.ExpiresAt, &cr.AdminHidden,
		); err != nil {
			return nil, err
		}
		cr.Text = nullStr(text)
		cr.PostedAt = nullTime(postedAt)
		out = append(out, cr)
	}
	return out, rows.Err()
}

// ReplaceCachedReviews swaps the business's cache rows atomically:
// delete-then-insert inside one transaction, never a row-by-row merge.
func (r *Repo) ReplaceCachedReviews(ctx context.Context, businessID string, cached []domain.CachedExternalReview) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, deleteCachedReviewsSQL, businessID); err != nil {
		return err
	}
	if len(cached) > 0 {
		values := make([]string, 0, len(cached))
		args := make([]any, 0, len(cached)*9)
		for _, cr := range cached {
			values = append(values, "(?,?,?,?,?,?,?,?,?)")
			args = append(args,
				cr.BusinessID,
				cr.ProviderReviewID,
				cr.AuthorName,
				cr.Rating,
				valStr(cr.Text),
				timeOrNil(cr.PostedAt),
				cr.FetchedAt,
				cr.ExpiresAt,
				cr.AdminHidden,
			)
		}
		stmt := insertCachedReviewsPrefix + strings.Join(values, ",")
		if _, err := tx.ExecContext(ctx, stmt, args...); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func timeOrNil(p *time.Time) any {
	if p == nil {
		return nil
	}
	return *p
}

func (r *Repo) SetCachedReviewHidden(ctx context.Context, businessID, providerReviewID string, hidden bool) error {
	// No RowsAffected check: the driver reports 0 when the flag already has
	// the requested value, which is not a miss.
	_, err := r.db.ExecContext(ctx, setCachedReviewHiddenSQL, hidden, businessID, providerReviewID)
	return err
}

// ---- import runs ----

func (r *Repo) SaveImportRun(ctx context.Context, run domain.ImportRun) error {
	errJSON, err := json.Marshal(run.Errors)
	if err != nil {
		return fmt.Errorf("marshal import errors: %w", err)
	}
	_, err = r.db.ExecContext(ctx, saveImportRunSQL,
		run.ID, run.Total, run.Successful, run.Failed, string(errJSON), run.Status,
	)
	return err
}
