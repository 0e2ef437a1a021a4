package mysql

const insertBusinessSQL = `
INSERT INTO businesses
  (id, name, category, phone, email, address, city, state, zip, place_id)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

const getBusinessSQL = `
SELECT
  id, name, category, phone, email, address, city, state, zip, place_id,
  created_at, updated_at
FROM businesses
WHERE id = ?
`

// Businesses that carry a provider place reference; driven by the warmer.
const listPlaceRefsSQL = `
SELECT id, place_id
FROM businesses
WHERE place_id IS NOT NULL AND place_id <> ''
ORDER BY id
`

const insertReviewSQL = `
INSERT INTO reviews
  (id, business_id, author_name, author_email, rating, review_text, show_initials)
VALUES
  (?, ?, ?, ?, ?, ?, ?)
`

// Newest first; aligns with the index on (business_id, created_at, id).
const listRecentReviewsSQL = `
SELECT
  id, business_id, author_name, author_email, rating, review_text,
  show_initials, vendor_response, vendor_response_at, created_at
FROM reviews
WHERE business_id = ?
ORDER BY created_at DESC, id DESC
LIMIT ?
`

// Latest response wins; earlier responses are overwritten.
const setVendorResponseSQL = `
UPDATE reviews
SET vendor_response = ?, vendor_response_at = ?
WHERE business_id = ? AND id = ?
`

// Valid rows only: expiry strictly in the future. Hidden rows are returned
// too (they count toward cache presence); callers filter for display.
const validCachedReviewsSQL = `
SELECT
  business_id, provider_review_id, author_name, rating, review_text,
  posted_at, fetched_at, expires_at, admin_hidden
FROM external_review_cache
WHERE business_id = ? AND expires_at > ?
ORDER BY rating DESC, provider_review_id
LIMIT ?
`

const deleteCachedReviewsSQL = `
DELETE FROM external_review_cache WHERE business_id = ?
`

const insertCachedReviewsPrefix = "INSERT INTO external_review_cache\n" +
	"  (business_id, provider_review_id, author_name, rating, review_text, posted_at, fetched_at, expires_at, admin_hidden)\n" +
	"VALUES "

const setCachedReviewHiddenSQL = `
UPDATE external_review_cache
SET admin_hidden = ?
WHERE business_id = ? AND provider_review_id = ?
`

const saveImportRunSQL = `
INSERT INTO import_runs
  (id, total, successful, failed, errors, status)
VALUES
  (?, ?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  total      = VALUES(total),
  successful = VALUES(successful),
  failed     = VALUES(failed),
  errors     = VALUES(errors),
  status     = VALUES(status)
`
