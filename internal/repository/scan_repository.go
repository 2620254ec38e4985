package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/confscan/confscan/internal/models"
)

type ScanRepository struct {
	db *sqlx.DB
}

func NewScanRepository(db *sqlx.DB) *ScanRepository {
	return &ScanRepository{db: db}
}

// Create appends a scan record. ID and ScannedAt are filled in when
// empty.
func (r *ScanRepository) Create(ctx context.Context, rec *models.ScanRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.ScannedAt.IsZero() {
		rec.ScannedAt = time.Now().UTC()
	}
	query := `
		INSERT INTO scans (
			id, conference_slug, raw, token_type, outcome, message, scanned_at
		) VALUES (
			:id, :conference_slug, :raw, :token_type, :outcome, :message, :scanned_at
		)`

	_, err := r.db.NamedExecContext(ctx, query, rec)
	return err
}

// RecentByConference returns the newest scans for a conference, most
// recent first.
func (r *ScanRepository) RecentByConference(ctx context.Context, slug string, limit int) ([]models.ScanRecord, error) {
	query := `
		SELECT id, conference_slug, raw, token_type, outcome, message, scanned_at
		FROM scans
		WHERE conference_slug = ?
		ORDER BY scanned_at DESC, id
		LIMIT ?`

	var recs []models.ScanRecord
	if err := r.db.SelectContext(ctx, &recs, query, slug, limit); err != nil {
		return nil, err
	}
	return recs, nil
}

// CountByOutcome tallies a conference's scans per outcome.
func (r *ScanRepository) CountByOutcome(ctx context.Context, slug string) (map[models.ScanOutcome]int, error) {
	query := `
		SELECT outcome, COUNT(*) AS n
		FROM scans
		WHERE conference_slug = ?
		GROUP BY outcome`

	rows, err := r.db.QueryxContext(ctx, query, slug)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[models.ScanOutcome]int)
	for rows.Next() {
		var outcome models.ScanOutcome
		var n int
		if err := rows.Scan(&outcome, &n); err != nil {
			return nil, err
		}
		counts[outcome] = n
	}
	return counts, rows.Err()
}

// DeleteOlderThan drops scan records before the cutoff. Used to keep
// the on-device log from growing across conference seasons.
func (r *ScanRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM scans WHERE scanned_at < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
