package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/confscan/confscan/internal/conference"
)

type ConferenceRepository struct {
	db *sqlx.DB
}

func NewConferenceRepository(db *sqlx.DB) *ConferenceRepository {
	return &ConferenceRepository{db: db}
}

// Upsert stores a conference, replacing any existing entry with the
// same slug. Re-registering a conference (e.g. after a token rotation)
// is the normal path.
func (r *ConferenceRepository) Upsert(ctx context.Context, conf *conference.Conference) error {
	if conf.AddedAt.IsZero() {
		conf.AddedAt = time.Now().UTC()
	}
	query := `
		INSERT INTO conferences (
			slug, name, scheme, host, token, mode, field_id, added_at
		) VALUES (
			:slug, :name, :scheme, :host, :token, :mode, :field_id, :added_at
		)
		ON CONFLICT (slug) DO UPDATE SET
			name = excluded.name,
			scheme = excluded.scheme,
			host = excluded.host,
			token = excluded.token,
			mode = excluded.mode,
			field_id = excluded.field_id`

	_, err := r.db.NamedExecContext(ctx, query, conf)
	return err
}

func (r *ConferenceRepository) GetBySlug(ctx context.Context, slug string) (*conference.Conference, error) {
	query := `
		SELECT slug, name, scheme, host, token, mode, field_id, added_at
		FROM conferences
		WHERE slug = ?`

	var conf conference.Conference
	err := r.db.GetContext(ctx, &conf, query, slug)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &conf, nil
}

func (r *ConferenceRepository) List(ctx context.Context) ([]conference.Conference, error) {
	query := `
		SELECT slug, name, scheme, host, token, mode, field_id, added_at
		FROM conferences
		ORDER BY added_at, slug`

	var confs []conference.Conference
	if err := r.db.SelectContext(ctx, &confs, query); err != nil {
		return nil, err
	}
	return confs, nil
}

func (r *ConferenceRepository) Delete(ctx context.Context, slug string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM conferences WHERE slug = ?`, slug)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
