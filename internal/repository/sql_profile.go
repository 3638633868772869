package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/duaragha/cat-tracker-sub000/internal/domain"
)

// SQLProfileRepository implements ProfileRepository on PostgreSQL or SQLite.
type SQLProfileRepository struct {
	db     *sql.DB
	driver string
}

func NewSQLProfileRepository(db *sql.DB, driver string) *SQLProfileRepository {
	return &SQLProfileRepository{db: db, driver: driver}
}

var _ ProfileRepository = (*SQLProfileRepository)(nil)

const profileColumns = `id, name, breed, birth_date, acquisition_date, weight, photo_url, created_at, updated_at`

func scanProfile(row rowScanner) (*domain.CatProfile, error) {
	var (
		p                domain.CatProfile
		breed, photoURL  sql.NullString
		birth, acquired  dbTime
		created, updated dbTime
		weight           sql.NullFloat64
	)
	if err := row.Scan(&p.ID, &p.Name, &breed, &birth, &acquired, &weight, &photoURL, &created, &updated); err != nil {
		return nil, err
	}
	p.Breed, p.PhotoURL = breed.String, photoURL.String
	p.BirthDate, p.AcquisitionDate = birth.Ptr(), acquired.Ptr()
	p.Weight = floatPtr(weight)
	p.CreatedAt, p.UpdatedAt = created.Time, updated.Time
	return &p, nil
}

// GetLatest returns the most recently updated profile.
func (r *SQLProfileRepository) GetLatest(ctx context.Context) (*domain.CatProfile, error) {
	query := `SELECT ` + profileColumns + ` FROM profile ORDER BY updated_at DESC, created_at DESC LIMIT 1`
	p, err := scanProfile(r.db.QueryRowContext(ctx, query))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("profile: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return p, nil
}

func (r *SQLProfileRepository) Get(ctx context.Context, id string) (*domain.CatProfile, error) {
	query := rebind(r.driver, `SELECT `+profileColumns+` FROM profile WHERE id = ?`)
	p, err := scanProfile(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("profile %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return p, nil
}

func profileArgs(p *domain.CatProfile) []any {
	return []any{p.ID, p.Name, nullString(p.Breed), fmtTimePtr(p.BirthDate), fmtTimePtr(p.AcquisitionDate),
		nullFloat(p.Weight), nullString(p.PhotoURL), fmtTime(p.CreatedAt), fmtTime(p.UpdatedAt)}
}

func (r *SQLProfileRepository) Save(ctx context.Context, p *domain.CatProfile) error {
	query := rebind(r.driver, `
		INSERT INTO profile (`+profileColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			breed = excluded.breed,
			birth_date = excluded.birth_date,
			acquisition_date = excluded.acquisition_date,
			weight = excluded.weight,
			photo_url = excluded.photo_url,
			updated_at = excluded.updated_at
	`)
	if _, err := r.db.ExecContext(ctx, query, profileArgs(p)...); err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}

func (r *SQLProfileRepository) Update(ctx context.Context, p *domain.CatProfile) error {
	query := rebind(r.driver, `
		UPDATE profile SET
			name = ?, breed = ?, birth_date = ?, acquisition_date = ?,
			weight = ?, photo_url = ?, updated_at = ?
		WHERE id = ?
	`)
	res, err := r.db.ExecContext(ctx, query,
		p.Name, nullString(p.Breed), fmtTimePtr(p.BirthDate), fmtTimePtr(p.AcquisitionDate),
		nullFloat(p.Weight), nullString(p.PhotoURL), fmtTime(p.UpdatedAt), p.ID)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("profile %s: %w", p.ID, ErrNotFound)
	}
	return nil
}

func (r *SQLProfileRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, rebind(r.driver, `DELETE FROM profile WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("failed to delete profile: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("profile %s: %w", id, ErrNotFound)
	}
	return nil
}
