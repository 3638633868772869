package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/duaragha/cat-tracker-sub000/internal/domain"
)

// SQLEntriesRepository implements EntriesRepository on PostgreSQL or SQLite.
type SQLEntriesRepository struct {
	db     *sql.DB
	driver string
}

// NewSQLEntriesRepository driver is config.DriverPostgres or config.DriverSQLite.
func NewSQLEntriesRepository(db *sql.DB, driver string) *SQLEntriesRepository {
	return &SQLEntriesRepository{db: db, driver: driver}
}

var _ EntriesRepository = (*SQLEntriesRepository)(nil)

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (r *SQLEntriesRepository) List(ctx context.Context, kind domain.Kind, catID string) ([]domain.Entry, error) {
	spec, err := specFor(kind)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT %s FROM %s`, strings.Join(spec.columns, ", "), spec.table)
	var args []any
	if catID != "" {
		query += ` WHERE cat_id = ?`
		args = append(args, catID)
	}
	query += ` ORDER BY ` + spec.orderBy

	rows, err := r.db.QueryContext(ctx, rebind(r.driver, query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", kind, err)
	}
	defer rows.Close()

	out := []domain.Entry{}
	for rows.Next() {
		e, err := spec.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", kind, err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate %s: %w", kind, err)
	}
	return out, nil
}

func (r *SQLEntriesRepository) Get(ctx context.Context, kind domain.Kind, id string) (domain.Entry, error) {
	spec, err := specFor(kind)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = ?`, strings.Join(spec.columns, ", "), spec.table)
	e, err := spec.scan(r.db.QueryRowContext(ctx, rebind(r.driver, query), id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get %s: %w", kind, err)
	}
	return e, nil
}

func (r *SQLEntriesRepository) Upsert(ctx context.Context, e domain.Entry) error {
	return r.upsert(ctx, r.db, e)
}

func (r *SQLEntriesRepository) upsert(ctx context.Context, ex execer, e domain.Entry) error {
	spec, err := specFor(e.EntryKind())
	if err != nil {
		return err
	}
	if e.EntryID() == "" || e.OwnerID() == "" {
		return fmt.Errorf("%s entry requires id and cat_id", e.EntryKind())
	}
	e.Normalize()

	if _, err := ex.ExecContext(ctx, rebind(r.driver, upsertSQL(spec)), spec.values(e)...); err != nil {
		return fmt.Errorf("failed to upsert %s %s: %w", e.EntryKind(), e.EntryID(), err)
	}
	return nil
}

// upsertSQL builds INSERT ... ON CONFLICT (id) DO UPDATE, valid on both dialects.
func upsertSQL(spec tableSpec) string {
	sets := make([]string, 0, len(spec.columns)-1)
	for _, c := range spec.columns[1:] {
		sets = append(sets, c+" = excluded."+c)
	}
	return fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (id) DO UPDATE SET %s`,
		spec.table, strings.Join(spec.columns, ", "), placeholders(len(spec.columns)), strings.Join(sets, ", "))
}

func (r *SQLEntriesRepository) Delete(ctx context.Context, kind domain.Kind, id string) error {
	n, err := r.delete(ctx, r.db, kind, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
	}
	return nil
}

func (r *SQLEntriesRepository) delete(ctx context.Context, ex execer, kind domain.Kind, id string) (int64, error) {
	spec, err := specFor(kind)
	if err != nil {
		return 0, err
	}
	res, err := ex.ExecContext(ctx, rebind(r.driver, fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, spec.table)), id)
	if err != nil {
		return 0, fmt.Errorf("failed to delete %s %s: %w", kind, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to delete %s %s: %w", kind, id, err)
	}
	return n, nil
}

func (r *SQLEntriesRepository) ApplyBatch(ctx context.Context, kind domain.Kind, upserts []domain.Entry, deletes []string) (BatchResult, error) {
	var res BatchResult
	if _, err := specFor(kind); err != nil {
		return res, err
	}
	for _, e := range upserts {
		if e.EntryKind() != kind {
			return res, fmt.Errorf("batch for %s contains %s entry", kind, e.EntryKind())
		}
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return res, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, e := range upserts {
		if err := r.upsert(ctx, tx, e); err != nil {
			return BatchResult{}, err
		}
		res.Upserted++
	}
	for _, id := range deletes {
		n, err := r.delete(ctx, tx, kind, id)
		if err != nil {
			return BatchResult{}, err
		}
		res.Deleted += int(n)
	}

	if err := tx.Commit(); err != nil {
		return BatchResult{}, fmt.Errorf("failed to commit %s batch: %w", kind, err)
	}
	return res, nil
}
