package core

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
)

// Record is a catalog entry keyed by a client-supplied numeric identifier.
type Record struct {
	ID         int64          `json:"id"`
	Name       string         `json:"name"`
	Category   string         `json:"category"`
	Attributes map[string]any `json:"attributes"`
}

// RecordPatch carries the mutable subset of a record. Nil fields are left
// untouched.
type RecordPatch struct {
	Name       *string        `json:"name"`
	Category   *string        `json:"category"`
	Attributes map[string]any `json:"attributes"`
}

var ErrDuplicateRecord = errors.New("record already exists")

// CatalogRepository defines persistence for catalog records. Handlers pass
// reads and writes straight through; no business logic lives here.
type CatalogRepository interface {
	ListAll(ctx context.Context) ([]Record, error)
	List(ctx context.Context, after, count int) ([]Record, error)
	Get(ctx context.Context, id int64) (*Record, error)
	Create(ctx context.Context, rec Record) error
	CreateMany(ctx context.Context, recs []Record) (int, error)
	Upsert(ctx context.Context, rec Record) error
	Patch(ctx context.Context, id int64, patch RecordPatch) (*Record, error)
	Delete(ctx context.Context, id int64) (bool, error)
}

type PgCatalogRepository struct {
	db DB
}

func NewPgCatalogRepository(db DB) *PgCatalogRepository {
	return &PgCatalogRepository{db: db}
}

func marshalAttributes(attrs map[string]any) ([]byte, error) {
	if attrs == nil {
		attrs = map[string]any{}
	}
	return json.Marshal(attrs)
}

func scanRecord(row pgx.Row) (*Record, error) {
	var rec Record
	var attrs []byte
	if err := row.Scan(&rec.ID, &rec.Name, &rec.Category, &attrs); err != nil {
		return nil, err
	}
	if len(attrs) > 0 {
		if err := json.Unmarshal(attrs, &rec.Attributes); err != nil {
			return nil, err
		}
	}
	return &rec, nil
}

// ListAll returns the entire catalog ordered by id.
func (r *PgCatalogRepository) ListAll(ctx context.Context) ([]Record, error) {
	const q = `SELECT id, name, category, attributes FROM records ORDER BY id`
	rows, err := r.db.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

// List returns records ordered by id, skipping after rows and returning at
// most count.
func (r *PgCatalogRepository) List(ctx context.Context, after, count int) ([]Record, error) {
	if count <= 0 {
		count = 10
	}
	if after < 0 {
		after = 0
	}
	const q = `SELECT id, name, category, attributes FROM records ORDER BY id LIMIT $1 OFFSET $2`
	rows, err := r.db.Query(ctx, q, count, after)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

func (r *PgCatalogRepository) Get(ctx context.Context, id int64) (*Record, error) {
	const q = `SELECT id, name, category, attributes FROM records WHERE id=$1`
	rec, err := scanRecord(r.db.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return rec, nil
}

func (r *PgCatalogRepository) Create(ctx context.Context, rec Record) error {
	attrs, err := marshalAttributes(rec.Attributes)
	if err != nil {
		return err
	}
	const q = `INSERT INTO records (id, name, category, attributes) VALUES ($1,$2,$3,$4)`
	if _, err := r.db.Exec(ctx, q, rec.ID, rec.Name, rec.Category, attrs); err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return ErrDuplicateRecord
		}
		return err
	}
	return nil
}

// CreateMany bulk-inserts records, skipping ids that already exist. Returns
// how many rows were written.
func (r *PgCatalogRepository) CreateMany(ctx context.Context, recs []Record) (int, error) {
	inserted := 0
	const q = `INSERT INTO records (id, name, category, attributes) VALUES ($1,$2,$3,$4) ON CONFLICT (id) DO NOTHING`
	for _, rec := range recs {
		attrs, err := marshalAttributes(rec.Attributes)
		if err != nil {
			return inserted, err
		}
		ct, err := r.db.Exec(ctx, q, rec.ID, rec.Name, rec.Category, attrs)
		if err != nil {
			return inserted, err
		}
		inserted += int(ct.RowsAffected())
	}
	return inserted, nil
}

func (r *PgCatalogRepository) Upsert(ctx context.Context, rec Record) error {
	attrs, err := marshalAttributes(rec.Attributes)
	if err != nil {
		return err
	}
	const q = `INSERT INTO records (id, name, category, attributes) VALUES ($1,$2,$3,$4)
ON CONFLICT (id) DO UPDATE SET name=EXCLUDED.name, category=EXCLUDED.category, attributes=EXCLUDED.attributes`
	_, err = r.db.Exec(ctx, q, rec.ID, rec.Name, rec.Category, attrs)
	return err
}

// Patch updates only the provided fields and returns the updated record, or
// nil when the id does not exist.
func (r *PgCatalogRepository) Patch(ctx context.Context, id int64, patch RecordPatch) (*Record, error) {
	var sets []string
	var args []any

	if patch.Name != nil {
		sets = append(sets, "name=$"+strconv.Itoa(len(args)+1))
		args = append(args, strings.TrimSpace(*patch.Name))
	}
	if patch.Category != nil {
		sets = append(sets, "category=$"+strconv.Itoa(len(args)+1))
		args = append(args, strings.TrimSpace(*patch.Category))
	}
	if patch.Attributes != nil {
		attrs, err := marshalAttributes(patch.Attributes)
		if err != nil {
			return nil, err
		}
		sets = append(sets, "attributes=$"+strconv.Itoa(len(args)+1))
		args = append(args, attrs)
	}
	if len(sets) == 0 {
		return r.Get(ctx, id)
	}

	args = append(args, id)
	q := "UPDATE records SET " + strings.Join(sets, ", ") + " WHERE id=$" + strconv.Itoa(len(args)) +
		" RETURNING id, name, category, attributes"
	rec, err := scanRecord(r.db.QueryRow(ctx, q, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return rec, nil
}

func (r *PgCatalogRepository) Delete(ctx context.Context, id int64) (bool, error) {
	const q = `DELETE FROM records WHERE id=$1`
	ct, err := r.db.Exec(ctx, q, id)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() == 1, nil
}
