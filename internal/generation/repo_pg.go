package generation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/sundayezeilo/passgen/composer"
	"github.com/sundayezeilo/passgen/internal/errx"
	"github.com/sundayezeilo/passgen/internal/idgen"
)

const (
	insertGenerationSQL = `
INSERT INTO generations (id, length, classes, counts)
VALUES ($1, $2, $3, $4)
RETURNING id, length, classes, counts, created_at`

	getGenerationSQL = `
SELECT id, length, classes, counts, created_at
FROM generations
WHERE id = $1`

	listGenerationsSQL = `
SELECT id, length, classes, counts, created_at
FROM generations
ORDER BY created_at DESC, id DESC
LIMIT $1`
)

// querier is the subset of *pgxpool.Pool used by the repository.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

type pgRepo struct {
	q   querier
	ids idgen.Generator
}

// RepositoryConfig holds configuration for the repository.
type RepositoryConfig struct {
	IDGenerator idgen.Generator
}

// NewRepository returns a PostgreSQL-backed Repository.
func NewRepository(q querier, config *RepositoryConfig) Repository {
	if config == nil {
		config = &RepositoryConfig{}
	}
	if config.IDGenerator == nil {
		config.IDGenerator = idgen.NewV7(idgen.WithRetries(1))
	}
	return &pgRepo{
		q:   q,
		ids: config.IDGenerator,
	}
}

// generationRow mirrors a row of the generations table.
type generationRow struct {
	ID        uuid.UUID
	Length    int32
	Classes   []string
	Counts    map[string]int
	CreatedAt pgtype.Timestamptz
}

func scanGeneration(row pgx.Row) (generationRow, error) {
	var r generationRow
	err := row.Scan(&r.ID, &r.Length, &r.Classes, &r.Counts, &r.CreatedAt)
	return r, err
}

func mustTime(ts pgtype.Timestamptz, field string) (time.Time, error) {
	if !ts.Valid {
		return time.Time{}, fmt.Errorf("%s unexpectedly NULL", field)
	}
	return ts.Time, nil
}

func toRecord(r generationRow) (Record, error) {
	createdAt, err := mustTime(r.CreatedAt, "created_at")
	if err != nil {
		return Record{}, err
	}

	classes := make([]composer.Class, 0, len(r.Classes))
	for _, name := range r.Classes {
		c, err := composer.ParseClass(name)
		if err != nil {
			return Record{}, fmt.Errorf("classes: %w", err)
		}
		classes = append(classes, c)
	}

	counts := make(map[composer.Class]int, len(r.Counts))
	for name, n := range r.Counts {
		c, err := composer.ParseClass(name)
		if err != nil {
			return Record{}, fmt.Errorf("counts: %w", err)
		}
		counts[c] = n
	}

	return Record{
		ID:        r.ID,
		Length:    int(r.Length),
		Classes:   classes,
		Counts:    counts,
		CreatedAt: createdAt,
	}, nil
}

func fromRecord(rec Record) ([]string, map[string]int) {
	classes := make([]string, 0, len(rec.Classes))
	for _, c := range rec.Classes {
		classes = append(classes, c.String())
	}
	counts := make(map[string]int, len(rec.Counts))
	for c, n := range rec.Counts {
		counts[c.String()] = n
	}
	return classes, counts
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "23505"
}

func isCheckViolation(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "23514"
}

func mapRepoError(op string, err error) error {
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return errx.E(op, errx.NotFound, errors.New("generation not found"))
	case isUniqueViolation(err):
		return errx.E(op, errx.Conflict, err)
	case isCheckViolation(err):
		return errx.E(op, errx.Invalid, err)
	default:
		return errx.E(op, errx.Unavailable, err)
	}
}

func (r *pgRepo) Create(ctx context.Context, rec Record) (Record, error) {
	const op = "generation.repo.Create"

	if rec.ID == uuid.Nil {
		id, err := r.ids.Generate()
		if err != nil {
			return Record{}, errx.E(op, errx.Unavailable, err)
		}
		rec.ID = id
	}

	classes, counts := fromRecord(rec)
	row, err := scanGeneration(r.q.QueryRow(ctx, insertGenerationSQL, rec.ID, int32(rec.Length), classes, counts))
	if err != nil {
		return Record{}, mapRepoError(op, err)
	}

	out, err := toRecord(row)
	if err != nil {
		return Record{}, errx.E(op, errx.Internal, err)
	}
	return out, nil
}

func (r *pgRepo) Get(ctx context.Context, id uuid.UUID) (Record, error) {
	const op = "generation.repo.Get"

	row, err := scanGeneration(r.q.QueryRow(ctx, getGenerationSQL, id))
	if err != nil {
		return Record{}, mapRepoError(op, err)
	}

	rec, err := toRecord(row)
	if err != nil {
		return Record{}, errx.E(op, errx.Internal, err)
	}
	return rec, nil
}

func (r *pgRepo) List(ctx context.Context, limit int) ([]Record, error) {
	const op = "generation.repo.List"

	rows, err := r.q.Query(ctx, listGenerationsSQL, limit)
	if err != nil {
		return nil, mapRepoError(op, err)
	}

	raw, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (generationRow, error) {
		return scanGeneration(row)
	})
	if err != nil {
		return nil, mapRepoError(op, err)
	}

	out := make([]Record, 0, len(raw))
	for _, row := range raw {
		rec, err := toRecord(row)
		if err != nil {
			return nil, errx.E(op, errx.Internal, err)
		}
		out = append(out, rec)
	}
	return out, nil
}
