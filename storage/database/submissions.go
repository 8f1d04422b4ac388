package database

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/devnest/devnest/core"
	"github.com/devnest/devnest/core/registration"
)

const (
	selectDocumentsQuery = `SELECT document FROM submissions WHERE collection = $1 ORDER BY created_at, id`
	lockCollectionQuery  = `SELECT pg_advisory_xact_lock(hashtext($1))`
)

// Rows are stamped with clock_timestamp once the advisory lock is held, so created_at
// follows commit order.
const insertDocumentQuery = `WITH stamp AS (SELECT clock_timestamp() AS at)
INSERT INTO submissions (id, collection, document, created_at)
SELECT $1::uuid, $2::text, $3::jsonb || jsonb_build_object('createdAt', stamp.at), stamp.at FROM stamp`

type queryer interface {
	QueryxContext(ctx context.Context, query string, args ...interface{}) (*sqlx.Rows, error)
}

// submissionRepository stores one event's records as jsonb documents of a collection.
type submissionRepository struct {
	db     *sqlx.DB
	schema *registration.EventSchema
}

func NewSubmissionRepository(db *sqlx.DB, schema *registration.EventSchema) registration.Repository {
	return &submissionRepository{db: db, schema: schema}
}

func (repo *submissionRepository) scan(ctx context.Context, q queryer, fn func(rec registration.Record) bool) error {
	rows, err := q.QueryxContext(ctx, selectDocumentsQuery, repo.schema.Collection)
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return err
		}
		var rec registration.Record
		if err := json.Unmarshal(doc, &rec); err != nil {
			return errors.Wrap(err, "decoding document")
		}
		if !fn(rec) {
			break
		}
	}
	return rows.Err()
}

func (repo *submissionRepository) findConflicts(ctx context.Context, q queryer, rolls []string) ([]string, error) {
	scanner := registration.NewConflictScanner(rolls)
	if scanner.Empty() {
		return scanner.Conflicts(), nil
	}
	err := repo.scan(ctx, q, func(rec registration.Record) bool {
		scanner.Check(rec.Values(repo.schema.RollFields)...)
		return !scanner.Done()
	})
	if err != nil {
		return nil, core.NewPersistenceError("scanning "+repo.schema.Collection, err)
	}
	return scanner.Conflicts(), nil
}

func (repo *submissionRepository) FindConflicts(ctx context.Context, rolls []string) ([]string, error) {
	return repo.findConflicts(ctx, repo.db, rolls)
}

// Append inserts rec under a per-collection advisory lock. Roll numbers are checked again inside
// the transaction, which makes the check strict across processes.
func (repo *submissionRepository) Append(ctx context.Context, rec registration.Record) error {
	doc, err := json.Marshal(rec)
	if err != nil {
		return core.NewPersistenceError("encoding document", err)
	}

	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return core.NewPersistenceError("starting transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, lockCollectionQuery, repo.schema.Collection); err != nil {
		return core.NewPersistenceError("locking "+repo.schema.Collection, err)
	}
	if repo.schema.CheckConflicts {
		conflicts, err := repo.findConflicts(ctx, tx, rec.Rolls(repo.schema))
		if err != nil {
			return err
		}
		if len(conflicts) > 0 {
			return core.NewConflictError(conflicts)
		}
	}
	if _, err := tx.ExecContext(ctx, insertDocumentQuery, uuid.New(), repo.schema.Collection, string(doc)); err != nil {
		return core.NewPersistenceError("inserting into "+repo.schema.Collection, err)
	}
	if err := tx.Commit(); err != nil {
		return core.NewPersistenceError("committing "+repo.schema.Collection, err)
	}
	return nil
}

func (repo *submissionRepository) List(ctx context.Context) ([]registration.Record, error) {
	recs := []registration.Record{}
	err := repo.scan(ctx, repo.db, func(rec registration.Record) bool {
		recs = append(recs, rec)
		return true
	})
	if err != nil {
		return nil, core.NewPersistenceError("listing "+repo.schema.Collection, err)
	}
	return recs, nil
}
