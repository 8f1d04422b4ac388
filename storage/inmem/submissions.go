package inmemdb

import (
	"context"

	"github.com/devnest/devnest/core/registration"
)

type submissionRepository struct {
	db     *DB
	table  *collection
	schema *registration.EventSchema
}

func NewSubmissionRepository(db *DB, schema *registration.EventSchema) registration.Repository {
	return &submissionRepository{db: db, table: db.collection(schema.Collection), schema: schema}
}

func (repo *submissionRepository) query() []registration.Record {
	repo.db.read()
	recs := make([]registration.Record, len(repo.table.records))
	copy(recs, repo.table.records)
	return recs
}

func (repo *submissionRepository) FindConflicts(_ context.Context, rolls []string) ([]string, error) {
	scanner := registration.NewConflictScanner(rolls)
	if scanner.Empty() {
		return scanner.Conflicts(), nil
	}

	repo.table.RLock()
	defer repo.table.RUnlock()

	for _, rec := range repo.query() {
		scanner.Check(rec.Values(repo.schema.RollFields)...)
		if scanner.Done() {
			break
		}
	}
	return scanner.Conflicts(), nil
}

func (repo *submissionRepository) Append(_ context.Context, rec registration.Record) error {
	repo.table.Lock()
	defer repo.table.Unlock()

	repo.table.records = append(repo.table.records, rec)
	return nil
}

func (repo *submissionRepository) List(_ context.Context) ([]registration.Record, error) {
	repo.table.RLock()
	defer repo.table.RUnlock()
	return repo.query(), nil
}
