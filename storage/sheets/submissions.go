package sheets

import (
	"context"
	"sync"

	"github.com/devnest/devnest/core"
	"github.com/devnest/devnest/core/registration"
)

// submissionRepository keeps a collection in the sheet of the same name. Row 1 is the header.
type submissionRepository struct {
	client *Client
	schema *registration.EventSchema

	mu    sync.Mutex
	ready bool
}

func NewSubmissionRepository(client *Client, schema *registration.EventSchema) registration.Repository {
	return &submissionRepository{client: client, schema: schema}
}

func (repo *submissionRepository) sheet() string {
	return repo.schema.Collection
}

// rows returns the header and the data rows, header row skipped.
func (repo *submissionRepository) rows(ctx context.Context) ([]string, [][]string, error) {
	if err := repo.prepare(ctx); err != nil {
		return nil, nil, err
	}
	values, err := repo.client.readAll(ctx, repo.sheet())
	if err != nil {
		return nil, nil, err
	}
	if len(values) == 0 {
		return nil, nil, nil
	}

	toStrings := func(row []interface{}) []string {
		out := make([]string, len(row))
		for i := range row {
			out[i] = get(row, i)
		}
		return out
	}
	header := toStrings(values[0])
	rows := make([][]string, 0, len(values)-1)
	for i := 1; i < len(values); i++ {
		if len(values[i]) == 0 {
			continue
		}
		rows = append(rows, toStrings(values[i]))
	}
	return header, rows, nil
}

// prepare creates the sheet and its header row once per process.
func (repo *submissionRepository) prepare(ctx context.Context) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	if repo.ready {
		return nil
	}

	if err := repo.client.ensureSheet(ctx, repo.sheet()); err != nil {
		return err
	}
	values, err := repo.client.readAll(ctx, repo.sheet())
	if err != nil {
		return err
	}
	if len(values) == 0 {
		header := make([]interface{}, len(repo.schema.Columns))
		for i, col := range repo.schema.Columns {
			header[i] = col
		}
		if err := repo.client.appendRow(ctx, repo.sheet(), header); err != nil {
			return err
		}
	}
	repo.ready = true
	return nil
}

func (repo *submissionRepository) FindConflicts(ctx context.Context, rolls []string) ([]string, error) {
	scanner := registration.NewConflictScanner(rolls)
	if scanner.Empty() {
		return scanner.Conflicts(), nil
	}

	header, rows, err := repo.rows(ctx)
	if err != nil {
		return nil, core.NewPersistenceError("reading sheet "+repo.sheet(), err)
	}
	for _, row := range rows {
		scanner.Check(registration.RecordFromValues(header, row).Values(repo.schema.RollFields)...)
		if scanner.Done() {
			break
		}
	}
	return scanner.Conflicts(), nil
}

func (repo *submissionRepository) Append(ctx context.Context, rec registration.Record) error {
	if err := repo.prepare(ctx); err != nil {
		return core.NewPersistenceError("preparing sheet "+repo.sheet(), err)
	}
	vals := rec.Values(repo.schema.Columns)
	row := make([]interface{}, len(vals))
	for i, v := range vals {
		row[i] = v
	}
	if err := repo.client.appendRow(ctx, repo.sheet(), row); err != nil {
		return core.NewPersistenceError("appending to sheet "+repo.sheet(), err)
	}
	return nil
}

func (repo *submissionRepository) List(ctx context.Context) ([]registration.Record, error) {
	header, rows, err := repo.rows(ctx)
	if err != nil {
		return nil, core.NewPersistenceError("reading sheet "+repo.sheet(), err)
	}
	recs := make([]registration.Record, 0, len(rows))
	for _, row := range rows {
		recs = append(recs, registration.RecordFromValues(header, row))
	}
	return recs, nil
}
