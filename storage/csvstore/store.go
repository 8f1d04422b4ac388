// Package csvstore keeps an event's submissions in a CSV file, one line per record.
//
// Appends rely on O_APPEND for the atomicity of a single write. There is no file lock, so
// several processes writing the same file may interleave.
package csvstore

import (
	"context"
	"os"
	"path/filepath"

	"github.com/devnest/devnest/core"
	"github.com/devnest/devnest/core/registration"
)

type submissionRepository struct {
	path   string
	schema *registration.EventSchema
}

// NewSubmissionRepository stores schema's records in <dir>/<collection>.csv.
func NewSubmissionRepository(dir string, schema *registration.EventSchema) registration.Repository {
	return &submissionRepository{
		path:   filepath.Join(dir, schema.Collection+".csv"),
		schema: schema,
	}
}

// ensureFile creates the data directory and the file with its header.
func (repo *submissionRepository) ensureFile() error {
	if err := os.MkdirAll(filepath.Dir(repo.path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(repo.path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if os.IsExist(err) {
		return nil
	} else if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	_, err = f.WriteString(registration.EncodeHeader(repo.schema.Columns) + "\n")
	return err
}

// rows returns the header and the decoded data rows. A missing file has no rows.
func (repo *submissionRepository) rows() ([]string, [][]string, error) {
	content, err := os.ReadFile(repo.path)
	if os.IsNotExist(err) {
		return nil, nil, nil
	} else if err != nil {
		return nil, nil, err
	}

	lines := registration.SplitLines(string(content))
	if len(lines) == 0 {
		return nil, nil, nil
	}
	header := registration.DecodeRow(lines[0])
	rows := make([][]string, 0, len(lines)-1)
	for _, l := range lines[1:] {
		rows = append(rows, registration.DecodeRow(l))
	}
	return header, rows, nil
}

func (repo *submissionRepository) FindConflicts(_ context.Context, rolls []string) ([]string, error) {
	scanner := registration.NewConflictScanner(rolls)
	if scanner.Empty() {
		return scanner.Conflicts(), nil
	}

	header, rows, err := repo.rows()
	if err != nil {
		return nil, core.NewPersistenceError("reading "+repo.path, err)
	}

	var idx []int
	for i, col := range header {
		for _, f := range repo.schema.RollFields {
			if col == f {
				idx = append(idx, i)
			}
		}
	}
	for _, row := range rows {
		for _, i := range idx {
			if i < len(row) {
				scanner.Check(row[i])
			}
		}
		if scanner.Done() {
			break
		}
	}
	return scanner.Conflicts(), nil
}

func (repo *submissionRepository) Append(_ context.Context, rec registration.Record) error {
	if err := repo.ensureFile(); err != nil {
		return core.NewPersistenceError("creating "+repo.path, err)
	}

	f, err := os.OpenFile(repo.path, os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return core.NewPersistenceError("opening "+repo.path, err)
	}
	defer func() { _ = f.Close() }()

	if _, err := f.WriteString(registration.EncodeRow(rec.Values(repo.schema.Columns)) + "\n"); err != nil {
		return core.NewPersistenceError("appending to "+repo.path, err)
	}
	return nil
}

func (repo *submissionRepository) List(_ context.Context) ([]registration.Record, error) {
	header, rows, err := repo.rows()
	if err != nil {
		return nil, core.NewPersistenceError("reading "+repo.path, err)
	}
	recs := make([]registration.Record, 0, len(rows))
	for _, row := range rows {
		recs = append(recs, registration.RecordFromValues(header, row))
	}
	return recs, nil
}
