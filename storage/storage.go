// Package storage picks the backing store of every event.
package storage

import (
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/devnest/devnest/core/registration"
	"github.com/devnest/devnest/storage/csvstore"
	"github.com/devnest/devnest/storage/database"
	inmemdb "github.com/devnest/devnest/storage/inmem"
	"github.com/devnest/devnest/storage/sheets"
)

// Document backends
const (
	BackendPostgres = "postgres"
	BackendSheets   = "sheets"
	BackendMemory   = "memory"
)

// Backends holds the opened stores. Only the one named by the document backend is needed.
type Backends struct {
	DataDir string // csv files
	DB      *sqlx.DB
	Sheets  *sheets.Client
	Mem     *inmemdb.DB
}

// NewRepositories returns a repository per event of cat, csv events in DataDir and document
// events in the given document backend.
func NewRepositories(cat *registration.Catalog, documentBackend string, b Backends) (map[string]registration.Repository, error) {
	repos := make(map[string]registration.Repository)
	for _, schema := range cat.All() {
		if schema.Store == registration.StoreCSV {
			repos[schema.Name] = csvstore.NewSubmissionRepository(b.DataDir, schema)
			continue
		}

		switch documentBackend {
		case BackendPostgres:
			if b.DB == nil {
				return nil, fmt.Errorf("%s: postgres backend is not open", schema.Name)
			}
			repos[schema.Name] = database.NewSubmissionRepository(b.DB, schema)
		case BackendSheets:
			if b.Sheets == nil {
				return nil, fmt.Errorf("%s: sheets backend is not open", schema.Name)
			}
			repos[schema.Name] = sheets.NewSubmissionRepository(b.Sheets, schema)
		case BackendMemory, "":
			if b.Mem == nil {
				b.Mem = inmemdb.Open()
			}
			repos[schema.Name] = inmemdb.NewSubmissionRepository(b.Mem, schema)
		default:
			return nil, fmt.Errorf("unknown document backend %q", documentBackend)
		}
	}
	return repos, nil
}
