// Package shared wires the pieces both binaries need.
package shared

import (
	"context"
	"os"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/devnest/devnest/core"
	"github.com/devnest/devnest/core/registration"
	appfs "github.com/devnest/devnest/fs"
	"github.com/devnest/devnest/storage"
	"github.com/devnest/devnest/storage/database"
	inmemdb "github.com/devnest/devnest/storage/inmem"
	"github.com/devnest/devnest/storage/sheets"
)

const builtinEvents = "events.toml"

// NewValidator returns a validator with the english translations registered.
func NewValidator() (*validator.Validate, ut.Translator) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	return validate, translator
}

// LoadCatalog loads the built-in events, then the events file if configured,
// then closes the events listed in closedEvents.
func LoadCatalog(conf *core.Config) (*registration.Catalog, error) {
	data, err := appfs.FS.ReadFile(builtinEvents)
	if err != nil {
		return nil, errors.Wrap(err, "reading built-in events")
	}
	cat, err := registration.LoadCatalog(data)
	if err != nil {
		return nil, errors.Wrap(err, "loading built-in events")
	}

	if conf.Storage.EventsFile != "" {
		data, err = os.ReadFile(conf.Path(conf.Storage.EventsFile))
		if err != nil {
			return nil, errors.Wrap(err, "reading events file")
		}
		if err = cat.Merge(data); err != nil {
			return nil, errors.Wrap(err, "loading events file")
		}
	}

	cat.Close(conf.Storage.ClosedEvents...)
	return cat, nil
}

// OpenBackends opens the configured document backend. close releases it.
func OpenBackends(ctx context.Context, conf *core.Config) (b storage.Backends, close func() error, err error) {
	b.DataDir = conf.Path(conf.Storage.DataDir)
	close = func() error { return nil }

	switch conf.Storage.DocumentBackend {
	case storage.BackendPostgres:
		db, err := SetUpDB(conf)
		if err != nil {
			return b, close, errors.Wrap(err, "setting up database")
		}
		b.DB = db
		close = db.Close
	case storage.BackendSheets:
		client, err := sheets.New(ctx, conf.Path(conf.Sheets.CredentialsFile), conf.Sheets.SpreadsheetID)
		if err != nil {
			return b, close, errors.Wrap(err, "setting up sheets")
		}
		b.Sheets = client
	case storage.BackendMemory, "":
		b.Mem = inmemdb.Open()
	default:
		return b, close, errors.Errorf("unknown document backend %q", conf.Storage.DocumentBackend)
	}
	return b, close, nil
}

// SetUpDB creates the database if needed, opens it and applies pending migrations.
func SetUpDB(conf *core.Config) (*sqlx.DB, error) {
	if err := database.CreateIfNotExist(conf); err != nil {
		return nil, err
	}

	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}

	if err = database.Migrate(db.DB, "up"); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
