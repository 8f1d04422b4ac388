// Package testutil holds helpers shared by the tests of several packages.
package testutil

import (
	"os"
	"strings"
	"testing"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"

	"github.com/devnest/devnest/core"
	"github.com/devnest/devnest/core/registration"
	appfs "github.com/devnest/devnest/fs"
	"github.com/devnest/devnest/storage/database"
)

// Logger drops everything.
type Logger struct{}

var _ core.Logger = Logger{}

func (Logger) Debug(string, ...interface{}) {}
func (Logger) Info(string, ...interface{})  {}
func (Logger) Warn(string, ...interface{})  {}
func (Logger) Error(string, ...interface{}) {}
func (Logger) Fatal(string, ...interface{}) {}

// LoadCatalog returns the built-in event schemas.
func LoadCatalog(t *testing.T) *registration.Catalog {
	t.Helper()
	data, err := appfs.FS.ReadFile("events.toml")
	if err != nil {
		t.Fatalf("LoadCatalog() failed: %v", err)
	}
	cat, err := registration.LoadCatalog(data)
	if err != nil {
		t.Fatalf("LoadCatalog() failed: %v", err)
	}
	return cat
}

func Schema(t *testing.T, cat *registration.Catalog, name string) *registration.EventSchema {
	t.Helper()
	schema, err := cat.Get(name)
	if err != nil {
		t.Fatalf("Schema(%q) failed: %v", name, err)
	}
	return schema
}

// NewValidator returns a validator and the translator its messages are registered on.
func NewValidator() (*validator.Validate, ut.Translator) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	return validate, translator
}

// Submission returns a complete bytebloom/hackverse team registration for roll.
// The second participant's roll is derived from roll, so submissions for distinct rolls never clash.
func Submission(roll string) registration.Submission {
	return registration.Submission{
		FullName:         "Jane Doe",
		RollNumber:       roll,
		Department:       "CSE",
		WhatsappNumber:   "9876543210",
		Email:            "jane@example.com",
		TeamName:         "Nullptr",
		TeamSize:         "2",
		Participant2:     "John",
		Participant2Roll: strings.TrimSpace(roll) + "-2",
		TransactionID:    "UTR123",
	}
}

// PrepareDB opens the test database, migrates it and empties it.
// The test is skipped unless TEST_DATABASE_HOST is set.
func PrepareDB(t *testing.T) *sqlx.DB {
	t.Helper()
	if os.Getenv("TEST_DATABASE_HOST") == "" {
		t.Skip("TEST_DATABASE_HOST is not set")
	}
	t.Setenv("ENV", "TEST")
	conf := core.NewConfig()

	if err := database.CreateIfNotExist(conf); err != nil {
		t.Fatalf("PrepareDB() failed: %v", err)
	}
	db, err := database.Open(conf)
	if err != nil {
		t.Fatalf("PrepareDB() failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err = database.Migrate(db.DB, "up"); err != nil {
		t.Fatalf("PrepareDB() failed: %v", err)
	}
	ResetDB(t, db)
	return db
}

func ResetDB(t *testing.T, db *sqlx.DB) {
	t.Helper()
	if _, err := db.Exec("TRUNCATE submissions"); err != nil {
		t.Fatalf("ResetDB() failed: %v", err)
	}
}
