package main

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"testing"

	"github.com/dgrijalva/jwt-go"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	echoapi "github.com/devnest/devnest/apps/api/echo"
	"github.com/devnest/devnest/core"
	"github.com/devnest/devnest/core/registration"
	inmemdb "github.com/devnest/devnest/storage/inmem"
	"github.com/devnest/devnest/tests"
)

const adminPassword = "s3cret"

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	extra      interface{}
}

func setup(t *testing.T) (*commandLine, *bytes.Buffer, *registration.Service) {
	hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.MinCost)
	require.NoError(t, err)
	conf := &core.Config{
		AppName:   "DevNest",
		SecretKey: "secret",
		WorkDir:   t.TempDir(),
		Admin:     core.AdminConfig{PasswordHash: string(hash)},
	}

	cat := testutil.LoadCatalog(t)
	db := inmemdb.Open()
	repos := make(map[string]registration.Repository)
	for _, schema := range cat.All() {
		repos[schema.Name] = inmemdb.NewSubmissionRepository(db, schema)
	}
	validate, _ := testutil.NewValidator()
	svc := registration.NewService(registration.Options{
		Catalog:   cat,
		Repos:     repos,
		WorkDir:   conf.WorkDir,
		UploadDir: "uploads",
		Validate:  validate,
		Logger:    testutil.Logger{},
	})

	out := new(bytes.Buffer)
	cli := &commandLine{
		conf: conf,
		out:  out,
		openDB: func() (*sql.DB, error) {
			return sql.Open("postgres", "postgres://devnest@localhost/devnest_test?sslmode=disable")
		},
		openService: func() (*registration.Service, error) { return svc, nil },
	}
	return cli, out, svc
}

func checkErr(t *testing.T, tt cliTest, err error) {
	t.Helper()
	if err == nil {
		if tt.wantErr != nil || tt.wantErrStr != "" {
			t.Errorf("cli.run() error = nil, wantErr %v %s", tt.wantErr, tt.wantErrStr)
		}
		return
	}
	if tt.wantErr != nil {
		if err != tt.wantErr {
			t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
		}
	} else if tt.wantErrStr != "" {
		if err.Error() != tt.wantErrStr {
			t.Errorf("cli.run() error.Error() = %s, wantErrStr %s", err.Error(), tt.wantErrStr)
		}
	} else {
		t.Errorf("cli.run() unexpected error = %v", err)
	}
}

func Test_commandLine_run(t *testing.T) {
	cli, _, _ := setup(t)

	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "export without event", args: []string{"export"}, wantErr: errHelp},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)
		t.Run(tt.name, func(t *testing.T) {
			checkErr(t, tt, cli.run(args))
		})
	}
}

func Test_commandLine_migrate(t *testing.T) {
	cli, _, _ := setup(t)

	gooseRunFunc = func(db *sql.DB, command string, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to", "down-to":
			if len(args) == 0 {
				return fmt.Errorf("%s must be of form: goose [OPTIONS] DRIVER DBSTRING %s VERSION", command, command)
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		case "create":
			if len(args) == 0 {
				return fmt.Errorf("create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]")
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "create: no args", args: []string{"migrate", "create"}, wantErrStr: "create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]"},
		{name: "down-to: non-int arg", args: []string{"migrate", "down-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-to", args: []string{"migrate", "up-to", "1"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "create", args: []string{"migrate", "create", "add_index", "sql"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)
		t.Run(tt.name, func(t *testing.T) {
			checkErr(t, tt, cli.run(args))
		})
	}
}

func Test_commandLine_token(t *testing.T) {
	cli, out, _ := setup(t)

	type extra struct {
		pwd  string
		hash *string
	}
	empty := ""

	tests := []cliTest{
		{name: "no password", args: []string{"token"}, wantErr: errHelp},
		{name: "wrong password", args: []string{"token"}, extra: extra{pwd: "lol"}, wantErr: errInvalidPassword},
		{name: "no hash configured", args: []string{"token"}, extra: extra{pwd: adminPassword, hash: &empty}, wantErr: errNoPasswordHash},
		{name: "issued", args: []string{"token"}, extra: extra{pwd: adminPassword}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		origHash := cli.conf.Admin.PasswordHash
		ex, _ := tt.extra.(extra)
		if ex.hash != nil {
			cli.conf.Admin.PasswordHash = *ex.hash
		}
		readPasswordFunc = func(fd int) ([]byte, error) {
			return []byte(ex.pwd), nil
		}

		t.Run(tt.name, func(t *testing.T) {
			out.Reset()
			err := cli.run(args)
			checkErr(t, tt, err)
			if err != nil {
				return
			}

			claims := new(echoapi.Claims)
			_, err = jwt.ParseWithClaims(strings.TrimSpace(out.String()), claims, func(*jwt.Token) (interface{}, error) {
				return []byte(cli.conf.SecretKey), nil
			})
			require.NoError(t, err)
			assert.True(t, claims.IsAdmin)
			assert.Equal(t, "DevNest", claims.Issuer)
		})
		cli.conf.Admin.PasswordHash = origHash
	}
}

func Test_commandLine_hashPassword(t *testing.T) {
	cli, out, _ := setup(t)
	readPasswordFunc = func(fd int) ([]byte, error) { return []byte("hunter2"), nil }

	require.NoError(t, cli.run([]string{"admin", "hashpassword"}))
	hash := strings.TrimSpace(out.String())
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("hunter2")))
}

func Test_commandLine_export(t *testing.T) {
	cli, out, svc := setup(t)

	sub := testutil.Submission("241000100")
	sub.Notes = `needs "veg" food`
	rec1, err := svc.Register(context.Background(), "bytebloom", sub)
	require.NoError(t, err)
	rec2, err := svc.Register(context.Background(), "bytebloom", testutil.Submission("241000200"))
	require.NoError(t, err)

	require.NoError(t, cli.run([]string{"admin", "export", "-event", "bytebloom"}))

	schema := testutil.Schema(t, testutil.LoadCatalog(t), "bytebloom")
	lines := registration.SplitLines(out.String())
	require.Len(t, lines, 3)
	assert.Equal(t, registration.EncodeHeader(schema.Columns), lines[0])
	assert.Equal(t, rec1, registration.RecordFromValues(schema.Columns, registration.DecodeRow(lines[1])))
	assert.Equal(t, rec2, registration.RecordFromValues(schema.Columns, registration.DecodeRow(lines[2])))

	err = cli.run([]string{"admin", "export", "-event", "lol"})
	assert.Equal(t, registration.ErrEventNotFound, err)
}
