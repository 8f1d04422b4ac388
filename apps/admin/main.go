package main

import (
	"context"
	"database/sql"
	"log"
	"os"

	"github.com/devnest/devnest/apps/shared"
	"github.com/devnest/devnest/core"
	"github.com/devnest/devnest/core/registration"
	logsvc "github.com/devnest/devnest/services/logger"
	"github.com/devnest/devnest/storage"
	"github.com/devnest/devnest/storage/database"
)

func main() {
	std := log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	conf := core.NewConfig()

	logger := logsvc.NewRollbarLogger(std, conf)
	logger.Enable(!conf.Debug)

	// start CLI
	cli := commandLine{
		conf: conf,
		out:  os.Stdout,
		openDB: func() (*sql.DB, error) {
			if err := database.CreateIfNotExist(conf); err != nil {
				return nil, err
			}
			db, err := database.Open(conf)
			if err != nil {
				return nil, err
			}
			return db.DB, nil
		},
		openService: func() (*registration.Service, error) {
			return openService(conf, logger)
		},
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			std.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

// openService builds a read-only registration service over the configured stores.
// The backends stay open until the process exits.
func openService(conf *core.Config, logger core.Logger) (*registration.Service, error) {
	catalog, err := shared.LoadCatalog(conf)
	if err != nil {
		return nil, err
	}
	backends, _, err := shared.OpenBackends(context.Background(), conf)
	if err != nil {
		return nil, err
	}
	repos, err := storage.NewRepositories(catalog, conf.Storage.DocumentBackend, backends)
	if err != nil {
		return nil, err
	}
	validate, _ := shared.NewValidator()
	return registration.NewService(registration.Options{
		Catalog:   catalog,
		Repos:     repos,
		WorkDir:   conf.WorkDir,
		UploadDir: conf.Storage.UploadDir,
		Validate:  validate,
		Logger:    logger,
	}), nil
}
