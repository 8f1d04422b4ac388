// Package appfs embeds the assets the binaries need at runtime.
package appfs

import "embed"

//go:embed migrations/*.sql events.toml templates/email/*
var FS embed.FS
