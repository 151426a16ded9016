// Package migrations embeds the storefront_state schema.
package migrations

import "embed"

// FS holds the *.up.sql files at its root.
//
//go:embed *.up.sql
var FS embed.FS
