// Package migrations embeds the client sqlite schema.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
