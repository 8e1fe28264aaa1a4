// Package migrations embeds the SQL schema of the development booking
// backend for the goose provider.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
