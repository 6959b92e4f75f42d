// Package migrations embeds the SQL schema migrations so the binaries can
// apply them without a migrations directory next to them.
package migrations

import "embed"

// FS holds every *.up.sql and *.down.sql file of this directory
//
//go:embed *.sql
var FS embed.FS
