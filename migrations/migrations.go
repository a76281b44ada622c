// Package migrations embeds the SQL schema so the server binary can migrate
// the database without the .sql files on disk.
package migrations

import "embed"

// FS holds every *.up.sql / *.down.sql file in this directory.
//
//go:embed *.sql
var FS embed.FS
