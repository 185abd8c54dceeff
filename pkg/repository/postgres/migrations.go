package postgres

import "embed"

// Migrations holds the goose migrations for the users and orders tables.
//
//go:embed migrations/*.sql
var Migrations embed.FS
