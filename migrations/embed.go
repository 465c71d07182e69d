// Package migrations embeds the warehouse schema so the server binary can
// migrate without a checkout.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
