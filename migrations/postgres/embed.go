// Package migrations embeds SQL migration files.
package migrations

import "embed"

// AccountsFS contains the account directory migrations.
//
//go:embed accounts/*.sql
var AccountsFS embed.FS

// AccountsDir is the directory within AccountsFS where migrations live.
const AccountsDir = "accounts"
