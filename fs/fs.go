// Package appfs embeds the static assets shipped with the binaries.
package appfs

import "embed"

//go:embed catalog.toml migrations templates
var FS embed.FS
