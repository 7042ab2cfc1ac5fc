// Package gamedata provides the embedded skill, formation and unit
// definitions and registries to look them up.
package gamedata

import "embed"

// dataFS embeds all JSON files from this directory at build time.
//
//go:embed *.json
var dataFS embed.FS
