// Package assets embeds the default fixture documents served when no
// fixture directory or URL is configured.
package assets

import "embed"

//go:embed data/*.json i18n/*.json
var FS embed.FS
