// Package assets holds the resources compiled into resctl. They are served
// by loaders of type "embedded".
package assets

import "embed"

//go:embed images text
var FS embed.FS
