// Package Templates holds the HTML views rendered by the admin board.
package Templates

import "embed"

//go:embed *.html
var Files embed.FS
