// Package webui embeds the static board client.
package webui

import "embed"

//go:embed index.html app.js style.css
var Assets embed.FS
