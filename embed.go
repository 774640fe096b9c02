package spacetravelling

import "embed"

// Assets contains the static files served under /public/:
// images/logo.svg, styles.css and favicon.svg.
//
//go:embed public
var Assets embed.FS
