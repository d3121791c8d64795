package templates

import "embed"

// EmailFS contains the HTML bodies of transactional emails.
// Each page defines a "content" block and is parsed together with layout.html.
//
//go:embed email/*.html
var EmailFS embed.FS
