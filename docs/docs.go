// Package docs embeds the API reference served under /docs.
package docs

import _ "embed"

// OpenAPI is the machine-readable description of every /api route.
//
//go:embed openapi.yaml
var OpenAPI []byte

// Page is a Swagger UI shell that loads OpenAPI from /docs/openapi.yaml.
//
//go:embed index.html
var Page []byte
