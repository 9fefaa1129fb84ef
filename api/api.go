// Package api carries the OpenAPI description of the HTTP surface.
package api

import _ "embed"

// OpenAPI is the api/openapi.yaml document, served under /docs.
//
//go:embed openapi.yaml
var OpenAPI []byte
