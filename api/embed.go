// Package api holds the OpenAPI description of the HTTP surface. The same
// document drives request validation and the swagger UI.
package api

import _ "embed"

//go:embed openapi.yml
var OpenAPI []byte
