package swagger

import _ "embed"

// OpenAPI contains the embedded OpenAPI document for the heroes API,
// written against the default /api/heroes collection path.
//
//go:embed openapi.yaml
var OpenAPI []byte
