// Package catalogs provides the embedded default integration catalog.
package catalogs

import _ "embed"

// IntegrationsJSON is the bundled integrations catalog, embedded at build time.
//
//go:embed integrations/catalog.json
var IntegrationsJSON []byte
