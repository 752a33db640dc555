// Package openapi derives field descriptors from the request bodies of an
// OpenAPI 3 document.
package openapi
