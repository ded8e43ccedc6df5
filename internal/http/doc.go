// Package http provides the JSON admin API for the address registry.
//
// Routes mount under /api by default:
//   - Addresses: /addresses, /addresses/{id}
//   - Utilities: /addresses/validate, /addresses/parse, /addresses/fields
//   - Bulk load: /addresses/import
//
// Mutations go through the command handlers so validation, logging and error
// categorisation match the CLI. Host applications can register the API on
// their own mux.
package http
