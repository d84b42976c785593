// Package api exposes extraction sessions over HTTP and defines the
// wire-format types shared by the server and the CLI's --json output.
//
// # Routes
//
// The chi router built by NewRouter serves:
//
//	GET  /api/sessions                             list (optional ?status=)
//	POST /api/sessions                             create and start in the background
//	GET  /api/sessions/{id}                        describe
//	DELETE /api/sessions/{id}                      remove session and work files
//	GET  /api/sessions/{id}/candidates             thumbnail grid data
//	GET  /api/sessions/{id}/candidates/{index}/thumbnail
//	POST /api/sessions/{id}/candidates/{index}/toggle
//	POST /api/sessions/{id}/select-all
//	POST /api/sessions/{id}/clear
//	POST /api/sessions/{id}/export
//	GET  /api/sessions/{id}/archive                download the built zip
//	GET  /api/status                               daemon status
//	GET  /healthz
//	GET  /metrics
//
// # Errors
//
// Failures are returned as {"error": "..."} with the status chosen by
// StatusFor: unknown sessions and candidates are 404, an empty selection or a
// session in the wrong state is 409, validation problems are 400.
//
// # Design Notes
//
// DTOs use camelCase JSON tags. Statuses are exposed as their lowercase
// identifiers. Timestamps use RFC3339 with milliseconds.
package api
