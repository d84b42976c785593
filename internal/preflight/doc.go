// Package preflight provides readiness checks for the filesystem paths,
// external binaries, and optional services ytframes depends on.
//
// These checks run in two contexts:
//   - serve calls RunAll at startup and logs every failed check.
//   - The CLI "ytframes status" command renders the same results.
//
// Optional services are only checked when configured.
package preflight
