// Package logs reads the per-session JSON log files written by the workflow
// package. It backs `ytframes session log`: Last returns the final lines of a
// file, Follow polls for appended lines until the context ends, and Format
// renders a JSON record as a single human readable line.
package logs
