// Package main hosts the ytframes CLI entrypoint and command graph.
//
// Commands run the extraction pipeline in-process against the local session
// store: extract downloads and samples a video, the session commands review
// and export a pending selection, and serve exposes the same operations over
// HTTP. Heavy lifting lives in internal/workflow; this package only resolves
// configuration, builds collaborators, and renders output.
package main
