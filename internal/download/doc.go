// Package download resolves a video URL to a local file using yt-dlp.
//
// The Resolver interface lets the workflow swap the yt-dlp implementation for
// an in-memory fake in tests. Every failure, including a missing or empty
// output file, is reported as a *DownloadError carrying the URL.
package download
