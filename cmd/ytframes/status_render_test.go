package main

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"testing"

	"ytframes/internal/deps"
)

func TestRenderStatusLineNoColor(t *testing.T) {
	got := renderStatusLine("Server", statusError, "Not running", false)
	want := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, "Server:", "[ERROR] Not running")
	if got != want {
		t.Fatalf("renderStatusLine mismatch\n got: %q\nwant: %q", got, want)
	}
}

func TestRenderStatusLineWithColor(t *testing.T) {
	got := renderStatusLine("Server", statusOK, "Running", true)
	if !strings.HasPrefix(got, "\x1b[32m") {
		t.Fatalf("expected green prefix, got %q", got)
	}
	if !strings.HasSuffix(got, "\x1b[0m") {
		t.Fatalf("expected reset suffix, got %q", got)
	}
}

func TestDependencyLines(t *testing.T) {
	statuses := []deps.Status{
		{Name: "yt-dlp", Command: "yt-dlp", Available: false, Detail: "command not found"},
		{Name: "FFmpeg", Command: "ffmpeg", Available: true, Version: "ffmpeg version 7.1"},
	}
	lines := dependencyLines(statuses, false)
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d: %v", len(lines), lines)
	}
	if !strings.Contains(lines[0], "[ERROR] 1 of 2 available") {
		t.Fatalf("unexpected summary %q", lines[0])
	}
	if !strings.Contains(lines[1], "[ERROR] command not found") {
		t.Fatalf("unexpected yt-dlp line %q", lines[1])
	}
	if !strings.Contains(lines[2], "[OK] ffmpeg version 7.1") {
		t.Fatalf("unexpected ffmpeg line %q", lines[2])
	}
	if !strings.Contains(lines[3], "Missing dependencies: yt-dlp") {
		t.Fatalf("unexpected missing line %q", lines[3])
	}
}

func TestShouldColorizeNonFile(t *testing.T) {
	if shouldColorize(io.Discard) {
		t.Fatalf("expected non-file writer to disable color")
	}
}

func TestParseIndices(t *testing.T) {
	got, err := parseIndices([]string{"0,2", "4"})
	if err != nil {
		t.Fatalf("parseIndices: %v", err)
	}
	if !slices.Equal(got, []int{0, 2, 4}) {
		t.Fatalf("unexpected indices %v", got)
	}
	if _, err := parseIndices([]string{"-1"}); err == nil {
		t.Fatal("expected negative index to fail")
	}
	if _, err := parseIndices([]string{","}); err == nil {
		t.Fatal("expected empty list to fail")
	}
}
