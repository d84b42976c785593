// Package archive packages selected frames into a zip dataset with
// deterministic entry names.
package archive

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"ytframes/internal/frames"
	"ytframes/internal/services"
)

// DefaultPrefix names entries when no trigger word is configured.
const DefaultPrefix = "frame"

// EmptySelectionError is returned when Build is asked to package nothing.
type EmptySelectionError struct{}

func (EmptySelectionError) Error() string { return "no frames selected" }

// Is matches services.ErrEmptySelection.
func (EmptySelectionError) Is(target error) bool { return target == services.ErrEmptySelection }

// EncodingError reports the candidate whose image could not be serialized.
type EncodingError struct {
	Index int
	Entry string
	Err   error
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("encode frame %d as %s: %v", e.Index, e.Entry, e.Err)
}

func (e *EncodingError) Unwrap() error { return e.Err }

// Is matches services.ErrEncoding.
func (e *EncodingError) Is(target error) bool { return target == services.ErrEncoding }

// Options control entry naming and encoding.
type Options struct {
	TriggerWord string
	Format      Format
	JPEGQuality int
	// Modified stamps every entry; zero uses the build time.
	Modified time.Time
}

// EntryName returns "{trigger}_{index:04d}.{ext}", or "frame_{index:04d}.{ext}"
// when trigger is blank.
func EntryName(trigger string, index int, ext string) string {
	prefix := strings.TrimSpace(trigger)
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return fmt.Sprintf("%s_%04d.%s", prefix, index, ext)
}

// Build encodes candidates into a zip archive in ascending index order. It
// fails with EmptySelectionError for no candidates and with EncodingError if
// any image cannot be encoded; in both cases no bytes are returned.
func Build(ctx context.Context, candidates []frames.Candidate, opts Options) ([]byte, error) {
	if len(candidates) == 0 {
		return nil, EmptySelectionError{}
	}
	ordered := slices.Clone(candidates)
	slices.SortStableFunc(ordered, func(a, b frames.Candidate) int { return a.Index - b.Index })
	for i := 1; i < len(ordered); i++ {
		if ordered[i].Index == ordered[i-1].Index {
			return nil, services.Wrap(services.ErrValidation, "building", "name entries",
				fmt.Sprintf("duplicate candidate index %d", ordered[i].Index), nil)
		}
	}

	format := opts.Format
	if format == "" {
		format = FormatPNG
	}
	modified := opts.Modified
	if modified.IsZero() {
		modified = time.Now()
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	var encoded bytes.Buffer
	for _, c := range ordered {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name := EntryName(opts.TriggerWord, c.Index, format.Extension())
		encoded.Reset()
		if err := format.Encode(&encoded, c.Image, opts.JPEGQuality); err != nil {
			return nil, &EncodingError{Index: c.Index, Entry: name, Err: err}
		}
		// Encoded images are already compressed.
		w, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Store, Modified: modified})
		if err != nil {
			return nil, &EncodingError{Index: c.Index, Entry: name, Err: err}
		}
		if _, err := w.Write(encoded.Bytes()); err != nil {
			return nil, &EncodingError{Index: c.Index, Entry: name, Err: err}
		}
	}
	if err := zw.Close(); err != nil {
		return nil, &EncodingError{Index: ordered[len(ordered)-1].Index, Entry: "central directory", Err: err}
	}
	return buf.Bytes(), nil
}

// Entries lists the entry names of an archive in stored order.
func Entries(data []byte) ([]string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	names := make([]string, len(zr.File))
	for i, f := range zr.File {
		names[i] = f.Name
	}
	return names, nil
}
