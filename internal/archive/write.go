package archive

import (
	"fmt"

	"ytframes/internal/fileutil"
)

// WriteFile stores archive bytes at path atomically, so a failed write never
// leaves a truncated dataset behind.
func WriteFile(path string, data []byte) error {
	if len(data) == 0 {
		return EmptySelectionError{}
	}
	if err := fileutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("write archive %s: %w", path, err)
	}
	return nil
}
