package util

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/edsrzf/mmap-go"
)

// ReadFileMapped reads a whole file through a read-only memory map and
// returns an owned copy of its contents. The mapping is released before
// returning, so the file can be rewritten or removed right away (catalog
// hot reload depends on that).
//
// Falls back to os.ReadFile when the file cannot be mapped.
func ReadFileMapped(path string) ([]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %q: %w", path, err)
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file %q: %w", path, err)
	}

	// Zero-length regions cannot be mapped.
	if stat.Size() == 0 {
		return []byte{}, nil
	}

	region, err := mmap.Map(file, mmap.RDONLY, 0)
	if err != nil {
		slog.Debug("mmap failed, using fallback", "file", path, "size", stat.Size(), "error", err)
		data, readErr := os.ReadFile(path)
		if readErr != nil {
			return nil, fmt.Errorf("mmap failed and fallback failed for %q: mmap error: %v, read error: %w",
				path, err, readErr)
		}
		return data, nil
	}

	data := make([]byte, len(region))
	copy(data, region)

	if err := region.Unmap(); err != nil {
		return nil, fmt.Errorf("failed to unmap %q: %w", path, err)
	}
	return data, nil
}
