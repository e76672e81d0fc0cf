package exporter

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// VersionedPath returns path unchanged when nothing exists there, otherwise
// the first free variant with a _v2, _v3, ... suffix before the extension.
func VersionedPath(path string) string {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return path
	}
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)
	for v := 2; ; v++ {
		candidate := fmt.Sprintf("%s_v%d%s", base, v, ext)
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
	}
}
