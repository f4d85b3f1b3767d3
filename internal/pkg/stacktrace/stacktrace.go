package stacktrace

import "strings"

// InternalPaths picks the file:line of every frame under an internal/ directory out
// of a debug.Stack dump, innermost first. Runtime and dependency frames are dropped.
func InternalPaths(stack []byte) []string {
	var paths []string
	for line := range strings.Lines(string(stack)) {
		_, rel, ok := strings.Cut(strings.TrimSpace(line), "/internal/")
		if !ok {
			continue
		}
		if sp := strings.IndexByte(rel, ' '); sp >= 0 {
			rel = rel[:sp]
		}
		// function lines mention the package path too but carry no file position
		if !strings.Contains(rel, ".go:") {
			continue
		}
		paths = append(paths, "internal/"+rel)
	}
	return paths
}
