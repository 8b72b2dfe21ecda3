// Package runner analyzes many files concurrently, one annotation session
// per file, and optionally writes their fixes back.
package runner

// Options controls a multi-file run.
type Options struct {
	// Paths are files or directories to analyze. Defaults to ".".
	Paths []string

	// WorkingDir resolves relative Paths and is the base for glob matching.
	// Defaults to the process working directory.
	WorkingDir string

	// ExcludeGlobs skip matching files and directories, e.g. "vendor/**".
	ExcludeGlobs []string

	// FollowSymlinks walks symlinked directories.
	FollowSymlinks bool

	// Jobs bounds the number of concurrent analyses. 0 means runtime.NumCPU().
	Jobs int

	// Fix applies the first fix of every fixable annotation and writes the
	// file back.
	Fix bool

	// Backup keeps a sidecar copy of each file before its first fix.
	Backup bool

	// LogOutput asks the analyzer for rule execution logs.
	LogOutput bool
}

// DefaultExcludeGlobs are dependency and build directories skipped when
// walking a directory.
func DefaultExcludeGlobs() []string {
	return []string{"**/node_modules", "**/vendor", "**/dist", "**/build", "**/__pycache__"}
}

func (o Options) effectivePaths() []string {
	if len(o.Paths) == 0 {
		return []string{"."}
	}
	return o.Paths
}
