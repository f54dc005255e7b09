//go:build !linux

package supervisor

// hasSubprocs is a no-op where no cheap child-process probe exists; the
// session then only ever reports absence.
func hasSubprocs(pid int) bool {
	return false
}
