//go:build linux

package supervisor

import (
	"fmt"
	"os"
	"strings"
)

// hasSubprocs reports whether pid has live child processes, via the kernel
// children list for the main thread.
func hasSubprocs(pid int) bool {
	data, err := os.ReadFile(fmt.Sprintf("/proc/%d/task/%d/children", pid, pid))
	if err != nil {
		return false
	}
	return strings.TrimSpace(string(data)) != ""
}
