package supervisor

import (
	"syscall"

	"github.com/shirou/gopsutil/v4/process"
)

// descendantPIDs walks the children of root depth-first.
// The root itself is not included. A vanished process ends its branch.
func descendantPIDs(root int) []int {
	var pids []int

	var walk func(p *process.Process)
	walk = func(p *process.Process) {
		children, err := p.Children()
		if err != nil {
			return
		}
		for _, child := range children {
			pids = append(pids, int(child.Pid))
			walk(child)
		}
	}

	if proc, err := process.NewProcess(int32(root)); err == nil {
		walk(proc)
	}
	return pids
}

// killStragglers sends SIGKILL to every pid that still exists.
// Used for descendants that moved to their own process group
// and so survived the group kill.
func killStragglers(pids []int) {
	for _, pid := range pids {
		if syscall.Kill(pid, 0) != nil {
			continue
		}
		_ = syscall.Kill(pid, syscall.SIGKILL)
	}
}
