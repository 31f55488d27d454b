//go:build linux

package procscan

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// listAgentPIDs scans /proc for processes matching the agent name.
func listAgentPIDs(name string) ([]int, error) {
	entries, err := os.ReadDir("/proc")
	if err != nil {
		return nil, err
	}
	var pids []int
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		pid, err := strconv.Atoi(e.Name())
		if err != nil {
			continue
		}
		if matchesAgent(readComm(pid), readCmdline(pid), name) {
			pids = append(pids, pid)
		}
	}
	return pids, nil
}

// processCwd resolves a process's working directory via the cwd symlink.
func processCwd(pid int) (string, error) {
	return os.Readlink(fmt.Sprintf("/proc/%d/cwd", pid))
}

// readCmdline returns the NUL-separated argv, or nil for vanished/forbidden
// processes.
func readCmdline(pid int) []string {
	data, err := os.ReadFile(fmt.Sprintf("/proc/%d/cmdline", pid))
	if err != nil || len(data) == 0 {
		return nil
	}
	return strings.Split(strings.TrimRight(string(data), "\x00"), "\x00")
}

func readComm(pid int) string {
	data, err := os.ReadFile(fmt.Sprintf("/proc/%d/comm", pid))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}
