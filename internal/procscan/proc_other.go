//go:build !linux

package procscan

import (
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// listAgentPIDs shells out to ps; platforms without /proc (darwin, the BSDs)
// expose nothing cheaper for a full scan.
func listAgentPIDs(name string) ([]int, error) {
	out, err := exec.Command("ps", "-axo", "pid=,comm=,args=").Output()
	if err != nil {
		return nil, err
	}
	var pids []int
	for _, line := range strings.Split(string(out), "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		pid, err := strconv.Atoi(fields[0])
		if err != nil {
			continue
		}
		comm := fields[1]
		if i := strings.LastIndex(comm, "/"); i >= 0 {
			comm = comm[i+1:]
		}
		if matchesAgent(comm, fields[2:], name) {
			pids = append(pids, pid)
		}
	}
	return pids, nil
}

// processCwd resolves a process's working directory via lsof. Best-effort:
// lsof may be slow or absent, in which case the entry is simply omitted.
func processCwd(pid int) (string, error) {
	out, err := exec.Command("lsof", "-a", "-p", strconv.Itoa(pid), "-d", "cwd", "-Fn").Output()
	if err != nil {
		return "", err
	}
	for _, line := range strings.Split(string(out), "\n") {
		if strings.HasPrefix(line, "n") && len(line) > 1 {
			return line[1:], nil
		}
	}
	return "", fmt.Errorf("no cwd record in lsof output for pid %d", pid)
}
