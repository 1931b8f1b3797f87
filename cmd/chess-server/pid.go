package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"
)

// writePIDFile records the server PID at path and, when lock is set, holds an
// exclusive flock on it for the lifetime of the process. The returned release
// function removes the file and must be called on shutdown.
func writePIDFile(path string, lock bool) (func(), error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		if !os.IsExist(err) {
			return nil, fmt.Errorf("create PID file: %w", err)
		}
		if lock {
			if err := inspectExistingPID(path); err != nil {
				return nil, err
			}
		}
		f, err = os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
		if err != nil {
			return nil, fmt.Errorf("open PID file: %w", err)
		}
	}

	if lock {
		if err = syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
			f.Close()
			if errors.Is(err, syscall.EWOULDBLOCK) {
				return nil, errors.New("another instance holds the PID lock")
			}
			return nil, fmt.Errorf("lock PID file: %w", err)
		}
	}

	if _, err = fmt.Fprintf(f, "%d\n", os.Getpid()); err == nil {
		err = f.Sync()
	}
	if err != nil {
		f.Close()
		os.Remove(path)
		return nil, fmt.Errorf("write PID file: %w", err)
	}

	release := func() {
		if lock {
			syscall.Flock(int(f.Fd()), syscall.LOCK_UN)
		}
		f.Close()
		os.Remove(path)
	}
	return release, nil
}

// inspectExistingPID reports why a PID file already present at path blocks
// startup. Signal 0 probes whether the recorded process is still alive.
func inspectExistingPID(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read existing PID file: %w", err)
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return fmt.Errorf("corrupt PID file %s: %q", path, string(data))
	}

	proc, _ := os.FindProcess(pid)
	if err = proc.Signal(syscall.Signal(0)); err != nil {
		if errors.Is(err, os.ErrProcessDone) || errors.Is(err, syscall.ESRCH) {
			return fmt.Errorf("stale PID file for dead process %d, remove %s to start", pid, path)
		}
		return fmt.Errorf("process %d from PID file cannot be probed: %v", pid, err)
	}
	return fmt.Errorf("process %d from PID file is still running", pid)
}
