package process

import (
	"errors"
	"fmt"
	"os/exec"
	"syscall"
	"time"
)

// killWait bounds the wait for a child after SIGKILL. A process stuck in
// uninterruptible sleep (tar on a hung NFS mount) may never be reaped.
const killWait = 5 * time.Second

// child is a started command whose exit is observed by exactly one Wait
// call; exited is closed once err holds that result.
type child struct {
	cmd    *exec.Cmd
	name   string
	exited chan struct{}
	err    error
}

func startChild(cmd *exec.Cmd, name string) (*child, error) {
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	ch := &child{cmd: cmd, name: name, exited: make(chan struct{})}
	go func() {
		ch.err = cmd.Wait()
		close(ch.exited)
	}()
	return ch, nil
}

// waitFor reports whether the child exited within d.
func (ch *child) waitFor(d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ch.exited:
		return true
	case <-t.C:
		return false
	}
}

// stop sends SIGTERM, kills the child if it is still running after grace
// and returns once it has been reaped. Dying from either signal, or
// exiting on its own in the meantime, is a clean stop.
func (ch *child) stop(grace time.Duration) error {
	// Signal fails only when the process is already gone; the reaper
	// goroutine still has to observe it.
	_ = ch.cmd.Process.Signal(syscall.SIGTERM)
	if !ch.waitFor(grace) {
		_ = ch.cmd.Process.Kill()
		if !ch.waitFor(killWait) {
			return fmt.Errorf("%s: still running %s after SIGKILL", ch.name, killWait)
		}
	}
	return ch.stopResult()
}

// stopResult classifies the exit observed after stop signaled the child.
func (ch *child) stopResult() error {
	if ch.err == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if !errors.As(ch.err, &exitErr) {
		return fmt.Errorf("%s: %w", ch.name, ch.err)
	}
	status, ok := exitErr.Sys().(syscall.WaitStatus)
	if !ok || !status.Signaled() {
		return nil
	}
	switch status.Signal() {
	case syscall.SIGTERM, syscall.SIGKILL:
		return nil
	default:
		return fmt.Errorf("%s: %w", ch.name, ch.err)
	}
}
