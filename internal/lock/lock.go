// Package lock makes sure a single daemon serves an instance directory.
// The lock is an flock on <dir>/LOCK; the file records who holds it so a
// second daemon or wavectl can name the owner.
package lock

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"
)

const fileName = "LOCK"

// Owner identifies the process serving an instance.
type Owner struct {
	PID     int
	Program string
	Since   time.Time
}

func (o Owner) encode() string {
	return fmt.Sprintf("pid=%d\nprogram=%s\nsince=%s\n", o.PID, o.Program, o.Since.UTC().Format(time.RFC3339))
}

func parseOwner(content string) Owner {
	var o Owner
	for _, line := range strings.Split(content, "\n") {
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		switch key {
		case "pid":
			o.PID, _ = strconv.Atoi(value)
		case "program":
			o.Program = value
		case "since":
			o.Since, _ = time.Parse(time.RFC3339, value)
		}
	}
	return o
}

// HeldError is returned by Acquire when another daemon serves the instance.
type HeldError struct {
	Dir   string
	Owner Owner
}

func (e *HeldError) Error() string {
	if e.Owner.PID == 0 {
		return fmt.Sprintf("instance %s is already served by another daemon", e.Dir)
	}
	program := e.Owner.Program
	if program == "" {
		program = "a daemon"
	}
	return fmt.Sprintf("instance %s is already served by %s (pid %d) since %s",
		e.Dir, program, e.Owner.PID, e.Owner.Since.Local().Format(time.DateTime))
}

// Lock is a held instance lock.
type Lock struct {
	file *os.File
	path string
}

// Acquire takes the instance lock for program without waiting.
func Acquire(dir, program string) (*Lock, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("prepare instance dir: %w", err)
	}
	path := filepath.Join(dir, fileName)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return nil, fmt.Errorf("open instance lock: %w", err)
	}

	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		_ = f.Close()
		return nil, &HeldError{Dir: dir, Owner: readOwner(path)}
	}

	owner := Owner{PID: os.Getpid(), Program: program, Since: time.Now()}
	if err := f.Truncate(0); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("record instance owner: %w", err)
	}
	if _, err := f.WriteAt([]byte(owner.encode()), 0); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("record instance owner: %w", err)
	}
	return &Lock{file: f, path: path}, nil
}

// Release drops the lock and removes the lock file. It is a no-op on a nil
// or released lock.
func (l *Lock) Release() error {
	if l == nil || l.file == nil {
		return nil
	}
	_ = os.Remove(l.path)
	err := l.file.Close()
	l.file = nil
	return err
}

// Holder reports the daemon serving dir, if any.
func Holder(dir string) (Owner, bool) {
	path := filepath.Join(dir, fileName)
	f, err := os.OpenFile(path, os.O_RDWR, 0600)
	if err != nil {
		return Owner{}, false
	}
	defer func() { _ = f.Close() }()

	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err == nil {
		_ = syscall.Flock(int(f.Fd()), syscall.LOCK_UN)
		return Owner{}, false
	}
	return readOwner(path), true
}

func readOwner(path string) Owner {
	data, err := os.ReadFile(path)
	if err != nil {
		return Owner{}
	}
	return parseOwner(string(data))
}
