//go:build !unix

package keyfile

import (
	"fmt"
	"os"
)

// No flock outside unix: key pair writes are not cross-process safe there.

func acquireLock(path string, perm os.FileMode) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, perm)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return f, nil
}

func tryLock(path string, perm os.FileMode) (*os.File, error) {
	return acquireLock(path, perm)
}

func releaseLock(f *os.File) error {
	if f == nil {
		return nil
	}
	return f.Close()
}
