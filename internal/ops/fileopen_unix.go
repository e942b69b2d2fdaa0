//go:build !windows

package ops

import (
	stderrors "errors"
	"os"
	"syscall"

	"github.com/hpungsan/clipz/internal/errors"
)

// createExportTemp creates a fresh export temp file, readable only by the
// owner. O_EXCL refuses a name that already exists and O_NOFOLLOW a symlink
// planted in its place; ValidatePath rejects a symlinked parent.
func createExportTemp(path string) (*os.File, error) {
	flag := syscall.O_CREAT | syscall.O_EXCL | syscall.O_WRONLY | syscall.O_NOFOLLOW | syscall.O_CLOEXEC
	fd, err := syscall.Open(path, flag, uint32(exportFileMode))
	if err != nil {
		if stderrors.Is(err, syscall.ELOOP) {
			return nil, errors.NewInvalidRequest("cannot write to symlink")
		}
		return nil, err
	}
	return os.NewFile(uintptr(fd), path), nil
}

// openImportFile opens an import file without following a final symlink.
// O_NONBLOCK keeps a FIFO from stalling the daemon before checkImportFile
// rejects it.
func openImportFile(path string) (*os.File, error) {
	fd, err := syscall.Open(path, syscall.O_RDONLY|syscall.O_NOFOLLOW|syscall.O_NONBLOCK|syscall.O_CLOEXEC, 0)
	if err != nil {
		if stderrors.Is(err, syscall.ELOOP) {
			return nil, errors.NewInvalidRequest("cannot read from symlink")
		}
		if stderrors.Is(err, syscall.ENOENT) {
			return nil, errors.NewFileNotFound(path)
		}
		return nil, err
	}
	f := os.NewFile(uintptr(fd), path)
	if err := checkImportFile(f); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}
