//go:build windows

package ops

import (
	"os"

	"github.com/hpungsan/clipz/internal/errors"
)

// createExportTemp creates a fresh export temp file. Windows has no
// O_NOFOLLOW; ValidatePath has already rejected symlinks.
func createExportTemp(path string) (*os.File, error) {
	return os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, exportFileMode)
}

// openImportFile opens an import file and checks it with checkImportFile.
func openImportFile(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewFileNotFound(path)
		}
		return nil, err
	}
	if err := checkImportFile(f); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}
