package logs

import (
	"io"
	"os"
	"path/filepath"
)

// Writer receives text log records. Binaries that own the terminal fork it
// to a file from OpenFile.
type Writer io.Writer

func (Module) Writer() Writer {
	return os.Stderr
}

// OpenFile opens an append-only log file under the user cache directory of
// app, creating the directory when missing.
func OpenFile(app string) (*os.File, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return nil, err
	}
	dir = filepath.Join(dir, app)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return os.OpenFile(filepath.Join(dir, app+".log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
}
