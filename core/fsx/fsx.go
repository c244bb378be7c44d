// Package fsx provides the write-then-rename primitives every destructive
// handler goes through: bytes only become visible at the destination after
// they have been fully written and synced next to it.
package fsx

import (
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Replaceable so tests can simulate rename failures.
var renameFunc = os.Rename

// BackupSuffix is appended to a path to name its backup copy.
const BackupSuffix = ".bak"

// TempSibling creates an empty temporary file in dst's directory and returns
// its path. The name keeps dst's extension so tools that pick a format from
// the file name still do the right thing. The caller owns the file and must
// either Rename it into place or remove it.
func TempSibling(dst string) (string, error) {
	dir, base := filepath.Split(dst)
	if dir == "" {
		dir = "."
	}
	ext := filepath.Ext(base)
	f, err := os.CreateTemp(dir, "."+strings.TrimSuffix(base, ext)+".tmp-*"+ext)
	if err != nil {
		return "", err
	}
	name := f.Name()
	if err := f.Close(); err != nil {
		_ = os.Remove(name)
		return "", err
	}
	return name, nil
}

// Rename moves src over dst.
func Rename(src, dst string) error {
	return renameFunc(src, dst)
}

// WriteAtomic calls write with a temporary file next to dst and renames it
// over dst once write, sync and close all succeeded. On any failure the
// temporary file is removed and dst is left as it was.
func WriteAtomic(dst string, perm os.FileMode, write func(w io.Writer) error) (err error) {
	tmpName, err := TempSibling(dst)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmpName)
		}
	}()

	f, err := os.OpenFile(tmpName, os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if err = write(f); err != nil {
		_ = f.Close()
		return err
	}
	if err = f.Chmod(perm); err != nil {
		_ = f.Close()
		return err
	}
	if err = f.Sync(); err != nil {
		_ = f.Close()
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	return Rename(tmpName, dst)
}

// CopyAtomic copies src to dst through WriteAtomic, keeping src's
// permission bits. Copying a file onto itself is a no-op.
func CopyAtomic(src, dst string) error {
	if SamePath(src, dst) {
		return nil
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	fi, err := in.Stat()
	if err != nil {
		return err
	}
	return WriteAtomic(dst, fi.Mode().Perm(), func(w io.Writer) error {
		_, err := io.Copy(w, in)
		return err
	})
}

// Backup copies path to path+BackupSuffix and returns the backup's path.
func Backup(path string) (string, error) {
	dst := path + BackupSuffix
	return dst, CopyAtomic(path, dst)
}

// SamePath reports whether a and b name the same location after cleaning.
func SamePath(a, b string) bool {
	if filepath.Clean(a) == filepath.Clean(b) {
		return true
	}
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	return errA == nil && errB == nil && absA == absB
}

// FileMode returns path's permission bits, or fallback when it cannot be
// stat'ed.
func FileMode(path string, fallback os.FileMode) os.FileMode {
	fi, err := os.Stat(path)
	if err != nil {
		return fallback
	}
	return fi.Mode().Perm()
}
