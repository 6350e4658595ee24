// Package utils provides file system helpers used by the provisioning steps
package utils

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// ErrNoFiles is returned by NewestFile when the directory has no regular files
var ErrNoFiles = errors.New("no files found")

// IOError reports a failed file system operation
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// Exists checks if a path exists
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// FileExists checks if a regular file exists
func FileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// DirectoryExists checks if a directory exists
func DirectoryExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}

// CopyFile copies a file from src to dst, replacing dst and keeping the
// source permissions.
func CopyFile(src, dst string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return &IOError{Op: "open", Path: src, Err: err}
	}
	defer sourceFile.Close()

	sourceInfo, err := sourceFile.Stat()
	if err != nil {
		return &IOError{Op: "stat", Path: src, Err: err}
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return &IOError{Op: "mkdir", Path: filepath.Dir(dst), Err: err}
	}

	destFile, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, sourceInfo.Mode().Perm())
	if err != nil {
		return &IOError{Op: "create", Path: dst, Err: err}
	}

	if _, err := io.Copy(destFile, sourceFile); err != nil {
		destFile.Close()
		return &IOError{Op: "write", Path: dst, Err: err}
	}
	if err := destFile.Close(); err != nil {
		return &IOError{Op: "close", Path: dst, Err: err}
	}

	// OpenFile only applies the mode on creation.
	if err := os.Chmod(dst, sourceInfo.Mode().Perm()); err != nil {
		return &IOError{Op: "chmod", Path: dst, Err: err}
	}
	return nil
}

// CopyDirectory copies a directory recursively, creating destination
// directories as needed and overwriting files that already exist at the
// same relative path. Nothing is rolled back on failure.
func CopyDirectory(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return &IOError{Op: "stat", Path: src, Err: err}
	}
	if !info.IsDir() {
		return &IOError{Op: "copy", Path: src, Err: errors.New("not a directory")}
	}

	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return &IOError{Op: "walk", Path: path, Err: err}
		}

		relPath, err := filepath.Rel(src, path)
		if err != nil {
			return &IOError{Op: "rel", Path: path, Err: err}
		}
		dstPath := filepath.Join(dst, relPath)

		if d.IsDir() {
			info, err := d.Info()
			if err != nil {
				return &IOError{Op: "stat", Path: path, Err: err}
			}
			if err := os.MkdirAll(dstPath, info.Mode().Perm()|0700); err != nil {
				return &IOError{Op: "mkdir", Path: dstPath, Err: err}
			}
			return nil
		}

		if d.Type()&fs.ModeSymlink != 0 {
			return copySymlink(path, dstPath)
		}

		return CopyFile(path, dstPath)
	})
}

func copySymlink(src, dst string) error {
	target, err := os.Readlink(src)
	if err != nil {
		return &IOError{Op: "readlink", Path: src, Err: err}
	}
	if err := os.RemoveAll(dst); err != nil {
		return &IOError{Op: "remove", Path: dst, Err: err}
	}
	if err := os.Symlink(target, dst); err != nil {
		return &IOError{Op: "symlink", Path: dst, Err: err}
	}
	return nil
}

// WriteFileAtomic writes data to a temp file in the same directory and
// renames it over path, so readers never see a partial file.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return &IOError{Op: "mkdir", Path: dir, Err: err}
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return &IOError{Op: "create", Path: path, Err: err}
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		cleanup()
		return &IOError{Op: "write", Path: path, Err: err}
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		cleanup()
		return &IOError{Op: "sync", Path: path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return &IOError{Op: "close", Path: path, Err: err}
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		cleanup()
		return &IOError{Op: "chmod", Path: path, Err: err}
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return &IOError{Op: "rename", Path: path, Err: err}
	}
	return nil
}

// NewestFile returns the regular file in dir with the latest modification
// time. Equal timestamps are broken by the lexically greatest name.
// Subdirectories are not searched.
func NewestFile(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", &IOError{Op: "readdir", Path: dir, Err: err}
	}

	var (
		newest    string
		newestMod time.Time
	)
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return "", &IOError{Op: "stat", Path: filepath.Join(dir, entry.Name()), Err: err}
		}
		mod := info.ModTime()
		if newest == "" || mod.After(newestMod) || (mod.Equal(newestMod) && entry.Name() > filepath.Base(newest)) {
			newest = filepath.Join(dir, entry.Name())
			newestMod = mod
		}
	}

	if newest == "" {
		return "", &IOError{Op: "newest", Path: dir, Err: ErrNoFiles}
	}
	return newest, nil
}

// RemoveFile removes a file; a file that is already gone is not an error
func RemoveFile(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return &IOError{Op: "remove", Path: path, Err: err}
	}
	return nil
}
