package utils

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/nodewee/picaxe/pkg/constants"
)

// Exists reports whether path exists
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// HasExtension reports whether name ends with ext. The match is case-sensitive,
// so "paper.PDF" does not count as a PDF.
func HasExtension(name, ext string) bool {
	return strings.HasSuffix(name, ext)
}

// ListPDFs returns the names of directory entries ending with .pdf
func ListPDFs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var pdfs []string
	for _, entry := range entries {
		if HasExtension(entry.Name(), constants.PDFExtension) {
			pdfs = append(pdfs, entry.Name())
		}
	}
	return pdfs, nil
}

// CopyFile copies src to dst, preserving the permission bits and
// modification time. An existing dst is overwritten.
func CopyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", src, err)
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("failed to copy %s to %s: %w", src, dst, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", dst, err)
	}

	return os.Chtimes(dst, info.ModTime(), info.ModTime())
}

// CopyRegularFiles copies every regular file directly inside srcDir into
// dstDir, creating dstDir if needed. Subdirectories are skipped. Returns the
// number of files copied.
func CopyRegularFiles(srcDir, dstDir string) (int, error) {
	if err := EnsureDir(dstDir); err != nil {
		return 0, err
	}

	entries, err := os.ReadDir(srcDir)
	if err != nil {
		return 0, fmt.Errorf("failed to read %s: %w", srcDir, err)
	}

	copied := 0
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		src := filepath.Join(srcDir, entry.Name())
		dst := filepath.Join(dstDir, entry.Name())
		if err := CopyFile(src, dst); err != nil {
			return copied, err
		}
		copied++
	}
	return copied, nil
}

// CopyTree copies the directory tree rooted at src into dst, merging with
// whatever dst already holds.
func CopyTree(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		switch {
		case d.IsDir():
			return EnsureDir(target)
		case d.Type().IsRegular():
			return CopyFile(path, target)
		default:
			// sockets, devices and symlinks are not artifacts
			return nil
		}
	})
}

// MoveTree merges src into dst and removes src afterwards
func MoveTree(src, dst string) error {
	if err := CopyTree(src, dst); err != nil {
		return fmt.Errorf("failed to copy %s to %s: %w", src, dst, err)
	}
	if err := os.RemoveAll(src); err != nil {
		return fmt.Errorf("failed to remove %s: %w", src, err)
	}
	return nil
}

// RemoveDirContents deletes every file inside dir but keeps dir itself.
// A missing dir is not an error.
func RemoveDirContents(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}

	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if err := os.Remove(filepath.Join(dir, entry.Name())); err != nil && !os.IsNotExist(err) {
			return removed, err
		}
		removed++
	}
	return removed, nil
}
