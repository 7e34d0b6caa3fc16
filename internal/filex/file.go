// Package filex contains small file system helpers shared by the on-device
// stores: idempotent directory creation, atomic writes, and conversion
// between local paths and file:// URIs.
package filex

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// FileScheme is the URI prefix of local file references.
const FileScheme = "file://"

// EnsureSubdDir creates base/dirName (and any parents) if it does not exist
// and returns its absolute path. Calling it repeatedly is safe.
func EnsureSubdDir(base, dirName string) (string, error) {
	if base == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("getwd: %w", err)
		}
		base = cwd
	}

	dir, err := filepath.Abs(filepath.Join(base, dirName))
	if err != nil {
		return "", fmt.Errorf("abs %s: %w", dirName, err)
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}

	return dir, nil
}

// WriteFileAtomic writes data to a temporary file next to path and renames
// it into place, so readers never observe a partially written file.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	tmpName := tmp.Name()

	_, werr := tmp.Write(data)
	cerr := tmp.Close()
	if werr != nil || cerr != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("write temp: %w", errors.Join(werr, cerr))
	}

	if err := os.Chmod(tmpName, perm); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("chmod temp: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}

// Exists reports whether path exists.
func Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// RemoveIfExists deletes path, treating a missing file as success.
func RemoveIfExists(path string) error {
	err := os.Remove(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// PathToURI converts an absolute local path into a file:// URI.
func PathToURI(path string) string {
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(path)}
	return u.String()
}

// URIToPath converts a file:// URI back into a local path. URIs that do not
// parse, or that carry a query or fragment, were written by hand rather than
// by PathToURI; their text after the scheme is taken as the literal path.
func URIToPath(uri string) (string, error) {
	if !strings.HasPrefix(uri, FileScheme) {
		return "", fmt.Errorf("not a file uri: %q", uri)
	}

	u, err := url.Parse(uri)
	if err != nil || u.RawQuery != "" || u.ForceQuery || u.Fragment != "" {
		return literalPath(uri), nil
	}
	return filepath.FromSlash(u.Path), nil
}

func literalPath(uri string) string {
	rest := strings.TrimPrefix(uri, FileScheme)
	if !strings.HasPrefix(rest, "/") {
		// file://host/path
		if i := strings.Index(rest, "/"); i >= 0 {
			rest = rest[i:]
		}
	}
	return filepath.FromSlash(rest)
}

// IsFileURI reports whether uri references a local file.
func IsFileURI(uri string) bool {
	return strings.HasPrefix(uri, FileScheme)
}

// IsRemoteURL reports whether uri is an http(s) URL.
func IsRemoteURL(uri string) bool {
	return strings.HasPrefix(uri, "https://") || strings.HasPrefix(uri, "http://")
}
