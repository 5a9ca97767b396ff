// Package storage persists generated report files and returns the URL under
// which the HTTP layer serves them.
package storage

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrInvalidName is returned for names that would escape the storage dir.
var ErrInvalidName = errors.New("storage: invalid file name")

// Local stores files in Dir and builds URLs from BaseURL (e.g.
// "http://localhost:8080/files").
type Local struct {
	Dir     string
	BaseURL string
}

// NewLocal creates dir when missing.
func NewLocal(dir, baseURL string) (*Local, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create %s: %w", dir, err)
	}
	return &Local{Dir: dir, BaseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Put writes data under name and returns its public URL. An existing file
// with the same name is overwritten.
func (l *Local) Put(ctx context.Context, name string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", ErrInvalidName
	}
	tmp, err := os.CreateTemp(l.Dir, ".upload-*")
	if err != nil {
		return "", err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	if err := os.Rename(tmp.Name(), filepath.Join(l.Dir, name)); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	return l.URL(name), nil
}

// URL returns the public URL of name.
func (l *Local) URL(name string) string {
	return strings.TrimRight(l.BaseURL, "/") + "/" + name
}

// ReportName returns the content-addressed file name of a report:
// opc_guide_<first 8 hex chars of md5>.pdf.
func ReportName(data []byte) string {
	sum := md5.Sum(data)
	return "opc_guide_" + hex.EncodeToString(sum[:])[:8] + ".pdf"
}
