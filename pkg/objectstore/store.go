// Package objectstore is the durable write-through target for resolved projects.
package objectstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var ErrNotFound = errors.New("object not found")

// Store puts and gets JSON blobs by slash-separated path.
type Store interface {
	Put(ctx context.Context, path string, data []byte) error
	Get(ctx context.Context, path string) ([]byte, error)
	List(ctx context.Context, prefix string) ([]string, error)
	Close() error
}

// ProjectPath is where a barcode's resolution is written.
func ProjectPath(barcode string) string {
	return "projects/" + barcode + ".json"
}

func cleanPath(path string) (string, error) {
	path = strings.Trim(strings.TrimSpace(path), "/")
	if path == "" {
		return "", fmt.Errorf("empty object path")
	}
	return path, nil
}
