// Package docstore is the remote document store adapter: per-user
// hierarchical documents addressed by slash-separated paths. Collections
// have an odd number of segments, documents an even number; the parity
// convention is load-bearing for every backend's addressing scheme.
package docstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var ErrNotFound = errors.New("document not found")

// Document is one listed entry: the trailing path segment plus the raw
// JSON body.
type Document struct {
	ID   string
	Data []byte
}

// Store is the narrow CRUD surface the sync orchestrator consumes. It
// carries no business logic and is swappable per backend.
type Store interface {
	// Get returns the raw document at a document path, or ErrNotFound.
	Get(ctx context.Context, path string) ([]byte, error)

	// Put creates or fully overwrites the document at a document path.
	Put(ctx context.Context, path string, doc []byte) error

	// Delete removes the document at a document path. Deleting a missing
	// document is not an error.
	Delete(ctx context.Context, path string) error

	// List returns every document under a collection path.
	List(ctx context.Context, collection string) ([]Document, error)

	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error
}

// UserDoc returns the path of the per-user aggregate document.
func UserDoc(userID string) string {
	return "users/" + userID
}

// CollectionPath returns the path of a user-scoped collection,
// e.g. users/u1/notes.
func CollectionPath(userID, collection string) string {
	return "users/" + userID + "/" + collection
}

// DocPath returns the path of a document inside a user-scoped collection,
// e.g. users/u1/notes/n1.
func DocPath(userID, collection, id string) string {
	return CollectionPath(userID, collection) + "/" + id
}

func segments(path string) ([]string, error) {
	if path == "" || strings.HasPrefix(path, "/") || strings.HasSuffix(path, "/") {
		return nil, fmt.Errorf("malformed path %q", path)
	}
	segs := strings.Split(path, "/")
	for _, s := range segs {
		if s == "" {
			return nil, fmt.Errorf("malformed path %q", path)
		}
	}
	return segs, nil
}

// ValidateDocPath checks the even-segment parity of a document path.
func ValidateDocPath(path string) error {
	segs, err := segments(path)
	if err != nil {
		return err
	}
	if len(segs)%2 != 0 {
		return fmt.Errorf("path %q has %d segments, documents need an even count", path, len(segs))
	}
	return nil
}

// ValidateCollectionPath checks the odd-segment parity of a collection
// path.
func ValidateCollectionPath(path string) error {
	segs, err := segments(path)
	if err != nil {
		return err
	}
	if len(segs)%2 != 1 {
		return fmt.Errorf("path %q has %d segments, collections need an odd count", path, len(segs))
	}
	return nil
}

// parentCollection returns the collection path a document lives in.
func parentCollection(docPath string) string {
	i := strings.LastIndex(docPath, "/")
	return docPath[:i]
}

// docID returns the trailing segment of a document path.
func docID(docPath string) string {
	i := strings.LastIndex(docPath, "/")
	return docPath[i+1:]
}
