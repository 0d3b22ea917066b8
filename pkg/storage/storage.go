// Package storage abstracts where payment screenshots land. Production
// uses Google Cloud Storage; tests and the sqlite flavor keep objects in
// memory.
package storage

import "context"

// Storage persists an object and returns its publicly reachable URL.
type Storage interface {
	Upload(ctx context.Context, objectPath, contentType string, data []byte) (string, error)
	Ping(ctx context.Context) error
}
