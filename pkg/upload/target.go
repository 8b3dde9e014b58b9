// Package upload provides the cloud upload target abstraction: a Target
// interface for single destinations, a Collection that fans one payload out
// to every configured target, and a provider dispatch table for constructing
// targets from configuration.
package upload

import (
	"context"

	"github.com/collectorkit/collectorkit/pkg/types"
)

// Target is a single destination capable of accepting a named byte payload.
type Target interface {
	// Name identifies the target in logs and metrics.
	Name() string

	// UploadFile delivers the payload to the destination described by desc.
	// The descriptor has already been validated by the Collection.
	UploadFile(ctx context.Context, payload []byte, desc types.UploadDescriptor) error

	// Disconnect releases underlying client resources. It must be idempotent.
	Disconnect(ctx context.Context) error
}
