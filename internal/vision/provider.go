package vision

import (
	"context"
	"errors"
)

// ErrDescriptionFailed indicates a provider could not produce a description
// for an image. Callers decide whether to proceed with an empty description
// or surface the failure.
var ErrDescriptionFailed = errors.New("description failed")

// Provider describes an image given as base64 encoded JPEG data.
type Provider interface {
	// Name identifies the provider in logs and status output.
	Name() string
	// Describe returns a text description of the image.
	Describe(ctx context.Context, imageBase64 string) (string, error)
}

// None is a provider that always returns an empty description. Devices use it
// when description is deferred to the server.
type None struct{}

// NewNone returns the no-op provider.
func NewNone() None { return None{} }

func (None) Name() string { return "none" }

func (None) Describe(context.Context, string) (string, error) {
	return "", nil
}
