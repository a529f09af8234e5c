package ports

import (
	"context"
	"io"
)

// FacingMode selects which camera to open.
type FacingMode string

const (
	FacingEnvironment FacingMode = "environment"
	FacingUser        FacingMode = "user"
)

// Stream is an exclusively owned camera stream handle.
type Stream interface {
	io.Reader
	ID() string
}

type Camera interface {
	AcquireStream(ctx context.Context, facing FacingMode) (Stream, error)
	ReleaseStream(s Stream) error
}
