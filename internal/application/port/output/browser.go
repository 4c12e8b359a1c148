package output

import (
	"context"

	"form-agent/internal/domain/entity"
)

// BrowserLauncher opens one exclusively owned session per run.
type BrowserLauncher interface {
	Open(ctx context.Context) (BrowserPort, error)
}

type BrowserPort interface {
	Navigate(ctx context.Context, url string) error

	// Elements returns the allowlisted elements in document order with
	// their labels resolved.
	Elements(ctx context.Context) ([]entity.ElementDescriptor, error)

	Fill(ctx context.Context, label, value string) error
	Select(ctx context.Context, label, option string) error
	Click(ctx context.Context, role, name string) error

	Screenshot(ctx context.Context) (*entity.Screenshot, error)
	CurrentURL() string
	Close() error
}
