package driving

import (
	"context"

	"github.com/custodia-labs/sercha-chat/internal/core/domain"
)

// QueryService answers questions against the index.
type QueryService interface {
	// Ask answers a question. Returns domain.ErrIndexEmpty when nothing
	// has been indexed yet.
	Ask(ctx context.Context, question string) (*domain.Answer, error)

	// Status reports the index status.
	Status(ctx context.Context) (domain.IndexStatus, error)
}
