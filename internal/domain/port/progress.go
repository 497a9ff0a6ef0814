package port

import (
	"context"

	"github.com/sidhardha7/content-sensitivity-backend/internal/domain/entity"
)

// ProgressSink receives fire-and-forget progress events scoped to a tenant
// channel. The orchestrator tolerates a nil sink (headless mode) and treats
// publish errors as non-fatal.
type ProgressSink interface {
	Publish(ctx context.Context, event entity.ProgressEvent) error
}
