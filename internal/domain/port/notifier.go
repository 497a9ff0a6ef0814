package port

import "context"

// Notifier informs the video owner about analysis outcomes that need
// attention. Both calls are best-effort; callers log and move on.
type Notifier interface {
	NotifyFlagged(ctx context.Context, userEmail string, videoID string, videoTitle string) error
	NotifyFailure(ctx context.Context, userEmail string, videoID string, videoTitle string, errorMsg string) error
}
