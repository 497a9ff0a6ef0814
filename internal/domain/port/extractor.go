package port

import "context"

type FrameExtractionResult struct {
	FramePaths    []string
	FrameCount    int
	VideoDuration float64
}

type FrameExtractor interface {
	// Probe returns the video duration in seconds.
	Probe(ctx context.Context, videoPath string) (float64, error)

	// ExtractFrames samples still images from the video into outputDir.
	// The returned file paths carry no ordering guarantee. Extracted files
	// are left in place; the caller owns cleanup.
	ExtractFrames(ctx context.Context, videoPath string, outputDir string) (*FrameExtractionResult, error)
}
