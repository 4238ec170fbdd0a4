package media

import (
	"fmt"
	"math"

	"github.com/disintegration/imaging"
)

// AspectBucket is a target resolution for image edit models.
type AspectBucket struct {
	RatioW, RatioH int
	Width, Height  int
}

func (b AspectBucket) Label() string {
	return fmt.Sprintf("%d:%d", b.RatioW, b.RatioH)
}

// Ratio is the nominal width÷height ratio of the bucket label.
func (b AspectBucket) Ratio() float64 {
	return float64(b.RatioW) / float64(b.RatioH)
}

// AspectBuckets is ordered; NearestAspect resolves ties to the earliest entry.
var AspectBuckets = []AspectBucket{
	{1, 1, 1024, 1024},
	{16, 9, 1024, 576},
	{9, 16, 576, 1024},
	{4, 3, 1024, 768},
	{3, 4, 768, 1024},
	{3, 2, 1024, 680},
	{2, 3, 680, 1024},
	{21, 9, 1024, 440},
	{9, 21, 440, 1024},
	{5, 4, 1024, 816},
	{4, 5, 816, 1024},
}

// NearestAspect returns the bucket whose ratio is closest to width÷height.
func NearestAspect(width, height int) AspectBucket {
	if width <= 0 || height <= 0 {
		return AspectBuckets[0]
	}
	ratio := float64(width) / float64(height)

	best := AspectBuckets[0]
	bestDiff := math.Abs(ratio - best.Ratio())
	for _, b := range AspectBuckets[1:] {
		if d := math.Abs(ratio - b.Ratio()); d < bestDiff {
			best, bestDiff = b, d
		}
	}
	return best
}

// FitAspect snaps the image to its nearest bucket, center-crops and resizes
// it in place with a Lanczos filter, and returns the chosen bucket.
func (m *ImageMedia) FitAspect() AspectBucket {
	b := NearestAspect(m.Width(), m.Height())
	if m.Width() != b.Width || m.Height() != b.Height {
		m.image = imaging.Fill(m.image, b.Width, b.Height, imaging.Center, imaging.Lanczos)
	}
	return b
}
