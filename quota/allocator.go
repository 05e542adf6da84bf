// Package quota splits the reply budget between the primary (verified) and
// secondary audience segments.
package quota

import (
	"math"
	"sort"

	"reply-bot/models"
)

// Split is the per-segment breakdown of an allocation.
type Split struct {
	PrimaryQuota   int
	SecondaryQuota int
	Primary        int
	Secondary      int
}

// Allocate picks up to total posts: floor(total*ratio) from the primary
// segment (capped by its size) and the remainder from the secondary segment.
// A short segment is not topped up from the other one, so the result may hold
// fewer than total posts. Primary posts come first, each segment ranked by
// engagement sum then engagement rate.
func Allocate(posts []models.DraftedPost, total int, ratio float64) []models.DraftedPost {
	out, _ := AllocateWithSplit(posts, total, ratio)
	return out
}

func AllocateWithSplit(posts []models.DraftedPost, total int, ratio float64) ([]models.DraftedPost, Split) {
	if total <= 0 {
		return []models.DraftedPost{}, Split{}
	}
	ratio = math.Max(0, math.Min(1, ratio))

	var primary, secondary []models.DraftedPost
	for _, p := range posts {
		if p.IsPrimarySegment {
			primary = append(primary, p)
		} else {
			secondary = append(secondary, p)
		}
	}
	rank(primary)
	rank(secondary)

	primaryQuota := min(int(math.Floor(float64(total)*ratio)), len(primary))
	secondaryQuota := total - primaryQuota

	split := Split{
		PrimaryQuota:   primaryQuota,
		SecondaryQuota: secondaryQuota,
		Primary:        primaryQuota,
		Secondary:      min(secondaryQuota, len(secondary)),
	}

	out := make([]models.DraftedPost, 0, split.Primary+split.Secondary)
	out = append(out, primary[:split.Primary]...)
	out = append(out, secondary[:split.Secondary]...)
	return out, split
}

func rank(posts []models.DraftedPost) {
	sort.SliceStable(posts, func(i, j int) bool {
		if posts[i].EngagementSum != posts[j].EngagementSum {
			return posts[i].EngagementSum > posts[j].EngagementSum
		}
		return posts[i].EngagementRate > posts[j].EngagementRate
	})
}
