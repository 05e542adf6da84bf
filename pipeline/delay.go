package pipeline

import (
	"context"
	"math/rand/v2"
	"time"
)

// Sleep waits for d or until ctx is done, whichever comes first.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RandomDelay returns a whole number of seconds drawn uniformly from [minSec, maxSec].
func RandomDelay(minSec, maxSec int, rnd *rand.Rand) time.Duration {
	if maxSec <= minSec {
		return time.Duration(max(minSec, 0)) * time.Second
	}
	return time.Duration(minSec+rnd.IntN(maxSec-minSec+1)) * time.Second
}

// NextWait jitters base by ±30% with a floor of one minute.
func NextWait(base time.Duration, rnd *rand.Rand) time.Duration {
	lo := max(time.Minute, base*7/10)
	hi := max(lo, base*13/10)
	return lo + time.Duration(rnd.Int64N(int64(hi-lo)+1))
}
