package types

// ElapsedMs returns now - since, clamped at zero for timestamps in the future.
func ElapsedMs(nowMs, sinceMs uint64) uint64 {
	if sinceMs >= nowMs {
		return 0
	}
	return nowMs - sinceMs
}

// IsFresh reports whether a reading observed at observedAtMs is within
// maxDiffMs of now. Future-dated readings count as fresh.
func IsFresh(nowMs, observedAtMs, maxDiffMs uint64) bool {
	return ElapsedMs(nowMs, observedAtMs) <= maxDiffMs
}
