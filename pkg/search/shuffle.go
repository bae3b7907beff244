package search

import (
	"crypto/sha256"
	"math/rand/v2"
)

// shuffleIDs shuffles ids in place using a generator seeded from the
// SHA-256 of the caller's seed string. Same seed plus same candidate
// set yields the same order, so pagination stays stable across calls.
func shuffleIDs(ids []int64, seed string) {
	sum := sha256.Sum256([]byte(seed))
	rng := rand.New(rand.NewChaCha8(sum))

	rng.Shuffle(len(ids), func(i, j int) {
		ids[i], ids[j] = ids[j], ids[i]
	})
}

// paginate returns the 1-indexed page slice of PageSize ids, clamped to
// the candidate set.
func paginate(ids []int64, page int) []int64 {
	if page < 1 {
		page = 1
	}

	start := (page - 1) * PageSize
	if start >= len(ids) {
		return nil
	}

	end := start + PageSize
	if end > len(ids) {
		end = len(ids)
	}

	return ids[start:end]
}
