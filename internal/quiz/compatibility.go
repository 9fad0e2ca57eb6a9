package quiz

import (
	"math/rand"

	"github.com/somnia/storefront-bfa-go/internal/domain"
)

// Compatibility returns a decorative match percentage between two
// personalities. It is EXPLICITLY non-deterministic: the score jitters
// between calls and must never be used for anything beyond display.
// Classification (Classify) is the deterministic API; keep them separate.
func Compatibility(idA, idB string) (int, error) {
	a, ok := Personalities[idA]
	if !ok {
		return 0, &domain.ErrNotFound{Resource: "personality", ID: idA}
	}
	if _, ok := Personalities[idB]; !ok {
		return 0, &domain.ErrNotFound{Resource: "personality", ID: idB}
	}

	base := 65
	if contains(a.CompatibleWith, idB) {
		base = 82
	} else if contains(a.RedFlags, idB) {
		base = 48
	}
	if idA == idB {
		base = 74 // same style: comfortable, but someone has to hog the covers
	}

	score := base + rand.Intn(17) - 8
	if score < 1 {
		score = 1
	}
	if score > 99 {
		score = 99
	}
	return score, nil
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
