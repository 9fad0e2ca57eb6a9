package quiz

import (
	"github.com/somnia/storefront-bfa-go/internal/domain"
)

// DefaultPersonalityID is returned when no rule matches.
const DefaultPersonalityID = "the-balanced-sleeper"

// rule is one hand-authored answer combination. Rules are evaluated in
// order and short-circuit on first match.
type rule struct {
	question1, answer1 string
	question2, answer2 string
	personalityID      string
}

var rules = []rule{
	{QTemperature, "cold", QCovers, "hog", "the-cool-cocoon"},
	{QTemperature, "hot", QCovers, "kick", "the-human-furnace"},
	{QSpace, "spread", QPosition, "back", "the-starfish"},
	{QSpace, "close", QCovers, "share", "the-koala"},
	{QSounds, "snore", QSpace, "spread", "the-freight-train"},
	{QSounds, "white-noise", QSpace, "edge", "the-zen-master"},
	{QPosition, "stomach", QCovers, "kick", "the-free-spirit"},
	{QTemperature, "cold", QCovers, "share", "the-blanket-burrito"},
}

// Classify maps a complete answer set to a personality id. The decision is
// fully deterministic: identical answers always yield the identical id.
// All five questions must be present; a missing answer is a validation
// error, not a fallback.
func Classify(answers map[string]string) (string, error) {
	for _, q := range QuestionIDs {
		if answers[q] == "" {
			return "", &domain.ErrValidation{Field: q, Message: "answer required"}
		}
	}

	for _, r := range rules {
		if answers[r.question1] == r.answer1 && answers[r.question2] == r.answer2 {
			return r.personalityID, nil
		}
	}
	return DefaultPersonalityID, nil
}
