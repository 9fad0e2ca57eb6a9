// Package quiz implements the Sleep Style quiz: a deterministic classifier
// mapping five multiple-choice answers to one of nine sleep personalities,
// plus a cosmetic, intentionally non-deterministic compatibility score.
package quiz

// Question ids. All five must be answered before classification runs.
const (
	QTemperature = "temperature"
	QCovers      = "covers"
	QSpace       = "space"
	QPosition    = "position"
	QSounds      = "sounds"
)

// QuestionIDs lists the quiz questions in presentation order.
var QuestionIDs = []string{QTemperature, QCovers, QSpace, QPosition, QSounds}

// Personality is one of the nine fixed sleep-style records. Immutable
// reference data.
type Personality struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Tagline        string   `json:"tagline"`
	Traits         []string `json:"traits"`
	CompatibleWith []string `json:"compatibleWith"`
	RedFlags       []string `json:"redFlags"`
}

// Personalities is the static catalog, keyed by id.
var Personalities = map[string]Personality{
	"the-cool-cocoon": {
		ID:      "the-cool-cocoon",
		Name:    "The Cool Cocoon",
		Tagline: "Runs cold, hoards every blanket in the house.",
		Traits:  []string{"Blanket collector", "Arctic sleeper", "Nest builder"},
		CompatibleWith: []string{
			"the-human-furnace", "the-log",
		},
		RedFlags: []string{"the-blanket-burrito"},
	},
	"the-human-furnace": {
		ID:      "the-human-furnace",
		Name:    "The Human Furnace",
		Tagline: "Radiates heat, kicks the duvet off by midnight.",
		Traits:  []string{"Runs hot", "Cover kicker", "One-leg-out sleeper"},
		CompatibleWith: []string{
			"the-cool-cocoon", "the-zen-master",
		},
		RedFlags: []string{"the-koala"},
	},
	"the-starfish": {
		ID:      "the-starfish",
		Name:    "The Starfish",
		Tagline: "Claims the whole mattress, no apologies.",
		Traits:  []string{"Space maximizer", "Back sleeper", "Diagonal drifter"},
		CompatibleWith: []string{
			"the-log", "the-balanced-sleeper",
		},
		RedFlags: []string{"the-freight-train"},
	},
	"the-koala": {
		ID:      "the-koala",
		Name:    "The Koala",
		Tagline: "Sleep is a contact sport. Cuddles mandatory.",
		Traits:  []string{"Close sleeper", "Cover sharer", "Human heat pack"},
		CompatibleWith: []string{
			"the-blanket-burrito", "the-balanced-sleeper",
		},
		RedFlags: []string{"the-starfish", "the-human-furnace"},
	},
	"the-freight-train": {
		ID:      "the-freight-train",
		Name:    "The Freight Train",
		Tagline: "Snores with conviction and sleeps like a champion.",
		Traits:  []string{"Deep sleeper", "Room-filling presence", "Unbothered"},
		CompatibleWith: []string{
			"the-log",
		},
		RedFlags: []string{"the-zen-master"},
	},
	"the-zen-master": {
		ID:      "the-zen-master",
		Name:    "The Zen Master",
		Tagline: "White noise, edge of the bed, perfect stillness.",
		Traits:  []string{"Light sleeper", "Routine devotee", "Minimal movement"},
		CompatibleWith: []string{
			"the-human-furnace", "the-log",
		},
		RedFlags: []string{"the-freight-train"},
	},
	"the-free-spirit": {
		ID:      "the-free-spirit",
		Name:    "The Free Spirit",
		Tagline: "Stomach sleeper, covers optional, rules optional.",
		Traits:  []string{"Position rotator", "Cover kicker", "Improviser"},
		CompatibleWith: []string{
			"the-starfish", "the-balanced-sleeper",
		},
		RedFlags: []string{"the-cool-cocoon"},
	},
	"the-blanket-burrito": {
		ID:      "the-blanket-burrito",
		Name:    "The Blanket Burrito",
		Tagline: "Wrapped tight, runs cold, shares warmth generously.",
		Traits:  []string{"Wrap sleeper", "Cozy maximalist", "Generous sharer"},
		CompatibleWith: []string{
			"the-koala", "the-cool-cocoon",
		},
		RedFlags: []string{"the-human-furnace"},
	},
	"the-balanced-sleeper": {
		ID:      "the-balanced-sleeper",
		Name:    "The Balanced Sleeper",
		Tagline: "Adaptable, easygoing, sleeps well next to anyone.",
		Traits:  []string{"Flexible", "Even-tempered", "Low maintenance"},
		CompatibleWith: []string{
			"the-starfish", "the-koala", "the-free-spirit",
		},
		RedFlags: []string{},
	},
}
