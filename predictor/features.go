package predictor

import (
	"strings"
	"unicode"
)

// FeatureCount is the input width of the network: the normalized mood level
// plus one keyword-count feature per group below.
const FeatureCount = 15

// keywordGroups drives the text features. Each group contributes a single
// feature equal to min(matches, 3) / 3, so a note can saturate a group but
// never dominate the vector. Order is fixed; changing it invalidates stored
// model snapshots.
var keywordGroups = [][]string{
	{"happy", "great", "good", "calm", "relaxed", "peaceful", "joy", "excited", "content", "fine"},
	{"bad", "awful", "terrible", "horrible", "miserable", "worse", "rough"},
	{"stress", "stressed", "pressure", "deadline", "overloaded", "tense", "strained"},
	{"anxious", "anxiety", "worried", "worry", "nervous", "panic", "fear", "afraid", "scared"},
	{"sad", "down", "depressed", "crying", "cried", "hopeless", "empty"},
	{"angry", "mad", "furious", "annoyed", "frustrated", "irritated", "rage"},
	{"tired", "exhausted", "drained", "fatigued", "burnout", "weary"},
	{"sleep", "insomnia", "awake", "nightmare", "sleepless", "restless"},
	{"exam", "exams", "test", "assignment", "homework", "class", "grades", "work", "job", "studying"},
	{"friend", "friends", "family", "party", "talked", "together", "laughed"},
	{"alone", "lonely", "isolated", "ignored", "nobody"},
	{"sick", "ill", "headache", "pain", "ache", "nausea", "dizzy"},
	{"grateful", "thankful", "blessed", "appreciate", "proud"},
	{"overwhelmed", "cope", "swamped", "breaking", "drowning", "everything"},
}

// Extract builds the feature vector for a mood entry. The first component is
// the mood level normalized to [0,1]; the rest are keyword-group counts over
// the note text, capped at 3 matches per group.
func Extract(level int, note string) []float64 {
	if level < 1 {
		level = 1
	}
	if level > 5 {
		level = 5
	}

	features := make([]float64, FeatureCount)
	features[0] = float64(level) / 5.0

	words := tokenize(note)
	for i, group := range keywordGroups {
		count := 0
		for _, kw := range group {
			count += words[kw]
		}
		if count > 3 {
			count = 3
		}
		features[i+1] = float64(count) / 3.0
	}
	return features
}

// tokenize lowercases the note and splits it on anything that is not a letter.
func tokenize(note string) map[string]int {
	words := make(map[string]int)
	for _, w := range strings.FieldsFunc(strings.ToLower(note), func(r rune) bool {
		return !unicode.IsLetter(r)
	}) {
		words[w]++
	}
	return words
}
