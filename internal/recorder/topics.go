package recorder

import "strings"

// TopicLexicon is the closed topic vocabulary, in reporting order.
var TopicLexicon = []string{
	"art",
	"creativity",
	"inspiration",
	"color",
	"emotion",
	"beauty",
	"meaning",
	"life",
	"expression",
}

// ExtractTopics returns the lexicon topics contained in message, matched
// case-insensitively by substring, in lexicon order. "heart" therefore also
// yields "art".
func ExtractTopics(message string) []string {
	lower := strings.ToLower(message)
	topics := make([]string, 0, 4)
	for _, topic := range TopicLexicon {
		if strings.Contains(lower, topic) {
			topics = append(topics, topic)
		}
	}
	return topics
}
