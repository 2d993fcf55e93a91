package pipeline

import (
	"fmt"
	"strings"
)

// SentenceSplitter creates a splitter that groups sentences into fragment
// contents of at most maxSentencesPerFragment sentences
func SentenceSplitter(maxSentencesPerFragment int) SplitFunc {
	return func(text string) ([]string, error) {
		if maxSentencesPerFragment <= 0 {
			return nil, fmt.Errorf("max sentences per fragment must be positive")
		}

		// Handle empty or whitespace-only text
		if strings.TrimSpace(text) == "" {
			return []string{}, nil
		}

		text = strings.ReplaceAll(text, "! ", "!|")
		text = strings.ReplaceAll(text, "? ", "?|")
		text = strings.ReplaceAll(text, ". ", ".|")

		var sentences []string
		for _, sentence := range strings.Split(text, "|") {
			sentence = strings.TrimSpace(sentence)
			if sentence != "" {
				sentences = append(sentences, sentence)
			}
		}

		var fragments []string
		var current []string
		for _, sentence := range sentences {
			current = append(current, sentence)
			if len(current) >= maxSentencesPerFragment {
				fragments = append(fragments, strings.Join(current, " "))
				current = nil
			}
		}

		// Add remaining sentences
		if len(current) > 0 {
			fragments = append(fragments, strings.Join(current, " "))
		}

		return fragments, nil
	}
}

// ParagraphSplitter creates a splitter that produces one fragment content
// per non-empty paragraph
func ParagraphSplitter() SplitFunc {
	return func(text string) ([]string, error) {
		var fragments []string
		for _, paragraph := range strings.Split(text, "\n\n") {
			paragraph = strings.TrimSpace(paragraph)
			if paragraph == "" {
				continue
			}
			fragments = append(fragments, paragraph)
		}
		return fragments, nil
	}
}
