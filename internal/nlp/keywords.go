package nlp

import (
	"regexp"
	"sort"
	"strings"
)

var wordPattern = regexp.MustCompile(`[a-zA-Z]+`)

var stopwords = map[string]bool{
	"a": true, "an": true, "the": true, "and": true, "or": true, "but": true,
	"is": true, "are": true, "was": true, "were": true, "be": true, "been": true,
	"being": true, "have": true, "has": true, "had": true, "do": true, "does": true,
	"did": true, "will": true, "would": true, "could": true, "should": true,
	"may": true, "might": true, "must": true, "can": true, "this": true,
	"that": true, "these": true, "those": true, "i": true, "you": true,
	"he": true, "she": true, "it": true, "we": true, "they": true, "them": true,
	"their": true, "his": true, "her": true, "its": true, "our": true,
	"your": true, "my": true, "of": true, "in": true, "on": true, "at": true,
	"to": true, "for": true, "with": true, "by": true, "from": true, "as": true,
	"into": true, "about": true, "between": true, "through": true, "during": true,
	"before": true, "after": true, "above": true, "below": true, "up": true,
	"down": true, "out": true, "off": true, "over": true, "under": true,
	"again": true, "then": true, "once": true, "here": true, "there": true,
	"when": true, "where": true, "why": true, "how": true, "all": true,
	"any": true, "both": true, "each": true, "few": true, "more": true,
	"most": true, "other": true, "some": true, "such": true, "no": true,
	"nor": true, "not": true, "only": true, "own": true, "same": true,
	"so": true, "than": true, "too": true, "very": true, "just": true,
	"also": true, "which": true, "who": true, "whom": true, "what": true,
	"if": true, "because": true, "while": true, "until": true,
}

// Tokenize lowercases text and returns its alphabetic word tokens.
func Tokenize(text string) []string {
	return wordPattern.FindAllString(strings.ToLower(text), -1)
}

// ContentWords filters tokens down to non-stopwords longer than 2 chars.
func ContentWords(text string) []string {
	tokens := Tokenize(text)
	words := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if len(t) > 2 && !stopwords[t] {
			words = append(words, t)
		}
	}
	return words
}

// ExtractKeywords ranks content words by frequency and returns the top N.
// Ties break alphabetically so the result is deterministic.
func ExtractKeywords(text string, topN int) []string {
	if topN <= 0 {
		return nil
	}

	freq := make(map[string]int)
	for _, w := range ContentWords(text) {
		freq[w]++
	}
	if len(freq) == 0 {
		return nil
	}

	words := make([]string, 0, len(freq))
	for w := range freq {
		words = append(words, w)
	}
	sort.Slice(words, func(i, j int) bool {
		if freq[words[i]] != freq[words[j]] {
			return freq[words[i]] > freq[words[j]]
		}
		return words[i] < words[j]
	})

	if len(words) > topN {
		words = words[:topN]
	}
	return words
}

// ExtractTopics pulls candidate topic phrases from lesson content: the
// top-ranked keywords, deduplicated, capitalized for display.
func ExtractTopics(text string, topN int) []string {
	keywords := ExtractKeywords(text, topN)
	seen := make(map[string]bool, len(keywords))
	topics := make([]string, 0, len(keywords))
	for _, k := range keywords {
		title := strings.ToUpper(k[:1]) + k[1:]
		if !seen[title] {
			seen[title] = true
			topics = append(topics, title)
		}
	}
	return topics
}
