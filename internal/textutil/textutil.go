// Package textutil provides pure text helpers used by the readers:
// encoding detection, whitespace normalisation, sentence splitting and
// keyword extraction. No I/O happens here.
package textutil

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// Encoding names accepted by DetectDecode, in default priority order.
const (
	EncodingUTF8    = "utf-8"
	EncodingWin1251 = "windows-1251"
	EncodingLatin1  = "iso-8859-1"
)

// DefaultEncodings is the default decoding priority list.
var DefaultEncodings = []string{EncodingUTF8, EncodingWin1251, EncodingLatin1}

var decoders = map[string]encoding.Encoding{
	EncodingUTF8:    unicode.UTF8,
	EncodingWin1251: charmap.Windows1251,
	EncodingLatin1:  charmap.ISO8859_1,
}

// DetectDecode decodes buf using the first encoding in the priority list
// that produces no replacement characters. Unknown encoding names are
// skipped. When every candidate produces replacement characters the buffer
// is decoded as UTF-8 anyway; encoding ambiguity is never a hard failure.
func DetectDecode(buf []byte, encodings []string) (text string, name string) {
	if len(encodings) == 0 {
		encodings = DefaultEncodings
	}
	for _, enc := range encodings {
		e, ok := decoders[enc]
		if !ok {
			continue
		}
		decoded, err := e.NewDecoder().Bytes(buf)
		if err != nil {
			continue
		}
		s := string(decoded)
		if !strings.ContainsRune(s, utf8.RuneError) {
			return s, enc
		}
	}
	return string(buf), EncodingUTF8
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// NormalizeWhitespace collapses runs of whitespace into single spaces
// and trims the result.
func NormalizeWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(s, " "))
}

var sentencePattern = regexp.MustCompile(`(?m)(?U)([^.!?]+[.!?])`)

// SplitSentences splits text on sentence-ending punctuation.
// Text without terminal punctuation is returned as a single sentence.
func SplitSentences(text string) []string {
	sentences := sentencePattern.FindAllString(text, -1)
	if len(sentences) == 0 {
		trimmed := strings.TrimSpace(text)
		if trimmed == "" {
			return nil
		}
		return []string{trimmed}
	}
	for i := range sentences {
		sentences[i] = strings.TrimSpace(sentences[i])
	}
	return sentences
}

var tokenPattern = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`)

// CountWords returns the number of whitespace-separated words in s.
func CountWords(s string) int {
	return len(strings.Fields(s))
}

// ExtractKeywords returns up to max keywords ranked by frequency,
// stopwords filtered. Ties break alphabetically so the result is
// deterministic.
func ExtractKeywords(text string, max int) []string {
	if max <= 0 {
		max = 10
	}
	freq := map[string]int{}
	for _, tok := range tokenPattern.FindAllString(strings.ToLower(text), -1) {
		if len(tok) < 3 {
			continue
		}
		if _, ok := stopwords[tok]; ok {
			continue
		}
		freq[tok]++
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
	if len(words) > max {
		words = words[:max]
	}
	return words
}

var stopwords = func() map[string]struct{} {
	list := []string{
		"the", "and", "for", "are", "but", "not", "you", "all", "can",
		"had", "her", "was", "one", "our", "out", "has", "have", "this",
		"that", "with", "from", "they", "been", "were", "their", "which",
		"will", "would", "there", "what", "when", "who", "how", "its",
		"into", "than", "then", "them", "these", "those", "such", "also",
		"each", "other", "more", "most", "some", "only", "over", "very",
		"about", "after", "before", "between", "because", "while",
		"where", "does", "did", "doing", "being", "both", "under",
	}
	m := make(map[string]struct{}, len(list))
	for _, w := range list {
		m[w] = struct{}{}
	}
	return m
}()
