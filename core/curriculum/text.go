package curriculum

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	blockMathRegex  = regexp.MustCompile(`\$\$[\s\S]*?\$\$`)
	latexMathRegex  = regexp.MustCompile(`(?i)\$latex\s*[^$]*?\s*\$`)
	inlineMathRegex = regexp.MustCompile(`\$[^$]*?\$`)
	spacesRegex     = regexp.MustCompile(`\s+`)
	wordStartRegex  = regexp.MustCompile(`\b\w`)

	knownPrefixes = map[string]bool{
		"science": true, "math": true, "social": true, "history": true, "geo": true,
		"civics": true, "physics": true, "chemistry": true, "biology": true,
	}
)

// CleanKatexMarkers strips $$block$$, $latex ...$ and $inline$ math, then collapses whitespace.
func CleanKatexMarkers(text string) string {
	text = blockMathRegex.ReplaceAllString(text, "")
	text = latexMathRegex.ReplaceAllString(text, "")
	text = inlineMathRegex.ReplaceAllString(text, "")
	return spacesRegex.ReplaceAllString(strings.TrimSpace(text), " ")
}

func CapitalizeFirst(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}

// NormalizeSubject maps a free-form subject to Mathematics, Science or Social Science.
// Unmatched subjects come back capitalized; an empty one is General.
func NormalizeSubject(subject string) string {
	if s, ok := subjectFromName(strings.ToLower(subject)); ok {
		return s
	}
	if subject != "" {
		return CapitalizeFirst(subject)
	}
	return "General"
}

// NormalizeSubjectOf infers the subject of a record from its subject, falling back on its topic slug.
func NormalizeSubjectOf(subject, topic string) string {
	if s, ok := subjectFromName(strings.ToLower(subject)); ok {
		return s
	}
	slug := strings.ToLower(topic)
	switch {
	case slug == "":
	case containsAny(slug, "triangle", "polynomial", "probability", "math", "algebra", "geo"):
		return "Mathematics"
	case containsAny(slug, "motion", "gravitation", "force", "atom", "science", "physics", "chem", "bio"):
		return "Science"
	case containsAny(slug, "history", "civics", "social", "geography", "economics"):
		return "Social Science"
	}
	return "General"
}

func subjectFromName(sub string) (string, bool) {
	switch {
	case containsAny(sub, "math", "algebra", "geometry"):
		return "Mathematics", true
	case containsAny(sub, "science", "physics", "chem", "bio"):
		return "Science", true
	case strings.Contains(sub, "social"):
		return "Social Science", true
	}
	return "", false
}

// FormatChapterName turns a table slug into a readable chapter name,
// e.g. science_gravitation_9_quiz -> Gravitation.
func FormatChapterName(slug string) string {
	if slug == "" {
		return "General Quiz"
	}

	parts := strings.Split(strings.Replace(slug, "_quiz", "", 1), "_")
	if len(parts) >= 3 && knownPrefixes[strings.ToLower(parts[0])] {
		parts = parts[1 : len(parts)-1]
	} else if len(parts) == 2 && isNumeric(parts[1]) {
		parts = parts[:1]
	}

	words := strings.Split(strings.Join(parts, " "), " ")
	seen := make(map[string]bool, len(words))
	unique := make([]string, 0, len(words))
	for _, w := range words {
		if !seen[w] {
			seen[w] = true
			unique = append(unique, w)
		}
	}
	return wordStartRegex.ReplaceAllStringFunc(strings.Join(unique, " "), strings.ToUpper)
}

// SummaryID is the ncert_summaries document id of a chapter, e.g. 9ScienceGravitation.
func SummaryID(grade, subject, chapter string) string {
	return grade + subject + spacesRegex.ReplaceAllString(chapter, "")
}

func isNumeric(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return true // an empty suffix counts as a grade
	}
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
