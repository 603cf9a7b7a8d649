package quiz

import (
	"regexp"
	"strings"
)

var (
	whitespaceRegex = regexp.MustCompile(`\s+`)
	reasonRegex     = regexp.MustCompile(`(?i)Reason\s*\(R\)\s*:`)
	assertionRegex  = regexp.MustCompile(`(?i)Assertion\s*\(A\)\s*:`)
)

// TableName maps a topic to its question-bank table.
// Topics already shaped like a table id (containing "_" and "quiz") pass through.
func TableName(topic string) string {
	if strings.Contains(topic, "_") && strings.Contains(topic, "quiz") {
		return topic
	}
	return whitespaceRegex.ReplaceAllString(strings.ToLower(strings.TrimSpace(topic)), "_")
}

// SplitTopics flattens topic values, splitting comma-separated lists.
func SplitTopics(raw ...string) []string {
	topics := make([]string, 0, len(raw))
	for _, r := range raw {
		for _, t := range strings.Split(r, ",") {
			if t = strings.TrimSpace(t); t != "" {
				topics = append(topics, t)
			}
		}
	}
	return topics
}

// Normalize turns a question-bank row into a Question.
// Assertion-Reason questions get their assertion and reason split apart.
func Normalize(q RawQuestion) Question {
	text := q.QuestionText.String
	reason := q.ScenarioReasonText.String
	qType := strings.ToLower(q.QuestionType.String)

	if strings.Contains(qType, "ar") || strings.Contains(qType, "assertion") {
		combined := strings.TrimSpace(whitespaceRegex.ReplaceAllString(text+" "+reason, " "))
		if parts := reasonRegex.Split(combined, -1); len(parts) > 1 {
			text = strings.TrimSpace(replaceFirst(assertionRegex, parts[0], ""))
			reason = strings.TrimSpace(parts[1])
		} else {
			text = strings.TrimSpace(replaceFirst(assertionRegex, text, ""))
			reason = strings.TrimSpace(replaceFirst(reasonRegex, reason, ""))
		}
	}

	return Question{
		ID:             q.ID,
		QuestionType:   qType,
		Text:           text,
		ScenarioReason: reason,
		CorrectAnswer:  strings.ToUpper(strings.TrimSpace(q.CorrectAnswerKey.String)),
		Options: Options{
			A: q.OptionA.String,
			B: q.OptionB.String,
			C: q.OptionC.String,
			D: q.OptionD.String,
		},
		Difficulty: q.Difficulty.String,
	}
}

// InferSubject guesses the subject of a chapter slug.
func InferSubject(slug string) string {
	s := strings.ToLower(slug)
	switch {
	case containsAny(s, "science", "physics", "chem", "bio"):
		return "Science"
	case containsAny(s, "math", "algebra", "geo"):
		return "Mathematics"
	case containsAny(s, "social", "history", "civics"):
		return "Social Science"
	default:
		return "General"
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func replaceFirst(re *regexp.Regexp, s, repl string) string {
	loc := re.FindStringIndex(s)
	if loc == nil {
		return s
	}
	return s[:loc[0]] + repl + s[loc[1]:]
}
