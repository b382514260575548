package nlu

import (
	"regexp"
	"strings"
)

type Intent string

const (
	IntentSearch    Intent = "search"
	IntentCompare   Intent = "compare"
	IntentAdvice    Intent = "advice"
	IntentCalculate Intent = "calculate"
	IntentGreeting  Intent = "greeting"
	IntentUnknown   Intent = "unknown"
)

// intentOrder fixes the tie-break for equal scores: first declared wins.
var intentOrder = []Intent{
	IntentSearch,
	IntentCompare,
	IntentAdvice,
	IntentCalculate,
	IntentGreeting,
}

// IntentClassifier scores text against a fixed intent taxonomy using keyword
// and regex-pattern evidence.
type IntentClassifier struct {
	keywords map[Intent][]string
	patterns map[Intent][]*regexp.Regexp
}

func NewIntentClassifier() *IntentClassifier {
	return &IntentClassifier{
		keywords: map[Intent][]string{
			IntentSearch: {
				"می‌خواهم", "بخواهم", "بخواهیم", "بررسی", "جستجو", "پیدا کنم",
				"خرید", "تهیه", "بگیرم", "نگاه کنم", "ببینم", "چک کنم",
			},
			IntentCompare: {
				"مقایسه", "مقایسه کن", "باهم", "کدوم بهتر", "تفاوت",
				"کدام", "کدامیک", "بهتره", "بهترین",
			},
			IntentAdvice: {
				"پیشنهاد", "نظر", "راهنمایی", "کمک", "مشاوره",
				"چطور", "چگونه", "راه", "بهترین راه",
			},
			IntentCalculate: {
				"محاسبه", "حساب", "چقدر", "میشه", "میتونم",
				"میتوانم", "توانایی", "قدرت خرید",
			},
			IntentGreeting: {
				"سلام", "درود", "صبح بخیر", "عصر بخیر", "خوبی",
				"چطوری", "چطوره", "هی",
			},
		},
		patterns: map[Intent][]*regexp.Regexp{
			IntentSearch: compileAll(
				`می‌خواهم\s+(.+?)\s+(?:بخواهم|بگیرم|پیدا کنم|خرید)`,
				`بخواهم\s+(.+?)\s+(?:بررسی|جستجو)`,
				`چطور\s+(?:میتونم|میتوانم)\s+(.+?)\s+(?:بگیرم|تهیه کنم)`,
			),
			IntentCompare: compileAll(
				`مقایسه\s+(.+?)\s+با\s+(.+)`,
				`کدوم\s+(.+?)\s+بهتر`,
				`تفاوت\s+(.+?)\s+با\s+(.+)`,
			),
			IntentAdvice: compileAll(
				`پیشنهاد\s+(.+?)`,
				`چطور\s+(.+?)\s+(?:بکنم|انجام بدهم)`,
				`بهترین\s+(.+?)\s+برای\s+(.+)`,
			),
			IntentCalculate: compileAll(
				`چقدر\s+(?:میتونم|میتوانم)\s+(.+?)\s+(?:بگیرم|خرید)`,
				`با\s+(.+?)\s+چقدر\s+(?:میشه|میتونم)`,
				`محاسبه\s+(.+?)`,
			),
		},
	}
}

// searchFallbackTriggers switch an otherwise unscored text to SEARCH.
var searchFallbackTriggers = []string{"می‌خواهم", "بخواهم", "خرید", "تهیه"}

// Classify returns the winning intent and a confidence in [0,1]. Keyword
// score is min(matched/total*2, 1), pattern score 0.9 when any pattern hits;
// combined = 0.6*keyword + 0.4*pattern, normalized by the maximum combined
// score across intents.
func (c *IntentClassifier) Classify(text string) (Intent, float64) {
	if len(strings.TrimSpace(text)) < 2 {
		return IntentUnknown, 0.0
	}

	lower := strings.ToLower(text)
	combined := make(map[Intent]float64)

	for _, intent := range intentOrder {
		matches := 0
		for _, kw := range c.keywords[intent] {
			if strings.Contains(lower, kw) {
				matches++
			}
		}
		if matches > 0 {
			score := float64(matches) / float64(len(c.keywords[intent])) * 2
			if score > 1.0 {
				score = 1.0
			}
			combined[intent] += score * 0.6
		}
	}

	for _, intent := range intentOrder {
		for _, pattern := range c.patterns[intent] {
			if pattern.MatchString(text) {
				combined[intent] += 0.9 * 0.4
				break
			}
		}
	}

	if len(combined) > 0 {
		maxScore := 0.0
		for _, score := range combined {
			if score > maxScore {
				maxScore = score
			}
		}

		best := IntentUnknown
		bestScore := 0.0
		for _, intent := range intentOrder {
			score, ok := combined[intent]
			if !ok {
				continue
			}
			normalized := score / maxScore
			if normalized > 1.0 {
				normalized = 1.0
			}
			if normalized > bestScore {
				best = intent
				bestScore = normalized
			}
		}
		return best, bestScore
	}

	if containsAny(lower, searchFallbackTriggers...) {
		return IntentSearch, 0.7
	}

	return IntentUnknown, 0.3
}

// RequiresClarification reports whether the classification is too weak to
// act on directly.
func (c *IntentClassifier) RequiresClarification(intent Intent, confidence float64) bool {
	return confidence < 0.5 || intent == IntentUnknown
}

// ClarificationQuestions generates intent-specific follow-up questions,
// gated on whether the text already mentions the missing detail.
func (c *IntentClassifier) ClarificationQuestions(intent Intent, text string) []string {
	var questions []string
	lower := strings.ToLower(text)

	switch intent {
	case IntentSearch:
		if !containsAny(lower, "بودجه", "پول") {
			questions = append(questions, "بودجه شما چقدر است؟")
		}
		if !containsAny(lower, "مکان", "منطقه") {
			questions = append(questions, "در چه منطقه‌ای جستجو کنیم؟")
		}
	case IntentCompare:
		questions = append(questions, "کدام موارد را می‌خواهید مقایسه کنیم؟")
	case IntentAdvice:
		questions = append(questions, "در مورد چه موضوعی نیاز به مشاوره دارید؟")
	case IntentUnknown:
		questions = append(questions, "لطفاً به صورت دقیق‌تر توضیح دهید که چه می‌خواهید؟")
	}

	return questions
}
