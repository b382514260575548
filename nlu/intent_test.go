package nlu

import "testing"

func TestClassify_Greeting(t *testing.T) {
	c := NewIntentClassifier()

	intent, confidence := c.Classify("سلام")
	if intent != IntentGreeting {
		t.Fatalf("expected greeting, got %q", intent)
	}
	if confidence != 1.0 {
		t.Fatalf("expected confidence 1.0 for sole scoring intent, got %v", confidence)
	}
}

func TestClassify_Search(t *testing.T) {
	c := NewIntentClassifier()

	intent, confidence := c.Classify("می‌خواهم یک آپارتمان پیدا کنم")
	if intent != IntentSearch {
		t.Fatalf("expected search, got %q", intent)
	}
	if confidence < 0.5 {
		t.Fatalf("expected confident classification, got %v", confidence)
	}
}

func TestClassify_ShortText(t *testing.T) {
	c := NewIntentClassifier()

	intent, confidence := c.Classify("a")
	if intent != IntentUnknown || confidence != 0.0 {
		t.Fatalf("expected unknown/0.0 for short text, got %q/%v", intent, confidence)
	}

	intent, confidence = c.Classify("   ")
	if intent != IntentUnknown || confidence != 0.0 {
		t.Fatalf("expected unknown/0.0 for blank text, got %q/%v", intent, confidence)
	}
}

func TestClassify_NoSignal(t *testing.T) {
	c := NewIntentClassifier()

	intent, confidence := c.Classify("qwerty 12345 zzz")
	if intent != IntentUnknown {
		t.Fatalf("expected unknown, got %q", intent)
	}
	if confidence != 0.3 {
		t.Fatalf("expected fallback confidence 0.3, got %v", confidence)
	}
}

func TestRequiresClarification(t *testing.T) {
	c := NewIntentClassifier()

	if !c.RequiresClarification(IntentSearch, 0.4) {
		t.Fatalf("low confidence should require clarification")
	}
	if !c.RequiresClarification(IntentUnknown, 0.9) {
		t.Fatalf("unknown intent should require clarification")
	}
	if c.RequiresClarification(IntentSearch, 0.9) {
		t.Fatalf("confident search should not require clarification")
	}
}

func TestClarificationQuestions(t *testing.T) {
	c := NewIntentClassifier()

	questions := c.ClarificationQuestions(IntentSearch, "دنبال خانه هستم")
	if len(questions) != 2 {
		t.Fatalf("expected budget and location questions, got %d", len(questions))
	}

	questions = c.ClarificationQuestions(IntentSearch, "بودجه دارم، دنبال خانه هستم")
	if len(questions) != 1 {
		t.Fatalf("expected only location question when budget is mentioned, got %d", len(questions))
	}

	questions = c.ClarificationQuestions(IntentUnknown, "")
	if len(questions) != 1 {
		t.Fatalf("expected one generic question for unknown intent, got %d", len(questions))
	}
}
