package nlu

import (
	"sede/models"
)

// Result is the combined NLU outcome for one message.
type Result struct {
	Intent                 Intent
	Confidence             float64
	Entities               Entities
	UserProfile            models.UserProfile
	SearchGoals            []models.SearchGoal
	IsMultiGoal            bool
	RequiresClarification  bool
	ClarificationQuestions []string
}

// Processor runs intent classification and entity extraction and combines
// them into a structured query.
type Processor struct {
	extractor  *EntityExtractor
	classifier *IntentClassifier
}

func NewProcessor() *Processor {
	return &Processor{
		extractor:  NewEntityExtractor(),
		classifier: NewIntentClassifier(),
	}
}

// Process analyzes one message. When clarification is required the caller
// must not build a structured query from the result.
func (p *Processor) Process(text string) (*Result, error) {
	intent, intentConfidence := p.classifier.Classify(text)
	entities := p.extractor.ExtractAll(text)
	profile := p.extractor.BuildUserProfile(entities)

	goals, err := p.extractor.BuildSearchGoals(entities, profile)
	if err != nil {
		return nil, err
	}

	requiresClarification := p.classifier.RequiresClarification(intent, intentConfidence)
	var questions []string
	if requiresClarification {
		questions = p.classifier.ClarificationQuestions(intent, text)
	}

	return &Result{
		Intent:                 intent,
		Confidence:             overallConfidence(intentConfidence, entities, profile),
		Entities:               entities,
		UserProfile:            profile,
		SearchGoals:            goals,
		IsMultiGoal:            len(goals) > 1,
		RequiresClarification:  requiresClarification,
		ClarificationQuestions: questions,
	}, nil
}

// overallConfidence blends intent confidence (0.4) with entity evidence
// (0.6 weight over a 0.6 maximum: +0.3 money, +0.2 location, +0.1 goal
// type), then applies a 0.7 under-specification penalty when the profile
// carries no budget at all.
func overallConfidence(intentConfidence float64, entities Entities, profile models.UserProfile) float64 {
	confidence := intentConfidence * 0.4

	entityConfidence := 0.0
	if len(entities.MoneyEntities) > 0 {
		entityConfidence += 0.3
	}
	if len(entities.Locations) > 0 {
		entityConfidence += 0.2
	}
	if entities.SearchTypeInfo.Type != "" {
		entityConfidence += 0.1
	}
	confidence += entityConfidence * 0.6

	if profile.TotalBudget() == 0 && profile.MaxMonthlyPayment == 0 {
		confidence *= 0.7
	}

	if confidence > 1.0 {
		confidence = 1.0
	}
	return confidence
}

// BuildStructuredQuery converts a processed result into the immutable query
// handed to the generator. Fails when the result has no goals.
func (p *Processor) BuildStructuredQuery(result *Result) (*models.StructuredQuery, error) {
	return models.NewStructuredQuery(result.UserProfile, result.SearchGoals, result.Confidence)
}
