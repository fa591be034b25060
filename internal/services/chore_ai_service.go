package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"chores-backend/pkg/logging"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

// ChoreAIService proxies chore analysis and suggestion calls to OpenAI
type ChoreAIService struct {
	client openai.Client
}

// NewChoreAIService creates a new chore AI service
func NewChoreAIService(apiKey string) *ChoreAIService {
	return &ChoreAIService{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
	}
}

// ChoreAnalysis is the verdict on a submitted completion photo
type ChoreAnalysis struct {
	IsCompleted bool    `json:"isCompleted"`
	Confidence  float64 `json:"confidence"`
	Reasoning   string  `json:"reasoning"`
	AnalyzedAt  string  `json:"analyzedAt"`
}

// ExistingChore describes a chore already assigned in the family
type ExistingChore struct {
	Name          string  `json:"name"`
	Description   string  `json:"description,omitempty"`
	Recurrence    string  `json:"recurrence"`
	MonetaryValue float64 `json:"monetaryValue"`
}

// SuggestedChore is one age-appropriate chore suggestion
type SuggestedChore struct {
	Name                 string  `json:"name"`
	Description          string  `json:"description"`
	MonetaryValue        float64 `json:"monetaryValue"`
	Recurrence           string  `json:"recurrence"`
	EstimatedTimeMinutes int     `json:"estimatedTimeMinutes"`
	SkillLevel           string  `json:"skillLevel"`
	Category             string  `json:"category"`
}

// ChoreSuggestions is the full suggestion response
type ChoreSuggestions struct {
	SuggestedChores []SuggestedChore `json:"suggestedChores"`
	AgeGroup        string           `json:"ageGroup"`
	Reasoning       string           `json:"reasoning"`
}

// AnalyzeChore asks the vision model whether the photographed chore looks
// completed. Reasoning is kept short for mobile display.
func (s *ChoreAIService) AnalyzeChore(ctx context.Context, imageURL, choreName, choreDescription string) (*ChoreAnalysis, error) {
	prompt := buildAnalysisPrompt(choreName, choreDescription)

	logging.Infof("Calling OpenAI for chore analysis - chore: %s", choreName)

	resp, err := s.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModelGPT4o,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
				{OfText: &openai.ChatCompletionContentPartTextParam{Text: prompt}},
				{OfImageURL: &openai.ChatCompletionContentPartImageParam{
					ImageURL: openai.ChatCompletionContentPartImageImageURLParam{
						URL:    imageURL,
						Detail: "high",
					},
				}},
			}),
		},
		MaxTokens:   openai.Int(300),
		Temperature: openai.Float(0.3),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("openai request failed: %w", err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return nil, fmt.Errorf("no response from AI")
	}

	var analysis ChoreAnalysis
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &analysis); err != nil {
		logging.Errorf("Failed to parse AI response: %s", resp.Choices[0].Message.Content)
		return nil, fmt.Errorf("invalid AI response format: %w", err)
	}

	// Clamp confidence to [0, 1]
	if analysis.Confidence < 0 {
		analysis.Confidence = 0
	}
	if analysis.Confidence > 1 {
		analysis.Confidence = 1
	}

	// Keep reasoning short enough for the app's result card
	if len(analysis.Reasoning) > 150 {
		analysis.Reasoning = analysis.Reasoning[:147] + "..."
	}

	analysis.AnalyzedAt = time.Now().UTC().Format(time.RFC3339)
	return &analysis, nil
}

// SuggestChores asks the model for age-appropriate chores the family has not
// assigned yet
func (s *ChoreAIService) SuggestChores(ctx context.Context, childAge int, existing []ExistingChore) (*ChoreSuggestions, error) {
	prompt := buildSuggestionPrompt(childAge, existing)

	logging.Infof("Calling OpenAI for chore suggestions - age: %d, existing: %d", childAge, len(existing))

	resp, err := s.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModelGPT4o,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		MaxTokens:   openai.Int(1200),
		Temperature: openai.Float(0.7),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("openai request failed: %w", err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return nil, fmt.Errorf("no response from AI")
	}

	var suggestions ChoreSuggestions
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &suggestions); err != nil {
		logging.Errorf("Failed to parse AI response: %s", resp.Choices[0].Message.Content)
		return nil, fmt.Errorf("invalid AI response format: %w", err)
	}

	if suggestions.AgeGroup == "" {
		suggestions.AgeGroup = AgeGroup(childAge)
	}
	return &suggestions, nil
}

// AgeGroup buckets a child age for prompt context
func AgeGroup(age int) string {
	switch {
	case age <= 5:
		return "preschool"
	case age <= 8:
		return "early elementary"
	case age <= 12:
		return "older elementary"
	case age <= 15:
		return "middle school"
	default:
		return "high school"
	}
}

func buildAnalysisPrompt(choreName, choreDescription string) string {
	var b strings.Builder
	b.WriteString("You are an AI assistant helping parents evaluate if their child has completed a chore.\n\n")
	fmt.Fprintf(&b, "Chore: %q\n", choreName)
	if choreDescription != "" {
		fmt.Fprintf(&b, "Description: %q\n", choreDescription)
	}
	b.WriteString(`
Please analyze this image and determine if the chore has been completed satisfactorily. Consider:
- Age-appropriate standards (this is a child's work)
- Reasonable effort has been made
- The main objective of the chore has been achieved
- Focus on the objective of the chore, not perfection
- Look for key indicators of completion (e.g., toys put away, bed made, dishes cleaned)
- Be encouraging but honest in your assessment

Respond with a JSON object containing:
- isCompleted: boolean (true if reasonably completed)
- confidence: number (0.0 to 1.0, your confidence in the assessment)
- reasoning: string (brief, encouraging explanation of your decision)

Be specific about what you see and focus on effort and improvement. Keep reasoning under 100 characters for better mobile display.`)
	return b.String()
}

func buildSuggestionPrompt(childAge int, existing []ExistingChore) string {
	var b strings.Builder
	b.WriteString("You are a parenting expert helping families create age-appropriate chore lists.\n\n")
	fmt.Fprintf(&b, "Child Age: %d years old (%s)\n\n", childAge, AgeGroup(childAge))

	if len(existing) > 0 {
		b.WriteString("Current family chores:\n")
		for _, chore := range existing {
			desc := chore.Description
			if desc == "" {
				desc = "No description"
			}
			fmt.Fprintf(&b, "- %s (%s, $%.2f): %s\n", chore.Name, chore.Recurrence, chore.MonetaryValue, desc)
		}
		b.WriteString("\n")
	} else {
		b.WriteString("No existing family chores.\n\n")
	}

	b.WriteString(`Suggest 5 new chores this child can do that the family has not assigned yet. Avoid duplicating existing chores.

Respond with a JSON object containing:
- suggestedChores: array of objects with name, description, monetaryValue (dollars), recurrence (daily|weekly|biweekly|monthly|one_time|as_needed), estimatedTimeMinutes, skillLevel (beginner|intermediate|advanced), category
- ageGroup: string describing the age bracket
- reasoning: string explaining why these chores fit this age`)
	return b.String()
}
