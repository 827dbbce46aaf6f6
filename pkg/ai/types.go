package ai

import "context"

// ReviewInput contains the context needed to draft feedback on one essay
// answer.
type ReviewInput struct {
	QuizTitle string
	Prompt    string
	Answer    string
	MaxPoints float64
}

// ReviewResult is the structured suggestion returned by the AI reviewer. The
// score is a draft for the teacher, never written to the submission.
type ReviewResult struct {
	SuggestedScore float64                `json:"suggested_score"`
	Feedback       string                 `json:"feedback"`
	Strengths      []string               `json:"strengths,omitempty"`
	Improvements   []string               `json:"improvements,omitempty"`
	Raw            map[string]interface{} `json:"raw,omitempty"`
}

// Reviewer describes an AI model capable of drafting essay feedback.
type Reviewer interface {
	Review(ctx context.Context, input ReviewInput) (ReviewResult, error)
}
