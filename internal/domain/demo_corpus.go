package domain

import "time"

const demoJobID = "demo"

// DemoPairs is a small fixed history used only when the demo corpus is switched on
// and an identity has no history of its own. It exists for diagnostics in
// non-production deployments.
func DemoPairs() []PromptResponsePair {
	createdAt := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

	return []PromptResponsePair{
		{
			MessageID: "demo-1",
			Prompt:    "Tell me a joke about programmers",
			Response:  "Why do programmers prefer dark mode? Because light attracts bugs.",
			JobID:     demoJobID,
			CreatedAt: createdAt,
		},
		{
			MessageID: "demo-2",
			Prompt:    "How do I create a React component?",
			Response:  "You can create a React component using function syntax: function Hello() { return <h1>Hi</h1>; }",
			JobID:     demoJobID,
			CreatedAt: createdAt,
		},
		{
			MessageID: "demo-3",
			Prompt:    "Explain blockchain staking rewards",
			Response:  "Staking rewards are paid to validators who lock tokens to secure a proof-of-stake network.",
			JobID:     demoJobID,
			CreatedAt: createdAt,
		},
	}
}
