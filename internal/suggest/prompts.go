package suggest

import (
	"fmt"

	"ninerolesapp/nine-roles/internal/catalog"
	"ninerolesapp/nine-roles/internal/tasks"
)

func suggestionPrompt(role catalog.Role, task tasks.Task) string {
	return fmt.Sprintf(`You are an expert productivity coach for a video content creator using an app called "The Nine Roles". Your response must be in English.

Current user context:
- Role: %[1]s (%[2]s)
- Current Task: "%[3]s"

Based on this context, suggest the single most effective and realistic SUB-TASK for them to work on right now related to their main task.

Your suggestion should:
1. Be a small, actionable step that contributes to completing "%[3]s".
2. Provide a brief, encouraging reason why this sub-task is a good choice.
3. Format your response clearly. Start with the suggested sub-task, then the reasoning.

Example response format:
**Suggested Sub-Task:** Draft the introduction (the first 30 seconds).
**Reasoning:** Starting with the hook is a small win that can build momentum for the rest of the script.
`, role.Name, role.Description, task.Title)
}

func researchPrompt(topic string) string {
	return fmt.Sprintf(`You are a highly efficient research assistant for a YouTube content creator. Your response must be in English.
The user wants to research the following topic for their next video: "%s".

Please provide a concise yet comprehensive summary of the topic. Structure your response as follows:
1. **Key Summary:** A brief, engaging paragraph summarizing the most important points.
2. **Key Points:** A bulleted list of 3-5 crucial facts, statistics, or concepts.
3. **Hook Ideas:** Suggest 2-3 interesting questions or surprising facts to use as a video intro.
4. **Credible Sources:** Provide links to 2-3 reliable articles or studies for further reading.

Ensure the information is accurate, up-to-date, and easy to understand for a general audience.
`, topic)
}
