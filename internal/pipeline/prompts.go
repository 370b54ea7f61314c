package pipeline

import (
	"encoding/json"
	"fmt"
	"strings"

	"flowforge/internal/domain"
)

// System prompts for each LLM call made by the pipeline.
const (
	DetectionSystemPrompt  = "You are an expert at identifying process workflows in documents. Analyze carefully and detect ALL distinct processes."
	SingleSystemPrompt     = "You are FlowForge AI. Extract ONLY the 5-8 most critical steps. Be concise. Return valid JSON only."
	ProcessSystemPrompt    = "Extract this single process concisely. Return valid JSON only."
	IdealStateSystemPrompt = "You are FlowForge AI, an expert at process improvement."
)

// ChatSystemPrompt guides the conversational documentation assistant.
const ChatSystemPrompt = `You are FlowForge AI, helping users document their processes through conversation.

Your goal:
- Ask clear, specific questions about their process
- Build a complete picture step by step
- Probe for gaps, failures, and edge cases
- Be friendly and encouraging

Ask about:
- Who starts the process?
- What are the steps in order?
- What happens in parallel?
- What can go wrong?
- Who are the actors/systems?
- What are the dependencies?
- What's the current state vs ideal state?

When you have enough information, say:
"Perfect! I have everything I need. [Summary of what you captured]"

Keep responses concise (2-3 sentences max).`

// MaxChatHistory is how many earlier turns are replayed to the model.
const MaxChatHistory = 20

const maxHintTitles = 5

const nodeSchema = `    {
      "id": "node-1",
      "type": "trigger | step | decision | gap",
      "status": "trigger",
      "title": "Clear title (max 6 words)",
      "description": "Brief description",
      "actors": ["who"],
      "subSteps": [],
      "dependencies": [],
      "parallelWith": [],
      "failures": [],
      "blocking": null,
      "currentState": "brief",
      "idealState": "brief",
      "gap": null,
      "impact": "medium",
      "timeEstimate": null
    }`

// BuildDetectionPrompt asks the model whether text holds several distinct
// workflows, passing the heuristic findings as hints.
func BuildDetectionPrompt(inputType domain.InputType, text string, hints domain.DetectionResult) string {
	titles := hints.TitleStrings()
	if len(titles) > maxHintTitles {
		titles = titles[:maxHintTitles]
	}

	return `CRITICAL TASK: Analyze this ` + string(inputType) + ` to detect if it contains MULTIPLE DISTINCT PROCESS WORKFLOWS.

PREPROCESSING HINTS:
- Preprocessing detected ` + fmt.Sprint(hints.ProcessCount) + ` potential processes
- Potential process titles found: ` + strings.Join(titles, ", ") + `

FULL TEXT:
` + text + `

YOU MUST:
1. Look for MULTIPLE separate process flowcharts or workflow descriptions
2. Check for section headers, different workflow titles and page separators like "==End of OCR for page X=="
3. Identify if different sections describe DIFFERENT workflows (not steps of ONE workflow)
4. Each distinct process has its own START and END, own actors, own purpose

A single workflow with many sequential steps or phases is ONE process.

Return ONLY this JSON (no markdown, no explanations):
{
  "multipleProcesses": true or false,
  "processCount": exact number,
  "processTitles": ["Exact Title 1 from Document", "Exact Title 2 from Document"],
  "confidence": "high" or "medium" or "low",
  "reasoning": "brief explanation"
}`
}

// BuildSingleExtractionPrompt asks for one process graph covering the whole text.
func BuildSingleExtractionPrompt(inputType domain.InputType, text string) string {
	return `Extract ONLY the 5-8 most critical steps from this ` + string(inputType) + `. Be concise.

` + text + `

CRITICAL: Return ONLY valid JSON. No markdown. No explanations.

Extract:
- Main process steps (5-8 max)
- Key actors
- Critical gaps only

Return this JSON structure:
{
  "processName": "string",
  "description": "brief",
  "actors": ["actor1", "actor2"],
  "nodes": [
` + nodeSchema + `
  ],
  "criticalGaps": ["gap 1"],
  "improvementOpportunities": [
    {
      "description": "brief",
      "type": "automation",
      "estimatedSavings": "time"
    }
  ]
}`
}

// BuildProcessExtractionPrompt asks for the graph of one named process, given
// only the span of text that belongs to it.
func BuildProcessExtractionPrompt(title, span string) string {
	quoted, _ := json.Marshal(title)

	return `Extract ONLY this process: ` + string(quoted) + `

RELEVANT TEXT:
` + span + `

Extract 3-5 key steps. Be CONCISE.

Return ONLY this JSON (no markdown):
{
  "processName": ` + string(quoted) + `,
  "description": "Brief purpose (1 sentence)",
  "actors": ["Actor1", "Actor2"],
  "nodes": [
` + nodeSchema + `
  ],
  "criticalGaps": [],
  "improvementOpportunities": []
}

Return only 3-5 nodes. Keep it under 150 words total.`
}

// BuildIdealStatePrompt asks for an improvement vision of a parsed process.
func BuildIdealStatePrompt(process *domain.ParsedProcess) (string, error) {
	data, err := json.MarshalIndent(process, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling process: %w", err)
	}

	return `Given this process with identified gaps:
` + string(data) + `

CRITICAL: Return ONLY the JSON object, no explanations, no markdown, no code blocks.

Generate a comprehensive "Ideal State" vision that:
1. Groups improvements into 3-5 clear categories
2. Gives each category a clear title, a relevant emoji icon and 3-5 specific, actionable improvements
3. Prioritizes by impact (mark critical items)
4. Estimates time and cost savings where possible

Return this exact JSON structure (and NOTHING else):
{
  "vision": "One paragraph describing the fully optimized process",
  "categories": [
    {
      "title": "Category Name",
      "icon": "🎯",
      "priority": "critical",
      "improvements": ["Specific improvement 1", "Specific improvement 2"]
    }
  ],
  "expectedOutcomes": {
    "operational": ["benefit 1", "benefit 2"],
    "business": ["benefit 1", "benefit 2"]
  },
  "estimatedImpact": {
    "timeSaved": "X hours per week",
    "costSaved": "Y per year",
    "efficiencyGain": "Z%"
  }
}`, nil
}

// BuildChatPrompt renders the most recent MaxChatHistory turns as a transcript
// followed by the new user message. Blank turns are skipped.
func BuildChatPrompt(history []domain.ChatMessage, message string) string {
	if len(history) > MaxChatHistory {
		history = history[len(history)-MaxChatHistory:]
	}

	var b strings.Builder
	turns := 0
	for _, m := range history {
		content := strings.TrimSpace(m.Content)
		if content == "" {
			continue
		}
		if turns == 0 {
			b.WriteString("Conversation so far:\n")
		}
		speaker := "User"
		if m.Role == domain.ChatRoleAssistant {
			speaker = "FlowForge AI"
		}
		fmt.Fprintf(&b, "%s: %s\n", speaker, content)
		turns++
	}
	if turns > 0 {
		b.WriteString("\nReply to the user's latest message.\n\n")
	}
	b.WriteString("User: ")
	b.WriteString(strings.TrimSpace(message))
	return b.String()
}
