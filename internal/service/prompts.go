package service

import (
	"fmt"
	"invest_edu_backend/internal/model"
	"strings"
)

const (
	minModules          = 4
	maxModules          = 6
	minLessonsPerModule = 3
	maxLessonsPerModule = 5
)

const outlineSystemPrompt = "You design investment-education curricula. You reply with a single JSON object and nothing else."

func courseOutlinePrompt(topic string, level model.Level) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Create a %s-level investment education course about %q.\n\n", level, topic)
	b.WriteString("Return a JSON object with exactly this shape:\n")
	b.WriteString(`{
  "title": "course title",
  "description": "two or three sentence overview",
  "estimatedDuration": "e.g. 3 hours",
  "modules": [
    {
      "title": "module title",
      "description": "one sentence",
      "lessons": [
        {"title": "lesson title", "contentType": "article|video|quiz|interactive", "durationMinutes": 10}
      ]
    }
  ]
}`)
	fmt.Fprintf(&b, "\n\nRules:\n- Between %d and %d modules.\n- Between %d and %d lessons per module.\n",
		minModules, maxModules, minLessonsPerModule, maxLessonsPerModule)
	b.WriteString("- Order modules and lessons from foundational to advanced.\n")
	b.WriteString("- Keep it educational: no recommendations of specific securities and no return predictions.\n")
	return b.String()
}

const lessonSystemPrompt = "You write clear, neutral investment-education lessons in markdown. You never recommend specific securities or transactions, never promise returns, and never predict prices."

func lessonContentPrompt(lessonTitle string, course *model.Course, moduleTitle string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write the lesson %q for the module %q of a %s-level course on %q.\n\n",
		lessonTitle, moduleTitle, course.Level, course.Topic)
	b.WriteString("Requirements:\n")
	b.WriteString("- 800 to 1200 words of markdown.\n")
	b.WriteString("- Use ## headers for sections and bullet points where they help.\n")
	b.WriteString("- Include a worked example using hypothetical numbers.\n")
	b.WriteString("- End with a \"## Key Takeaways\" section of 3 to 5 bullets.\n")
	b.WriteString("- Do not wrap the answer in a code block.\n")
	return b.String()
}

const advisorSystemPrompt = "You are an investment-education assistant inside a learning app. Explain concepts, trade-offs and terminology. Do not tell the user what to buy or sell, do not give price targets or return projections, and suggest a licensed financial advisor for personal decisions."

func advisorPrompt(question string, history []model.ChatMessage) string {
	if len(history) == 0 {
		return question
	}
	var b strings.Builder
	b.WriteString("Conversation so far:\n")
	for _, m := range history {
		fmt.Fprintf(&b, "%s: %s\n", m.Role, m.Content)
	}
	fmt.Fprintf(&b, "\nNew question: %s", question)
	return b.String()
}
