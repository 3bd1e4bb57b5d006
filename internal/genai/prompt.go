package genai

import (
	"fmt"
	"sort"
	"strings"

	"quizion-service/internal/domain"
)

// maxContextTopics caps how many per-topic ratios are embedded in the prompt
// to keep it short.
const maxContextTopics = 5

// buildPrompt produces the generation instruction. The output contract
// (bare JSON array, four options, 0-based correct index) is spelled out so
// the extractor can rely on the shape.
func buildPrompt(topic string, difficulty domain.Difficulty, count int, stats map[string]domain.TopicStats) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Generate exactly %d multiple-choice quiz questions about the topic '%s'. ", count, topic)
	fmt.Fprintf(&b, "The difficulty level should be '%s'.", difficulty)
	b.WriteString(performanceContext(stats))
	fmt.Fprintf(&b, " If performance data is provided, tailor the questions by focusing on sub-topics where the user has fewer attempts or lower accuracy, or by slightly adjusting difficulty if the user is performing very well or poorly on '%s'.", topic)
	b.WriteString(" Format the output STRICTLY as a valid JSON array where each object has the following keys: ")
	b.WriteString(`"question" (string: the question text), `)
	b.WriteString(`"options" (JSON array of 4 strings: the answer choices), and `)
	b.WriteString(`"correctAnswerIndex" (integer: the 0-based index of the correct answer within the "options" array). `)
	b.WriteString("Do not include any introductory text, explanations, markdown formatting, or anything else outside the single JSON array structure. Only output the JSON array.")
	return b.String()
}

// performanceContext condenses at most maxContextTopics correct:total ratios,
// weakest accuracy first so the model sees the topics that matter.
func performanceContext(stats map[string]domain.TopicStats) string {
	if len(stats) == 0 {
		return ""
	}

	topics := make([]string, 0, len(stats))
	for name := range stats {
		topics = append(topics, name)
	}
	sort.Slice(topics, func(i, j int) bool {
		ai, aj := accuracy(stats[topics[i]]), accuracy(stats[topics[j]])
		if ai != aj {
			return ai < aj
		}
		return topics[i] < topics[j]
	})
	if len(topics) > maxContextTopics {
		topics = topics[:maxContextTopics]
	}

	parts := make([]string, 0, len(topics))
	for _, name := range topics {
		s := stats[name]
		parts = append(parts, fmt.Sprintf("%s (%d:%d)", name, s.Correct, s.Total))
	}
	return " User's current performance in various topics (correct answers:total questions): " + strings.Join(parts, ", ") + "."
}

func accuracy(s domain.TopicStats) float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Correct) / float64(s.Total)
}
