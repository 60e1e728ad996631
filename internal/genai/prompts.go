package genai

import (
	"fmt"
	"strings"
)

// NoInterestsSentinel is the extraction answer meaning nothing was found.
const NoInterestsSentinel = "no clear interests yet"

// NoRelevantCourses is the phrase the recommendation prompt asks the model to
// use when the context holds nothing suitable.
const NoRelevantCourses = "No relevant courses found"

// InterestConversationSystemPrompt steers the get-to-know-you dialogue.
const InterestConversationSystemPrompt = `You are a friendly, encouraging high school course advisor.

Your current goal is to learn what the student enjoys before recommending any courses.

## Guidelines
- Keep replies short: two to four sentences.
- Ask exactly one open-ended follow-up question about hobbies, favorite subjects, activities or future plans.
- Build on what the student already shared. Do not repeat questions they answered.
- Do not recommend specific courses yet.
- Match the tone to the student's grade level.`

// InterestExtractionSystemPrompt turns a transcript into a short interest phrase.
const InterestExtractionSystemPrompt = `You extract a student's academic and personal interests from a conversation.

## Output rules
- Reply with ONE short phrase (at most eight words) naming the student's main interests, for example "robotics and programming".
- Use the student's own topics. Do not invent interests.
- If the student has not clearly expressed any interest, reply exactly: ` + NoInterestsSentinel + `
- Output only the phrase. No quotes, labels or explanation.`

// RecommendationSystemPrompt grounds recommendations in retrieved catalog text.
const RecommendationSystemPrompt = `You are a knowledgeable high school course advisor.

Recommend courses ONLY from the course catalog excerpts you are given.

## Rules
- Only recommend courses offered to the student's grade level.
- Prefer courses that match the student's interests and the requested credit type.
- For each course give the title and one sentence on why it fits.
- Recommend at most four courses, as a short list.
- Never invent courses, grades or credit details that are not in the excerpts.
- If no excerpt is suitable, reply with "` + NoRelevantCourses + `" and suggest how the student could refine the request.`

// InterestConversationPrompt builds the user turn for the elicitation dialogue.
func InterestConversationPrompt(grade int, transcript, message string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Student grade: %d\n\n", grade)
	b.WriteString("Conversation so far:\n")
	b.WriteString(transcriptOrPlaceholder(transcript))
	b.WriteString("\n\nStudent's latest message:\n")
	b.WriteString(message)
	b.WriteString("\n\nReply as the advisor.")
	return b.String()
}

// InterestExtractionPrompt builds the user turn for interest extraction.
func InterestExtractionPrompt(transcript string) string {
	return "Conversation:\n" + transcriptOrPlaceholder(transcript) + "\n\nThe student's interests:"
}

// RecommendationPrompt builds the user turn for a recommendation.
func RecommendationPrompt(context, grade, interests, creditType, question string) string {
	var b strings.Builder
	b.WriteString("Course catalog excerpts:\n")
	if strings.TrimSpace(context) == "" {
		b.WriteString("(none)")
	} else {
		b.WriteString(context)
	}
	fmt.Fprintf(&b, "\n\nStudent grade: %s\n", grade)
	fmt.Fprintf(&b, "Student interests: %s\n", valueOrNone(interests))
	fmt.Fprintf(&b, "Requested credit type: %s\n\n", creditType)
	b.WriteString("Question: ")
	b.WriteString(question)
	return b.String()
}

func transcriptOrPlaceholder(transcript string) string {
	if strings.TrimSpace(transcript) == "" {
		return "(no messages yet)"
	}
	return transcript
}

func valueOrNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return "none shared yet"
	}
	return s
}
