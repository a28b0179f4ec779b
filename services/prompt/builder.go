// Package prompt renders the system and user prompts for the tutor. All
// functions are pure: same inputs, byte-identical output. Nothing here is
// cached, only the final answers derived from these prompts are.
package prompt

import (
	"fmt"
	"strings"

	"github.com/vidyalabs/tutor-backend/models"
	"github.com/vidyalabs/tutor-backend/services/providers"
)

// NoContextSentence is rendered in place of the context block when retrieval
// produced nothing.
const NoContextSentence = "No relevant content found in the CBSE knowledge base."

// BuildSystemPrompt renders the tutor persona and grounding rules scoped to
// the given class and subject.
func BuildSystemPrompt(classNo *int, subject string, language models.Language) string {
	classStr := "Classes 6–12"
	if classNo != nil {
		classStr = fmt.Sprintf("Class %d", *classNo)
	}

	subjStr := "Science and Social Science"
	if subject != "" {
		subjStr = titleCase(strings.ReplaceAll(subject, "_", " "))
	}

	langNote := "Respond in clear, simple English suitable for school students."
	if language == models.LanguageHindi {
		langNote = "Respond in Hindi (Devanagari script). Keep scientific terms and formulae in English."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are an expert CBSE %s %s tutor helping students solve doubts.\n\n", classStr, subjStr)
	b.WriteString("STRICT RULES — follow without exception:\n")
	b.WriteString("1. Answer ONLY using the CONTEXT provided below. Do NOT use outside knowledge.\n")
	b.WriteString("2. If the answer is not in the context, say exactly:\n")
	fmt.Fprintf(&b, "   \"I don't have enough information about this in my CBSE %s %s knowledge base. Please refer to your NCERT textbook.\"\n", classStr, subjStr)
	b.WriteString("3. NEVER make up facts, formulae, dates, or names.\n")
	b.WriteString("4. Use step-by-step explanations for concepts and numerical problems.\n")
	fmt.Fprintf(&b, "5. Keep language appropriate for CBSE %s students.\n", classStr)
	fmt.Fprintf(&b, "6. %s\n", langNote)
	b.WriteString("7. At the end, mention the chapter/topic this came from (if in context).")
	return b.String()
}

// BuildUserPrompt renders the context block and the student question. Chunks
// appear in retrieval order, each under its own numbered header.
func BuildUserPrompt(question string, chunks []models.ContextChunk) string {
	contextText := NoContextSentence
	if len(chunks) > 0 {
		parts := make([]string, 0, len(chunks))
		for i, chunk := range chunks {
			tag := chunk.ChapterTitle
			if tag == "" {
				tag = chunk.Source
			}
			header := fmt.Sprintf("--- Context %d ---", i+1)
			if tag != "" {
				header = fmt.Sprintf("--- Context %d [%s] ---", i+1, tag)
			}
			parts = append(parts, header+"\n"+chunk.Text)
		}
		contextText = strings.Join(parts, "\n\n")
	}

	return fmt.Sprintf(
		"CONTEXT:\n%s\n\nSTUDENT QUESTION:\n%s\n\nPlease solve/explain this doubt based ONLY on the context above.",
		contextText, question,
	)
}

// BuildMessages assembles the full message sequence for a query. When the
// query carries an image, the user message is a multi-part payload (image
// reference first, then text); the system prompt is unchanged.
func BuildMessages(q *models.Query, chunks []models.ContextChunk) []providers.Message {
	system := BuildSystemPrompt(q.ClassNo, string(q.Subject), q.Language)
	userText := BuildUserPrompt(q.Question, chunks)

	if q.HasImage() {
		mime := q.ImageMIME
		if mime == "" {
			mime = "image/jpeg"
		}
		imageURL := fmt.Sprintf("data:%s;base64,%s", mime, q.ImageBase64)
		return []providers.Message{
			providers.TextMessage(providers.RoleSystem, system),
			providers.VisionMessage(imageURL, userText),
		}
	}

	return []providers.Message{
		providers.TextMessage(providers.RoleSystem, system),
		providers.TextMessage(providers.RoleUser, userText),
	}
}

// titleCase capitalizes the first letter of each space-separated word.
func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
