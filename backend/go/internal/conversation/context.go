// Package conversation assembles the message sequence sent to the language
// model for a document chat and classifies what comes back.
package conversation

import (
	"fmt"
)

// Role identifies the speaker of a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one message of a conversation. Turns are never modified once built.
type Turn struct {
	Role Role
	Text string
}

const instructionTemplate = `You are a friendly and helpful AI assistant. You will answer questions based on the following document content, the conversation history and your knowledge base.
Document Content:
"""
%s
"""
Instructions for responding:
1. Tone: Warm, friendly, approachable.
2. Length: Concise (under 70 words ideally, but comprehensive).
3. Information Source: Use document, general knowledge and document history.
4. Language: Same as the user's current question.
5. Directness: Provide only the answer, no meta-commentary.
Please adhere to these instructions.
---
`

// Instruction returns the opening user turn that carries the behavioral
// constraints and the full document text.
func Instruction(documentText string) Turn {
	return Turn{Role: RoleUser, Text: fmt.Sprintf(instructionTemplate, documentText)}
}

// BuildMessages returns the instruction turn, then history in its original
// order, then the question as the final user turn. history is not modified.
func BuildMessages(documentText string, history []Turn, question string) []Turn {
	msgs := make([]Turn, 0, len(history)+2)
	msgs = append(msgs, Instruction(documentText))
	msgs = append(msgs, history...)
	msgs = append(msgs, Turn{Role: RoleUser, Text: question})
	return msgs
}

// HistoryFromPairs flattens stored prompt/response pairs into turns.
func HistoryFromPairs(pairs [][2]string) []Turn {
	turns := make([]Turn, 0, 2*len(pairs))
	for _, p := range pairs {
		turns = append(turns,
			Turn{Role: RoleUser, Text: p[0]},
			Turn{Role: RoleAssistant, Text: p[1]},
		)
	}
	return turns
}
