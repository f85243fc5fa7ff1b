package models

import "fmt"

// SessionSummary is a lightweight descriptor of a stored conversation, as
// returned by the backend's session listing. Ordering is the backend's;
// the client never re-sorts.
type SessionSummary struct {
	SessionID string `json:"session_id"`
	Title     string `json:"title"`
	CreatedAt string `json:"created_at"`
}

// HistoryRecord is one prompt/response pair from a stored session. Older
// backends also send id and created_at; those fields are ignored.
type HistoryRecord struct {
	Prompt   string `json:"prompt"`
	Response string `json:"response"`
}

// MessagesFromHistory expands stored prompt/response pairs into the
// alternating user/model list the chat window renders: record i becomes
// messages 2i and 2i+1. A record missing either side is rejected rather
// than mis-rendered.
func MessagesFromHistory(records []HistoryRecord) ([]Message, error) {
	messages := make([]Message, 0, len(records)*2)
	for i, rec := range records {
		if rec.Prompt == "" || rec.Response == "" {
			return nil, &ValidationError{
				Message: fmt.Sprintf("history record %d is missing a prompt or response", i),
			}
		}
		messages = append(messages, UserMessage(rec.Prompt), ModelMessage(rec.Response))
	}
	return messages, nil
}
