// message.go - Defines the Message struct shared by the controller, gateway, and UI.
// This is also the wire shape the backend expects inside generate requests.

package models

import "strings"

// Roles a message can carry. The backend calls generated turns "model",
// not "assistant".
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// Message represents a single conversation turn.
type Message struct {
	Role  string   `json:"role"`
	Parts []string `json:"parts"`
}

// UserMessage wraps text as a user turn.
func UserMessage(text string) Message {
	return Message{Role: RoleUser, Parts: []string{text}}
}

// ModelMessage wraps text as a generated turn.
func ModelMessage(text string) Message {
	return Message{Role: RoleModel, Parts: []string{text}}
}

// Text returns the message's parts joined into one string.
func (m Message) Text() string {
	return strings.Join(m.Parts, "")
}
