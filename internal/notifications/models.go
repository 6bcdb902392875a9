package notifications

import "time"

// Level is the severity shown to the user
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Notification is a user-facing message about a generation or export.
type Notification struct {
	Level       Level     `json:"level"`
	Message     string    `json:"message"`
	Description string    `json:"description,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// WebSocketMessage is the envelope written to connected clients
type WebSocketMessage struct {
	Type      string       `json:"type"`
	Data      Notification `json:"data"`
	Timestamp time.Time    `json:"timestamp"`
	Target    string       `json:"target"` // session id
}

// Info builds an informational notification
func Info(message, description string) Notification {
	return Notification{Level: LevelInfo, Message: message, Description: description}
}

// Success builds a success notification
func Success(message, description string) Notification {
	return Notification{Level: LevelSuccess, Message: message, Description: description}
}

// Error builds an error notification
func Error(message string) Notification {
	return Notification{Level: LevelError, Message: message}
}
