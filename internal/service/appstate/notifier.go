package appstate

import (
	"sync"
)

// Level classifies a notification.
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelInfo    Level = "info"
)

// Message is a single user-facing notification.
type Message struct {
	Level Level  `json:"level"`
	Text  string `json:"text"`
}

// Notifier shows user-facing messages.
type Notifier interface {
	Success(text string)
	Error(text string)
	Info(text string)
}

// MessageLog is a Notifier that keeps every message in order.
type MessageLog struct {
	mu       sync.Mutex
	messages []Message
}

// NewMessageLog returns an empty message log.
func NewMessageLog() *MessageLog {
	return &MessageLog{}
}

func (l *MessageLog) Success(text string) { l.add(LevelSuccess, text) }

func (l *MessageLog) Error(text string) { l.add(LevelError, text) }

func (l *MessageLog) Info(text string) { l.add(LevelInfo, text) }

func (l *MessageLog) add(level Level, text string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, Message{Level: level, Text: text})
}

// Messages returns a copy of all recorded messages.
func (l *MessageLog) Messages() []Message {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Message(nil), l.messages...)
}

// Last returns the most recent message.
func (l *MessageLog) Last() (Message, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.messages) == 0 {
		return Message{}, false
	}
	return l.messages[len(l.messages)-1], true
}

// Drain returns all messages and empties the log.
func (l *MessageLog) Drain() []Message {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := l.messages
	l.messages = nil
	return out
}
