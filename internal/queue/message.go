package queue

import "encoding/json"

// MessageVersion is the current orphan message schema version.
const MessageVersion = 1

// Message describes an artifact left behind by a failed delete.
type Message struct {
	UserID     string `json:"userId"`
	ResumeID   string `json:"resumeId"`
	Kind       string `json:"kind"`
	Path       string `json:"path"`
	Reason     string `json:"reason"`
	EnqueuedAt string `json:"enqueuedAt"`
	Version    int    `json:"version"`
}

// EncodeMessage returns the JSON representation of a message.
func EncodeMessage(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}

// DecodeMessage parses a JSON payload into a Message.
func DecodeMessage(payload []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		return Message{}, err
	}
	return msg, nil
}
