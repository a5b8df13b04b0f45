package game

import (
	"encoding/json"
	"fmt"
)

// Message is the inbound envelope delivered by the transport
type Message struct {
	Type MessageType     `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// MessageType represents the type of an inbound message
type MessageType string

const (
	MessageTypeState        MessageType = "state"
	MessageTypeAnswerResult MessageType = "answer_result"
	MessageTypePong         MessageType = "pong"
)

// AnswerResult is the outcome of the question that was just resolved.
// Exactly one of Timeout, Skip, or the Correct judgement is meaningful.
type AnswerResult struct {
	Correct       bool   `json:"correct"`
	CorrectOption string `json:"correct_option,omitempty"`
	Timeout       bool   `json:"timeout"`
	Skip          bool   `json:"skip"`
	Team          Team   `json:"team,omitempty"`
	QuestionID    int    `json:"question_id,omitempty"`
}

// UnmarshalJSON accepts correct_option as either a string or a number;
// the server sends the option index.
func (r *AnswerResult) UnmarshalJSON(data []byte) error {
	type alias AnswerResult
	var raw struct {
		alias
		CorrectOption json.RawMessage `json:"correct_option"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*r = AnswerResult(raw.alias)
	r.CorrectOption = ""
	if len(raw.CorrectOption) == 0 || string(raw.CorrectOption) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw.CorrectOption, &s); err == nil {
		r.CorrectOption = s
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(raw.CorrectOption, &n); err != nil {
		return fmt.Errorf("correct_option: %w", err)
	}
	r.CorrectOption = n.String()
	return nil
}

// DecodeMessage decodes a raw transport frame into an envelope
func DecodeMessage(raw []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, fmt.Errorf("decode message: %w", err)
	}
	return &msg, nil
}

// ParseMessagePayload parses message data into the appropriate payload struct.
// Unknown message types yield a nil payload and no error.
func ParseMessagePayload(msg *Message) (interface{}, error) {
	switch msg.Type {
	case MessageTypeState:
		var snapshot Snapshot
		if err := json.Unmarshal(msg.Data, &snapshot); err != nil {
			return nil, fmt.Errorf("decode state: %w", err)
		}
		return &snapshot, nil

	case MessageTypeAnswerResult:
		var result AnswerResult
		if err := json.Unmarshal(msg.Data, &result); err != nil {
			return nil, fmt.Errorf("decode answer_result: %w", err)
		}
		return result, nil

	default:
		return nil, nil
	}
}
