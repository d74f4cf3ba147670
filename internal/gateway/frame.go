package gateway

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Events handled by the gateway itself.
const (
	EventRegisterUser   = "registerUser"
	EventGetOnlineUsers = "getOnlineUsers"
	EventOnlineUsers    = "onlineUsers"
)

// Frame is the envelope of every message on the socket, in both directions.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

func encodeFrame(event string, payload interface{}) ([]byte, error) {
	var data json.RawMessage
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s payload: %w", event, err)
		}
		data = raw
	}
	return json.Marshal(Frame{Event: event, Data: data})
}

func decodeFrame(msg []byte) (Frame, error) {
	var f Frame
	if err := json.Unmarshal(msg, &f); err != nil {
		return Frame{}, fmt.Errorf("invalid frame: %w", err)
	}
	if f.Event == "" {
		return Frame{}, fmt.Errorf("invalid frame: missing event name")
	}
	return f, nil
}

// parseUserID accepts the registerUser payload as a bare string, a number or
// an object carrying userId.
func parseUserID(data json.RawMessage) string {
	if len(data) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		return strings.TrimSpace(s)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var n json.Number
	if err := dec.Decode(&n); err == nil {
		return n.String()
	}

	var obj struct {
		UserID string `json:"userId"`
	}
	if err := json.Unmarshal(data, &obj); err == nil {
		return strings.TrimSpace(obj.UserID)
	}
	return ""
}
