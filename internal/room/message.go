package room

import "encoding/json"

// Wire frames produced by the room itself. Game payloads are opaque to this
// package and forwarded verbatim.

type ErrorFrame struct {
	Type  string `json:"type"`
	Error string `json:"error"`
	Msg   string `json:"msg"`
}

type MessageFrame struct {
	Type string `json:"type"`
	Msg  string `json:"msg"`
}

type RightsFrame struct {
	Type   string `json:"type"`
	Status string `json:"status"`
}

type JoinedFrame struct {
	Type string `json:"type"`
}

type ManagementFrame struct {
	Type       string   `json:"type"`
	WaitingFor []string `json:"waiting_for"`
}

// ErrorPayload marshals an error frame. Shared with the transport layer,
// which reports pre-bind failures (empty name, malformed join) itself.
func ErrorPayload(code, msg string) []byte {
	return mustMarshal(ErrorFrame{Type: "error", Error: code, Msg: msg})
}

func messagePayload(msg string) []byte {
	return mustMarshal(MessageFrame{Type: "message", Msg: msg})
}

func rightsPayload() []byte {
	return mustMarshal(RightsFrame{Type: "rights", Status: "creator"})
}

func joinedPayload() []byte {
	return mustMarshal(JoinedFrame{Type: "joined"})
}

func managementPayload(waiting []string) []byte {
	return mustMarshal(ManagementFrame{Type: "management", WaitingFor: waiting})
}

// mustMarshal is for the fixed frame shapes above, which cannot fail to encode.
func mustMarshal(v any) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return data
}
