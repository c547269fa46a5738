package gateway

import "encoding/json"

// Frame is the universal WebSocket message format.
// Three types: "req" (widget→server), "res" (server→widget), "event" (server→widget push).
type Frame struct {
	Type    string          `json:"type"`              // "req" | "res" | "event"
	ID      string          `json:"id,omitempty"`      // request/response correlation ID
	Method  string          `json:"method,omitempty"`  // for req: method name
	Params  json.RawMessage `json:"params,omitempty"`  // for req: method parameters
	OK      *bool           `json:"ok,omitempty"`      // for res: success flag
	Payload json.RawMessage `json:"payload,omitempty"` // for res: response data
	Error   *ErrorPayload   `json:"error,omitempty"`   // for res: error details
	Event   string          `json:"event,omitempty"`   // for event: event name
	Seq     int             `json:"seq,omitempty"`     // for event: sequence number
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ConnectParams is sent by the widget during handshake. SessionID is optional;
// when it names a live session its transcript is resumed, otherwise a new
// session is created.
type ConnectParams struct {
	Site      string `json:"site"` // "portfolio" | "vueverse"
	SessionID string `json:"sessionId,omitempty"`
}

// TurnParams is a user utterance typed into the widget.
type TurnParams struct {
	Text string `json:"text"`
}

// QuickActionParams is one of the widget's shortcut buttons.
type QuickActionParams struct {
	Action string `json:"action"` // "schedule" | "contact" | "overview"
}

// OpenURLPayload is pushed as a browser.open_url event when a tool call
// resolves to opening a link. The widget must open it in a new tab with
// noopener and noreferrer.
type OpenURLPayload struct {
	URL string `json:"url"`
}

// NavigatePayload is pushed as a browser.navigate event when a tool call
// resolves to scrolling the host page to a named section. The widget forwards
// it to the embedding page, which owns the section elements.
type NavigatePayload struct {
	Section string `json:"section"`
}

func ResOK(id string, payload any) Frame {
	data, _ := json.Marshal(payload)
	ok := true
	return Frame{Type: "res", ID: id, OK: &ok, Payload: data}
}

func ResErr(id string, code, message string) Frame {
	ok := false
	return Frame{Type: "res", ID: id, OK: &ok, Error: &ErrorPayload{Code: code, Message: message}}
}

func EventFrame(event string, seq int, payload any) Frame {
	data, _ := json.Marshal(payload)
	return Frame{Type: "event", Event: event, Seq: seq, Payload: data}
}
