package events

import "encoding/json"

// Format renders an SSE frame: an optional "event: <type>" line, a
// "data: <JSON>" line, and a blank line terminator. eventType may be empty,
// in which case the event: line is omitted and the client falls back to the
// default "message" event type.
func Format(eventType string, data interface{}) (string, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return "", err
	}

	if eventType == "" {
		return "data: " + string(payload) + "\n\n", nil
	}
	return "event: " + eventType + "\ndata: " + string(payload) + "\n\n", nil
}

// FormatEvent is a convenience wrapper around Format for an Event value.
func FormatEvent(e Event) (string, error) {
	return Format(e.Type, e.Data)
}
