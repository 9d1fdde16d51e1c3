package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
)

// envelope mirrors the platform's response wrapper. Success is a pointer so
// its absence — a legacy non-enveloped payload — is distinguishable from
// success:false.
type envelope struct {
	Success   *bool           `json:"success"`
	Data      json.RawMessage `json:"data"`
	Error     *ErrorDetail    `json:"error"`
	RequestID string          `json:"requestId"`
}

// payloadVariant says which branch of the body decode was taken.
type payloadVariant int

const (
	// payloadEnveloped is an envelope's unwrapped data field.
	payloadEnveloped payloadVariant = iota
	// payloadRaw is a legacy body passed through untouched.
	payloadRaw
	// payloadEmpty is a body with nothing to decode.
	payloadEmpty
)

// payload is the successful outcome of interpreting a response body.
type payload struct {
	variant payloadVariant
	data    json.RawMessage
}

// decodeBody interprets a response body against the envelope contract and
// returns either the payload to decode into the caller's value or the
// normalized error. The check is exhaustive over the three variants:
// enveloped success, enveloped failure, and raw passthrough.
func decodeBody(status int, body []byte) (payload, *Error) {
	ok := status >= 200 && status <= 299
	trimmed := bytes.TrimSpace(body)

	if len(trimmed) == 0 {
		if ok {
			return payload{variant: payloadEmpty}, nil
		}
		return payload{}, plainError(status, nil)
	}

	var env envelope
	if err := json.Unmarshal(trimmed, &env); err != nil || env.Success == nil {
		// No success key (or not a JSON object at all): legacy payload.
		if ok {
			return payload{variant: payloadRaw, data: trimmed}, nil
		}
		return payload{}, plainError(status, trimmed)
	}

	if *env.Success {
		if ok {
			return payload{variant: payloadEnveloped, data: env.Data}, nil
		}
		// success:true on a failure status is a contract violation.
		return payload{}, plainError(status, trimmed)
	}

	msg := ""
	if env.Error != nil {
		msg = env.Error.Message
	}
	if msg == "" {
		msg = fallbackMessage(status)
	}
	return payload{}, &Error{
		Message:   msg,
		Status:    status,
		Kind:      kindForStatus(status, true),
		Detail:    env.Error,
		RequestID: env.RequestID,
	}
}

// plainError builds the error for a non-enveloped failure: body.message if
// present, else the HTTP status text, else a generated string.
func plainError(status int, body []byte) *Error {
	var probe struct {
		Message string `json:"message"`
	}
	msg := ""
	if len(body) > 0 && json.Unmarshal(body, &probe) == nil {
		msg = probe.Message
	}
	if msg == "" {
		msg = fallbackMessage(status)
	}
	return &Error{Message: msg, Status: status, Kind: kindForStatus(status, false)}
}

func fallbackMessage(status int) string {
	if text := http.StatusText(status); text != "" {
		return text
	}
	return fmt.Sprintf("HTTP Error: %d", status)
}
