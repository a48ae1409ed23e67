package resp

import "fmt"

// ProtocolError is a fatal, unrecoverable framing violation: an unknown
// type byte or malformed CRLF. It carries enough context for the host
// to log and decide whether to close the connection.
type ProtocolError struct {
	// Offset is the read cursor into Buffer at the moment the violation
	// was observed.
	Offset int
	// Buffer is a snapshot of the parser's working buffer at the time
	// of the error. It must not be retained past the callback that
	// receives it.
	Buffer []byte
	// Offending is the displayable form of the byte (or description)
	// that triggered the error.
	Offending string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("resp: protocol error at offset %d: unexpected %q", e.Offset, e.Offending)
}

// ReplyError is a non-fatal, server-sent error reply (simple `-` or
// blob `!`). The parser delivers it to OnError and keeps decoding.
type ReplyError struct {
	// Code is the blob-error code (text before the first space). Empty
	// for simple errors, which carry no code.
	Code string
	// Message is the error text.
	Message string
}

func (e *ReplyError) Error() string {
	if e.Code != "" {
		return e.Code + " " + e.Message
	}
	return e.Message
}

// ConfigError is returned synchronously by NewParser or a mode setter
// when given an invalid argument.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("resp: invalid %s: %s", e.Field, e.Reason)
}
