package mcp

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
)

// MaxMessageSize is the maximum size of a single message (1MB). This
// accommodates whole source files and batch operations in tool arguments.
const MaxMessageSize = 1024 * 1024

// readMessage reads one newline-delimited JSON-RPC message from stdin.
func (s *Server) readMessage() (*Message, error) {
	if s.scanner == nil {
		s.scanner = bufio.NewScanner(s.stdin)
		s.scanner.Buffer(make([]byte, MaxMessageSize), MaxMessageSize)
	}

	if !s.scanner.Scan() {
		if err := s.scanner.Err(); err != nil {
			// Scanner errors are persistent; the caller must stop reading.
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return nil, io.EOF
	}

	line := s.scanner.Text()
	s.logger.Debug("received message", "raw", line)

	var msg Message
	if err := json.Unmarshal([]byte(line), &msg); err != nil {
		return nil, errMalformed
	}
	return &msg, nil
}

// errMalformed marks a line that scanned fine but was not valid JSON-RPC.
// The loop skips it and keeps serving.
var errMalformed = fmt.Errorf("parse message: malformed JSON")

// writeMessage writes one JSON-RPC message followed by a newline.
func (s *Server) writeMessage(msg *Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	s.logger.Debug("sending message", "raw", string(data))

	if _, err := fmt.Fprintf(s.stdout, "%s\n", data); err != nil {
		return fmt.Errorf("write stdout: %w", err)
	}
	return nil
}

func (s *Server) writeError(id interface{}, code int, message string) error {
	return s.writeMessage(NewErrorMessage(id, code, message, nil))
}
