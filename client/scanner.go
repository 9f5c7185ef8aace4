package client

import (
	"fmt"

	"github.com/gridstore/gridstore-go/conn"
)

// Scanner iterates the keys of a streaming scan. It owns one checked
// out connection; the connection goes back to its manager when the
// stream ends, fails or is closed.
type Scanner struct {
	conn    *conn.Conn
	release conn.Release
	done    bool
	err     error
}

// Next returns the next key in the stream. It reports false when the
// stream is exhausted or failed; check Err afterwards.
func (s *Scanner) Next() ([]byte, bool) {
	if s.done {
		return nil, false
	}
	code, payload, err := s.conn.Recv()
	if err != nil {
		s.err = err
		s.finish(err)
		return nil, false
	}
	switch code {
	case conn.MsgScanResp:
		return payload, true
	case conn.MsgScanEnd:
		s.finish(nil)
		return nil, false
	case conn.MsgErr:
		s.err = fmt.Errorf("scan failed: %s", payload)
		s.finish(nil)
		return nil, false
	default:
		s.err = fmt.Errorf("unexpected scan response code 0x%02x", code)
		s.finish(s.err)
		return nil, false
	}
}

// Err returns the error that terminated the stream, if any.
func (s *Scanner) Err() error {
	return s.err
}

// Close releases the underlying connection. Closing mid-stream
// discards the connection, since unread frames would poison the next
// consumer. Idempotent.
func (s *Scanner) Close() error {
	if !s.done {
		s.finish(fmt.Errorf("scan abandoned"))
	}
	return s.err
}

func (s *Scanner) finish(err error) {
	if s.done {
		return
	}
	s.done = true
	s.release(err)
}
