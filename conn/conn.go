package conn

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"time"
)

// Conn is a single framed connection to one GridStore node. It is not
// safe for concurrent use; a Manager hands it to exactly one caller at
// a time.
type Conn struct {
	nc           net.Conn
	br           *bufio.Reader
	readTimeout  time.Duration
	writeTimeout time.Duration
}

// New wraps an established network connection with frame encoding and
// the given per-exchange deadlines. A zero timeout disables the
// corresponding deadline.
func New(nc net.Conn, readTimeout, writeTimeout time.Duration) *Conn {
	return &Conn{
		nc:           nc,
		br:           bufio.NewReader(nc),
		readTimeout:  readTimeout,
		writeTimeout: writeTimeout,
	}
}

// Dial connects to a node address and wraps the result.
func Dial(addr string, connectTimeout, readTimeout, writeTimeout time.Duration) (*Conn, error) {
	nc, err := net.DialTimeout("tcp", addr, connectTimeout)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	return New(nc, readTimeout, writeTimeout), nil
}

// Send writes one frame.
func (c *Conn) Send(code byte, payload []byte) error {
	if c.writeTimeout > 0 {
		if err := c.nc.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
			return err
		}
	}
	buf := make([]byte, frameHeaderSize+1+len(payload))
	binary.BigEndian.PutUint32(buf, uint32(1+len(payload)))
	buf[frameHeaderSize] = code
	copy(buf[frameHeaderSize+1:], payload)
	if _, err := c.nc.Write(buf); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

// Recv reads one frame and returns its code and payload.
func (c *Conn) Recv() (byte, []byte, error) {
	if c.readTimeout > 0 {
		if err := c.nc.SetReadDeadline(time.Now().Add(c.readTimeout)); err != nil {
			return 0, nil, err
		}
	}
	var header [frameHeaderSize]byte
	if _, err := io.ReadFull(c.br, header[:]); err != nil {
		return 0, nil, fmt.Errorf("read frame header: %w", err)
	}
	size := binary.BigEndian.Uint32(header[:])
	if size < 1 || size > maxFrameSize {
		return 0, nil, fmt.Errorf("invalid frame size %d", size)
	}
	body := make([]byte, size)
	if _, err := io.ReadFull(c.br, body); err != nil {
		return 0, nil, fmt.Errorf("read frame body: %w", err)
	}
	return body[0], body[1:], nil
}

// Exchange performs one request/response round trip.
func (c *Conn) Exchange(code byte, payload []byte) (byte, []byte, error) {
	if err := c.Send(code, payload); err != nil {
		return 0, nil, err
	}
	return c.Recv()
}

// Ping performs a no-payload liveness round trip.
func (c *Conn) Ping() error {
	code, _, err := c.Exchange(MsgPing, nil)
	if err != nil {
		return err
	}
	if code != MsgPingResp {
		return fmt.Errorf("unexpected ping response code 0x%02x", code)
	}
	return nil
}

// RemoteAddr reports the peer address, if known.
func (c *Conn) RemoteAddr() string {
	if addr := c.nc.RemoteAddr(); addr != nil {
		return addr.String()
	}
	return ""
}

// Close closes the underlying network connection.
func (c *Conn) Close() error {
	return c.nc.Close()
}
