package ipc

import (
	"bufio"
	"fmt"
	"net"
	"sync"
	"sync/atomic"

	"github.com/dshills/gamebridge/internal/logging"
)

// Conn is one end of a bus connection. Send may be called from any
// goroutine; writes are serialized internally. Receive must be called
// from a single reader goroutine.
type Conn struct {
	nc     net.Conn
	reader *bufio.Reader
	log    *logging.Logger

	wmu    sync.Mutex
	closed atomic.Bool
}

func newConn(nc net.Conn, log *logging.Logger) *Conn {
	if log == nil {
		log = logging.Null
	}
	return &Conn{
		nc:     nc,
		reader: bufio.NewReaderSize(nc, 64*1024),
		log:    log,
	}
}

// Send writes one message. A nil error means the bytes were handed to
// the transport, not that the peer processed them.
func (c *Conn) Send(m Message) error {
	if c.closed.Load() {
		return ErrDisconnected
	}

	payload, err := encodePayload(m)
	if err != nil {
		return err
	}

	c.wmu.Lock()
	defer c.wmu.Unlock()

	if err := writeFrame(c.nc, m.Kind(), payload); err != nil {
		return fmt.Errorf("%w: %v", ErrDisconnected, err)
	}
	return nil
}

// Receive blocks until the next message arrives or the connection is
// lost. A frame with an unrecognized tag returns ErrUnknownMessage; the
// connection stays usable and the caller may keep receiving.
func (c *Conn) Receive() (Message, error) {
	kind, payload, err := readFrame(c.reader)
	if err != nil {
		if c.closed.Load() {
			return nil, ErrDisconnected
		}
		return nil, fmt.Errorf("%w: %v", ErrDisconnected, err)
	}

	msg, err := decodeMessage(kind, payload)
	if err != nil {
		return nil, err
	}
	c.log.Debug("received %s", kind)
	return msg, nil
}

// Close shuts the connection down. A blocked Receive returns
// ErrDisconnected.
func (c *Conn) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	return c.nc.Close()
}
