package ipc

import (
	"bytes"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/dshills/gamebridge/internal/logging"
)

// Endpoint returns the filesystem path for a named endpoint.
func Endpoint(name string) string {
	return filepath.Join(os.TempDir(), name+".sock")
}

// Listener owns a bus endpoint. Exactly one listener may hold an
// endpoint at a time; the runner binds it at startup.
type Listener struct {
	ln   net.Listener
	path string
	log  *logging.Logger
}

// Listen binds the endpoint at path. If a live listener already owns
// it, Listen returns ErrAlreadyRunning. A stale socket file left by a
// crashed process is removed and the endpoint rebound.
func Listen(path string, log *logging.Logger) (*Listener, error) {
	if log == nil {
		log = logging.Null
	}
	log = log.WithComponent("ipc")

	ln, err := net.Listen("unix", path)
	if err != nil {
		if _, statErr := os.Stat(path); statErr != nil {
			return nil, fmt.Errorf("bind %s: %w", path, err)
		}
		// The socket file exists. Dial it: a live listener accepts, a
		// leftover from a crashed process refuses. The ping frame tells
		// the live listener's Accept to discard this connection instead
		// of handing its caller a dead peer.
		peer, dialErr := net.DialTimeout("unix", path, time.Second)
		if dialErr == nil {
			if werr := writeFrame(peer, kindPing, nil); werr != nil {
				log.Debug("ping not written: %v", werr)
			}
			peer.Close()
			return nil, ErrAlreadyRunning
		}

		log.Warn("removing stale endpoint %s", path)
		if rmErr := os.Remove(path); rmErr != nil {
			return nil, fmt.Errorf("remove stale endpoint: %w", rmErr)
		}
		ln, err = net.Listen("unix", path)
		if err != nil {
			return nil, fmt.Errorf("bind %s: %w", path, err)
		}
	}

	log.Info("listening on %s", path)
	return &Listener{ln: ln, path: path, log: log}, nil
}

// pingWindow bounds how long Accept waits to classify a fresh
// connection. Ping frames are written before the pinger closes, so
// they are already buffered by the time Accept sees the connection.
const pingWindow = 250 * time.Millisecond

// pingFrame is the wire form of a ping: a one-byte frame holding only
// the kindPing tag.
var pingFrame = [...]byte{0, 0, 0, 1, byte(kindPing)}

// Accept blocks until a client connects. Liveness pings from rejected
// binds and connections that closed before sending anything are
// discarded, never returned to the caller.
func (l *Listener) Accept() (*Conn, error) {
	for {
		nc, err := l.ln.Accept()
		if err != nil {
			return nil, fmt.Errorf("accept: %w", err)
		}

		conn := newConn(nc, l.log)
		if l.discard(conn) {
			conn.Close()
			continue
		}
		l.log.Debug("client connected")
		return conn, nil
	}
}

// discard reports whether the fresh connection is a liveness ping or
// already dead. Peeking leaves real client frames unconsumed; a client
// that connected without sending yet surfaces after the ping window.
func (l *Listener) discard(conn *Conn) bool {
	conn.nc.SetReadDeadline(time.Now().Add(pingWindow))
	defer conn.nc.SetReadDeadline(time.Time{})

	head, err := conn.reader.Peek(len(pingFrame))
	if err != nil {
		var ne net.Error
		if errors.As(err, &ne) && ne.Timeout() {
			return false
		}
		l.log.Debug("dropping connection closed before traffic")
		return true
	}
	return bytes.Equal(head, pingFrame[:])
}

// Path returns the bound endpoint path.
func (l *Listener) Path() string {
	return l.path
}

// Close unbinds the endpoint. Active connections are not closed.
func (l *Listener) Close() error {
	return l.ln.Close()
}
