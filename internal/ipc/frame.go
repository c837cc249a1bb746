package ipc

import (
	"encoding/binary"
	"fmt"
	"io"
)

// maxFrameSize bounds a single frame (tag + payload). Large enough for
// any profile list, small enough to reject a corrupted length prefix.
const maxFrameSize = 1 << 20

// writeFrame writes one frame: a 4-byte big-endian length covering the
// tag byte and payload, then the tag, then the payload. The caller
// serializes concurrent writers.
func writeFrame(w io.Writer, kind Kind, payload []byte) error {
	if len(payload)+1 > maxFrameSize {
		return fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, len(payload)+1)
	}

	buf := make([]byte, 4+1+len(payload))
	binary.BigEndian.PutUint32(buf[:4], uint32(len(payload)+1))
	buf[4] = byte(kind)
	copy(buf[5:], payload)

	// One Write call so a send never interleaves partial frames.
	_, err := w.Write(buf)
	return err
}

// readFrame reads one frame and returns its tag and payload.
func readFrame(r io.Reader) (Kind, []byte, error) {
	var head [4]byte
	if _, err := io.ReadFull(r, head[:]); err != nil {
		return 0, nil, err
	}

	size := binary.BigEndian.Uint32(head[:])
	if size == 0 {
		return 0, nil, fmt.Errorf("frame with zero length")
	}
	if size > maxFrameSize {
		return 0, nil, fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, size)
	}

	body := make([]byte, size)
	if _, err := io.ReadFull(r, body); err != nil {
		return 0, nil, err
	}
	return Kind(body[0]), body[1:], nil
}
