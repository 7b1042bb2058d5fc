package frame

import (
	"encoding/binary"
	"errors"
	"io"
	"math"
)

// HeaderLen is the fixed wire header size: total length plus session id.
const HeaderLen uint32 = 8

// MaxWireBody is the largest body the 32-bit total-length field can
// describe.
const MaxWireBody = math.MaxUint32 - HeaderLen

var (
	ErrShortHeader   = errors.New("frame: short fixed header")
	ErrInvalidLength = errors.New("frame: declared length smaller than fixed header")
	ErrBodyTooLarge  = errors.New("frame: body too large")
)

// Msg is one complete wire message: a session id and the UTF-8 text of
// exactly one top-level protocol document.
type Msg struct {
	SessionID uint32
	Body      []byte
}

// New builds a message carrying body under the given session id.
func New(sessionID uint32, body string) Msg {
	return Msg{SessionID: sessionID, Body: []byte(body)}
}

// Limits constrains decode/encode memory use.
type Limits struct {
	MaxBodyBytes uint64
}

func DefaultLimits() Limits {
	return Limits{MaxBodyBytes: 8 * 1024 * 1024}
}

// Encode renders the full message, header and body, as one buffer.
// The body must not exceed MaxWireBody or the length field wraps;
// WriteMsg enforces the bound.
func Encode(m Msg) []byte {
	buf := make([]byte, HeaderLen+uint32(len(m.Body)))
	binary.BigEndian.PutUint32(buf[0:4], HeaderLen+uint32(len(m.Body)))
	binary.BigEndian.PutUint32(buf[4:8], m.SessionID)
	copy(buf[HeaderLen:], m.Body)
	return buf
}

// WriteMsg writes one message to w as a single logical write.
func WriteMsg(w io.Writer, m Msg, limits Limits) error {
	if uint64(len(m.Body)) > limits.MaxBodyBytes || uint64(len(m.Body)) > uint64(MaxWireBody) {
		return ErrBodyTooLarge
	}
	_, err := w.Write(Encode(m))
	return err
}

// ReadMsg blocks until one complete message has been read from r.
func ReadMsg(r io.Reader, limits Limits) (Msg, error) {
	var fixed [HeaderLen]byte
	if _, err := io.ReadFull(r, fixed[:]); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return Msg{}, ErrShortHeader
		}
		return Msg{}, err
	}

	total := binary.BigEndian.Uint32(fixed[0:4])
	if total < HeaderLen {
		return Msg{}, ErrInvalidLength
	}
	bodyLen := total - HeaderLen
	if uint64(bodyLen) > limits.MaxBodyBytes {
		return Msg{}, ErrBodyTooLarge
	}

	body := make([]byte, bodyLen)
	if bodyLen > 0 {
		if _, err := io.ReadFull(r, body); err != nil {
			return Msg{}, err
		}
	}

	return Msg{SessionID: binary.BigEndian.Uint32(fixed[4:8]), Body: body}, nil
}
