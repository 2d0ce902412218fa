package imc

import (
	"time"

	"github.com/rs/zerolog"

	"imcmotor/host/serial"
	"imcmotor/protocol"
)

// LineTransport is the serial collaborator; *serial.LineTransport implements it
type LineTransport interface {
	WriteRead(cmd []byte, timeout time.Duration) ([]byte, serial.EOMReason, error)
	Write(cmd []byte) error
}

// Channel performs single request/response exchanges with the controller
type Channel struct {
	transport LineTransport
	log       zerolog.Logger
}

// NewChannel creates a channel over transport
func NewChannel(transport LineTransport, logger zerolog.Logger) *Channel {
	return &Channel{
		transport: transport,
		log:       logger,
	}
}

// Transact sends cmd, waits up to timeout for the reply and returns the
// unwrapped payload. Transport errors are returned as they are.
func (ch *Channel) Transact(cmd string, timeout time.Duration) (string, error) {
	raw, eom, err := ch.transport.WriteRead([]byte(cmd), timeout)
	if err != nil {
		return "", err
	}

	payload, branch := protocol.UnwrapWithBranch(string(raw))
	if branch == protocol.UnwrapPassThrough {
		// No known layout for these, left untrimmed
		ch.log.Warn().Str("cmd", cmd).Str("raw", string(raw)).Msg("response too long to unwrap, passing through")
	}

	ch.log.Trace().
		Str("cmd", cmd).
		Str("raw", string(raw)).
		Str("payload", payload).
		Stringer("eom", eom).
		Stringer("unwrap", branch).
		Msg("transaction")

	return payload, nil
}

// Send writes cmd without reading. Used for motion commands, whose reply
// only arrives once the move is over.
func (ch *Channel) Send(cmd string) error {
	ch.log.Trace().Str("cmd", cmd).Msg("send")
	return ch.transport.Write([]byte(cmd))
}
