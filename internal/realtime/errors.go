package realtime

import "errors"

var (
	// ErrJoinFailure means the connection could not be registered with the
	// channel layer. The handshake is refused and never retried here.
	ErrJoinFailure = errors.New("realtime: join failed")
	// ErrMalformedMessage is an inbound frame that is not a JSON object with a
	// string "message" field. The frame is dropped and the connection stays open.
	ErrMalformedMessage = errors.New("realtime: malformed message")
	// ErrPersistence wraps group or message storage failures.
	ErrPersistence = errors.New("realtime: persistence failed")
	// ErrDelivery is a failed enqueue towards a single handle.
	ErrDelivery = errors.New("realtime: delivery failed")
)
