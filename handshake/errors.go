package handshake

import "errors"

var (
	ErrHandshakeTimeout = errors.New("authentication timed out")
	ErrHandshakeBind    = errors.New("could not start local callback listener")
	ErrDeliveryClosed   = errors.New("authentication was interrupted before a credential arrived")
)
