package config

import (
	"crypto/rand"
	"encoding/hex"
)

var ephemeralSigningKey = func() string {
	b := make([]byte, 32)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}()
