package image

import (
	"errors"
	"sync"
)

var ErrNoEmbedded = errors.New("no embedded image registered")

var (
	embeddedMu     sync.RWMutex
	embeddedBundle []byte
)

// RegisterEmbedded records the bundle linked into the executable. It is
// called from the init function generated by WriteEmbedStub. The last
// registration wins.
func RegisterEmbedded(bundle []byte) {
	embeddedMu.Lock()
	embeddedBundle = bundle
	embeddedMu.Unlock()
}

// Embedded decodes the registered bundle.
func Embedded() (*Bundle, error) {
	embeddedMu.RLock()
	data := embeddedBundle
	embeddedMu.RUnlock()
	if data == nil {
		return nil, ErrNoEmbedded
	}
	return DecodeBundle(data)
}
