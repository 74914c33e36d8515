package blockreader

import (
	"fmt"
	"sync"

	"github.com/go-vrs/vrs/recordformat"
)

// Decoder turns a compressed image or audio block's raw bytes into
// decoded samples/pixels. Implementations are registered per codec
// name (e.g. "h264", "opus") so this package never links against any
// particular codec library directly.
type Decoder interface {
	Decode(spec map[string]string, data []byte) ([]byte, error)
}

// DecoderFactory constructs a Decoder, given the content block it will
// be asked to decode (so a factory can specialize by pixel format,
// sample rate, etc).
type DecoderFactory func(block recordformat.ContentBlock) (Decoder, error)

var (
	decoderMu       sync.Mutex
	decoderFactories = map[string]DecoderFactory{}
)

// RegisterDecoder installs factory under codec name, overwriting any
// previously registered factory for that name.
func RegisterDecoder(codec string, factory DecoderFactory) {
	decoderMu.Lock()
	defer decoderMu.Unlock()
	decoderFactories[codec] = factory
}

// NewDecoder looks up the registered factory for block's codec and
// constructs a Decoder from it.
func NewDecoder(block recordformat.ContentBlock) (Decoder, error) {
	codec := block.Spec["codec"]
	decoderMu.Lock()
	factory, ok := decoderFactories[codec]
	decoderMu.Unlock()
	if !ok {
		return nil, fmt.Errorf("blockreader: no decoder registered for codec %q", codec)
	}
	return factory(block)
}
