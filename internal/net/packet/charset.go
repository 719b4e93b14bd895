package packet

import (
	"fmt"
	"sync/atomic"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
)

var charset atomic.Pointer[encoding.Encoding]

// SetCharset selects the client text encoding for WriteS and ReadS by its
// WHATWG name ("utf-8", "big5", "windows-1252", ...). Call it once at
// startup before any map goroutine builds packets.
func SetCharset(name string) error {
	enc, err := htmlindex.Get(name)
	if err != nil {
		return fmt.Errorf("client charset %q: %w", name, err)
	}
	charset.Store(&enc)
	return nil
}

func currentCharset() encoding.Encoding {
	if enc := charset.Load(); enc != nil {
		return *enc
	}
	return unicode.UTF8
}

func encodeText(s string) []byte {
	encoded, err := currentCharset().NewEncoder().Bytes([]byte(s))
	if err != nil {
		// unmappable runes: send the raw bytes, correct for ASCII
		return []byte(s)
	}
	return encoded
}

func decodeText(raw []byte) string {
	if len(raw) == 0 {
		return ""
	}
	allASCII := true
	for _, b := range raw {
		if b >= 0x80 {
			allASCII = false
			break
		}
	}
	if allASCII {
		return string(raw)
	}
	decoded, err := currentCharset().NewDecoder().Bytes(raw)
	if err != nil {
		return string(raw)
	}
	return string(decoded)
}
