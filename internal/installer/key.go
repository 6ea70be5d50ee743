package installer

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/openpgp"
	"golang.org/x/crypto/openpgp/armor"
	pgperrors "golang.org/x/crypto/openpgp/errors"
	"golang.org/x/crypto/openpgp/packet"
)

// ErrInvalidKey means a downloaded signing key is not an OpenPGP public key,
// e.g. a captive-portal page or a truncated transfer.
var ErrInvalidKey = errors.New("downloaded signing key is not a valid OpenPGP public key")

// publicKeyTag is the OpenPGP packet tag of a public key (RFC 4880, section 4.3).
const publicKeyTag = 6

// ValidatePublicKey checks that data holds an OpenPGP public key, either ASCII-armored
// or binary. It reports whether the key was armored so the caller knows whether it
// still needs dearmoring. A public-key packet using a version or algorithm this parser
// does not implement is still accepted; any other packet is not.
func ValidatePublicKey(data []byte) (armored bool, err error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return false, fmt.Errorf("%w: empty download", ErrInvalidKey)
	}

	// Unwrap the ASCII armor when there is one; otherwise treat data as binary packets
	var body io.Reader = bytes.NewReader(data)
	if block, derr := armor.Decode(bytes.NewReader(data)); derr == nil {
		if block.Type != openpgp.PublicKeyType {
			return true, fmt.Errorf("%w: armored block is %q", ErrInvalidKey, block.Type)
		}
		body = block.Body
		armored = true
	}

	raw, err := io.ReadAll(body)
	if err != nil {
		return armored, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	if len(raw) == 0 {
		return armored, fmt.Errorf("%w: no packets", ErrInvalidKey)
	}

	// The first packet must be a public key, whatever the parser makes of its contents
	tag, ok := packetTag(raw[0])
	if !ok {
		return armored, fmt.Errorf("%w: not an OpenPGP packet", ErrInvalidKey)
	}
	if tag != publicKeyTag {
		return armored, fmt.Errorf("%w: first packet has tag %d", ErrInvalidKey, tag)
	}

	p, err := packet.NewReader(bytes.NewReader(raw)).Next()
	if err != nil {
		var unsupported pgperrors.UnsupportedError
		if errors.As(err, &unsupported) {
			return armored, nil
		}
		return armored, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	if _, ok := p.(*packet.PublicKey); !ok {
		if _, v3 := p.(*packet.PublicKeyV3); !v3 {
			return armored, fmt.Errorf("%w: first packet is %T", ErrInvalidKey, p)
		}
	}
	return armored, nil
}

// packetTag decodes the tag from a packet header byte, in either the old or the new format.
func packetTag(header byte) (int, bool) {
	if header&0x80 == 0 {
		return 0, false
	}
	if header&0x40 == 0 {
		return int(header&0x3f) >> 2, true
	}
	return int(header & 0x3f), true
}
