package metadata

import (
	"bytes"
	"encoding/base32"
	"encoding/hex"
	"fmt"
	"strings"
)

// hexCIDPrefix is the multibase/multicodec prefix of a hex-encoded CIDv1:
// multibase "f" (base16), version 0x01, dag-pb 0x70, sha2-256 0x12, length
// 0x20. Everything after it is the raw 32-byte digest.
const hexCIDPrefix = "f01701220"

// cidPrefix is the binary header the hex form encodes.
var cidPrefix = []byte{0x01, 0x70, 0x12, 0x20}

var base32CID = base32.StdEncoding.WithPadding(base32.NoPadding)

// EncodeHexCID renders a sha2-256 digest as the hex CIDv1 identifier used
// on chain.
func EncodeHexCID(digest [32]byte) string {
	return hexCIDPrefix + hex.EncodeToString(digest[:])
}

// DecodeHexCID extracts the raw digest from a hex CIDv1 identifier.
func DecodeHexCID(s string) ([32]byte, error) {
	var digest [32]byte
	if !strings.HasPrefix(s, hexCIDPrefix) {
		return digest, fmt.Errorf("content identifier %q does not carry the %s prefix", s, hexCIDPrefix)
	}
	raw, err := hex.DecodeString(strings.TrimPrefix(s, hexCIDPrefix))
	if err != nil {
		return digest, fmt.Errorf("content identifier %q is not valid hex: %w", s, err)
	}
	if len(raw) != 32 {
		return digest, fmt.Errorf("content identifier %q carries a %d-byte digest, want 32", s, len(raw))
	}
	copy(digest[:], raw)
	return digest, nil
}

// ContentDigest extracts the sha2-256 digest from a content identifier in
// either its hex ("f01701220...") or base32 ("bafybei...") CIDv1 form.
func ContentDigest(cid string) ([32]byte, error) {
	var digest [32]byte
	switch {
	case strings.HasPrefix(cid, "f"):
		return DecodeHexCID(cid)
	case strings.HasPrefix(cid, "b"):
		raw, err := base32CID.DecodeString(strings.ToUpper(cid[1:]))
		if err != nil {
			return digest, fmt.Errorf("content identifier %q is not valid base32: %w", cid, err)
		}
		if !bytes.HasPrefix(raw, cidPrefix) || len(raw) != len(cidPrefix)+32 {
			return digest, fmt.Errorf("content identifier %q is not a sha2-256 dag-pb CIDv1", cid)
		}
		copy(digest[:], raw[len(cidPrefix):])
		return digest, nil
	default:
		return digest, fmt.Errorf("content identifier %q has an unsupported multibase prefix", cid)
	}
}
