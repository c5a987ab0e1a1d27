package share

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// EncodeDoc serializes doc to its canonical JSON form and returns the bytes
// together with their content digest.
//
// Canonical here means the fixed field order of the Doc struct; every store
// implementation persists exactly these bytes so the digest is stable across
// backends.
func EncodeDoc(doc *Doc) ([]byte, string, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, "", fmt.Errorf("failed to encode share document: %w", err)
	}
	sum := sha256.Sum256(data)
	return data, hex.EncodeToString(sum[:]), nil
}

// DigestBytes returns the content digest of already-serialized document
// bytes, as produced by EncodeDoc.
func DigestBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// DecodeDoc deserializes a share document from its persisted bytes. Unknown
// fields are tolerated for forward compatibility.
func DecodeDoc(data []byte) (*Doc, error) {
	var doc Doc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode share document: %w", err)
	}
	return &doc, nil
}
