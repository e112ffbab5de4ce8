package cache

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"hash"

	"github.com/soundprediction/go-geoai/pkg/frame"
	"github.com/soundprediction/go-geoai/pkg/types"
)

// AutoKind stands in for the kind label when the caller lets the model decide.
const AutoKind = "AUTO"

// KindLabel returns the label Fingerprint should use for an optional declared kind.
func KindLabel(kind *types.ResultKind) string {
	if kind == nil {
		return AutoKind
	}
	return kind.Label()
}

// Fingerprint derives a cache key from everything that determines a result:
// the prompt, the declared kind label and the full content of every dataset,
// in order.
func Fingerprint(prompt, kindLabel string, datasets ...frame.Dataset) (string, error) {
	h := sha256.New()
	writeField(h, []byte(prompt))
	writeField(h, []byte(kindLabel))
	for i, ds := range datasets {
		data, err := json.Marshal(ds)
		if err != nil {
			return "", fmt.Errorf("fingerprint dataset %d: %w", i+1, err)
		}
		writeField(h, []byte(fmt.Sprintf("%T", ds)))
		writeField(h, data)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// writeField length-prefixes data so adjacent fields cannot run together.
func writeField(h hash.Hash, data []byte) {
	var n [8]byte
	binary.BigEndian.PutUint64(n[:], uint64(len(data)))
	h.Write(n[:])
	h.Write(data)
}
