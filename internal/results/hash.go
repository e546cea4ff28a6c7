package results

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"golang.org/x/text/unicode/norm"
)

// DomainRow separates row digests from any other hash the store may compute.
const DomainRow = "gauntlet/row/v1"

func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// RowHash returns a content digest of the row's canonical JSON with keys
// and string cells NFC-normalized. Two rows with the same non-null cells
// hash identically, whichever Unicode form their text uses.
func RowHash(r Row) (string, error) {
	canonical, err := MarshalCanonical(nfc(r))
	if err != nil {
		return "", fmt.Errorf("RowHash: %w", err)
	}
	return hashWithDomain(DomainRow, canonical), nil
}

func nfc(r Row) Row {
	out := make(Row, len(r))
	for k, v := range r {
		if s, ok := v.(String); ok {
			v = String(norm.NFC.String(string(s)))
		}
		out[norm.NFC.String(k)] = v
	}
	return out
}
