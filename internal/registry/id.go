package registry

import (
	"regexp"
)

// IDPattern is the required shape of every entity ID:
// an optional namespace ending in "/", a name, "-v" and a version number.
const IDPattern = `^(?:[\w:-]+/)?([\w:.-]+)-v(\d+)$`

var idRe = regexp.MustCompile(IDPattern)

// ID is a parsed entity ID.
type ID struct {
	Namespace string
	Name      string
	// Version is the digit string after "-v", kept as written so that
	// versions of any length parse.
	Version string
}

// ParseID validates id against IDPattern and splits it into its parts.
func ParseID(id string) (ID, error) {
	m := idRe.FindStringSubmatch(id)
	if m == nil {
		return ID{}, newMalformedIDError(id)
	}
	var ns string
	if prefix := len(id) - len(m[1]) - len("-v") - len(m[2]); prefix > 0 {
		ns = id[:prefix-1]
	}
	return ID{Namespace: ns, Name: m[1], Version: m[2]}, nil
}
