package gtid

import "github.com/pingcap/errors"

// MaxTagLength is the longest allowed tag name (§3).
const MaxTagLength = 32

// Tag is a GTID's optional replication-domain label. The empty tag is
// always valid; a non-empty tag must match [A-Za-z_][A-Za-z0-9_]{0,31}
// (§8 property 6).
type Tag string

// ParseTag validates s against the tag grammar.
func ParseTag(s string) (Tag, error) {
	if s == "" {
		return "", nil
	}
	if len(s) > MaxTagLength {
		return "", errors.Errorf("gtid: tag %q longer than %d bytes", s, MaxTagLength)
	}
	if !isTagStart(s[0]) {
		return "", errors.Errorf("gtid: tag %q must start with [A-Za-z_]", s)
	}
	for i := 1; i < len(s); i++ {
		if !isTagContinuation(s[i]) {
			return "", errors.Errorf("gtid: tag %q has invalid character at %d", s, i)
		}
	}
	return Tag(s), nil
}

func isTagStart(c byte) bool {
	return c == '_' || (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}

func isTagContinuation(c byte) bool {
	return isTagStart(c) || (c >= '0' && c <= '9')
}

// Empty reports whether the tag carries no name.
func (t Tag) Empty() bool { return t == "" }
