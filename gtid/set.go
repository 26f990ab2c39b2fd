package gtid

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
)

// Set is a mapping uuid -> (tag -> interval-set of closed gno intervals)
// (§3). The zero value is an empty set ready to use.
type Set struct {
	groups map[UUID]map[Tag]intervalSet
}

// NewSet returns an empty GTID set.
func NewSet() *Set {
	return &Set{groups: make(map[UUID]map[Tag]intervalSet)}
}

// Empty reports whether the set has no entries.
func (s *Set) Empty() bool {
	return s == nil || len(s.groups) == 0
}

// AddGTID inserts a single GTID into the set (§8 property 5: idempotent on
// an already-contained gno).
func (s *Set) AddGTID(g GTID) {
	s.AddRange(g.UUID, g.Tag, g.GNO, g.GNO)
}

// AddRange inserts the closed gno range [lo, hi] under (u, tag).
func (s *Set) AddRange(u UUID, tag Tag, lo, hi GNO) {
	if s.groups == nil {
		s.groups = make(map[UUID]map[Tag]intervalSet)
	}
	byTag, ok := s.groups[u]
	if !ok {
		byTag = make(map[Tag]intervalSet)
		s.groups[u] = byTag
	}
	byTag[tag] = byTag[tag].insertRange(lo, hi)
}

// Contains reports whether g is covered by some interval for (g.UUID,
// g.Tag) (§4.4).
func (s *Set) Contains(g GTID) bool {
	if s.Empty() {
		return false
	}
	byTag, ok := s.groups[g.UUID]
	if !ok {
		return false
	}
	return byTag[g.Tag].contains(g.GNO)
}

// ContainsTags reports whether any group carries a non-empty tag; this
// selects the tagged-aware binary encoding (§4.4).
func (s *Set) ContainsTags() bool {
	for _, byTag := range s.groups {
		for tag := range byTag {
			if !tag.Empty() {
				return true
			}
		}
	}
	return false
}

// Union merges other into s in place (§4.4 "+=", §8 property 4:
// commutative/associative in value, never narrows containment).
func (s *Set) Union(other *Set) {
	if other.Empty() {
		return
	}
	if s.groups == nil {
		s.groups = make(map[UUID]map[Tag]intervalSet)
	}
	for u, byTag := range other.groups {
		dst, ok := s.groups[u]
		if !ok {
			dst = make(map[Tag]intervalSet)
			s.groups[u] = dst
		}
		for tag, ivs := range byTag {
			dst[tag] = dst[tag].union(ivs)
		}
	}
}

// Clone returns a deep copy.
func (s *Set) Clone() *Set {
	out := NewSet()
	if s.Empty() {
		return out
	}
	for u, byTag := range s.groups {
		dst := make(map[Tag]intervalSet, len(byTag))
		for tag, ivs := range byTag {
			dst[tag] = ivs.clone()
		}
		out.groups[u] = dst
	}
	return out
}

// Equal compares value equality: same uuids, same tags, same coalesced
// intervals.
func (s *Set) Equal(other *Set) bool {
	if s.Empty() && other.Empty() {
		return true
	}
	if s.Empty() != other.Empty() {
		return false
	}
	if len(s.groups) != len(other.groups) {
		return false
	}
	for u, byTag := range s.groups {
		obyTag, ok := other.groups[u]
		if !ok || len(byTag) != len(obyTag) {
			return false
		}
		for tag, ivs := range byTag {
			oivs, ok := obyTag[tag]
			if !ok || !ivs.equal(oivs) {
				return false
			}
		}
	}
	return true
}

func sortedUUIDs(groups map[UUID]map[Tag]intervalSet) []UUID {
	uuids := make([]UUID, 0, len(groups))
	for u := range groups {
		uuids = append(uuids, u)
	}
	sort.Slice(uuids, func(i, j int) bool { return bytes.Compare(uuids[i][:], uuids[j][:]) < 0 })
	return uuids
}

func sortedTags(byTag map[Tag]intervalSet) []Tag {
	tags := make([]Tag, 0, len(byTag))
	for t := range byTag {
		tags = append(tags, t)
	}
	sort.Slice(tags, func(i, j int) bool {
		if tags[i].Empty() != tags[j].Empty() {
			return tags[i].Empty() // untagged group sorts first
		}
		return tags[i] < tags[j]
	})
	return tags
}

// String renders the canonical textual form (§3, §8 scenarios c/d):
// uuids in order; within a uuid, the untagged group first, then tags in
// order; intervals ascending, "lo" when lo==hi else "lo-hi"; groups
// separated by ", ".
func (s *Set) String() string {
	if s.Empty() {
		return ""
	}
	var parts []string
	for _, u := range sortedUUIDs(s.groups) {
		byTag := s.groups[u]
		var b strings.Builder
		b.WriteString(u.String())
		for _, tag := range sortedTags(byTag) {
			ivs := byTag[tag]
			if len(ivs) == 0 {
				continue
			}
			if !tag.Empty() {
				b.WriteByte(':')
				b.WriteString(string(tag))
			}
			for _, iv := range ivs {
				b.WriteByte(':')
				if iv.Lo == iv.Hi {
					fmt.Fprintf(&b, "%d", iv.Lo)
				} else {
					fmt.Fprintf(&b, "%d-%d", iv.Lo, iv.Hi)
				}
			}
		}
		parts = append(parts, b.String())
	}
	return strings.Join(parts, ", ")
}
