package gtid

import (
	"github.com/gongzhxu/binsrv/byteio"
	"github.com/pingcap/errors"
)

// taggedFormFlag is OR'd into the leading group-count word to select the
// tagged-aware binary form on decode, mirroring the real server's use of a
// high bit in its sid-count field to flag a tagged-SID map. The exact
// discriminator layout is treated as opaque by spec.md §4.4; only
// Decode(Encode(s)) == s is required.
const taggedFormFlag = uint64(1) << 63

// Encode renders the canonical on-disk form: the untagged (backward
// compatible) form when no group carries a tag, otherwise the
// tagged-aware form (§4.4).
func (s *Set) Encode() []byte {
	if s.ContainsTags() {
		return s.encodeTagged()
	}
	return s.encodeUntagged()
}

func (s *Set) encodeUntagged() []byte {
	uuids := sortedUUIDs(s.groups)
	dst := byteio.AppendUint64(nil, uint64(len(uuids)))
	for _, u := range uuids {
		ivs := s.groups[u][""]
		dst = append(dst, u.Bytes()...)
		dst = byteio.AppendUint64(dst, uint64(len(ivs)))
		for _, iv := range ivs {
			dst = byteio.AppendUint64(dst, uint64(iv.Lo))
			dst = byteio.AppendUint64(dst, uint64(iv.Hi+1))
		}
	}
	return dst
}

type taggedGroup struct {
	uuid UUID
	tag  Tag
	ivs  intervalSet
}

func (s *Set) taggedGroups() []taggedGroup {
	var groups []taggedGroup
	for _, u := range sortedUUIDs(s.groups) {
		byTag := s.groups[u]
		for _, tag := range sortedTags(byTag) {
			groups = append(groups, taggedGroup{uuid: u, tag: tag, ivs: byTag[tag]})
		}
	}
	return groups
}

func (s *Set) encodeTagged() []byte {
	groups := s.taggedGroups()
	dst := byteio.AppendUint64(nil, uint64(len(groups))|taggedFormFlag)
	for _, g := range groups {
		dst = append(dst, g.uuid.Bytes()...)
		dst = byteio.WritePackedInt(dst, uint64(len(g.tag)))
		dst = append(dst, []byte(g.tag)...)
		dst = byteio.AppendUint64(dst, uint64(len(g.ivs)))
		for _, iv := range g.ivs {
			dst = byteio.AppendUint64(dst, uint64(iv.Lo))
			dst = byteio.AppendUint64(dst, uint64(iv.Hi+1))
		}
	}
	return dst
}

// CalculateEncodedSize returns len(s.Encode()) without allocating the
// buffer twice.
func (s *Set) CalculateEncodedSize() int {
	return len(s.Encode())
}

// DecodeSet parses the canonical on-disk form, selecting untagged vs.
// tagged-aware based on the leading count word's high bit.
func DecodeSet(data []byte) (*Set, []byte, error) {
	count, rest, err := byteio.ReadUint(data, 8)
	if err != nil {
		return nil, data, errors.Annotate(err, "gtid: set group count")
	}

	s := NewSet()
	if count&taggedFormFlag != 0 {
		n := count &^ taggedFormFlag
		for i := uint64(0); i < n; i++ {
			var u UUID
			var uuidBytes []byte
			uuidBytes, rest, err = byteio.CopyFixed(rest, 16)
			if err != nil {
				return nil, data, errors.Annotatef(err, "gtid: set tagged group %d uuid", i)
			}
			u, err = UUIDFromBytes(uuidBytes)
			if err != nil {
				return nil, data, err
			}

			var tagLen uint64
			tagLen, rest, err = byteio.ReadPackedInt(rest)
			if err != nil {
				return nil, data, errors.Annotatef(err, "gtid: set tagged group %d tag length", i)
			}
			var tagBytes []byte
			tagBytes, rest, err = byteio.CopyFixed(rest, int(tagLen))
			if err != nil {
				return nil, data, errors.Annotatef(err, "gtid: set tagged group %d tag", i)
			}
			tag, err := ParseTag(string(tagBytes))
			if err != nil {
				return nil, data, err
			}

			var nIntervals uint64
			nIntervals, rest, err = byteio.ReadUint(rest, 8)
			if err != nil {
				return nil, data, errors.Annotatef(err, "gtid: set tagged group %d interval count", i)
			}
			for j := uint64(0); j < nIntervals; j++ {
				var lo, hiExclusive uint64
				lo, rest, err = byteio.ReadUint(rest, 8)
				if err != nil {
					return nil, data, err
				}
				hiExclusive, rest, err = byteio.ReadUint(rest, 8)
				if err != nil {
					return nil, data, err
				}
				s.AddRange(u, tag, GNO(lo), GNO(hiExclusive)-1)
			}
		}
		return s, rest, nil
	}

	for i := uint64(0); i < count; i++ {
		var uuidBytes []byte
		uuidBytes, rest, err = byteio.CopyFixed(rest, 16)
		if err != nil {
			return nil, data, errors.Annotatef(err, "gtid: set untagged uuid %d", i)
		}
		u, err := UUIDFromBytes(uuidBytes)
		if err != nil {
			return nil, data, err
		}

		var nIntervals uint64
		nIntervals, rest, err = byteio.ReadUint(rest, 8)
		if err != nil {
			return nil, data, errors.Annotatef(err, "gtid: set untagged uuid %d interval count", i)
		}
		for j := uint64(0); j < nIntervals; j++ {
			var lo, hiExclusive uint64
			lo, rest, err = byteio.ReadUint(rest, 8)
			if err != nil {
				return nil, data, err
			}
			hiExclusive, rest, err = byteio.ReadUint(rest, 8)
			if err != nil {
				return nil, data, err
			}
			s.AddRange(u, "", GNO(lo), GNO(hiExclusive)-1)
		}
	}
	return s, rest, nil
}
