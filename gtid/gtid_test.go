package gtid

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTagGrammar(t *testing.T) {
	ok := []string{"", "_", "a", "_0"}
	for _, s := range ok {
		_, err := ParseTag(s)
		require.NoError(t, err, s)
	}

	bad := []string{"$", "0a", repeatA(33)}
	for _, s := range bad {
		_, err := ParseTag(s)
		require.Error(t, err, s)
	}
}

func repeatA(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = 'a'
	}
	return string(b)
}

func TestUUIDParsingForms(t *testing.T) {
	hyphenated := "f0e1d2c3-b4a5-9687-7869-5a4b3c2d1e0f"
	u1, err := ParseUUID(hyphenated)
	require.NoError(t, err)
	require.Equal(t, hyphenated, u1.String())

	plain := "f0e1d2c3b4a5968778695a4b3c2d1e0f"
	u2, err := ParseUUID(plain)
	require.NoError(t, err)
	require.Equal(t, u1, u2)

	braced := "{" + hyphenated + "}"
	u3, err := ParseUUID(braced)
	require.NoError(t, err)
	require.Equal(t, u1, u3)

	for _, bad := range []string{"too-short", hyphenated + "x", "{" + hyphenated, hyphenated[:35] + "g"} {
		_, err := ParseUUID(bad)
		require.Error(t, err, bad)
	}
}

func TestGTIDString(t *testing.T) {
	u, err := ParseUUID("f0e1d2c3-b4a5-9687-7869-5a4b3c2d1e0f")
	require.NoError(t, err)
	g, err := New(u, "", 42)
	require.NoError(t, err)
	require.Equal(t, "f0e1d2c3-b4a5-9687-7869-5a4b3c2d1e0f:42", g.String())

	var zero GTID
	require.Equal(t, "00000000-0000-0000-0000-000000000000:0", zero.String())
}

func mustUUID(t *testing.T, s string) UUID {
	t.Helper()
	u, err := ParseUUID(s)
	require.NoError(t, err)
	return u
}

func TestSetRenderUntagged(t *testing.T) {
	s := NewSet()
	u1 := mustUUID(t, "11111111-1111-1111-1111-111111111111")
	u2 := mustUUID(t, "22222222-2222-2222-2222-222222222222")
	for _, g := range []GNO{1, 2, 3, 5} {
		s.AddGTID(GTID{UUID: u1, GNO: g})
	}
	for _, g := range []GNO{11, 12, 13, 15} {
		s.AddGTID(GTID{UUID: u2, GNO: g})
	}
	require.Equal(t,
		"11111111-1111-1111-1111-111111111111:1-3:5, 22222222-2222-2222-2222-222222222222:11-13:15",
		s.String())
}

func TestSetRenderTagged(t *testing.T) {
	s := NewSet()
	u1 := mustUUID(t, "11111111-1111-1111-1111-111111111111")
	alpha, err := ParseTag("alpha")
	require.NoError(t, err)
	for _, g := range []GNO{111, 112, 113, 115} {
		s.AddGTID(GTID{UUID: u1, Tag: alpha, GNO: g})
	}
	require.Equal(t, "11111111-1111-1111-1111-111111111111:alpha:111-113:115", s.String())
}

func TestIntervalCoalescing(t *testing.T) {
	s := NewSet()
	u := mustUUID(t, "11111111-1111-1111-1111-111111111111")
	for _, g := range []GNO{5, 1, 3, 2, 4, 10} {
		s.AddGTID(GTID{UUID: u, GNO: g})
	}
	require.Equal(t, "11111111-1111-1111-1111-111111111111:1-5:10", s.String())

	before := s.String()
	s.AddGTID(GTID{UUID: u, GNO: 3})
	require.Equal(t, before, s.String(), "re-adding a contained gno is a no-op")
}

func TestSetRoundTripUntagged(t *testing.T) {
	s := NewSet()
	u := mustUUID(t, "11111111-1111-1111-1111-111111111111")
	for _, g := range []GNO{1, 2, 3, 5, 100} {
		s.AddGTID(GTID{UUID: u, GNO: g})
	}
	encoded := s.Encode()
	decoded, rest, err := DecodeSet(encoded)
	require.NoError(t, err)
	require.Empty(t, rest)
	require.True(t, s.Equal(decoded))
}

func TestSetRoundTripTagged(t *testing.T) {
	s := NewSet()
	u1 := mustUUID(t, "11111111-1111-1111-1111-111111111111")
	u2 := mustUUID(t, "22222222-2222-2222-2222-222222222222")
	alpha, _ := ParseTag("alpha")
	s.AddGTID(GTID{UUID: u1, GNO: 1})
	s.AddGTID(GTID{UUID: u1, Tag: alpha, GNO: 5})
	s.AddGTID(GTID{UUID: u2, GNO: 7})

	require.True(t, s.ContainsTags())
	encoded := s.Encode()
	decoded, rest, err := DecodeSet(encoded)
	require.NoError(t, err)
	require.Empty(t, rest)
	require.True(t, s.Equal(decoded))
}

func TestSetUnion(t *testing.T) {
	u := mustUUID(t, "11111111-1111-1111-1111-111111111111")
	a := NewSet()
	a.AddGTID(GTID{UUID: u, GNO: 1})
	b := NewSet()
	b.AddGTID(GTID{UUID: u, GNO: 2})

	ab := a.Clone()
	ab.Union(b)
	ba := b.Clone()
	ba.Union(a)
	require.True(t, ab.Equal(ba), "union must be commutative in value")

	require.True(t, ab.Contains(GTID{UUID: u, GNO: 1}))
	require.True(t, ab.Contains(GTID{UUID: u, GNO: 2}))
}
