package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseSizeUnitSuffixes(t *testing.T) {
	cases := map[string]SizeUnit{
		"0":   0,
		"5":   5,
		"1_":  1,
		"1K":  1 << 10,
		"2M":  2 << 20,
		"3G":  3 << 30,
		"1T":  1 << 40,
		"1P":  1 << 50,
	}
	for s, want := range cases {
		got, err := ParseSizeUnit(s)
		require.NoError(t, err, s)
		require.Equal(t, want, got, s)
	}
}

func TestParseSizeUnitOverflow(t *testing.T) {
	_, err := ParseSizeUnit("18446744073709551615P")
	require.Error(t, err)
}

func TestParseSizeUnitInvalid(t *testing.T) {
	_, err := ParseSizeUnit("")
	require.Error(t, err)
	_, err = ParseSizeUnit("abc")
	require.Error(t, err)
}

func TestSizeUnitUnmarshalJSON(t *testing.T) {
	var u SizeUnit
	require.NoError(t, u.UnmarshalJSON([]byte(`"4K"`)))
	require.Equal(t, SizeUnit(4<<10), u)

	var u2 SizeUnit
	require.NoError(t, u2.UnmarshalJSON([]byte(`1024`)))
	require.Equal(t, SizeUnit(1024), u2)
}

func TestParseTimeUnitSuffixes(t *testing.T) {
	cases := map[string]TimeUnit{
		"0":  0,
		"30": 30,
		"5s": 5,
		"2m": 120,
		"1h": 3600,
		"2d": 172800,
		"1w": 604800,
	}
	for s, want := range cases {
		got, err := ParseTimeUnit(s)
		require.NoError(t, err, s)
		require.Equal(t, want, got, s)
	}
}

func TestTimeUnitUnmarshalJSON(t *testing.T) {
	var u TimeUnit
	require.NoError(t, u.UnmarshalJSON([]byte(`"2h"`)))
	require.Equal(t, TimeUnit(7200), u)
}
