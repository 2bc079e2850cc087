package tablelink

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildAndParseRoundTrip(t *testing.T) {
	link, err := Build("https://order.example.com/", Link{RestaurantID: 3, TableNumber: 12, SessionID: "abc"})
	require.NoError(t, err)
	require.Equal(t, "https://order.example.com/menu?restaurant=3&session=abc&table=12", link)

	parsed, err := Parse(link)
	require.NoError(t, err)
	require.Equal(t, Link{RestaurantID: 3, TableNumber: 12, SessionID: "abc"}, parsed)
	require.True(t, parsed.HasTable())
}

func TestParseBareQuery(t *testing.T) {
	parsed, err := Parse("?session=s-1")
	require.NoError(t, err)
	require.Equal(t, "s-1", parsed.SessionID)
	require.False(t, parsed.HasTable())

	empty, err := Parse("")
	require.NoError(t, err)
	require.True(t, empty.IsEmpty())
}

func TestParseRejectsBadNumbers(t *testing.T) {
	_, err := Parse("table=zero&restaurant=1")
	require.Error(t, err)
	_, err = Parse("table=0&restaurant=1")
	require.Error(t, err)
	_, err = Parse("table=2&restaurant=-4")
	require.Error(t, err)
}

func TestBuildRequiresTable(t *testing.T) {
	_, err := Build("https://order.example.com", Link{RestaurantID: 1})
	require.Error(t, err)
}

func TestQRCodeIsPNG(t *testing.T) {
	png, err := QRCode("https://order.example.com", Link{RestaurantID: 1, TableNumber: 4}, 0)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(png, []byte("\x89PNG")))
}
