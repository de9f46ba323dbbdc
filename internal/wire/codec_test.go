package wire

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"riskgate/internal/message"
)

func TestMessageRoundTrip(t *testing.T) {
	attrs := message.Attrs{
		{Key: "Order"},
		{Key: "order_id", Value: "42"},
		{Key: "price", Value: "100.5"},
		{Key: "note", Value: ""},
	}

	buf := AppendMessage(nil, attrs)
	require.Equal(t, byte(NUL), buf[len(buf)-1])

	got := ParseAttrs(buf[:len(buf)-1], SOH)
	assert.Equal(t, attrs, got)
}

func TestRecordRoundTrip(t *testing.T) {
	attrs := message.Attrs{
		{Key: "Trade"},
		{Key: "trade_id", Value: "T1"},
		{Key: "side", Value: "B"},
		{Key: "time", Value: "2024-03-01 10:00:00.000"},
	}

	line := AppendRecord(nil, attrs)
	require.True(t, strings.HasSuffix(string(line), "\n"))

	got := ParseRecord(strings.TrimSuffix(string(line), "\n"))
	assert.Equal(t, attrs, got)
}

func TestParseAttrsKeylessAndEmptyChunks(t *testing.T) {
	got := ParseAttrs([]byte("Quote\x01symbol=X\x01\x01price=1\x01"), SOH)
	assert.Equal(t, message.Attrs{
		{Key: "Quote"},
		{Key: "symbol", Value: "X"},
		{Key: "price", Value: "1"},
	}, got)
}

func TestParseRecordTolerant(t *testing.T) {
	assert.Nil(t, ParseRecord(""))

	got := ParseRecord("Quote|symbol=X|price=100|time=2024-03-01 10:00:00.000\r")
	require.Len(t, got, 4)
	assert.Equal(t, "Quote", got[0].Key)
}
