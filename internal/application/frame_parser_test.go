package application

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFrame(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		payload string
		ok      bool
		want    ParsedFrame
	}{
		{
			name:    "special jackpot value",
			payload: `42["message",{"content":{"type":"jackpot_value","value":10010}}]`,
			ok:      true,
			want:    ParsedFrame{Type: FrameJackpotValue, Value: 10010, RawValue: "10010"},
		},
		{
			name:    "formatted string value with namespace and ack id",
			payload: `42/event,17["message",{"content":{"type":"jackpot_value","value":"12,345"}}]`,
			ok:      true,
			want:    ParsedFrame{Type: FrameJackpotValue, Value: 12345, RawValue: "12,345"},
		},
		{
			name:    "mini jackpot value",
			payload: `42["message",{"content":{"type":"mini_jackpot_value","value":800}}]`,
			ok:      true,
			want:    ParsedFrame{Type: FrameMiniJackpotValue, Value: 800, RawValue: "800"},
		},
		{
			name:    "jackpot win with nickname",
			payload: `42["message",{"content":{"type":"jackpot","value":"10.500","nickname":"Bao"}}]`,
			ok:      true,
			want:    ParsedFrame{Type: FrameJackpotWin, Value: 10500, RawValue: "10.500", Nickname: "Bao"},
		},
		{
			name:    "mini jackpot win with prize text",
			payload: `42["message",{"content":{"type":"mini_jackpot","value":"Gold Card","nickname":"An"}}]`,
			ok:      true,
			want:    ParsedFrame{Type: FrameMiniJackpotWin, RawValue: "Gold Card", Nickname: "An"},
		},
		{
			name:    "payload sequence",
			payload: `42["message",{"seq":42,"content":{"type":"jackpot_value","value":1}}]`,
			ok:      true,
			want:    ParsedFrame{Type: FrameJackpotValue, Value: 1, RawValue: "1", Sequence: 42, HasSequence: true},
		},
		{name: "engine.io ping", payload: "2"},
		{name: "connect packet", payload: `40{"sid":"abc"}`},
		{name: "unknown type", payload: `42["message",{"content":{"type":"chat","value":"hi"}}]`},
		{name: "missing content", payload: `42["message",{"type":"jackpot_value","value":1}]`},
		{name: "non numeric value", payload: `42["message",{"content":{"type":"jackpot_value","value":"soon"}}]`},
		{name: "negative value", payload: `42["message",{"content":{"type":"jackpot_value","value":-5}}]`},
		{name: "truncated json", payload: `42["message",{"content":{"type":"jackpot_value"`},
		{name: "single element", payload: `42["message"]`},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, ok := ParseFrame(tt.payload)
			require.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}
