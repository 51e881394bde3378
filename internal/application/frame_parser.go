package application

import (
	"strings"

	"github.com/bnema/fconline-autospin/internal/domain"
	"github.com/tidwall/gjson"
)

type FrameType string

const (
	FrameJackpotValue     FrameType = "jackpot_value"
	FrameMiniJackpotValue FrameType = "mini_jackpot_value"
	FrameJackpotWin       FrameType = "jackpot"
	FrameMiniJackpotWin   FrameType = "mini_jackpot"
)

// ParsedFrame is a push-channel frame that matched a known jackpot shape.
type ParsedFrame struct {
	Type     FrameType
	Value    int64
	RawValue string
	Nickname string
	// Sequence is set when the payload carries its own ordering.
	Sequence    uint64
	HasSequence bool
}

// ParseFrame matches a socket.io event packet of the form
//
//	42["event", {"content": {"type": "...", "value": ..., "nickname": "..."}}]
//
// against the known jackpot shapes. Anything else reports ok=false.
func ParseFrame(payload string) (ParsedFrame, bool) {
	body, ok := eventPacketBody(payload)
	if !ok || !gjson.Valid(body) {
		return ParsedFrame{}, false
	}

	packet := gjson.Parse(body)
	if !packet.IsArray() || len(packet.Array()) < 2 {
		return ParsedFrame{}, false
	}
	data := packet.Get("1")
	if !data.IsObject() {
		return ParsedFrame{}, false
	}
	content := data.Get("content")
	if !content.IsObject() {
		return ParsedFrame{}, false
	}

	typ := content.Get("type")
	value := content.Get("value")
	if typ.Type != gjson.String || (value.Type != gjson.Number && value.Type != gjson.String) {
		return ParsedFrame{}, false
	}

	frame := ParsedFrame{
		Type:     FrameType(typ.String()),
		RawValue: value.String(),
		Nickname: content.Get("nickname").String(),
	}

	switch frame.Type {
	case FrameJackpotValue, FrameMiniJackpotValue:
		amount, ok := jackpotAmount(value)
		if !ok {
			return ParsedFrame{}, false
		}
		frame.Value = amount
	case FrameJackpotWin, FrameMiniJackpotWin:
		if amount, ok := jackpotAmount(value); ok {
			frame.Value = amount
		}
	default:
		return ParsedFrame{}, false
	}

	for _, path := range []string{"seq", "sequence"} {
		for _, holder := range []gjson.Result{content, data} {
			if seq := holder.Get(path); seq.Type == gjson.Number && seq.Num >= 0 {
				frame.Sequence = seq.Uint()
				frame.HasSequence = true
				return frame, true
			}
		}
	}
	return frame, true
}

func jackpotAmount(value gjson.Result) (int64, bool) {
	if value.Type == gjson.Number {
		if value.Num < 0 || value.Num != float64(int64(value.Num)) {
			return 0, false
		}
		return value.Int(), true
	}
	return domain.ParseJackpotValue(value.String())
}

// eventPacketBody strips the engine.io message type, socket.io event type,
// optional namespace and optional ack id from an event packet.
func eventPacketBody(payload string) (string, bool) {
	payload = strings.TrimSpace(payload)
	rest, ok := strings.CutPrefix(payload, "42")
	if !ok {
		return "", false
	}
	if strings.HasPrefix(rest, "/") {
		comma := strings.IndexByte(rest, ',')
		if comma < 0 {
			return "", false
		}
		rest = rest[comma+1:]
	}
	rest = strings.TrimLeft(rest, "0123456789")
	if !strings.HasPrefix(rest, "[") {
		return "", false
	}
	return rest, true
}
