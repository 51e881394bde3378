package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventConfigURLs(t *testing.T) {
	event := EventConfig{
		BaseURL:      "https://typhu.fconline.garena.vn/",
		UserEndpoint: "/api/user/get",
		SpinEndpoint: "api/user/spin",
		SpinActions:  []string{"20 FC Spin", "190 FC Spin"},
		Selectors:    Selectors{SpinAction: "div.spin__actions a.btn-spin.btn-spin--%d"},
	}

	assert.Equal(t, "https://typhu.fconline.garena.vn/api/user/get", event.UserURL())
	assert.Equal(t, "https://typhu.fconline.garena.vn/api/user/spin", event.SpinURL())
	assert.Equal(t, "div.spin__actions a.btn-spin.btn-spin--2", event.SpinSelector(2))
	assert.Equal(t, "190 FC Spin", event.TierLabel(2))
	assert.Equal(t, "Spin 4", event.TierLabel(4))
}

func TestParseSpinTier(t *testing.T) {
	tier, err := ParseSpinTier(3)
	require.NoError(t, err)
	assert.Equal(t, SpinTier(3), tier)

	_, err = ParseSpinTier(0)
	assert.ErrorContains(t, err, "between 1 and 4")

	_, err = ParseSpinTier(5)
	assert.Error(t, err)
}

func TestParseJackpotValue(t *testing.T) {
	tests := []struct {
		raw    string
		want   int64
		wantOK bool
	}{
		{raw: "10010", want: 10010, wantOK: true},
		{raw: "10,010", want: 10010, wantOK: true},
		{raw: " 1.250.000 ", want: 1250000, wantOK: true},
		{raw: "", wantOK: false},
		{raw: ",", wantOK: false},
		{raw: "12abc", wantOK: false},
		{raw: "-5", wantOK: false},
		{raw: "1 250 000", want: 1250000, wantOK: true},
		{raw: "10.5", wantOK: false},
		{raw: "10,01", wantOK: false},
		{raw: "12345,678", wantOK: false},
		{raw: "10,,010", wantOK: false},
		{raw: "10,010,", wantOK: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := ParseJackpotValue(tt.raw)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}
