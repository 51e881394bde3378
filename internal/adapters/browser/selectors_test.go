package browser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitHasText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		selector string
		wantBase string
		wantText string
		wantOK   bool
	}{
		{selector: `header a:has-text("Đăng nhập")`, wantBase: "header a", wantText: "Đăng nhập", wantOK: true},
		{selector: `:has-text('Login')`, wantBase: "*", wantText: "Login", wantOK: true},
		{selector: `a[href='/user/login']`, wantBase: `a[href='/user/login']`, wantOK: false},
		{selector: `div.spin__actions a.btn-spin.btn-spin--2`, wantBase: `div.spin__actions a.btn-spin.btn-spin--2`, wantOK: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.selector, func(t *testing.T) {
			t.Parallel()

			base, text, ok := splitHasText(tt.selector)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantBase, base)
			assert.Equal(t, tt.wantText, text)
		})
	}
}

func TestFindExpressionQuotesSelectors(t *testing.T) {
	t.Parallel()

	assert.Equal(t, `document.querySelector("a[href='/user/login']")`, findExpression(`a[href='/user/login']`))
	assert.Contains(t, findExpression(`header a:has-text("Đăng \"nhập\"")`), `querySelectorAll("header a")`)
	assert.Equal(t, `[data-fca-target="t-1"]`, markerSelector("t-1"))
}

func TestFetchScriptEmbedsRequest(t *testing.T) {
	t.Parallel()

	script := fetchScript("POST", "https://bilac.fconline.garena.vn/api/user/spin",
		map[string]string{"Content-Type": "application/json"}, []byte(`{"spin_type":1}`))

	assert.Contains(t, script, `fetch("https://bilac.fconline.garena.vn/api/user/spin"`)
	assert.Contains(t, script, `method: "POST"`)
	assert.Contains(t, script, `{"Content-Type":"application/json"}`)
	assert.Contains(t, script, `body: "{\"spin_type\":1}"`)
	assert.Contains(t, script, `credentials: "include"`)

	get := fetchScript("GET", "https://x/api/user/get", nil, nil)
	assert.Contains(t, get, "body: undefined")
	assert.Contains(t, get, "headers: {}")
}
