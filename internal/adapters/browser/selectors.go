package browser

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// Event configs may use a text filter borrowed from other automation tools,
// e.g. `header a:has-text("Đăng nhập")`. CSS cannot express it, so such
// selectors are resolved in the page and the match is tagged with a marker
// attribute the CSS engine can find.
var hasTextPattern = regexp.MustCompile(`^(.*):has-text\((["'])(.*)["']\)\s*$`)

const markerAttr = "data-fca-target"

func splitHasText(selector string) (base string, text string, ok bool) {
	m := hasTextPattern.FindStringSubmatch(selector)
	if m == nil {
		return selector, "", false
	}
	base = strings.TrimSpace(m[1])
	if base == "" {
		base = "*"
	}
	return base, m[3], true
}

func quoteJS(s string) string {
	encoded, _ := json.Marshal(s)
	return string(encoded)
}

// findExpression returns a JS expression yielding the element or null.
func findExpression(selector string) string {
	base, text, ok := splitHasText(selector)
	if !ok {
		return fmt.Sprintf(`document.querySelector(%s)`, quoteJS(selector))
	}
	return fmt.Sprintf(
		`(Array.from(document.querySelectorAll(%s)).find(e => (e.textContent || "").includes(%s)) || null)`,
		quoteJS(base), quoteJS(text),
	)
}

func visibleScript(selector string) string {
	return fmt.Sprintf(`(() => {
	let el;
	try { el = %s; } catch (e) { return false; }
	if (!el) return false;
	const style = window.getComputedStyle(el);
	if (style.display === "none" || style.visibility === "hidden") return false;
	const rect = el.getBoundingClientRect();
	return rect.width > 0 && rect.height > 0;
})()`, findExpression(selector))
}

func markScript(selector string, token string) string {
	return fmt.Sprintf(`(() => {
	const el = %s;
	if (!el) return false;
	el.setAttribute(%s, %s);
	return true;
})()`, findExpression(selector), quoteJS(markerAttr), quoteJS(token))
}

func markerSelector(token string) string {
	return fmt.Sprintf(`[%s=%s]`, markerAttr, quoteJS(token))
}

func fetchScript(method string, url string, headers map[string]string, body []byte) string {
	if headers == nil {
		headers = map[string]string{}
	}
	encodedHeaders, _ := json.Marshal(headers)
	bodyExpr := "undefined"
	if body != nil {
		bodyExpr = quoteJS(string(body))
	}
	return fmt.Sprintf(`(async () => {
	const response = await fetch(%s, {method: %s, headers: %s, body: %s, credentials: "include"});
	return {status: response.status, body: await response.text()};
})()`, quoteJS(url), quoteJS(method), encodedHeaders, bodyExpr)
}
