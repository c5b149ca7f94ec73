package engine

import (
	"bytes"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

var reNoscriptJS = regexp.MustCompile(`<noscript[^>]*>[^<]*(enable|activate|turn on|requires?)\s+javascript`)

// emptyRoots are SPA mount points that server-rendered pages fill in.
var emptyRoots = []string{
	`<div id="root"></div>`,
	`<div id="app"></div>`,
	`<div id="__next"></div>`,
	`<div id="__nuxt"></div>`,
}

// looksLikeScriptShell reports whether a page is a client-rendered shell
// whose content only appears after JavaScript runs.
func looksLikeScriptShell(body []byte) bool {
	textLen := visibleTextLen(body)
	if textLen < 200 {
		return true
	}

	lower := strings.ToLower(string(body))
	for _, root := range emptyRoots {
		if strings.Contains(lower, root) {
			return true
		}
	}

	if reNoscriptJS.MatchString(lower) {
		return true
	}

	return strings.Count(lower, "<script") > 10 && textLen < 500
}

// visibleTextLen counts text bytes outside script, style and noscript.
func visibleTextLen(body []byte) int {
	tokenizer := html.NewTokenizer(bytes.NewReader(body))
	skip := 0
	n := 0
	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return n
		case html.StartTagToken:
			if hiddenTag(tokenizer) {
				skip++
			}
		case html.EndTagToken:
			if hiddenTag(tokenizer) && skip > 0 {
				skip--
			}
		case html.TextToken:
			if skip == 0 {
				n += len(bytes.TrimSpace(tokenizer.Text()))
			}
		}
	}
}

func hiddenTag(z *html.Tokenizer) bool {
	tn, _ := z.TagName()
	switch string(tn) {
	case "script", "style", "noscript", "head":
		return true
	}
	return false
}
