package goquery

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// noiseSelectors are removed from every page before extraction.
const noiseSelectors = "script, style, noscript, template, iframe, object, embed, link, meta"

// anchorNoiseSelectors are permalink markers that frameworks append to headings.
const anchorNoiseSelectors = ".headerlink, .hash-link, .header-anchor, .anchor-link, a.anchor, .md-clipboard, .copy-button, button"

var codeLanguagePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:^|\s)(?:language|lang)-([A-Za-z0-9_+#.-]+)`),
	regexp.MustCompile(`(?:^|\s)highlight-(?:source-)?([A-Za-z0-9_+#.-]+)`),
	regexp.MustCompile(`brush:\s*([A-Za-z0-9_+#.-]+)`),
}

// codeLanguage infers a fenced code language from a class attribute.
// Returns "" if no pattern matches.
func codeLanguage(class string) string {
	for _, re := range codeLanguagePatterns {
		if m := re.FindStringSubmatch(class); m != nil {
			lang := strings.ToLower(strings.TrimRight(m[1], ";"))
			switch lang {
			case "", "default", "none", "plaintext", "text":
				return ""
			}
			return lang
		}
	}
	return ""
}

// normalize rewrites a content region in place so conversion yields clean
// block text: anchors become plain text, emphasis is unwrapped, and every
// code block carries a language-x class on its code element when one can be
// inferred from the block or its wrappers.
func normalize(sel *goquery.Selection) {
	sel.Find(anchorNoiseSelectors).Remove()

	sel.Find("pre").Each(func(_ int, pre *goquery.Selection) {
		lang := ""
		for _, candidate := range []*goquery.Selection{pre.Find("code").First(), pre, pre.Parent(), pre.Parent().Parent()} {
			if candidate.Length() == 0 {
				continue
			}
			if class, ok := candidate.Attr("class"); ok {
				if lang = codeLanguage(class); lang != "" {
					break
				}
			}
			if l, ok := candidate.Attr("data-language"); ok && l != "" {
				lang = strings.ToLower(l)
				break
			}
		}

		code := pre.Find("code").First()
		if code.Length() == 0 {
			pre.WrapInnerHtml("<code></code>")
			code = pre.Find("code").First()
		}
		if lang != "" {
			code.SetAttr("class", "language-"+lang)
		} else {
			code.RemoveAttr("class")
		}
	})

	unwrap(sel, "a")
	unwrap(sel, "em, i, strong, b, mark, u")
}

// unwrap replaces every element matching selector with its children.
func unwrap(sel *goquery.Selection, selector string) {
	sel.Find(selector).Each(func(_ int, el *goquery.Selection) {
		contents := el.Contents()
		if contents.Length() == 0 {
			el.Remove()
			return
		}
		contents.Unwrap()
	})
}
