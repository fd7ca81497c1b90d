package goquery

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/sitegraph"
	"github.com/google/uuid"
)

// maxElementText caps element and anchor text, in runes.
const maxElementText = 200

// interactiveSelector matches every element treated as interactive.
const interactiveSelector = `button, ` +
	`input[type="submit"], input[type="button"], input[type="image"], ` +
	`[onclick], [data-action], [data-click], [data-toggle], [role="button"], ` +
	`[tabindex], .btn, .button, .clickable, form`

// locationPattern pulls a target out of onclick handlers such as
// location.href='/cart' or window.location = "/cart".
var locationPattern = regexp.MustCompile(`location(?:\.href)?\s*=\s*['"]([^'"]+)['"]`)

// extractElements returns the interactive elements of doc. Each element
// gets an ID that is stable across crawls of the same page.
func extractElements(doc *goquery.Document, pageURL, base string, scope *sitegraph.Scope) []*sitegraph.Element {
	var elements []*sitegraph.Element
	seen := make(map[string]bool)
	ordinals := make(map[string]int)

	doc.Find(interactiveSelector).Each(func(_ int, sel *goquery.Selection) {
		if tabindex, ok := sel.Attr("tabindex"); ok && strings.TrimSpace(tabindex) == "-1" && !hasOtherTrigger(sel) {
			return
		}

		el := &sitegraph.Element{
			PageURL:  pageURL,
			Type:     elementType(sel),
			Text:     elementText(sel),
			Selector: selectorHint(sel),
		}
		if el.Type == sitegraph.ElementForm {
			el.Action = strings.TrimSpace(sel.AttrOr("action", ""))
			if el.Action != "" {
				if resolved, ok := sitegraph.Normalize(el.Action, base); ok {
					el.Action = resolved
				}
			}
			el.Method = strings.ToUpper(strings.TrimSpace(sel.AttrOr("method", "")))
			if el.Method == "" {
				el.Method = "GET"
			}
		}
		el.NavigatesTo = navigationTarget(sel, el.Type, pageURL, base, scope)

		key := elementKey(sel, el, ordinals)
		if seen[key] {
			return
		}
		seen[key] = true
		el.ID = ElementID(pageURL, key)

		elements = append(elements, el)
	})

	return elements
}

// ElementID derives a deterministic element identifier from the page URL
// and a per-page key.
func ElementID(pageURL, key string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(pageURL+"#"+key)).String()
}

// hasOtherTrigger reports whether sel is interactive for a reason other than
// its tabindex attribute.
func hasOtherTrigger(sel *goquery.Selection) bool {
	return sel.Is(strings.ReplaceAll(interactiveSelector, `[tabindex], `, ""))
}

func elementType(sel *goquery.Selection) sitegraph.ElementType {
	switch goquery.NodeName(sel) {
	case "form":
		return sitegraph.ElementForm
	case "input":
		return sitegraph.ElementInput
	case "button":
		return sitegraph.ElementButton
	}
	if role, _ := sel.Attr("role"); role == "button" {
		return sitegraph.ElementButton
	}
	if sel.HasClass("btn") || sel.HasClass("button") {
		return sitegraph.ElementButton
	}
	return sitegraph.ElementClickable
}

// elementText prefers visible text, then value, alt, aria-label, and title.
func elementText(sel *goquery.Selection) string {
	text := collapse(visibleNodeText(sel))
	if goquery.NodeName(sel) == "form" {
		text = ""
	}
	for _, attr := range []string{"value", "alt", "aria-label", "title"} {
		if text != "" {
			break
		}
		text = collapse(sel.AttrOr(attr, ""))
	}
	if text == "" && goquery.NodeName(sel) == "form" {
		text = collapse(sel.Find(`button, input[type="submit"]`).First().Text())
		if text == "" {
			text = collapse(sel.Find(`input[type="submit"]`).First().AttrOr("value", ""))
		}
	}
	return truncate(text, maxElementText)
}

// selectorHint renders tag#id, tag.class1.class2, or the bare tag.
func selectorHint(sel *goquery.Selection) string {
	tag := goquery.NodeName(sel)
	if id := strings.TrimSpace(sel.AttrOr("id", "")); id != "" {
		return tag + "#" + id
	}
	if classes := strings.Fields(sel.AttrOr("class", "")); len(classes) > 0 {
		return tag + "." + strings.Join(classes, ".")
	}
	return tag
}

// elementKey identifies an element within its page. DOM ids are used when
// present; otherwise the selector hint and text plus an ordinal that
// separates otherwise identical elements.
func elementKey(sel *goquery.Selection, el *sitegraph.Element, ordinals map[string]int) string {
	if id := strings.TrimSpace(sel.AttrOr("id", "")); id != "" {
		return "id:" + id
	}
	base := el.Selector + ":" + el.Text
	n := ordinals[base]
	ordinals[base] = n + 1
	return base + ":" + strconv.Itoa(n)
}

// navigationTarget returns the in-scope page an element leads to, if any.
func navigationTarget(sel *goquery.Selection, typ sitegraph.ElementType, pageURL, base string, scope *sitegraph.Scope) string {
	var candidates []string
	if typ == sitegraph.ElementForm {
		if action, ok := sel.Attr("action"); ok {
			candidates = append(candidates, action)
		}
	}
	for _, attr := range []string{"data-href", "href"} {
		if v, ok := sel.Attr(attr); ok {
			candidates = append(candidates, v)
		}
	}
	if onclick, ok := sel.Attr("onclick"); ok {
		if m := locationPattern.FindStringSubmatch(onclick); m != nil {
			candidates = append(candidates, m[1])
		}
	}

	for _, c := range candidates {
		if !navigable(c) {
			continue
		}
		u, ok := scope.Allow(c, base)
		if !ok || u == pageURL {
			continue
		}
		return u
	}
	return ""
}
