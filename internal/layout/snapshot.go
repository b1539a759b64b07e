package layout

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Candidate validation bounds. Images outside these dimensions are
// icons, sprites or hero banners rather than product photos.
const (
	MinImageSize  = 50.0
	MaxImageWidth = 800.0

	// MinTitleLength is the shortest text accepted as a product title,
	// counted in runes. Also applied to alt-text fallbacks.
	MinTitleLength = 5

	// MaxTitleLength keeps paragraph-sized blocks out of the title pool
	MaxTitleLength = 80
)

// PricePattern accepts both comma-grouped and ungrouped yen amounts,
// with either the 円 suffix or a ¥/￥ prefix.
var PricePattern = regexp.MustCompile(`[¥￥]\s?[0-9][0-9,]*|[0-9]{1,3}(,[0-9]{3})+円|[0-9]+円`)

// DatePattern matches release-date strings as Japanese retail sites
// print them.
var DatePattern = regexp.MustCompile(`20[0-9]{2}年[0-9]{1,2}月[0-9]{1,2}日|[0-9]{1,2}月[0-9]{1,2}日|[0-9]{1,2}/[0-9]{1,2}`)

// taxNoteTokens flag text that describes a price rather than a product
var taxNoteTokens = []string{"税込", "税抜", "本体価格"}

var titleTags = map[string]bool{
	"H1": true, "H2": true, "H3": true, "H4": true,
	"P": true, "DT": true, "DD": true, "STRONG": true,
	"SPAN": true, "DIV": true,
}

// SnapshotJS collects price, image, title and date candidates with
// their bounding boxes in a single page evaluation. The Go side
// re-validates everything it returns; the script only has to be
// generous, not precise.
const SnapshotJS = `() => {
	const box = (el) => {
		const r = el.getBoundingClientRect();
		return {left: r.left, top: r.top, width: r.width, height: r.height};
	};
	const visible = (el) => {
		const r = el.getBoundingClientRect();
		return r.width > 0 && r.height > 0;
	};
	const pricePattern = /[¥￥]\s?[0-9][0-9,]*|[0-9][0-9,]*円/;
	const datePattern = /[0-9]{1,2}月[0-9]{1,2}日|[0-9]{1,2}\/[0-9]{1,2}/;
	const titleTags = new Set(['H1', 'H2', 'H3', 'H4', 'P', 'DT', 'DD', 'STRONG', 'SPAN', 'DIV']);
	const prices = [];
	const titles = [];
	const dates = [];
	for (const el of document.body.querySelectorAll('*')) {
		if (!visible(el)) continue;
		const text = (el.textContent || '').trim();
		if (!text) continue;
		const node = {tag: el.tagName, text: text, childCount: el.childElementCount, box: box(el)};
		if (el.childElementCount === 0 && pricePattern.test(text)) {
			prices.push(node);
		}
		if (titleTags.has(el.tagName) && text.length <= 120) {
			titles.push(node);
		}
		if (el.childElementCount === 0 && datePattern.test(text)) {
			dates.push(node);
		}
	}
	const images = [];
	for (const el of document.images) {
		if (!visible(el)) continue;
		images.push({
			tag: 'IMG',
			src: el.currentSrc || el.src || '',
			alt: el.alt || '',
			childCount: 0,
			box: box(el),
		});
	}
	return {prices: prices, images: images, titles: titles, dates: dates};
}`

// HasTaxNote reports whether the text carries a tax or list-price
// annotation, which marks it as price copy rather than a product name.
func HasTaxNote(text string) bool {
	for _, tok := range taxNoteTokens {
		if strings.Contains(text, tok) {
			return true
		}
	}
	return false
}

// Collect validates a raw snapshot into candidate sets. Price
// candidates must be leaf nodes so that a container wrapping several
// products never matches as a single price. Title candidates must be
// long enough to name a product and must not read as price copy.
func Collect(snap PageSnapshot) Candidates {
	var c Candidates
	for _, n := range snap.Prices {
		if n.ChildCount != 0 {
			continue
		}
		if !PricePattern.MatchString(n.Text) {
			continue
		}
		c.Prices = append(c.Prices, PriceCandidate{RawText: n.Text, Box: n.Box})
	}
	for _, n := range snap.Images {
		if n.Src == "" {
			continue
		}
		if n.Box.Width < MinImageSize || n.Box.Height < MinImageSize {
			continue
		}
		if n.Box.Width > MaxImageWidth {
			continue
		}
		c.Images = append(c.Images, ImageCandidate{Src: n.Src, Alt: n.Alt, Box: n.Box})
	}
	for _, n := range snap.Titles {
		if !titleTags[strings.ToUpper(n.Tag)] {
			continue
		}
		text := strings.TrimSpace(n.Text)
		length := utf8.RuneCountInString(text)
		if length < MinTitleLength || length > MaxTitleLength {
			continue
		}
		if PricePattern.MatchString(text) || HasTaxNote(text) {
			continue
		}
		c.Titles = append(c.Titles, TitleCandidate{Text: text, Box: n.Box})
	}
	for _, n := range snap.Dates {
		m := DatePattern.FindString(n.Text)
		if m == "" {
			continue
		}
		c.Dates = append(c.Dates, DateCandidate{Text: m, Box: n.Box})
	}
	return c
}
