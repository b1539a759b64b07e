package normalize

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

// DefaultCurrency is used when a price text carries no currency hint.
const DefaultCurrency = "JPY"

// Price is a parsed numeric price
type Price struct {
	Amount   int    `json:"amount"`
	Currency string `json:"currency"`
	Note     string `json:"note,omitempty"`
}

// ProductRecord is the canonical product entity persisted per brand
type ProductRecord struct {
	OriginalName   string `json:"original_name"`
	TranslatedName string `json:"translated_name,omitempty"`
	Price          *Price `json:"price,omitempty"`
	ImageURL       string `json:"image_url,omitempty"`
	ReleaseDate    string `json:"release_date,omitempty"`
	SourceURL      string `json:"source_url"`
	IsNew          bool   `json:"is_new"`
}

var (
	digitRun = regexp.MustCompile(`[0-9]+`)

	taxNotes = []string{"税込", "税抜", "本体価格"}

	newTokens = []string{"NEW", "新発売", "新商品", "新登場"}

	placeholderTokens = []string{"placeholder", "loading", "spacer.gif", "blank.gif", "1x1", "dummy"}
)

// ParsePrice extracts a numeric amount from a price text. A figure
// following 税込 wins outright, since sites that print both quote the
// body price first. Otherwise the longest digit run wins after
// thousands separators are stripped. Returns nil when the text carries
// no digits at all.
func ParsePrice(text string) *Price {
	cleaned := strings.NewReplacer(",", "", "，", "").Replace(text)

	chosen := ""
	if idx := strings.Index(cleaned, "税込"); idx >= 0 {
		chosen = digitRun.FindString(cleaned[idx:])
	}
	if chosen == "" {
		runs := digitRun.FindAllString(cleaned, -1)
		if len(runs) == 0 {
			return nil
		}
		chosen = runs[0]
		for _, run := range runs[1:] {
			if len(run) > len(chosen) {
				chosen = run
			}
		}
	}

	amount, err := strconv.Atoi(chosen)
	if err != nil {
		return nil
	}

	price := &Price{
		Amount:   amount,
		Currency: DefaultCurrency,
	}

	for _, note := range taxNotes {
		if strings.Contains(text, note) {
			price.Note = note
			break
		}
	}

	return price
}

// ResolveURL resolves a possibly-relative reference against the page URL.
// Protocol-relative references are upgraded to https.
func ResolveURL(pageURL, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	if strings.HasPrefix(ref, "//") {
		return "https:" + ref
	}

	refURL, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	if refURL.IsAbs() {
		return refURL.String()
	}

	base, err := url.Parse(pageURL)
	if err != nil || base.Host == "" {
		return ""
	}
	return base.ResolveReference(refURL).String()
}

// IsPlaceholder reports whether an image URL is a loading indicator or
// placeholder rather than real product photography. Placeholder URLs are
// treated as absent image data.
func IsPlaceholder(imageURL string) bool {
	if imageURL == "" {
		return true
	}
	lower := strings.ToLower(imageURL)
	if strings.HasPrefix(lower, "data:") {
		return true
	}
	for _, token := range placeholderTokens {
		if strings.Contains(lower, token) {
			return true
		}
	}
	return false
}

// CleanImageURL resolves an image reference and rejects placeholders.
// fallback is used when the primary reference resolves to a placeholder.
func CleanImageURL(pageURL, primary, fallback string) string {
	resolved := ResolveURL(pageURL, primary)
	if resolved != "" && !IsPlaceholder(resolved) {
		return resolved
	}
	resolved = ResolveURL(pageURL, fallback)
	if resolved != "" && !IsPlaceholder(resolved) {
		return resolved
	}
	return ""
}

// LooksNew reports whether a discovered link text carries a NEW-badge token
func LooksNew(text string) bool {
	upper := strings.ToUpper(text)
	for _, token := range newTokens {
		if strings.Contains(upper, token) {
			return true
		}
	}
	return false
}
