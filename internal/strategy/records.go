package strategy

import (
	"strings"

	"konbiniwatch/helpers"
	"konbiniwatch/internal/ai"
	"konbiniwatch/internal/normalize"
)

// rawProduct is one scraped candidate before AI normalization
type rawProduct struct {
	Name      string
	PriceText string
	DateText  string
	Detail    string
	ImageURL  string
	SourceURL string
	IsNew     bool
}

// buildItems converts raw candidates into normalization inputs,
// preserving order so the model's output aligns index-for-index.
func buildItems(raws []rawProduct) []ai.NormalizeItem {
	items := make([]ai.NormalizeItem, len(raws))
	for i, raw := range raws {
		text := raw.Name
		if raw.PriceText != "" {
			text += " " + raw.PriceText
		}
		if raw.DateText != "" {
			text += " " + raw.DateText
		}
		items[i] = ai.NormalizeItem{
			SourceText: strings.TrimSpace(text),
			DetailText: raw.Detail,
			LinkHint:   linkHint(raw.SourceURL),
			SourceURL:  raw.SourceURL,
		}
	}
	return items
}

// linkHint derives a short product identifier from the source URL's
// last path segment. Brand sites carry the product code there, which
// helps the model disambiguate near-identical names.
func linkHint(sourceURL string) string {
	trimmed := strings.TrimSuffix(sourceURL, "/")
	part, err := helpers.GetSplitPart(trimmed, "/", strings.Count(trimmed, "/"))
	if err != nil || part == "" {
		return sourceURL
	}
	return part
}

// composeRecords merges raw candidates with the model's fields into
// product records. Model fields win when present; the raw scrape fills
// the gaps so a degraded model never loses a product. Duplicates are
// dropped on the composite record key.
func composeRecords(raws []rawProduct, fields []ai.ProductFields) []*normalize.ProductRecord {
	dedup := normalize.NewDedupSet()
	var out []*normalize.ProductRecord
	for i, raw := range raws {
		var f ai.ProductFields
		if i < len(fields) {
			f = fields[i]
		}

		name := strings.TrimSpace(f.OriginalName)
		if name == "" {
			name = strings.TrimSpace(raw.Name)
		}

		price := normalize.ParsePrice(f.PriceText)
		if price == nil {
			price = normalize.ParsePrice(raw.PriceText)
		}

		date := strings.TrimSpace(f.ReleaseDate)
		if date == "" {
			date = raw.DateText
		}

		rec := &normalize.ProductRecord{
			OriginalName:   name,
			TranslatedName: strings.TrimSpace(f.TranslatedName),
			Price:          price,
			ImageURL:       raw.ImageURL,
			ReleaseDate:    date,
			SourceURL:      raw.SourceURL,
			IsNew:          raw.IsNew || normalize.LooksNew(raw.Name),
		}
		if dedup.Seen(normalize.RecordKey(*rec)) {
			continue
		}
		out = append(out, rec)
	}
	return out
}
