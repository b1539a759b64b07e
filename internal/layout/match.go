package layout

import (
	"math"
	"sort"
	"unicode/utf8"
)

// UnknownProductLabel stands in for a title when neither a nearby
// heading nor usable alt text exists. Records with this name still
// carry a price and an image and stay in the pipeline.
const UnknownProductLabel = "商品名不明"

// MatchThresholds bound the geometric search around each price.
// Distances are viewport pixels.
type MatchThresholds struct {
	// MaxHorizontalOffset is the largest center-to-center horizontal
	// offset between a price and its image.
	MaxHorizontalOffset float64

	// MaxImageDistance is the largest center-to-center distance
	// between a price and its image.
	MaxImageDistance float64

	// MaxTitleDistance is the largest center-to-center distance
	// between a price and its title or date text.
	MaxTitleDistance float64
}

// DefaultMatchThresholds fit the card grids the supported brand sites
// render at desktop viewport widths.
func DefaultMatchThresholds() MatchThresholds {
	return MatchThresholds{
		MaxHorizontalOffset: 300,
		MaxImageDistance:    600,
		MaxTitleDistance:    400,
	}
}

// Match pairs each price with the nearest image above it, then the
// nearest title above the price, greedily in document order. An image
// src is consumed by the first price that claims it; later prices that
// resolve to the same src are dropped rather than reassigned. A price
// with no image in range is dropped silently, it is not an error.
func Match(c Candidates, th MatchThresholds, sourceURL string) []RawExtraction {
	prices := make([]PriceCandidate, len(c.Prices))
	copy(prices, c.Prices)
	sort.SliceStable(prices, func(i, j int) bool {
		if prices[i].Box.Top != prices[j].Box.Top {
			return prices[i].Box.Top < prices[j].Box.Top
		}
		return prices[i].Box.Left < prices[j].Box.Left
	})

	used := make(map[string]struct{})
	var out []RawExtraction
	for _, p := range prices {
		img, ok := nearestImage(p, c.Images, th)
		if !ok {
			continue
		}
		if _, taken := used[img.Src]; taken {
			continue
		}
		used[img.Src] = struct{}{}

		title := nearestTitle(p, c.Titles, th)
		if title == "" && utf8.RuneCountInString(img.Alt) >= MinTitleLength {
			title = img.Alt
		}
		if title == "" {
			title = UnknownProductLabel
		}

		out = append(out, RawExtraction{
			Name:      title,
			PriceText: p.RawText,
			DateText:  nearestDate(p, c.Dates, th),
			ImageURL:  img.Src,
			SourceURL: sourceURL,
		})
	}
	return out
}

// nearestImage finds the closest image strictly above the price whose
// horizontal center offset and overall distance stay within bounds.
func nearestImage(p PriceCandidate, images []ImageCandidate, th MatchThresholds) (ImageCandidate, bool) {
	var best ImageCandidate
	bestDist := math.Inf(1)
	for _, img := range images {
		if img.Box.Top >= p.Box.Top {
			continue
		}
		if math.Abs(img.Box.CenterX()-p.Box.CenterX()) > th.MaxHorizontalOffset {
			continue
		}
		d := img.Box.CenterDistance(p.Box)
		if d > th.MaxImageDistance {
			continue
		}
		if d < bestDist {
			best = img
			bestDist = d
		}
	}
	return best, !math.IsInf(bestDist, 1)
}

// nearestTitle finds the closest title above the price within range,
// or "" when none qualifies.
func nearestTitle(p PriceCandidate, titles []TitleCandidate, th MatchThresholds) string {
	best := ""
	bestDist := math.Inf(1)
	for _, t := range titles {
		if t.Box.Top >= p.Box.Top {
			continue
		}
		d := t.Box.CenterDistance(p.Box)
		if d > th.MaxTitleDistance {
			continue
		}
		if d < bestDist {
			best = t.Text
			bestDist = d
		}
	}
	return best
}

// nearestDate finds the closest date text around the price. Release
// dates sit above or below the card depending on the brand, so no
// directional constraint applies.
func nearestDate(p PriceCandidate, dates []DateCandidate, th MatchThresholds) string {
	best := ""
	bestDist := math.Inf(1)
	for _, d := range dates {
		dist := d.Box.CenterDistance(p.Box)
		if dist > th.MaxTitleDistance {
			continue
		}
		if dist < bestDist {
			best = d.Text
			bestDist = dist
		}
	}
	return best
}
