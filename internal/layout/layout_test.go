package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func box(left, top, width, height float64) Box {
	return Box{Left: left, Top: top, Width: width, Height: height}
}

func TestCollect_PriceRequiresLeafNode(t *testing.T) {
	snap := PageSnapshot{
		Prices: []RenderedNode{
			{Tag: "SPAN", Text: "1,980円", ChildCount: 0, Box: box(0, 100, 60, 20)},
			{Tag: "DIV", Text: "1,980円 2,480円", ChildCount: 2, Box: box(0, 0, 300, 400)},
		},
	}

	c := Collect(snap)

	assert.Len(t, c.Prices, 1)
	assert.Equal(t, "1,980円", c.Prices[0].RawText)
}

func TestCollect_PricePatternVariants(t *testing.T) {
	texts := []string{"1,980円", "1580円", "¥440", "￥1,200", "213円(税込230円)"}
	var nodes []RenderedNode
	for _, txt := range texts {
		nodes = append(nodes, RenderedNode{Tag: "SPAN", Text: txt, Box: box(0, 10, 60, 20)})
	}
	nodes = append(nodes, RenderedNode{Tag: "SPAN", Text: "おすすめ商品", Box: box(0, 10, 60, 20)})

	c := Collect(PageSnapshot{Prices: nodes})

	assert.Len(t, c.Prices, len(texts))
}

func TestCollect_ImageSizeBounds(t *testing.T) {
	snap := PageSnapshot{
		Images: []RenderedNode{
			{Src: "https://img.example.com/ok.jpg", Box: box(0, 0, 200, 200)},
			{Src: "https://img.example.com/icon.png", Box: box(0, 0, 30, 30)},
			{Src: "https://img.example.com/hero.jpg", Box: box(0, 0, 1200, 400)},
			{Src: "", Box: box(0, 0, 200, 200)},
		},
	}

	c := Collect(snap)

	assert.Len(t, c.Images, 1)
	assert.Equal(t, "https://img.example.com/ok.jpg", c.Images[0].Src)
}

func TestCollect_TitleFilters(t *testing.T) {
	snap := PageSnapshot{
		Titles: []RenderedNode{
			{Tag: "H3", Text: "ふわとろチーズケーキ", Box: box(0, 0, 200, 20)},
			{Tag: "H3", Text: "新作", Box: box(0, 0, 200, 20)},
			{Tag: "P", Text: "本体価格198円のお得な一品", Box: box(0, 0, 200, 20)},
			{Tag: "SPAN", Text: "税込213円でご提供", Box: box(0, 0, 200, 20)},
			{Tag: "SCRIPT", Text: "window.dataLayer = []", Box: box(0, 0, 200, 20)},
		},
	}

	c := Collect(snap)

	assert.Len(t, c.Titles, 1)
	assert.Equal(t, "ふわとろチーズケーキ", c.Titles[0].Text)
}

func TestCollect_DateExtractsMatchedPortion(t *testing.T) {
	snap := PageSnapshot{
		Dates: []RenderedNode{
			{Tag: "SPAN", Text: "2026年9月2日発売", Box: box(0, 0, 100, 20)},
		},
	}

	c := Collect(snap)

	assert.Len(t, c.Dates, 1)
	assert.Equal(t, "2026年9月2日", c.Dates[0].Text)
}

func TestMatch_NearerImageWins(t *testing.T) {
	c := Candidates{
		Prices: []PriceCandidate{{RawText: "198円", Box: box(100, 500, 60, 20)}},
		Images: []ImageCandidate{
			{Src: "https://img.example.com/far.jpg", Box: box(80, 50, 100, 100)},
			{Src: "https://img.example.com/near.jpg", Box: box(80, 300, 100, 100)},
		},
	}

	out := Match(c, DefaultMatchThresholds(), "https://example.com/list")

	assert.Len(t, out, 1)
	assert.Equal(t, "https://img.example.com/near.jpg", out[0].ImageURL)
}

func TestMatch_ImageBelowPriceRejected(t *testing.T) {
	c := Candidates{
		Prices: []PriceCandidate{{RawText: "198円", Box: box(100, 100, 60, 20)}},
		Images: []ImageCandidate{
			{Src: "https://img.example.com/below.jpg", Box: box(100, 200, 100, 100)},
		},
	}

	out := Match(c, DefaultMatchThresholds(), "https://example.com/list")

	assert.Empty(t, out)
}

func TestMatch_ImageBeyondDistanceRejected(t *testing.T) {
	c := Candidates{
		Prices: []PriceCandidate{{RawText: "198円", Box: box(100, 900, 60, 20)}},
		Images: []ImageCandidate{
			{Src: "https://img.example.com/distant.jpg", Box: box(100, 50, 100, 100)},
		},
	}

	out := Match(c, DefaultMatchThresholds(), "https://example.com/list")

	assert.Empty(t, out)
}

func TestMatch_HorizontalOffsetRejected(t *testing.T) {
	c := Candidates{
		Prices: []PriceCandidate{{RawText: "198円", Box: box(900, 300, 60, 20)}},
		Images: []ImageCandidate{
			{Src: "https://img.example.com/sideways.jpg", Box: box(100, 100, 100, 100)},
		},
	}

	out := Match(c, DefaultMatchThresholds(), "https://example.com/list")

	assert.Empty(t, out)
}

func TestMatch_ImageConsumedByFirstPrice(t *testing.T) {
	c := Candidates{
		Prices: []PriceCandidate{
			{RawText: "198円", Box: box(100, 300, 60, 20)},
			{RawText: "248円", Box: box(100, 360, 60, 20)},
		},
		Images: []ImageCandidate{
			{Src: "https://img.example.com/shared.jpg", Box: box(80, 100, 120, 120)},
		},
	}

	out := Match(c, DefaultMatchThresholds(), "https://example.com/list")

	assert.Len(t, out, 1)
	assert.Equal(t, "198円", out[0].PriceText)
}

func TestMatch_DocumentOrderIsDeterministic(t *testing.T) {
	c := Candidates{
		Prices: []PriceCandidate{
			{RawText: "248円", Box: box(100, 360, 60, 20)},
			{RawText: "198円", Box: box(100, 300, 60, 20)},
		},
		Images: []ImageCandidate{
			{Src: "https://img.example.com/shared.jpg", Box: box(80, 100, 120, 120)},
		},
	}

	out := Match(c, DefaultMatchThresholds(), "https://example.com/list")

	assert.Len(t, out, 1)
	assert.Equal(t, "198円", out[0].PriceText)
}

func TestMatch_TitleThenAltThenSentinel(t *testing.T) {
	th := DefaultMatchThresholds()

	withTitle := Candidates{
		Prices: []PriceCandidate{{RawText: "198円", Box: box(100, 300, 60, 20)}},
		Images: []ImageCandidate{{Src: "https://img.example.com/a.jpg", Alt: "チーズタルト5個入", Box: box(80, 100, 120, 120)}},
		Titles: []TitleCandidate{{Text: "濃厚チーズタルト", Box: box(80, 240, 160, 20)}},
	}
	out := Match(withTitle, th, "https://example.com/list")
	assert.Equal(t, "濃厚チーズタルト", out[0].Name)

	altOnly := withTitle
	altOnly.Titles = nil
	out = Match(altOnly, th, "https://example.com/list")
	assert.Equal(t, "チーズタルト5個入", out[0].Name)

	bare := altOnly
	bare.Images = []ImageCandidate{{Src: "https://img.example.com/a.jpg", Alt: "写真", Box: box(80, 100, 120, 120)}}
	out = Match(bare, th, "https://example.com/list")
	assert.Equal(t, UnknownProductLabel, out[0].Name)
}

func TestMatch_AttachesNearbyDate(t *testing.T) {
	c := Candidates{
		Prices: []PriceCandidate{{RawText: "198円", Box: box(100, 300, 60, 20)}},
		Images: []ImageCandidate{{Src: "https://img.example.com/a.jpg", Box: box(80, 100, 120, 120)}},
		Dates:  []DateCandidate{{Text: "9月2日", Box: box(100, 330, 80, 20)}},
	}

	out := Match(c, DefaultMatchThresholds(), "https://example.com/list")

	assert.Equal(t, "9月2日", out[0].DateText)
}

func TestMatch_PriceWithoutImageDroppedSilently(t *testing.T) {
	c := Candidates{
		Prices: []PriceCandidate{{RawText: "198円", Box: box(100, 300, 60, 20)}},
	}

	out := Match(c, DefaultMatchThresholds(), "https://example.com/list")

	assert.Empty(t, out)
}
