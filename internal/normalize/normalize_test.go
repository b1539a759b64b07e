package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePrice(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		amount int
		note   string
	}{
		{"grouped yen", "1,980円", 1980, ""},
		{"ungrouped yen", "1580円", 1580, ""},
		{"yen sign prefix", "¥440", 440, ""},
		{"fullwidth yen sign", "￥1,200", 1200, ""},
		{"tax included note", "213円(税込230円)", 230, "税込"},
		{"grouped with tax note", "1,980円（税込）", 1980, "税込"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			price := ParsePrice(tt.text)
			assert.NotNil(t, price)
			assert.Equal(t, tt.amount, price.Amount)
			assert.Equal(t, "JPY", price.Currency)
			assert.Equal(t, tt.note, price.Note)
		})
	}
}

func TestParsePriceNoDigits(t *testing.T) {
	assert.Nil(t, ParsePrice("価格未定"))
	assert.Nil(t, ParsePrice(""))
}

func TestParsePriceIdempotent(t *testing.T) {
	first := ParsePrice("1,980円(税込)")
	second := ParsePrice("1,980円(税込)")
	assert.Equal(t, first, second)
}

func TestResolveURL(t *testing.T) {
	page := "https://www.lawson.co.jp/recommend/new/index.html"

	assert.Equal(t, "https://www.lawson.co.jp/recommend/new/detail.html", ResolveURL(page, "detail.html"))
	assert.Equal(t, "https://www.lawson.co.jp/img/a.jpg", ResolveURL(page, "/img/a.jpg"))
	assert.Equal(t, "https://cdn.example.com/a.jpg", ResolveURL(page, "//cdn.example.com/a.jpg"))
	assert.Equal(t, "https://other.example.com/x", ResolveURL(page, "https://other.example.com/x"))
	assert.Equal(t, "", ResolveURL(page, ""))
	assert.Equal(t, "", ResolveURL("not a url", "a.jpg"))
}

func TestIsPlaceholder(t *testing.T) {
	assert.True(t, IsPlaceholder(""))
	assert.True(t, IsPlaceholder("https://example.com/img/loading.gif"))
	assert.True(t, IsPlaceholder("https://example.com/assets/Placeholder_600.png"))
	assert.True(t, IsPlaceholder("https://example.com/spacer.gif"))
	assert.True(t, IsPlaceholder("data:image/gif;base64,R0lGOD"))
	assert.True(t, IsPlaceholder("https://example.com/1x1.png"))

	assert.False(t, IsPlaceholder("https://example.com/products/onigiri.jpg"))
}

func TestCleanImageURL(t *testing.T) {
	page := "https://www.lawson.co.jp/recommend/new/"

	// Primary placeholder falls back to the link-provided image
	got := CleanImageURL(page, "/img/loading.gif", "/img/products/sandwich.jpg")
	assert.Equal(t, "https://www.lawson.co.jp/img/products/sandwich.jpg", got)

	// Both placeholders leave the field empty
	got = CleanImageURL(page, "/img/loading.gif", "data:image/gif;base64,x")
	assert.Equal(t, "", got)

	// Clean primary wins
	got = CleanImageURL(page, "/img/products/bento.jpg", "/img/products/other.jpg")
	assert.Equal(t, "https://www.lawson.co.jp/img/products/bento.jpg", got)
}

func TestLooksNew(t *testing.T) {
	assert.True(t, LooksNew("new! チョコミントパフェ"))
	assert.True(t, LooksNew("新発売 こだわりおにぎり"))
	assert.False(t, LooksNew("定番商品"))
}

func TestDedupSet(t *testing.T) {
	set := NewDedupSet()
	assert.False(t, set.Seen("a"))
	assert.True(t, set.Seen("a"))
	assert.False(t, set.Seen("b"))
	assert.Equal(t, 2, set.Len())
}

func TestRecordKey(t *testing.T) {
	withImage := ProductRecord{
		OriginalName: "からあげクン",
		ImageURL:     "https://example.com/a.jpg",
		Price:        &Price{Amount: 248, Currency: "JPY"},
		SourceURL:    "https://example.com/p1",
	}
	assert.Equal(t, "https://example.com/a.jpg|248", RecordKey(withImage))

	withoutImage := ProductRecord{
		OriginalName: "からあげクン",
		SourceURL:    "https://example.com/p1",
	}
	assert.Equal(t, "からあげクン|https://example.com/p1", RecordKey(withoutImage))

	// Same generic name on different pages must not collide
	otherPage := withoutImage
	otherPage.SourceURL = "https://example.com/p2"
	assert.NotEqual(t, RecordKey(withoutImage), RecordKey(otherPage))
}
