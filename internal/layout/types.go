package layout

import "math"

// Box is an element bounding box in viewport coordinates
type Box struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// CenterX returns the horizontal center of the box
func (b Box) CenterX() float64 {
	return b.Left + b.Width/2
}

// CenterY returns the vertical center of the box
func (b Box) CenterY() float64 {
	return b.Top + b.Height/2
}

// CenterDistance returns the Euclidean distance between two box centers
func (b Box) CenterDistance(other Box) float64 {
	dx := b.CenterX() - other.CenterX()
	dy := b.CenterY() - other.CenterY()
	return math.Sqrt(dx*dx + dy*dy)
}

// RenderedNode is a DOM element as observed after render. Nodes only
// live for the duration of one extraction pass.
type RenderedNode struct {
	Tag        string `json:"tag"`
	Text       string `json:"text"`
	Src        string `json:"src"`
	Alt        string `json:"alt"`
	ChildCount int    `json:"childCount"`
	Box        Box    `json:"box"`
}

// PageSnapshot is the raw result of the in-page snapshot routine,
// before Go-side validation.
type PageSnapshot struct {
	Prices []RenderedNode `json:"prices"`
	Images []RenderedNode `json:"images"`
	Titles []RenderedNode `json:"titles"`
	Dates  []RenderedNode `json:"dates"`
}

// PriceCandidate is a leaf text node whose text matches the price pattern
type PriceCandidate struct {
	RawText string
	Box     Box
}

// ImageCandidate is an image element within the product-photo size bounds
type ImageCandidate struct {
	Src string
	Alt string
	Box Box
}

// TitleCandidate is a heading-like text node that could name a product
type TitleCandidate struct {
	Text string
	Box  Box
}

// DateCandidate is a text node carrying a release-date-like string
type DateCandidate struct {
	Text string
	Box  Box
}

// Candidates holds the validated candidate sets of one snapshot
type Candidates struct {
	Prices []PriceCandidate
	Images []ImageCandidate
	Titles []TitleCandidate
	Dates  []DateCandidate
}

// RawExtraction is one matched price/image/title triple before
// normalization into a product record.
type RawExtraction struct {
	Name      string
	PriceText string
	DateText  string
	ImageURL  string
	SourceURL string
}
