package normalize

import "strconv"

// DedupSet is the explicit dedup accumulator owned by one extraction
// pass. Strategies thread it through every step instead of sharing
// ambient state across closures.
type DedupSet struct {
	seen map[string]struct{}
}

// NewDedupSet creates an empty dedup accumulator
func NewDedupSet() *DedupSet {
	return &DedupSet{seen: make(map[string]struct{})}
}

// Seen records the key and reports whether it was already present
func (d *DedupSet) Seen(key string) bool {
	if _, ok := d.seen[key]; ok {
		return true
	}
	d.seen[key] = struct{}{}
	return false
}

// Len returns the number of distinct keys recorded
func (d *DedupSet) Len() int {
	return len(d.seen)
}

// RecordKey builds the composite dedup key for a record. Identity comes
// from the image plus the amount when both exist; otherwise name plus
// source URL. Pure name keys are not enough, distinct products can share
// a generic name across pages.
func RecordKey(rec ProductRecord) string {
	if rec.ImageURL != "" && rec.Price != nil {
		return rec.ImageURL + "|" + strconv.Itoa(rec.Price.Amount)
	}
	return rec.OriginalName + "|" + rec.SourceURL
}
