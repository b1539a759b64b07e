package ai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"konbiniwatch/helpers"
	"konbiniwatch/logger"
	"konbiniwatch/pkg/errors"
	"konbiniwatch/services/cache"
)

// Verdict is the classifier's answer for one banner image
type Verdict struct {
	IsFood bool   `json:"is_food"`
	Reason string `json:"reason,omitempty"`
}

const classifySystemPrompt = `You look at a promotional banner image from a Japanese convenience store or restaurant website.
Answer whether the banner announces a food or drink product.
Respond with ONLY a JSON object: {"is_food": true or false, "reason": "short reason"}. No prose, no code fences.`

// verdictTTL keeps verdicts across sweeps; banner image URLs are
// stable for the life of a campaign.
const verdictTTL = 7 * 24 * time.Hour

// VisionClassifier decides whether a banner image advertises food.
// Verdicts are cached by image URL so repeated sweeps do not re-pay
// for the same banner.
type VisionClassifier struct {
	client *Client
	cache  cache.CacheService
	fetch  func(url string) ([]byte, error)
}

// NewVisionClassifier creates a classifier backed by the vision model
func NewVisionClassifier(client *Client, cacheSvc cache.CacheService) *VisionClassifier {
	return &VisionClassifier{
		client: client,
		cache:  cacheSvc,
		fetch:  helpers.FetchSimply,
	}
}

// Classify reports whether the image shows a food product. Any failure
// along the way, download, model call or malformed verdict, fails
// closed to false so a broken classifier never floods the pipeline
// with non-food banners.
func (v *VisionClassifier) Classify(ctx context.Context, brand, imageURL string) bool {
	log := logger.ForClassifier().WithField("brand", brand)

	key := cache.VerdictKey(imageURL)
	if v.cache != nil {
		if cached, err := v.cache.Get(key); err == nil {
			return string(cached) == "1"
		}
	}

	data, err := v.fetch(imageURL)
	if err != nil {
		cerr := errors.NewClassification(brand, "failed to download banner image", err)
		log.Warn().Err(cerr).Str("image", imageURL).Msg("Treating banner as non-food")
		return false
	}

	verdict, err := v.classifyBytes(ctx, brand, data)
	if err != nil {
		log.Warn().Err(err).Str("image", imageURL).Msg("Treating banner as non-food")
		return false
	}

	if v.cache != nil {
		val := []byte("0")
		if verdict.IsFood {
			val = []byte("1")
		}
		if err := v.cache.Set(key, val, verdictTTL); err != nil {
			log.Debug().Err(err).Msg("Failed to cache verdict")
		}
	}

	log.Debug().Bool("is_food", verdict.IsFood).Str("reason", verdict.Reason).Msg("Classified banner")
	return verdict.IsFood
}

func (v *VisionClassifier) classifyBytes(ctx context.Context, brand string, image []byte) (*Verdict, error) {
	mime := http.DetectContentType(image)
	dataURL := "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(image)

	content, err := v.client.Chat(ctx, []Message{
		{Role: "system", Content: classifySystemPrompt},
		{Role: "user", Content: []ContentPart{
			{Type: "text", Text: "Does this banner announce a food or drink product?"},
			{Type: "image_url", ImageURL: &ImageRef{URL: dataURL}},
		}},
	})
	if err != nil {
		return nil, errors.NewClassification(brand, "vision call failed", err)
	}

	trimmed := strings.TrimSpace(content)
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")

	var verdict Verdict
	if err := json.Unmarshal([]byte(strings.TrimSpace(trimmed)), &verdict); err != nil {
		return nil, errors.NewClassification(brand, "verdict was not valid JSON", err)
	}
	return &verdict, nil
}
