package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"konbiniwatch/logger"
	"konbiniwatch/pkg/errors"
)

// NormalizeItem is one scraped product handed to the model for
// translation and field extraction.
type NormalizeItem struct {
	SourceText string
	DetailText string
	LinkHint   string
	SourceURL  string
}

// ProductFields is what the model returns per item
type ProductFields struct {
	OriginalName   string `json:"original_name"`
	TranslatedName string `json:"translated_name"`
	PriceText      string `json:"price_text"`
	ReleaseDate    string `json:"release_date"`
}

const normalizeSystemPrompt = `You extract product announcements from Japanese convenience store and restaurant websites.
For each input item, produce one JSON object with these keys:
- original_name: the product name in Japanese, cleaned of prices, dates and marketing copy
- translated_name: the product name translated to English
- price_text: the price as written on the page, or "" if none appears
- release_date: the release date as written, or "" if none appears
Respond with ONLY a JSON array of these objects, one per input item, in the same order as the inputs. No prose, no code fences.`

// Normalizer translates and structures scraped text through the chat
// model, batch by batch.
type Normalizer struct {
	client *Client
	policy RetryPolicy
	delay  time.Duration
}

// NewNormalizer creates a Normalizer. delay is the pause inserted
// between consecutive batch calls.
func NewNormalizer(client *Client, policy RetryPolicy, delay time.Duration) *Normalizer {
	return &Normalizer{client: client, policy: policy, delay: delay}
}

// NormalizeBatch sends all items in one call and returns fields aligned
// index-for-index with the input. When the model fails or returns a
// misaligned array even after retries, every item falls back to its raw
// untranslated text so the sweep still produces records.
func (n *Normalizer) NormalizeBatch(ctx context.Context, brand string, items []NormalizeItem) []ProductFields {
	if len(items) == 0 {
		return nil
	}

	var fields []ProductFields
	err := n.policy.Do(ctx, func() error {
		out, err := n.callOnce(ctx, items)
		if err != nil {
			return err
		}
		fields = out
		return nil
	})
	if err != nil {
		logger.ForBrand(brand).Warn().Err(err).
			Int("items", len(items)).
			Msg("Normalization failed, keeping raw fields")
		return rawFallback(items)
	}

	if n.delay > 0 {
		select {
		case <-time.After(n.delay):
		case <-ctx.Done():
		}
	}
	return fields
}

func (n *Normalizer) callOnce(ctx context.Context, items []NormalizeItem) ([]ProductFields, error) {
	var sb strings.Builder
	for i, item := range items {
		fmt.Fprintf(&sb, "Item %d:\n", i+1)
		fmt.Fprintf(&sb, "Text: %s\n", item.SourceText)
		if item.DetailText != "" {
			fmt.Fprintf(&sb, "Detail: %s\n", item.DetailText)
		}
		if item.LinkHint != "" {
			fmt.Fprintf(&sb, "Link: %s\n", item.LinkHint)
		}
		sb.WriteString("\n")
	}

	content, err := n.client.Chat(ctx, []Message{
		{Role: "system", Content: normalizeSystemPrompt},
		{Role: "user", Content: sb.String()},
	})
	if err != nil {
		return nil, err
	}

	fields, err := parseFieldsArray(content)
	if err != nil {
		return nil, err
	}
	if len(fields) != len(items) {
		return nil, errors.NewNormalization("",
			fmt.Sprintf("model returned %d items for %d inputs", len(fields), len(items)), nil)
	}
	return fields, nil
}

// parseFieldsArray decodes the model output, tolerating code fences
// some models wrap JSON in despite instructions.
func parseFieldsArray(content string) ([]ProductFields, error) {
	trimmed := strings.TrimSpace(content)
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)

	var fields []ProductFields
	if err := json.Unmarshal([]byte(trimmed), &fields); err != nil {
		return nil, errors.NewNormalization("", "model output was not a JSON array", err)
	}
	return fields, nil
}

// rawFallback keeps the scraped text as-is, untranslated
func rawFallback(items []NormalizeItem) []ProductFields {
	out := make([]ProductFields, len(items))
	for i, item := range items {
		out[i] = ProductFields{OriginalName: strings.TrimSpace(item.SourceText)}
	}
	return out
}
