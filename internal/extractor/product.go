// Package extractor turns parsed text and conversations into candidate
// knowledge records, each carrying a heuristic confidence score.
package extractor

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/travelkb/kbuilder/internal/kb"
	"github.com/travelkb/kbuilder/internal/llm"
)

// heuristicConfidence is attached to every rule-extracted candidate.
const heuristicConfidence = 0.7

// defaultLLMConfidence is used when the model reply omits a confidence.
const defaultLLMConfidence = 0.85

// sourceExcerptRunes caps the traceability excerpt kept on a candidate.
const sourceExcerptRunes = 500

var (
	pricePatterns = []*regexp.Regexp{
		regexp.MustCompile(`[¥￥]\s*(\d{3,5})`),
		regexp.MustCompile(`(\d{3,5})\s*元`),
		regexp.MustCompile(`价格[:：]?\s*(\d{3,5})`),
		regexp.MustCompile(`团费[:：]?\s*(\d{3,5})`),
	}
	durationPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(\d+)\s*天`),
		regexp.MustCompile(`(\d+)\s*日`),
		regexp.MustCompile(`(\d+)\s*晚`),
	}
	highlightPatterns = []*regexp.Regexp{
		regexp.MustCompile(`亮点[:：]\s*([^\n]+)`),
		regexp.MustCompile(`特色[:：]\s*([^\n]+)`),
	}
	visaPatterns = []*regexp.Regexp{
		regexp.MustCompile(`签证[:：]\s*([^\n]+)`),
		regexp.MustCompile(`(免签|落地签|需提前办理签证)`),
	}
	cancellationPatterns = []*regexp.Regexp{
		regexp.MustCompile(`退改(?:政策)?[:：]\s*([^\n]+)`),
		regexp.MustCompile(`取消(?:政策)?[:：]\s*([^\n]+)`),
		regexp.MustCompile(`退款(?:政策)?[:：]\s*([^\n]+)`),
	}
	inclusionPattern = regexp.MustCompile(`费用包含[:：]\s*([^\n]+)`)
	exclusionPattern = regexp.MustCompile(`费用不含[:：]\s*([^\n]+)`)
	bookingPattern   = regexp.MustCompile(`预订(?:政策|须知)?[:：]\s*([^\n]+)`)
)

// destinationGazetteer lists the place names recognized verbatim in
// document text.
var destinationGazetteer = []string{
	"巴厘岛", "东京", "普吉岛", "马尔代夫", "巴黎", "伦敦", "纽约",
	"悉尼", "迪拜", "新加坡", "曼谷", "首尔", "大阪", "京都",
}

// Product extracts one structured product candidate per document. With a
// configured provider it asks the model for a structured reply and falls
// back to the rule passes on any failure; without one it runs the rules
// directly.
type Product struct {
	provider llm.Provider
	model    string
	timeout  time.Duration
}

// NewProduct creates a product extractor. provider may be nil for pure
// heuristic mode; timeout bounds each model call.
func NewProduct(provider llm.Provider, model string, timeout time.Duration) *Product {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Product{provider: provider, model: model, timeout: timeout}
}

// Extract produces a candidate from document text. It never fails:
// missing fields default and the heuristic result backs any model error.
func (e *Product) Extract(ctx context.Context, docText string) kb.ProductCandidate {
	if e.provider == nil {
		return extractWithRules(docText)
	}

	candidate, err := e.extractWithLLM(ctx, docText)
	if err != nil {
		log.Warn().Err(err).Str("provider", e.provider.Name()).Msg("model extraction failed, using heuristics")
		return extractWithRules(docText)
	}
	return candidate
}

// extractWithRules applies the independent regex/keyword passes over the
// raw text.
func extractWithRules(text string) kb.ProductCandidate {
	return kb.ProductCandidate{
		Name:               extractName(text),
		Price:              firstFloat(pricePatterns, text),
		Duration:           int(firstFloat(durationPatterns, text)),
		Destination:        extractDestinations(text),
		Highlights:         extractHighlights(text),
		Inclusions:         splitListMatch(inclusionPattern, text),
		Exclusions:         splitListMatch(exclusionPattern, text),
		VisaInfo:           firstMatch(visaPatterns, text),
		BookingPolicy:      firstMatch([]*regexp.Regexp{bookingPattern}, text),
		CancellationPolicy: firstMatch(cancellationPatterns, text),
		Confidence:         heuristicConfidence,
		SourceText:         truncateRunes(text, sourceExcerptRunes),
	}
}

// extractName takes the first of the first five non-empty lines carrying
// a travel marker, else the first line.
func extractName(text string) string {
	var lines []string
	for _, line := range strings.Split(strings.TrimSpace(text), "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	if len(lines) == 0 {
		return "未知产品"
	}
	for i, line := range lines {
		if i >= 5 {
			break
		}
		if (len([]rune(line)) > 5 && strings.Contains(line, "游")) || strings.Contains(line, "之旅") {
			return line
		}
	}
	return lines[0]
}

func extractDestinations(text string) []string {
	var found []string
	for _, place := range destinationGazetteer {
		if strings.Contains(text, place) {
			found = append(found, place)
		}
	}
	return found
}

// extractHighlights collects labelled list items, trims them, drops
// single-character entries, and caps the list at five.
func extractHighlights(text string) []string {
	var highlights []string
	for _, re := range highlightPatterns {
		if m := re.FindStringSubmatch(text); m != nil {
			highlights = append(highlights, splitListItems(m[1])...)
		}
	}
	if len(highlights) > 5 {
		highlights = highlights[:5]
	}
	return highlights
}

func splitListMatch(re *regexp.Regexp, text string) []string {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	return splitListItems(m[1])
}

func splitListItems(s string) []string {
	var items []string
	for _, item := range strings.Split(s, "、") {
		item = strings.TrimSpace(item)
		if len([]rune(item)) > 1 {
			items = append(items, item)
		}
	}
	return items
}

func firstFloat(patterns []*regexp.Regexp, text string) float64 {
	for _, re := range patterns {
		if m := re.FindStringSubmatch(text); m != nil {
			v, err := strconv.ParseFloat(m[1], 64)
			if err == nil {
				return v
			}
		}
	}
	return 0
}

func firstMatch(patterns []*regexp.Regexp, text string) string {
	for _, re := range patterns {
		if m := re.FindStringSubmatch(text); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// llmProduct is the JSON shape requested from the model.
type llmProduct struct {
	Name               string   `json:"name"`
	Price              float64  `json:"price"`
	Duration           int      `json:"duration"`
	Destination        []string `json:"destination"`
	Highlights         []string `json:"highlights"`
	Inclusions         []string `json:"inclusions"`
	Exclusions         []string `json:"exclusions"`
	VisaInfo           string   `json:"visa_info"`
	BookingPolicy      string   `json:"booking_policy"`
	CancellationPolicy string   `json:"cancellation_policy"`
	Confidence         float64  `json:"confidence"`
}

// extractWithLLM hands the structured-extraction prompt to the provider
// under a deadline and parses the JSON reply.
func (e *Product) extractWithLLM(ctx context.Context, docText string) (kb.ProductCandidate, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	resp, err := e.provider.Complete(ctx, llm.CompletionRequest{
		Model: e.model,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: productSystemPrompt},
			{Role: llm.RoleUser, Content: buildProductPrompt(docText)},
		},
		MaxTokens:   1024,
		Temperature: 0.1,
		JSONMode:    true,
	})
	if err != nil {
		return kb.ProductCandidate{}, fmt.Errorf("completion: %w", err)
	}

	var payload llmProduct
	if err := json.Unmarshal([]byte(stripCodeFence(resp.Content)), &payload); err != nil {
		return kb.ProductCandidate{}, fmt.Errorf("parsing model reply: %w", err)
	}

	confidence := payload.Confidence
	if confidence <= 0 {
		confidence = defaultLLMConfidence
	}
	if confidence > 1 {
		confidence = 1
	}

	return kb.ProductCandidate{
		Name:               payload.Name,
		Price:              payload.Price,
		Duration:           payload.Duration,
		Destination:        payload.Destination,
		Highlights:         payload.Highlights,
		Inclusions:         payload.Inclusions,
		Exclusions:         payload.Exclusions,
		VisaInfo:           payload.VisaInfo,
		BookingPolicy:      payload.BookingPolicy,
		CancellationPolicy: payload.CancellationPolicy,
		Confidence:         confidence,
		SourceText:         truncateRunes(docText, sourceExcerptRunes),
	}, nil
}

// stripCodeFence removes a surrounding markdown fence some models wrap
// around JSON replies.
func stripCodeFence(raw string) string {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "```") {
		return raw
	}
	lines := strings.Split(raw, "\n")
	if len(lines) < 2 {
		return raw
	}
	end := len(lines)
	if strings.TrimSpace(lines[end-1]) == "```" {
		end--
	}
	return strings.Join(lines[1:end], "\n")
}
