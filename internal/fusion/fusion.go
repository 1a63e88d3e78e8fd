// Package fusion merges candidate records from all sources into the
// final knowledge base: three dedup passes keyed by content hashes of
// normalized fields, followed by a quality assessment pass. Fusion is a
// fixed point: running it again over its own output changes nothing.
package fusion

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"sort"
	"strings"

	"github.com/travelkb/kbuilder/internal/kb"
)

// Fuse deduplicates products, FAQs, and policies in place and fills in
// quality scores and the aggregate quality summary. Confidence values
// are never raised beyond what a source asserted.
func Fuse(k *kb.KnowledgeBase) {
	k.Products = dedupProducts(k.Products)
	k.FAQs = dedupFAQs(k.FAQs)
	k.Policies = dedupPolicies(k.Policies)
	assessQuality(k)
}

// ProductKey is the dedup key strategy for products: a hash over the
// normalized name and the sorted destination set.
func ProductKey(p kb.ProductCandidate) string {
	dests := append([]string(nil), p.Destination...)
	sort.Strings(dests)
	return hashKey(strings.ToLower(strings.TrimSpace(p.Name)) + "|" + strings.Join(dests, ","))
}

// FAQKey is the dedup key strategy for FAQs: a hash of the question
// after punctuation/filler stripping, whitespace collapsing, and
// lowercasing.
func FAQKey(q kb.QAPair) string {
	return hashKey(NormalizeQuestion(q.Question))
}

// PolicyKey is the dedup key strategy for policies: a hash over type and
// title.
func PolicyKey(p kb.Policy) string {
	return hashKey(p.Type + "|" + p.Title)
}

var questionPunctuation = regexp.MustCompile(`[？?。！!，,]`)
var questionFillers = regexp.MustCompile(`[啊呢吗]`)

// NormalizeQuestion reduces a question to its dedup-comparable form.
func NormalizeQuestion(question string) string {
	question = questionPunctuation.ReplaceAllString(question, "")
	question = questionFillers.ReplaceAllString(question, "")
	question = strings.Join(strings.Fields(question), " ")
	return strings.ToLower(question)
}

func hashKey(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// dedupProducts keeps the first occurrence per key; later duplicates
// only backfill a missing price or highlights on the kept record, never
// overwriting a present value.
func dedupProducts(products []kb.ProductCandidate) []kb.ProductCandidate {
	index := make(map[string]int)
	var unique []kb.ProductCandidate

	for _, p := range products {
		key := ProductKey(p)
		i, seen := index[key]
		if !seen {
			index[key] = len(unique)
			unique = append(unique, p)
			continue
		}
		if unique[i].Price == 0 && p.Price != 0 {
			unique[i].Price = p.Price
		}
		if len(unique[i].Highlights) == 0 && len(p.Highlights) > 0 {
			unique[i].Highlights = p.Highlights
		}
	}
	return unique
}

// dedupFAQs accumulates frequency on key collisions and lets a strictly
// higher-confidence duplicate replace the answer. The result is ordered
// by descending (frequency, confidence).
func dedupFAQs(faqs []kb.QAPair) []kb.QAPair {
	index := make(map[string]int)
	var unique []kb.QAPair

	for _, q := range faqs {
		if q.Frequency < 1 {
			q.Frequency = 1
		}
		key := FAQKey(q)
		i, seen := index[key]
		if !seen {
			index[key] = len(unique)
			unique = append(unique, q)
			continue
		}
		unique[i].Frequency += q.Frequency
		if q.Confidence > unique[i].Confidence {
			unique[i].Answer = q.Answer
			unique[i].Confidence = q.Confidence
		}
	}

	sort.SliceStable(unique, func(i, j int) bool {
		if unique[i].Frequency != unique[j].Frequency {
			return unique[i].Frequency > unique[j].Frequency
		}
		return unique[i].Confidence > unique[j].Confidence
	})
	return unique
}

// dedupPolicies drops exact (type, title) duplicates, keeping the first
// occurrence verbatim.
func dedupPolicies(policies []kb.Policy) []kb.Policy {
	seen := make(map[string]bool)
	var unique []kb.Policy
	for _, p := range policies {
		key := PolicyKey(p)
		if seen[key] {
			continue
		}
		seen[key] = true
		unique = append(unique, p)
	}
	return unique
}

// productRequiredFields are checked by the completeness score.
var productRequiredFields = []string{"name", "price", "duration"}

// assessQuality computes per-record quality scores (a completeness
// measure independent of extraction confidence) and the aggregate
// summary.
func assessQuality(k *kb.KnowledgeBase) {
	var productTotal float64
	for i := range k.Products {
		missing := []string{}
		p := &k.Products[i]
		if p.Name == "" {
			missing = append(missing, "name")
		}
		if p.Price == 0 {
			missing = append(missing, "price")
		}
		if p.Duration == 0 {
			missing = append(missing, "duration")
		}
		p.MissingFields = missing
		p.QualityScore = 1.0 - 0.2*float64(len(missing))
		productTotal += p.QualityScore
	}

	var faqTotal float64
	lowConfidence := 0
	for i := range k.FAQs {
		q := &k.FAQs[i]
		q.QualityScore = faqQualityScore(q)
		faqTotal += q.QualityScore
		if q.Confidence < 0.7 {
			lowConfidence++
		}
	}

	summary := kb.QualitySummary{LowConfidenceCount: lowConfidence}
	if len(k.Products) > 0 {
		summary.ProductsAvgScore = productTotal / float64(len(k.Products))
	}
	if len(k.FAQs) > 0 {
		summary.FAQsAvgScore = faqTotal / float64(len(k.FAQs))
	}
	k.Metadata.QualitySummary = summary
}

// faqQualityScore is the additive structure score: 0.5 base, +0.2 for a
// question of 10-50 runes, +0.2 for an answer of 20-300 runes, +0.1 for
// a category, capped at 1.0.
func faqQualityScore(q *kb.QAPair) float64 {
	score := 0.5
	qLen := len([]rune(q.Question))
	if qLen >= 10 && qLen <= 50 {
		score += 0.2
	}
	aLen := len([]rune(q.Answer))
	if aLen >= 20 && aLen <= 300 {
		score += 0.2
	}
	if q.Category != "" {
		score += 0.1
	}
	if score > 1.0 {
		score = 1.0
	}
	return score
}
