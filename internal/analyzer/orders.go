// Package analyzer derives knowledge from historical order records:
// sales statistics, refund-reason distributions, FAQ candidates, and
// inferred policies.
package analyzer

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/travelkb/kbuilder/internal/kb"
)

// HotProduct is one entry of the best-seller ranking.
type HotProduct struct {
	Name       string  `json:"name"`
	Sales      int     `json:"sales"`
	RefundRate float64 `json:"refund_rate"`
}

// RefundIssue is one refund-reason category with its share of all
// classified reasons.
type RefundIssue struct {
	Category   string  `json:"category"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// Insights is everything the analyzer derives from one orders file.
type Insights struct {
	HotProducts   []HotProduct
	CommonIssues  []RefundIssue
	FAQCandidates []kb.QAPair
	Policies      []kb.Policy
}

// refundReasonRules classifies free-text refund reasons; the first
// matching category wins and unmatched reasons are dropped from the
// distribution.
var refundReasonRules = []struct {
	Category string
	Keywords []string
}{
	{"行程变更", []string{"行程", "改期", "时间", "计划"}},
	{"个人原因", []string{"个人", "身体", "生病", "有事"}},
	{"产品问题", []string{"不满意", "不符", "虚假", "欺骗"}},
	{"价格问题", []string{"降价", "贵", "更便宜", "优惠"}},
	{"外部因素", []string{"疫情", "天气", "灾害", "政策"}},
}

// Analyze computes all insights over the given orders.
func Analyze(orders []kb.Order) *Insights {
	return &Insights{
		HotProducts:   hotProducts(orders),
		CommonIssues:  refundIssues(orders),
		FAQCandidates: generateFAQs(orders),
		Policies:      inferPolicies(orders),
	}
}

// hotProducts ranks the top-10 products by completed sales, each with
// its refund rate (refunded/total for that product, in percent).
func hotProducts(orders []kb.Order) []HotProduct {
	sales := make(map[string]int)
	totals := make(map[string]int)
	refunds := make(map[string]int)
	for _, o := range orders {
		totals[o.ProductName]++
		switch o.Status {
		case kb.StatusCompleted:
			sales[o.ProductName]++
		case kb.StatusRefunded:
			refunds[o.ProductName]++
		}
	}

	ranked := make([]HotProduct, 0, len(sales))
	for name, count := range sales {
		rate := 0.0
		if totals[name] > 0 {
			rate = round2(float64(refunds[name]) / float64(totals[name]) * 100)
		}
		ranked = append(ranked, HotProduct{Name: name, Sales: count, RefundRate: rate})
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Sales != ranked[j].Sales {
			return ranked[i].Sales > ranked[j].Sales
		}
		return ranked[i].Name < ranked[j].Name
	})
	if len(ranked) > 10 {
		ranked = ranked[:10]
	}
	return ranked
}

// refundIssues classifies refund reasons of refunded orders into the
// fixed categories and reports count and percentage of all collected
// reasons.
func refundIssues(orders []kb.Order) []RefundIssue {
	var reasons []string
	for _, o := range orders {
		if o.Status == kb.StatusRefunded && o.RefundReason != "" {
			reasons = append(reasons, o.RefundReason)
		}
	}
	if len(reasons) == 0 {
		return nil
	}

	counts := make(map[string]int)
	for _, reason := range reasons {
		for _, rule := range refundReasonRules {
			if containsAny(reason, rule.Keywords) {
				counts[rule.Category]++
				break
			}
		}
	}

	var issues []RefundIssue
	for _, rule := range refundReasonRules {
		count := counts[rule.Category]
		if count == 0 {
			continue
		}
		issues = append(issues, RefundIssue{
			Category:   rule.Category,
			Count:      count,
			Percentage: round2(float64(count) / float64(len(reasons)) * 100),
		})
	}
	sort.SliceStable(issues, func(i, j int) bool { return issues[i].Count > issues[j].Count })
	return issues
}

// generateFAQs synthesizes a price FAQ for each of the top-5 selling
// products with at least one positive-price order, plus one aggregate
// refund FAQ when any refunded orders exist.
func generateFAQs(orders []kb.Order) []kb.QAPair {
	counts := make(map[string]int)
	for _, o := range orders {
		counts[o.ProductName]++
	}
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if counts[names[i]] != counts[names[j]] {
			return counts[names[i]] > counts[names[j]]
		}
		return names[i] < names[j]
	})
	if len(names) > 5 {
		names = names[:5]
	}

	var faqs []kb.QAPair
	for _, name := range names {
		var sum float64
		var n int
		for _, o := range orders {
			if o.ProductName == name && o.Price > 0 {
				sum += o.Price
				n++
			}
		}
		if n == 0 {
			continue
		}
		avg := sum / float64(n)
		faqs = append(faqs, kb.QAPair{
			ID:         kb.FAQID("AUTO_F", len(faqs)),
			Question:   fmt.Sprintf("%s多少钱？", name),
			Answer:     fmt.Sprintf("%s价格约¥%d起，具体以实际查询为准。", name, int(avg)),
			Category:   "价格",
			Confidence: 0.8,
			Frequency:  1,
			Source:     "order_analysis",
		})
	}

	refunded := 0
	for _, o := range orders {
		if o.Status == kb.StatusRefunded {
			refunded++
		}
	}
	if refunded > 0 && len(orders) > 0 {
		rate := float64(refunded) / float64(len(orders)) * 100
		faqs = append(faqs, kb.QAPair{
			ID:         kb.FAQID("AUTO_F", len(faqs)),
			Question:   "可以退改吗？",
			Answer:     fmt.Sprintf("可以退改，具体规则请参考预订时的退改政策。历史数据显示退改率约%.1f%%。", rate),
			Category:   "退改",
			Confidence: 0.7,
			Frequency:  1,
			Source:     "order_analysis",
		})
	}
	return faqs
}

// inferPolicies emits the refund-window policy stub once refunded orders
// exceed five. The seven-day claim is a fixed heuristic placeholder, not
// a statistically derived window, hence the low confidence.
func inferPolicies(orders []kb.Order) []kb.Policy {
	refunded := 0
	for _, o := range orders {
		if o.Status == kb.StatusRefunded {
			refunded++
		}
	}
	if refunded <= 5 {
		return nil
	}
	return []kb.Policy{{
		Type:       "退改政策",
		Title:      "订单退改规则",
		Content:    "根据历史数据分析，退改主要集中在预订后7天内。",
		Confidence: 0.6,
		Source:     "order_analysis",
	}}
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
