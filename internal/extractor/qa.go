package extractor

import (
	"regexp"
	"sort"
	"strings"

	"github.com/travelkb/kbuilder/internal/kb"
)

// answerLookahead is how many messages after a customer question may
// hold the agent's answer.
const answerLookahead = 3

// categoryRule pairs an FAQ category with its trigger keywords. The
// slice is ordered: the first matching category wins.
type categoryRule struct {
	Category string
	Keywords []string
}

var categoryRules = []categoryRule{
	{"预订", []string{"预订", "报名", "下单", "购买", "订"}},
	{"价格", []string{"价格", "多少钱", "费用", "团费", "优惠"}},
	{"行程", []string{"行程", "安排", "路线", "景点", "去哪里"}},
	{"签证", []string{"签证", "护照", "入境", "需要办"}},
	{"酒店", []string{"酒店", "住宿", "住哪里", "几星"}},
	{"交通", []string{"机票", "航班", "接送", "交通"}},
	{"退改", []string{"退改", "取消", "退款", "改签", "变更"}},
	{"儿童", []string{"儿童", "小孩", "婴儿", "年龄", "收费"}},
	{"保险", []string{"保险", "意外险", "旅游险"}},
}

var greetings = []string{"你好", "您好", "在吗", "在么", "hi", "hello"}

// fillerParticles are tone particles stripped from questions.
var fillerParticles = regexp.MustCompile(`[啊呢吧吗嘛]`)

// enumeration markers hinting at a structured answer.
var enumerationMarkers = []string{"1.", "2.", "3.", "首先", "其次"}

// informativeMarkers hint that an answer carries concrete facts.
var informativeMarkers = []string{"元", "天", "包含", "需要", "可以"}

// QA extracts deduplicated question/answer pairs from conversations.
type QA struct{}

// NewQA creates a QA extractor.
func NewQA() *QA {
	return &QA{}
}

// Extract scans every conversation for customer questions answered by a
// nearby agent message, merges similar questions across conversations,
// and returns pairs ordered by descending (frequency, confidence) with
// ids assigned in that order.
func (e *QA) Extract(conversations []kb.Conversation) []kb.QAPair {
	var pairs []kb.QAPair
	for _, conv := range conversations {
		pairs = append(pairs, extractFromConversation(conv)...)
	}

	merged := mergeSimilar(pairs)
	for i := range merged {
		merged[i].ID = kb.FAQID("F", i)
	}
	return merged
}

func extractFromConversation(conv kb.Conversation) []kb.QAPair {
	var pairs []kb.QAPair
	for i, msg := range conv.Messages {
		if msg.Role != kb.RoleCustomer {
			continue
		}
		question := cleanQuestion(msg.Content)

		var answer string
		for j := i + 1; j < len(conv.Messages) && j <= i+answerLookahead; j++ {
			if conv.Messages[j].Role == kb.RoleAgent {
				answer = conv.Messages[j].Content
				break
			}
		}
		if answer == "" || !isValidQA(question, answer) {
			continue
		}

		pairs = append(pairs, kb.QAPair{
			Question:   question,
			Answer:     cleanAnswer(answer),
			Category:   classifyQuestion(question),
			Confidence: scoreQA(question, answer),
			Frequency:  1,
		})
	}
	return pairs
}

// cleanQuestion strips tone particles and collapses whitespace.
func cleanQuestion(text string) string {
	text = fillerParticles.ReplaceAllString(text, "")
	return strings.Join(strings.Fields(text), " ")
}

// cleanAnswer truncates over-long answers with an ellipsis.
func cleanAnswer(text string) string {
	text = strings.TrimSpace(text)
	runes := []rune(text)
	if len(runes) > 300 {
		return string(runes[:297]) + "..."
	}
	return text
}

// isValidQA applies the acceptance gates: a real question (not a short
// greeting) and an answer of usable length. Lengths are in runes.
func isValidQA(question, answer string) bool {
	qLen := len([]rune(question))
	aLen := len([]rune(answer))

	if qLen < 5 {
		return false
	}
	if aLen < 3 || aLen > 500 {
		return false
	}
	if qLen < 10 {
		lower := strings.ToLower(question)
		for _, g := range greetings {
			if strings.Contains(lower, g) {
				return false
			}
		}
	}
	return true
}

// scoreQA computes the additive confidence: base 0.5 plus 0.1 for each
// of question length band, answer length band, informative markers, and
// enumeration markers, capped at 1.0.
func scoreQA(question, answer string) float64 {
	score := 0.5

	qLen := len([]rune(question))
	if qLen >= 10 && qLen <= 50 {
		score += 0.1
	}
	aLen := len([]rune(answer))
	if aLen >= 20 && aLen <= 200 {
		score += 0.1
	}
	if containsAny(answer, informativeMarkers) {
		score += 0.1
	}
	if containsAny(answer, enumerationMarkers) {
		score += 0.1
	}

	if score > 1.0 {
		score = 1.0
	}
	return score
}

func classifyQuestion(question string) string {
	for _, rule := range categoryRules {
		if containsAny(question, rule.Keywords) {
			return rule.Category
		}
	}
	return "其他"
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// mergeSimilar folds similar questions into one pair: the
// higher-confidence answer wins, frequency accumulates. The result is
// ordered by descending (frequency, confidence).
func mergeSimilar(pairs []kb.QAPair) []kb.QAPair {
	var merged []kb.QAPair
	for _, qa := range pairs {
		idx := -1
		for i := range merged {
			if similarQuestions(qa.Question, merged[i].Question) {
				idx = i
				break
			}
		}
		if idx < 0 {
			merged = append(merged, qa)
			continue
		}
		if qa.Confidence > merged[idx].Confidence {
			merged[idx].Answer = qa.Answer
			merged[idx].Confidence = qa.Confidence
		}
		merged[idx].Frequency++
	}

	sort.SliceStable(merged, func(i, j int) bool {
		if merged[i].Frequency != merged[j].Frequency {
			return merged[i].Frequency > merged[j].Frequency
		}
		return merged[i].Confidence > merged[j].Confidence
	})
	return merged
}

// similarQuestions judges two questions similar when one contains the
// other, or when their character sets overlap by at least half of the
// smaller set.
func similarQuestions(q1, q2 string) bool {
	if q1 == "" || q2 == "" {
		return q1 == q2
	}
	if strings.Contains(q1, q2) || strings.Contains(q2, q1) {
		return true
	}

	set1 := runeSet(q1)
	set2 := runeSet(q2)
	common := 0
	for r := range set1 {
		if set2[r] {
			common++
		}
	}
	smaller := len(set1)
	if len(set2) < smaller {
		smaller = len(set2)
	}
	return float64(common) >= 0.5*float64(smaller)
}

func runeSet(s string) map[rune]bool {
	set := make(map[rune]bool, len(s))
	for _, r := range s {
		set[r] = true
	}
	return set
}
