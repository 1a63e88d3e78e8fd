package kb

import (
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestFAQID(t *testing.T) {
	tests := []struct {
		prefix   string
		existing int
		want     string
	}{
		{"F", 0, "F001"},
		{"F", 4, "F005"},
		{"AUTO_F", 0, "AUTO_F001"},
		{"AUTO_F", 99, "AUTO_F100"},
	}
	for _, tt := range tests {
		if got := FAQID(tt.prefix, tt.existing); got != tt.want {
			t.Errorf("FAQID(%q, %d) = %q, want %q", tt.prefix, tt.existing, got, tt.want)
		}
	}
}

func TestStoreAddFAQ(t *testing.T) {
	s := NewStore()
	s.AddFAQ(QAPair{Question: "第一个问题", Answer: "答案"})
	s.AddFAQ(QAPair{ID: "AUTO_F001", Question: "第二个问题", Answer: "答案", Frequency: 3})
	s.AddFAQ(QAPair{Question: "第三个问题", Answer: "答案"})

	if s.FAQs[0].ID != "F001" {
		t.Errorf("first FAQ id = %q, want F001", s.FAQs[0].ID)
	}
	if s.FAQs[1].ID != "AUTO_F001" {
		t.Errorf("explicit id overwritten: %q", s.FAQs[1].ID)
	}
	if s.FAQs[2].ID != "F003" {
		t.Errorf("third FAQ id = %q, want F003", s.FAQs[2].ID)
	}
	if s.FAQs[0].Frequency != 1 {
		t.Errorf("default frequency = %d, want 1", s.FAQs[0].Frequency)
	}
	if s.FAQs[1].Frequency != 3 {
		t.Errorf("explicit frequency = %d, want 3", s.FAQs[1].Frequency)
	}
}

func TestStoreAddSource(t *testing.T) {
	s := NewStore()
	s.AddSource("products", "docs/")
	s.AddSource("orders", "orders.csv")
	want := []string{"products:docs/", "orders:orders.csv"}
	if !reflect.DeepEqual(s.Sources, want) {
		t.Errorf("sources = %v, want %v", s.Sources, want)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	k := &KnowledgeBase{
		Products: []ProductCandidate{{
			Name:        "巴厘岛7日游",
			Price:       8999,
			Duration:    7,
			Destination: []string{"巴厘岛"},
			Highlights:  []string{"私人沙滩", "浮潜体验"},
			Confidence:  0.7,
			SourceText:  "巴厘岛7日游 ¥8999",
		}},
		FAQs: []QAPair{{
			ID:         "F001",
			Question:   "巴厘岛多少钱",
			Answer:     "8999元起",
			Category:   "价格",
			Confidence: 0.8,
			Frequency:  2,
		}},
		Policies: []Policy{{
			Type:       "退改政策",
			Title:      "订单退改规则",
			Content:    "根据历史数据分析，退改主要集中在预订后7天内。",
			Confidence: 0.6,
			Source:     "order_analysis",
		}},
		Metadata: Metadata{
			Sources:     []string{"products:docs/"},
			GeneratedAt: "2025-06-01T10:00:00Z",
			Stats:       Stats{Products: 1, FAQs: 1, Policies: 1},
		},
	}

	path := filepath.Join(t.TempDir(), "kb.json")
	if err := Save(k, path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(k, loaded) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", loaded, k)
	}
}

func TestMarshalKeepsCJKReadable(t *testing.T) {
	k := &KnowledgeBase{
		Products: []ProductCandidate{{Name: "巴厘岛<豪华>游"}},
	}
	data, err := Marshal(k)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if got := string(data); !strings.Contains(got, "巴厘岛<豪华>游") {
		t.Errorf("output escapes CJK or angle brackets: %s", got)
	}
}
