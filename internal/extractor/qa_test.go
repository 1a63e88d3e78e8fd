package extractor

import (
	"testing"

	"github.com/travelkb/kbuilder/internal/kb"
)

func conv(id string, msgs ...kb.Message) kb.Conversation {
	return kb.Conversation{SessionID: id, Messages: msgs}
}

func TestExtractQAPair(t *testing.T) {
	e := NewQA()
	pairs := e.Extract([]kb.Conversation{conv("s1",
		kb.Message{Role: kb.RoleCustomer, Content: "请问巴厘岛7日游多少钱"},
		kb.Message{Role: kb.RoleAgent, Content: "巴厘岛7日游价格8999元，包含机票和酒店"},
	)})

	if len(pairs) != 1 {
		t.Fatalf("got %d pairs, want 1", len(pairs))
	}
	got := pairs[0]
	if got.ID != "F001" {
		t.Errorf("id = %q, want F001", got.ID)
	}
	if got.Category != "价格" {
		t.Errorf("category = %q, want 价格", got.Category)
	}
	// 0.5 base, +0.1 question 10-50 runes, +0.1 answer 20-200 runes,
	// +0.1 informative markers, no enumeration.
	if got.Confidence != 0.8 {
		t.Errorf("confidence = %v, want 0.8", got.Confidence)
	}
	if got.Frequency != 1 {
		t.Errorf("frequency = %d, want 1", got.Frequency)
	}
}

func TestExtractSkipsGreetings(t *testing.T) {
	e := NewQA()
	for _, question := range []string{"你好", "你好在吗", "hello"} {
		pairs := e.Extract([]kb.Conversation{conv("s1",
			kb.Message{Role: kb.RoleCustomer, Content: question},
			kb.Message{Role: kb.RoleAgent, Content: "您好，很高兴为您服务"},
		)})
		if len(pairs) != 0 {
			t.Errorf("greeting %q produced %d pairs: %+v", question, len(pairs), pairs)
		}
	}
}

func TestExtractAnswerLookahead(t *testing.T) {
	e := NewQA()

	// The agent reply arrives after another customer message but still
	// within the lookahead window.
	pairs := e.Extract([]kb.Conversation{conv("s1",
		kb.Message{Role: kb.RoleCustomer, Content: "请问需要提前办理签证资料"},
		kb.Message{Role: kb.RoleCustomer, Content: "急等回复"},
		kb.Message{Role: kb.RoleAgent, Content: "巴厘岛对中国游客免签，无需办理"},
	)})
	if len(pairs) != 1 {
		t.Fatalf("got %d pairs, want 1", len(pairs))
	}
	if pairs[0].Category != "签证" {
		t.Errorf("category = %q, want 签证", pairs[0].Category)
	}

	// No agent reply within the window: the question is dropped.
	pairs = e.Extract([]kb.Conversation{conv("s2",
		kb.Message{Role: kb.RoleCustomer, Content: "请问需要提前办理签证资料"},
		kb.Message{Role: kb.RoleCustomer, Content: "在吗"},
		kb.Message{Role: kb.RoleCustomer, Content: "在吗"},
		kb.Message{Role: kb.RoleCustomer, Content: "在吗"},
		kb.Message{Role: kb.RoleAgent, Content: "抱歉久等了，免签"},
	)})
	if len(pairs) != 0 {
		t.Errorf("out-of-window answer produced %d pairs", len(pairs))
	}
}

func TestExtractCleansQuestionParticles(t *testing.T) {
	e := NewQA()
	pairs := e.Extract([]kb.Conversation{conv("s1",
		kb.Message{Role: kb.RoleCustomer, Content: "这个行程安排是怎样的呢"},
		kb.Message{Role: kb.RoleAgent, Content: "第一天抵达后入住酒店，第二天出海浮潜"},
	)})
	if len(pairs) != 1 {
		t.Fatalf("got %d pairs, want 1", len(pairs))
	}
	if pairs[0].Question != "这个行程安排是怎样的" {
		t.Errorf("question = %q, particles not stripped", pairs[0].Question)
	}
}

func TestExtractTruncatesLongAnswer(t *testing.T) {
	long := make([]rune, 0, 400)
	for i := 0; i < 400; i++ {
		long = append(long, '详')
	}
	e := NewQA()
	pairs := e.Extract([]kb.Conversation{conv("s1",
		kb.Message{Role: kb.RoleCustomer, Content: "请问具体行程安排是什么"},
		kb.Message{Role: kb.RoleAgent, Content: string(long)},
	)})
	if len(pairs) != 1 {
		t.Fatalf("got %d pairs, want 1", len(pairs))
	}
	runes := []rune(pairs[0].Answer)
	if len(runes) != 300 {
		t.Errorf("answer length = %d runes, want 300", len(runes))
	}
	if string(runes[297:]) != "..." {
		t.Errorf("answer does not end with ellipsis: %q", string(runes[290:]))
	}
}

func TestExtractMergesSimilarQuestions(t *testing.T) {
	e := NewQA()
	pairs := e.Extract([]kb.Conversation{
		conv("s1",
			kb.Message{Role: kb.RoleCustomer, Content: "巴厘岛7日游多少钱"},
			kb.Message{Role: kb.RoleAgent, Content: "价格8999元起"},
		),
		conv("s2",
			kb.Message{Role: kb.RoleCustomer, Content: "请问巴厘岛7日游多少钱啊"},
			kb.Message{Role: kb.RoleAgent, Content: "巴厘岛7日游价格8999元，包含机票和酒店"},
		),
	})

	if len(pairs) != 1 {
		t.Fatalf("got %d pairs, want merged 1: %+v", len(pairs), pairs)
	}
	got := pairs[0]
	if got.Frequency != 2 {
		t.Errorf("frequency = %d, want 2", got.Frequency)
	}
	// The second occurrence scores higher and its answer wins.
	if got.Answer != "巴厘岛7日游价格8999元，包含机票和酒店" {
		t.Errorf("answer = %q, want the higher-confidence one", got.Answer)
	}
}

func TestExtractOrdersByFrequencyThenConfidence(t *testing.T) {
	e := NewQA()
	pairs := e.Extract([]kb.Conversation{
		conv("s1",
			kb.Message{Role: kb.RoleCustomer, Content: "酒店住宿是几星级的呢"},
			kb.Message{Role: kb.RoleAgent, Content: "全程入住五星级海景酒店，含双早"},
		),
		conv("s2",
			kb.Message{Role: kb.RoleCustomer, Content: "巴厘岛7日游多少钱"},
			kb.Message{Role: kb.RoleAgent, Content: "价格8999元起"},
		),
		conv("s3",
			kb.Message{Role: kb.RoleCustomer, Content: "请问巴厘岛7日游多少钱"},
			kb.Message{Role: kb.RoleAgent, Content: "巴厘岛7日游价格8999元，包含机票和酒店"},
		),
	})

	if len(pairs) != 2 {
		t.Fatalf("got %d pairs, want 2: %+v", len(pairs), pairs)
	}
	if pairs[0].Category != "价格" || pairs[0].Frequency != 2 {
		t.Errorf("first pair = %+v, want the merged price question", pairs[0])
	}
	if pairs[0].ID != "F001" || pairs[1].ID != "F002" {
		t.Errorf("ids = %q, %q, want F001, F002 in rank order", pairs[0].ID, pairs[1].ID)
	}
}

func TestSimilarQuestions(t *testing.T) {
	tests := []struct {
		q1, q2 string
		want   bool
	}{
		{"巴厘岛多少钱", "请问巴厘岛多少钱", true}, // substring
		{"签证怎么办理", "酒店是几星级", false},
		{"", "", true},
		{"", "巴厘岛", false},
	}
	for _, tt := range tests {
		if got := similarQuestions(tt.q1, tt.q2); got != tt.want {
			t.Errorf("similarQuestions(%q, %q) = %v, want %v", tt.q1, tt.q2, got, tt.want)
		}
	}
}
