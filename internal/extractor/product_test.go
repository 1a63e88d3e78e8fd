package extractor

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/travelkb/kbuilder/internal/llm"
)

type mockProvider struct {
	response string
	err      error
	requests []llm.CompletionRequest
}

func (m *mockProvider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	m.requests = append(m.requests, req)
	if m.err != nil {
		return nil, m.err
	}
	return &llm.CompletionResponse{Content: m.response}, nil
}

func (m *mockProvider) Name() string { return "mock" }

const baliDoc = `巴厘岛豪华游 ¥8999 7天
亮点:私人沙滩、浮潜体验、海景酒店
费用包含:机票、酒店、早餐
费用不含:签证费、个人消费
签证:免签
退改政策:出发前7天可免费取消`

func TestExtractWithRules(t *testing.T) {
	e := NewProduct(nil, "", 0)
	got := e.Extract(context.Background(), baliDoc)

	if got.Name != "巴厘岛豪华游 ¥8999 7天" {
		t.Errorf("name = %q", got.Name)
	}
	if got.Price != 8999 {
		t.Errorf("price = %v, want 8999", got.Price)
	}
	if got.Duration != 7 {
		t.Errorf("duration = %d, want 7", got.Duration)
	}
	if !reflect.DeepEqual(got.Destination, []string{"巴厘岛"}) {
		t.Errorf("destination = %v", got.Destination)
	}
	if !reflect.DeepEqual(got.Highlights, []string{"私人沙滩", "浮潜体验", "海景酒店"}) {
		t.Errorf("highlights = %v", got.Highlights)
	}
	if !reflect.DeepEqual(got.Inclusions, []string{"机票", "酒店", "早餐"}) {
		t.Errorf("inclusions = %v", got.Inclusions)
	}
	if !reflect.DeepEqual(got.Exclusions, []string{"签证费", "个人消费"}) {
		t.Errorf("exclusions = %v", got.Exclusions)
	}
	if got.VisaInfo != "免签" {
		t.Errorf("visa = %q", got.VisaInfo)
	}
	if got.CancellationPolicy != "出发前7天可免费取消" {
		t.Errorf("cancellation = %q", got.CancellationPolicy)
	}
	if got.Confidence != 0.7 {
		t.Errorf("confidence = %v, want 0.7", got.Confidence)
	}
	if got.SourceText != baliDoc {
		t.Errorf("source excerpt = %q", got.SourceText)
	}
}

func TestExtractPricePatternPriority(t *testing.T) {
	tests := []struct {
		text string
		want float64
	}{
		{"特价 ¥8999 或 9999元", 8999},
		{"仅售 6500元", 6500},
		{"价格：7800", 7800},
		{"团费: 5200", 5200},
		{"免费咨询", 0},
	}
	for _, tt := range tests {
		got := extractWithRules(tt.text)
		if got.Price != tt.want {
			t.Errorf("price of %q = %v, want %v", tt.text, got.Price, tt.want)
		}
	}
}

func TestExtractNameFallsBackToFirstLine(t *testing.T) {
	got := extractWithRules("尊享套餐A\n含机票酒店")
	if got.Name != "尊享套餐A" {
		t.Errorf("name = %q, want first line", got.Name)
	}
	if got := extractWithRules("   \n\n  "); got.Name != "未知产品" {
		t.Errorf("empty doc name = %q, want 未知产品", got.Name)
	}
}

func TestExtractNamePrefersTravelMarker(t *testing.T) {
	got := extractWithRules("产品编号TX-1001\n东京温泉之旅\n价格：6800")
	if got.Name != "东京温泉之旅" {
		t.Errorf("name = %q, want the 之旅 line", got.Name)
	}
}

func TestExtractWithProvider(t *testing.T) {
	mock := &mockProvider{response: "```json\n" + `{
  "name": "巴厘岛豪华七日游",
  "price": 8999,
  "duration": 7,
  "destination": ["巴厘岛"],
  "highlights": ["私人沙滩"],
  "visa_info": "免签",
  "confidence": 0.92
}` + "\n```"}

	e := NewProduct(mock, "gpt-4o-mini", time.Second)
	got := e.Extract(context.Background(), baliDoc)

	if got.Name != "巴厘岛豪华七日游" {
		t.Errorf("name = %q", got.Name)
	}
	if got.Confidence != 0.92 {
		t.Errorf("confidence = %v, want model's 0.92", got.Confidence)
	}
	if len(mock.requests) != 1 {
		t.Fatalf("provider called %d times, want 1", len(mock.requests))
	}
	req := mock.requests[0]
	if req.Model != "gpt-4o-mini" {
		t.Errorf("model = %q", req.Model)
	}
	if !req.JSONMode {
		t.Error("request did not ask for JSON mode")
	}
}

func TestExtractProviderConfidenceDefaults(t *testing.T) {
	mock := &mockProvider{response: `{"name": "东京游", "price": 6500}`}
	e := NewProduct(mock, "gpt-4o-mini", time.Second)
	got := e.Extract(context.Background(), "东京游")
	if got.Confidence != 0.85 {
		t.Errorf("confidence = %v, want default 0.85", got.Confidence)
	}

	mock = &mockProvider{response: `{"name": "东京游", "confidence": 3.5}`}
	e = NewProduct(mock, "gpt-4o-mini", time.Second)
	got = e.Extract(context.Background(), "东京游")
	if got.Confidence != 1.0 {
		t.Errorf("confidence = %v, want clamped 1.0", got.Confidence)
	}
}

func TestExtractProviderErrorFallsBack(t *testing.T) {
	mock := &mockProvider{err: errors.New("rate limited")}
	e := NewProduct(mock, "gpt-4o-mini", time.Second)
	got := e.Extract(context.Background(), baliDoc)

	if got.Price != 8999 || got.Confidence != 0.7 {
		t.Errorf("fallback candidate = %+v, want heuristic extraction", got)
	}
}

func TestExtractProviderBadJSONFallsBack(t *testing.T) {
	mock := &mockProvider{response: "抱歉，我无法处理这个请求。"}
	e := NewProduct(mock, "gpt-4o-mini", time.Second)
	got := e.Extract(context.Background(), baliDoc)

	if got.Confidence != 0.7 {
		t.Errorf("confidence = %v, want heuristic 0.7 after parse failure", got.Confidence)
	}
}

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"{\"a\":1}", "{\"a\":1}"},
		{"```json\n{\"a\":1}\n```", "{\"a\":1}"},
		{"```\n{\"a\":1}\n```", "{\"a\":1}"},
		{"  ```json\n{\"a\":1}\n```  ", "{\"a\":1}"},
	}
	for _, tt := range tests {
		if got := stripCodeFence(tt.in); got != tt.want {
			t.Errorf("stripCodeFence(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
