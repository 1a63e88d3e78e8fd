package extractor

import "fmt"

const productSystemPrompt = "你是旅游产品信息抽取助手。只返回JSON，不要其他内容。"

const productPromptTemplate = `请从以下旅游产品文档中提取结构化信息，返回JSON格式:

文档内容:
%s

需要提取的字段:
- name: 产品名称
- price: 价格 (数字)
- duration: 天数 (数字)
- destination: 目的地 (列表)
- highlights: 亮点 (列表)
- inclusions: 包含项目 (列表)
- exclusions: 不包含项目 (列表)
- visa_info: 签证信息
- booking_policy: 预订政策
- cancellation_policy: 退改政策
- confidence: 抽取置信度 (0到1之间的数字)

仅返回JSON，不要其他内容。`

// promptDocRunes caps how much document text goes into the prompt.
const promptDocRunes = 2000

func buildProductPrompt(docText string) string {
	return fmt.Sprintf(productPromptTemplate, truncateRunes(docText, promptDocRunes))
}
