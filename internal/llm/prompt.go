package llm

import (
	"fmt"
	"strings"
)

// maxAnswerRunes keeps answers short enough for one chat bubble
const maxAnswerRunes = 400

// BuildPrompt creates the prompt for a customer question
func BuildPrompt(req Request) string {
	return fmt.Sprintf(`Bạn là trợ lý chăm sóc khách hàng của %s, một công ty sản xuất kính.

Quy tắc:
1. Trả lời bằng tiếng Việt, tối đa 3 câu, không dùng markdown
2. Không tự tạo, sửa hay hủy đơn hàng; hướng dẫn khách gõ "đặt hàng" để bắt đầu
3. Không đưa ra giá, thời gian giao hàng hay tình trạng đơn hàng cụ thể
4. Nếu không chắc chắn, đề nghị khách gọi hotline %s

Câu hỏi của khách: %s

Trả lời:`, req.Brand, req.SupportPhone, req.Question)
}

// CleanAnswer strips code fences and markdown emphasis and caps the length
func CleanAnswer(content string) string {
	content = strings.TrimSpace(content)
	if body, ok := strings.CutPrefix(content, "```"); ok {
		if i := strings.Index(body, "\n"); i >= 0 {
			body = body[i+1:]
		}
		body, _, _ = strings.Cut(body, "```")
		content = strings.TrimSpace(body)
	}
	content = strings.NewReplacer("**", "", "__", "", "`", "").Replace(content)

	runes := []rune(content)
	if len(runes) > maxAnswerRunes {
		content = strings.TrimSpace(string(runes[:maxAnswerRunes])) + "…"
	}
	return content
}
