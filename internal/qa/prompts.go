package qa

import (
	"fmt"
	"strings"
)

// PromptContext is one retrieved record rendered into the LLM prompt.
type PromptContext struct {
	Date         string
	Dow          string
	Start        string
	Location     string
	Participants string
	Text         string
	Score        float32
	HasScore     bool
}

// BuildPrompt assembles the RAG prompt: numbered context sections with their
// metadata, the question, and the list-all-same-day instruction.
func BuildPrompt(question string, contexts []PromptContext) string {
	var b strings.Builder
	b.WriteString("[CÁC ĐOẠN LIÊN QUAN]\n")

	for i, c := range contexts {
		var meta []string
		if c.Date != "" {
			meta = append(meta, "Ngày: "+c.Date)
		}
		if c.Dow != "" {
			meta = append(meta, "Thứ: "+c.Dow)
		}
		if c.Start != "" {
			meta = append(meta, "Giờ: "+c.Start)
		}
		if c.Location != "" {
			meta = append(meta, "Địa điểm: "+c.Location)
		}
		if c.Participants != "" {
			meta = append(meta, "TP: "+c.Participants)
		}

		head := fmt.Sprintf("\n--- ĐOẠN %d", i+1)
		if c.HasScore {
			head += fmt.Sprintf(" (score=%.3f)", c.Score)
		}
		head += " ---\n"

		b.WriteString(head)
		b.WriteString(strings.Join(meta, " | "))
		b.WriteString("\n")
		b.WriteString(c.Text)
		b.WriteString("\n")
	}

	b.WriteString("\n[CÂU HỎI]\n")
	b.WriteString(question)
	b.WriteString("\n\n[HƯỚNG DẪN]\nNếu nhiều sự kiện cùng ngày, hãy liệt kê TẤT CẢ.")
	return b.String()
}
