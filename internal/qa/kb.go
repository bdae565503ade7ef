package qa

import (
	"regexp"
	"strings"
)

// SystemPrompt constrains the LLM to answer in Vietnamese from the supplied
// context only.
const SystemPrompt = "Bạn là trợ lý lịch công tác. Trả lời BẰNG TIẾNG VIỆT và CHỈ dựa trên ngữ cảnh cung cấp. " +
	"Nếu không đủ thông tin, hãy trả lời: 'Mình không tìm thấy thông tin trong lịch tuần này'. " +
	"Luôn nêu rõ NGÀY, THỨ, GIỜ, ĐỊA ĐIỂM, THÀNH PHẦN nếu có."

// GeneralPersona is the persona prompt for out-of-scope chat.
const GeneralPersona = "Bạn là trợ lý thân thiện của Trường Đại học Thương mại (TMU). " +
	"Trả lời NGẮN GỌN (1–3 câu), tự nhiên, lịch sự, rõ ý. " +
	"Nếu câu hỏi ngoài phạm vi, hãy nói thẳng và gợi ý người dùng hỏi về lịch công tác."

// Canned replies.
const (
	msgNotFoundWeek    = "Mình không tìm thấy thông tin trong lịch tuần này."
	msgNotFoundGeneric = "Mình không tìm thấy thông tin trong lịch tuần này"
	msgUnsure          = "Mình chưa chắc câu này. Bạn có thể hỏi lại ngắn gọn hơn không?"
	msgSmalltalkOther  = "Chào bạn! Mình là trợ lý lịch công tác của TMU. Bạn cần mình kiểm tra ngày/thứ nào không?"
)

// weeklyKB describes what the weekly schedule document is and does; served
// verbatim for definition questions about it.
var weeklyKB = struct {
	Definition string
	Functions  []string
	Closing    string
}{
	Definition: "“Lịch tuần” của Trường Đại học Thương Mại (TMU) là văn bản/tập tin tổng hợp " +
		"các cuộc họp, sự kiện và công việc trong một tuần, kèm ngày, giờ, địa điểm, thành phần tham dự.",
	Functions: []string{
		"Thông báo kế hoạch công tác tuần cho BGH, đơn vị và cá nhân liên quan.",
		"Điều phối phòng họp, nguồn lực và phân công tham dự (tránh trùng lịch).",
		"Làm căn cứ truyền thông nội bộ/đối ngoại cho các sự kiện của Trường.",
		"Lưu vết kế hoạch để đối chiếu, tổng kết công tác.",
	},
	Closing: "Bạn cần mình tra thử một ngày/thứ cụ thể trong lịch tuần hiện tại không?",
}

// smalltalkTemplates are canned replies keyed by the matched topic.
var smalltalkTemplates = map[string]string{
	"who":     "Mình là trợ lý lịch công tác của TMU. Mình có thể tìm lịch theo ngày, thứ hoặc từ khóa.",
	"what_do": "Mình hỗ trợ tra cứu lịch tuần, tóm tắt cuộc họp/sự kiện theo ngày hay chủ đề.",
	"help":    "Bạn có thể hỏi: “Thứ 5 có gì?”, “20/08/2025 họp gì?”, hoặc “các hoạt động về EMBA”.",
}

// dowAliases maps each canonical day-of-week label to its spelled variants,
// in canonical order.
var dowAliases = []struct {
	Canon    string
	Variants []string
}{
	{"thứ 2", []string{"thứ hai", "thu hai", "th2", "t2", "thứ 2"}},
	{"thứ 3", []string{"thứ ba", "thu ba", "th3", "t3", "thứ 3"}},
	{"thứ 4", []string{"thứ tư", "thu tu", "th4", "t4", "thứ 4"}},
	{"thứ 5", []string{"thứ năm", "thu nam", "th5", "t5", "thứ 5"}},
	{"thứ 6", []string{"thứ sáu", "thu sau", "th6", "t6", "thứ 6"}},
	{"thứ 7", []string{"thứ bảy", "thu bay", "th7", "t7", "thứ 7"}},
	{"chủ nhật", []string{"chủ nhật", "chu nhat", "cn"}},
}

var spaceRE = regexp.MustCompile(`\s+`)

// CanonDow maps any spelled day-of-week variant to its canonical label
// ("thứ 2" … "thứ 7", "chủ nhật"). Unrecognized input comes back normalized
// but otherwise unchanged.
func CanonDow(s string) string {
	q := spaceRE.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), " ")
	for _, a := range dowAliases {
		for _, v := range a.Variants {
			if q == v || strings.Contains(q, v) {
				return a.Canon
			}
		}
	}
	return q
}
