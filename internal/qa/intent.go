// Package qa implements the question-answering core: intent classification,
// time-window parsing and filtering, Vietnamese answer formatting, and the
// query router that ties storage, retrieval, and the LLM together.
package qa

import (
	"regexp"
	"strings"
)

// Intent is the classified purpose of a question.
type Intent string

const (
	IntentSmalltalk   Intent = "SMALLTALK"
	IntentDefine      Intent = "DEFINE"
	IntentSchedule    Intent = "SCHEDULE"
	IntentScheduleAll Intent = "SCHEDULE_ALL"
	IntentGeneral     Intent = "GENERAL"
)

// Question token patterns. Word boundaries (\b) are ASCII-only in Go regexp,
// so they are kept around plain-ASCII tokens only; Vietnamese words with
// diacritics match as substrings.
var (
	fullDateRE = regexp.MustCompile(`\b(\d{1,2})[/-](\d{1,2})[/-](\d{4})\b`)

	partialDateRE = regexp.MustCompile(`\b(\d{1,2})[/-](\d{1,2})\b`)

	dowTokenRE = regexp.MustCompile(
		`(?i)(thứ\s*(?:2|3|4|5|6|7|hai|ba|tư|năm|sáu|bảy)|thu\s*(?:2|3|4|5|6|7|hai|ba|tu|nam|sau|bay)|\bt[2-7]\b|chủ\s*nhật|chu\s*nhat|\bcn\b)`)

	weekPhraseRE = regexp.MustCompile(`(?i)(lịch\s+toàn\s+tuần|toàn\s+tuần)`)

	defineRE = regexp.MustCompile(`(?i)(là gì|là cái gì|what\s+is)`)

	calendarHintRE = regexp.MustCompile(
		`(?i)(lịch|họp|công tác|sự kiện|kế hoạch|khai giảng|xét tuyển|hội đồng|hôm nay|tuần này|ngày mai|thứ|ngày|giờ|địa điểm)`)

	smalltalkRE = regexp.MustCompile(
		`(?i)(xin chào|chào|\bhello\b|\bhi\b|bạn là ai|giới thiệu|tên bạn|làm công việc gì|what do you do|\bhelp\b|giúp)`)
)

// intentRule pairs a named predicate with the intent it yields.
type intentRule struct {
	Name    string
	Matches func(q string) bool
	Intent  Intent
}

// intentRules is the ordered decision list for classification; the first
// matching rule wins. Predicates receive the trimmed, lowercased question.
var intentRules = []intentRule{
	{
		Name:    "smalltalk vocabulary",
		Matches: smalltalkRE.MatchString,
		Intent:  IntentSmalltalk,
	},
	{
		Name:    "definition question",
		Matches: defineRE.MatchString,
		Intent:  IntentDefine,
	},
	{
		Name: "explicit date or day-of-week",
		Matches: func(q string) bool {
			return fullDateRE.MatchString(q) || partialDateRE.MatchString(q) || dowTokenRE.MatchString(q)
		},
		Intent: IntentSchedule,
	},
	{
		Name:    "whole-week phrase",
		Matches: weekPhraseRE.MatchString,
		Intent:  IntentScheduleAll,
	},
	{
		Name:    "calendar keyword",
		Matches: calendarHintRE.MatchString,
		Intent:  IntentSchedule,
	},
}

// Classify maps a question to exactly one intent. It is total and
// deterministic: every string, including the empty one, yields an intent.
func Classify(q string) Intent {
	qn := strings.ToLower(strings.TrimSpace(q))
	if qn == "" {
		return IntentGeneral
	}
	for _, rule := range intentRules {
		if rule.Matches(qn) {
			return rule.Intent
		}
	}
	return IntentGeneral
}
