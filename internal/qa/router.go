package qa

import (
	"context"
	"fmt"
	"strings"

	apperrors "github.com/tmuhub/tmu-weekly-bot/internal/errors"
	"github.com/tmuhub/tmu-weekly-bot/internal/genai"
	"github.com/tmuhub/tmu-weekly-bot/internal/logger"
	"github.com/tmuhub/tmu-weekly-bot/internal/rag"
	"github.com/tmuhub/tmu-weekly-bot/internal/schedule"
	"github.com/tmuhub/tmu-weekly-bot/internal/storage"
)

// FallbackTopK is how many retrieval hits feed the RAG prompt.
const FallbackTopK = 20

// Wrappers attach a user-safe Vietnamese message to infrastructure failures;
// the HTTP layer surfaces that message instead of internals.
var (
	searchErrs   = apperrors.NewWrapper("qa", "search")
	generateErrs = apperrors.NewWrapper("qa", "generate")
)

// Store is the event storage surface the router needs.
type Store interface {
	EventsByDate(ctx context.Context, date string) ([]schedule.Event, error)
	EventByID(ctx context.Context, id int) (*schedule.Event, error)
	AllDates(ctx context.Context) ([]string, error)
	DateDowPairs(ctx context.Context) ([]storage.DateDow, error)
}

// Searcher is the retrieval surface for the RAG fallback.
type Searcher interface {
	Search(ctx context.Context, query string, topK int) ([]rag.HybridResult, error)
}

// Answer is the result of answering one question.
type Answer struct {
	Answer string           `json:"answer"`
	Hits   []schedule.Event `json:"hits"`
	Intent Intent           `json:"-"`
}

// Service routes questions to the right answering strategy. All dependencies
// are injected at construction; the service holds no mutable state, so one
// instance serves concurrent requests.
type Service struct {
	store     Store
	searcher  Searcher
	generator genai.TextGenerator
	logger    *logger.Logger
}

// NewService creates the question-answering service. searcher and generator
// may be nil; the affected branches degrade to canned replies.
func NewService(store Store, searcher Searcher, generator genai.TextGenerator, log *logger.Logger) *Service {
	return &Service{
		store:     store,
		searcher:  searcher,
		generator: generator,
		logger:    log,
	}
}

// Ask answers one free-text question. Storage and retrieval failures
// propagate; LLM small-talk failures degrade to a canned reply.
func (s *Service) Ask(ctx context.Context, question string) (*Answer, error) {
	q := strings.TrimSpace(question)
	if q == "" {
		return nil, apperrors.NewValidationError("question", "must not be empty")
	}
	intent := Classify(q)
	tFrom, tTo := ParseTimes(q)

	s.logger.WithField("intent", string(intent)).Debug("question classified")

	switch intent {
	case IntentDefine:
		return s.answerDefine(ctx, q, intent)
	case IntentSmalltalk:
		return &Answer{Answer: smalltalkReply(q), Intent: intent}, nil
	case IntentGeneral:
		return &Answer{Answer: s.generalReply(ctx, q), Intent: intent}, nil
	case IntentScheduleAll:
		return s.answerWholeWeek(ctx, intent)
	}

	// SCHEDULE: explicit full date.
	if m := fullDateRE.FindStringSubmatch(q); m != nil {
		return s.answerFullDate(ctx, m, tFrom, tTo, intent)
	}

	// Partial date (day/month, year unknown): first stored date that
	// matches wins.
	m2 := partialDateRE.FindStringSubmatch(q)
	if m2 != nil {
		ans, err := s.answerPartialDate(ctx, m2, tFrom, tTo, intent)
		if err != nil || ans != nil {
			return ans, err
		}
	}

	// Spoken day-of-week: first stored (date, dow) pair that matches wins.
	mdow := dowTokenRE.FindString(q)
	if mdow != "" {
		ans, err := s.answerDayOfWeek(ctx, mdow, tFrom, tTo, intent)
		if err != nil || ans != nil {
			return ans, err
		}
	}

	// Time window with no date signal: scan the whole week.
	if tFrom != "" && m2 == nil && mdow == "" {
		return s.answerTimeAcrossWeek(ctx, tFrom, tTo, intent)
	}

	return s.answerFallback(ctx, q, intent)
}

func (s *Service) answerDefine(ctx context.Context, q string, intent Intent) (*Answer, error) {
	ql := strings.ToLower(q)
	if !strings.Contains(ql, "lịch tuần") && !strings.Contains(ql, "weekly") {
		return &Answer{Answer: s.generalReply(ctx, q), Intent: intent}, nil
	}

	for _, k := range []string{"chức năng", "mục đích", "tác dụng", "role", "function"} {
		if strings.Contains(ql, k) {
			bullets := make([]string, 0, len(weeklyKB.Functions))
			for _, fn := range weeklyKB.Functions {
				bullets = append(bullets, "- "+fn)
			}
			ans := fmt.Sprintf("%s\n\n**Chức năng chính:**\n%s\n\n%s",
				weeklyKB.Definition, strings.Join(bullets, "\n"), weeklyKB.Closing)
			return &Answer{Answer: ans, Intent: intent}, nil
		}
	}
	return &Answer{Answer: weeklyKB.Definition + "\n\n" + weeklyKB.Closing, Intent: intent}, nil
}

func smalltalkReply(q string) string {
	ql := strings.ToLower(q)
	switch {
	case strings.Contains(ql, "bạn là ai") || strings.Contains(ql, "who"):
		return smalltalkTemplates["who"]
	case strings.Contains(ql, "làm công việc gì"):
		return smalltalkTemplates["what_do"]
	case strings.Contains(ql, "help") || strings.Contains(ql, "giúp"):
		return smalltalkTemplates["help"]
	default:
		return msgSmalltalkOther
	}
}

// generalReply asks the LLM with the friendly persona. Any failure degrades
// to a canned reply; chat never surfaces an internal error.
func (s *Service) generalReply(ctx context.Context, q string) string {
	if s.generator == nil {
		return msgUnsure
	}

	prompt := fmt.Sprintf("%s\n\n[Người dùng]: %s\n[Trợ lý]:", GeneralPersona, q)
	text, err := s.generator.Generate(ctx, "", prompt)
	if err != nil {
		s.logger.WithError(err).Warn("general reply generation failed")
		return msgUnsure
	}
	if text == "" {
		return msgUnsure
	}
	return text
}

func (s *Service) answerWholeWeek(ctx context.Context, intent Intent) (*Answer, error) {
	dates, err := s.store.AllDates(ctx)
	if err != nil {
		return nil, fmt.Errorf("list dates: %w", err)
	}
	if len(dates) == 0 {
		return &Answer{Answer: msgNotFoundWeek, Intent: intent}, nil
	}

	var sections []string
	var hits []schedule.Event
	for _, ds := range dates {
		events, err := s.store.EventsByDate(ctx, ds)
		if err != nil {
			return nil, fmt.Errorf("events for %s: %w", ds, err)
		}
		if len(events) > 0 {
			sections = append(sections, FormatEventsFull(events))
			hits = append(hits, events...)
		}
	}

	final := "Mình vừa tổng hợp lịch công tác của toàn bộ tuần:\n\n" + strings.Join(sections, "\n\n")
	return &Answer{Answer: final, Hits: hits, Intent: intent}, nil
}

func (s *Service) answerFullDate(ctx context.Context, m []string, tFrom, tTo string, intent Intent) (*Answer, error) {
	dateStr := normalizeDate(m[1], m[2], m[3])

	events, err := s.store.EventsByDate(ctx, dateStr)
	if err != nil {
		return nil, fmt.Errorf("events for %s: %w", dateStr, err)
	}
	if len(events) == 0 {
		return &Answer{
			Answer: fmt.Sprintf("Mình không tìm thấy hoạt động nào vào %s.", dateStr),
			Intent: intent,
		}, nil
	}

	if tFrom != "" {
		filtered := FilterByTime(events, tFrom, tTo, DefaultToleranceMin)
		return &Answer{
			Answer: FormatEventsTimeInDay(filtered, dateStr, events[0].Dow, tFrom, tTo),
			Hits:   filtered,
			Intent: intent,
		}, nil
	}
	return &Answer{Answer: FormatEventsFull(events), Hits: events, Intent: intent}, nil
}

// answerPartialDate returns (nil, nil) when no stored date matches, letting
// the router fall through to the next branch.
func (s *Service) answerPartialDate(ctx context.Context, m []string, tFrom, tTo string, intent Intent) (*Answer, error) {
	day := atoiSafe(m[1])
	month := atoiSafe(m[2])

	dates, err := s.store.AllDates(ctx)
	if err != nil {
		return nil, fmt.Errorf("list dates: %w", err)
	}

	for _, ds := range dates {
		parts := strings.Split(ds, "/")
		if len(parts) != 3 {
			continue
		}
		if atoiSafe(parts[0]) != day || atoiSafe(parts[1]) != month {
			continue
		}

		events, err := s.store.EventsByDate(ctx, ds)
		if err != nil {
			return nil, fmt.Errorf("events for %s: %w", ds, err)
		}
		if len(events) == 0 {
			continue
		}

		if tFrom != "" {
			filtered := FilterByTime(events, tFrom, tTo, DefaultToleranceMin)
			return &Answer{
				Answer: FormatEventsTimeInDay(filtered, ds, events[0].Dow, tFrom, tTo),
				Hits:   filtered,
				Intent: intent,
			}, nil
		}
		return &Answer{Answer: FormatEventsFull(events), Hits: events, Intent: intent}, nil
	}
	return nil, nil
}

// answerDayOfWeek returns (nil, nil) when no stored pair matches the spoken
// day-of-week.
func (s *Service) answerDayOfWeek(ctx context.Context, token, tFrom, tTo string, intent Intent) (*Answer, error) {
	canon := CanonDow(token)

	pairs, err := s.store.DateDowPairs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list date/dow pairs: %w", err)
	}

	for _, p := range pairs {
		stored := CanonDow(p.Dow)
		if stored != canon && !strings.Contains(stored, canon) {
			continue
		}

		events, err := s.store.EventsByDate(ctx, p.Date)
		if err != nil {
			return nil, fmt.Errorf("events for %s: %w", p.Date, err)
		}
		if len(events) == 0 {
			return &Answer{
				Answer: fmt.Sprintf("Mình không tìm thấy hoạt động nào vào %s.", token),
				Intent: intent,
			}, nil
		}

		if tFrom != "" {
			filtered := FilterByTime(events, tFrom, tTo, DefaultToleranceMin)
			return &Answer{
				Answer: FormatEventsTimeInDay(filtered, p.Date, events[0].Dow, tFrom, tTo),
				Hits:   filtered,
				Intent: intent,
			}, nil
		}
		return &Answer{Answer: FormatEventsFull(events), Hits: events, Intent: intent}, nil
	}
	return nil, nil
}

func (s *Service) answerTimeAcrossWeek(ctx context.Context, tFrom, tTo string, intent Intent) (*Answer, error) {
	dates, err := s.store.AllDates(ctx)
	if err != nil {
		return nil, fmt.Errorf("list dates: %w", err)
	}

	var groups []DateGroup
	var hits []schedule.Event
	for _, ds := range dates {
		events, err := s.store.EventsByDate(ctx, ds)
		if err != nil {
			return nil, fmt.Errorf("events for %s: %w", ds, err)
		}
		filtered := FilterByTime(events, tFrom, tTo, DefaultToleranceMin)
		if len(filtered) > 0 {
			groups = append(groups, DateGroup{Date: ds, Events: filtered})
			hits = append(hits, filtered...)
		}
	}

	return &Answer{
		Answer: FormatEventsByTimeAcrossWeek(groups, tFrom, tTo),
		Hits:   hits,
		Intent: intent,
	}, nil
}

// answerFallback runs hybrid retrieval and asks the LLM to answer from the
// matched records.
func (s *Service) answerFallback(ctx context.Context, q string, intent Intent) (*Answer, error) {
	var hits []schedule.Event
	var contexts []PromptContext

	if s.searcher != nil {
		results, err := s.searcher.Search(ctx, q, FallbackTopK)
		if err != nil {
			return nil, searchErrs.Wrap(err, "Xin lỗi, hệ thống tìm kiếm đang gặp sự cố. Bạn thử lại sau nhé.")
		}
		for _, r := range results {
			ev, err := s.store.EventByID(ctx, r.ID)
			if err != nil {
				return nil, fmt.Errorf("load event %d: %w", r.ID, err)
			}
			if ev == nil {
				continue
			}
			hits = append(hits, *ev)
			contexts = append(contexts, PromptContext{
				Date:         ev.Date,
				Dow:          ev.Dow,
				Start:        ev.Start,
				Location:     ev.Location,
				Participants: ev.Participants,
				Text:         ev.Raw,
				Score:        r.VectorSim,
				HasScore:     r.VectorRank > 0,
			})
		}
	}

	text := ""
	if s.generator != nil {
		prompt := BuildPrompt(q, contexts)
		generated, err := s.generator.Generate(ctx, SystemPrompt, prompt)
		if err != nil {
			return nil, generateErrs.Wrap(err, "Xin lỗi, mình chưa thể trả lời lúc này. Bạn thử lại sau nhé.")
		}
		text = strings.TrimSpace(generated)
	}

	answer := msgNotFoundWeek
	if text != "" {
		answer = "Mình vừa xem trong lịch tuần và tổng hợp được như sau:\n\n" + text +
			"\n\nBạn cần mình kiểm tra thêm ngày/đơn vị khác không?"
	}
	return &Answer{Answer: answer, Hits: hits, Intent: intent}, nil
}

func normalizeDate(d, m, y string) string {
	return fmt.Sprintf("%02d/%02d/%04d", atoiSafe(d), atoiSafe(m), atoiSafe(y))
}

func atoiSafe(s string) int {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return -1
		}
		n = n*10 + int(r-'0')
	}
	return n
}
