package qa

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/tmuhub/tmu-weekly-bot/internal/errors"
	"github.com/tmuhub/tmu-weekly-bot/internal/genai"
	"github.com/tmuhub/tmu-weekly-bot/internal/logger"
	"github.com/tmuhub/tmu-weekly-bot/internal/rag"
	"github.com/tmuhub/tmu-weekly-bot/internal/schedule"
	"github.com/tmuhub/tmu-weekly-bot/internal/storage"
)

// stubStore serves a fixed single week of events.
type stubStore struct {
	events []schedule.Event
}

func (s *stubStore) EventsByDate(_ context.Context, date string) ([]schedule.Event, error) {
	var out []schedule.Event
	for _, ev := range s.events {
		if ev.Date == date {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (s *stubStore) EventByID(_ context.Context, id int) (*schedule.Event, error) {
	for _, ev := range s.events {
		if ev.ID == id {
			e := ev
			return &e, nil
		}
	}
	return nil, nil
}

func (s *stubStore) AllDates(_ context.Context) ([]string, error) {
	var dates []string
	seen := map[string]bool{}
	for _, ev := range s.events {
		if ev.Date != "" && !seen[ev.Date] {
			seen[ev.Date] = true
			dates = append(dates, ev.Date)
		}
	}
	return dates, nil
}

func (s *stubStore) DateDowPairs(_ context.Context) ([]storage.DateDow, error) {
	var pairs []storage.DateDow
	seen := map[string]bool{}
	for _, ev := range s.events {
		if ev.Date != "" && ev.Dow != "" && !seen[ev.Date] {
			seen[ev.Date] = true
			pairs = append(pairs, storage.DateDow{Date: ev.Date, Dow: ev.Dow})
		}
	}
	return pairs, nil
}

type stubSearcher struct {
	results []rag.HybridResult
	err     error
	queries []string
}

func (s *stubSearcher) Search(_ context.Context, query string, _ int) ([]rag.HybridResult, error) {
	s.queries = append(s.queries, query)
	return s.results, s.err
}

type fixedGenerator struct {
	text    string
	err     error
	prompts []string
}

func (g *fixedGenerator) Generate(_ context.Context, _, prompt string) (string, error) {
	g.prompts = append(g.prompts, prompt)
	return g.text, g.err
}

func (g *fixedGenerator) Provider() genai.Provider { return "stub" }
func (g *fixedGenerator) Close() error             { return nil }

func weekStore() *stubStore {
	return &stubStore{events: []schedule.Event{
		{ID: 0, Date: "18/08/2025", Dow: "thứ 2", Start: "08:00", End: "09:30", Location: "P.A1", Title: "Họp giao ban", Raw: "8h00: Họp giao ban tại P.A1"},
		{ID: 1, Date: "20/08/2025", Dow: "thứ 4", Start: "08:00", Location: "P.A1", Title: "Họp giao ban", Raw: "8h00 Họp giao ban tại P.A1"},
		{ID: 2, Date: "20/08/2025", Dow: "thứ 4", Start: "14:00", Title: "Hội ý BGH", Raw: "14h Hội ý BGH"},
		{ID: 3, Date: "21/08/2025", Dow: "thứ 5", Start: "09:00", End: "11:00", Location: "Hội trường H1", Title: "Hội nghị viên chức", Raw: "9h-11h Hội nghị viên chức"},
	}}
}

func newTestService(store Store, searcher Searcher, gen genai.TextGenerator) *Service {
	return NewService(store, searcher, gen, logger.New("error"))
}

func TestAskFullDate(t *testing.T) {
	svc := newTestService(weekStore(), nil, nil)

	ans, err := svc.Ask(context.Background(), "20/08/2025 họp gì?")
	require.NoError(t, err)
	assert.Equal(t, IntentSchedule, ans.Intent)
	assert.Len(t, ans.Hits, 2)
	assert.Contains(t, ans.Answer, "**20/08/2025, thứ 4**")
}

func TestAskFullDateUnknown(t *testing.T) {
	svc := newTestService(weekStore(), nil, nil)

	ans, err := svc.Ask(context.Background(), "25/12/2025 có gì?")
	require.NoError(t, err)
	assert.Empty(t, ans.Hits)
	assert.Contains(t, ans.Answer, "không tìm thấy hoạt động nào vào 25/12/2025")
}

func TestAskFullDateWithTimeWindow(t *testing.T) {
	svc := newTestService(weekStore(), nil, nil)

	ans, err := svc.Ask(context.Background(), "20/08/2025 lúc 14h có gì?")
	require.NoError(t, err)
	require.Len(t, ans.Hits, 1)
	assert.Equal(t, "Hội ý BGH", ans.Hits[0].Title)
	assert.Contains(t, ans.Answer, "**14:00**")
}

func TestAskPartialDateIgnoresYear(t *testing.T) {
	svc := newTestService(weekStore(), nil, nil)

	ans, err := svc.Ask(context.Background(), "20/08 họp gì?")
	require.NoError(t, err)
	assert.Equal(t, IntentSchedule, ans.Intent)
	assert.Len(t, ans.Hits, 2)
	assert.Contains(t, ans.Answer, "20/08/2025")
}

func TestAskDayOfWeek(t *testing.T) {
	svc := newTestService(weekStore(), nil, nil)

	ans, err := svc.Ask(context.Background(), "Thứ 5 có gì?")
	require.NoError(t, err)
	assert.Equal(t, IntentSchedule, ans.Intent)
	require.Len(t, ans.Hits, 1)
	assert.Equal(t, "Hội nghị viên chức", ans.Hits[0].Title)
	// Not misparsed as a 05:00 time filter.
	assert.NotContains(t, ans.Answer, "05:00")
}

func TestAskDayOfWeekSpelledVariant(t *testing.T) {
	svc := newTestService(weekStore(), nil, nil)

	ans, err := svc.Ask(context.Background(), "thứ năm có hoạt động nào?")
	require.NoError(t, err)
	require.Len(t, ans.Hits, 1)
	assert.Equal(t, "21/08/2025", ans.Hits[0].Date)
}

func TestAskWholeWeek(t *testing.T) {
	svc := newTestService(weekStore(), nil, nil)

	ans, err := svc.Ask(context.Background(), "cho mình lịch toàn tuần")
	require.NoError(t, err)
	assert.Equal(t, IntentScheduleAll, ans.Intent)
	assert.Len(t, ans.Hits, 4)
	assert.Contains(t, ans.Answer, "toàn bộ tuần")
	assert.Contains(t, ans.Answer, "18/08/2025")
	assert.Contains(t, ans.Answer, "21/08/2025")
}

func TestAskWholeWeekEmptyStore(t *testing.T) {
	svc := newTestService(&stubStore{}, nil, nil)

	ans, err := svc.Ask(context.Background(), "lịch toàn tuần")
	require.NoError(t, err)
	assert.Equal(t, "Mình không tìm thấy thông tin trong lịch tuần này.", ans.Answer)
}

func TestAskTimeOnlyScansWeek(t *testing.T) {
	svc := newTestService(weekStore(), nil, nil)

	ans, err := svc.Ask(context.Background(), "8h có họp gì không?")
	require.NoError(t, err)
	assert.Len(t, ans.Hits, 2)
	assert.Contains(t, ans.Answer, "18/08/2025")
	assert.Contains(t, ans.Answer, "20/08/2025")
}

func TestAskSmalltalk(t *testing.T) {
	svc := newTestService(weekStore(), nil, nil)

	ans, err := svc.Ask(context.Background(), "bạn là ai?")
	require.NoError(t, err)
	assert.Equal(t, IntentSmalltalk, ans.Intent)
	assert.Equal(t, smalltalkTemplates["who"], ans.Answer)
	assert.Empty(t, ans.Hits)
}

func TestAskDefineWeeklySchedule(t *testing.T) {
	svc := newTestService(weekStore(), nil, nil)

	ans, err := svc.Ask(context.Background(), "lịch tuần là gì?")
	require.NoError(t, err)
	assert.Equal(t, IntentDefine, ans.Intent)
	assert.Contains(t, ans.Answer, weeklyKB.Definition)
	assert.NotContains(t, ans.Answer, "Chức năng chính")
}

func TestAskDefineWithFunctions(t *testing.T) {
	svc := newTestService(weekStore(), nil, nil)

	ans, err := svc.Ask(context.Background(), "chức năng của lịch tuần là gì?")
	require.NoError(t, err)
	assert.Contains(t, ans.Answer, "**Chức năng chính:**")
	for _, fn := range weeklyKB.Functions {
		assert.Contains(t, ans.Answer, fn)
	}
}

func TestAskGeneralDelegatesToLLM(t *testing.T) {
	gen := &fixedGenerator{text: "Mình khỏe, cảm ơn bạn!"}
	svc := newTestService(weekStore(), nil, gen)

	ans, err := svc.Ask(context.Background(), "bạn khỏe không?")
	require.NoError(t, err)
	assert.Equal(t, IntentGeneral, ans.Intent)
	assert.Equal(t, "Mình khỏe, cảm ơn bạn!", ans.Answer)
	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0], GeneralPersona)
}

func TestAskGeneralDegradesOnLLMError(t *testing.T) {
	gen := &fixedGenerator{err: errors.New("boom")}
	svc := newTestService(weekStore(), nil, gen)

	ans, err := svc.Ask(context.Background(), "bạn khỏe không?")
	require.NoError(t, err)
	assert.Equal(t, msgUnsure, ans.Answer)
}

func TestAskFallbackRAG(t *testing.T) {
	searcher := &stubSearcher{results: []rag.HybridResult{
		{ID: 3, VectorSim: 0.91, VectorRank: 1},
		{ID: 0, VectorSim: 0.55, VectorRank: 2},
	}}
	gen := &fixedGenerator{text: "Hội nghị viên chức diễn ra 21/08/2025 lúc 09:00 tại Hội trường H1."}
	svc := newTestService(weekStore(), searcher, gen)

	ans, err := svc.Ask(context.Background(), "tuần này có sự kiện nào về viên chức?")
	require.NoError(t, err)
	assert.Len(t, ans.Hits, 2)
	assert.Contains(t, ans.Answer, "Mình vừa xem trong lịch tuần và tổng hợp được như sau:")
	assert.Contains(t, ans.Answer, "Hội nghị viên chức")
	assert.Contains(t, ans.Answer, "Bạn cần mình kiểm tra thêm ngày/đơn vị khác không?")

	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0], "score=0.910")
	assert.Contains(t, gen.prompts[0], "9h-11h Hội nghị viên chức")
}

func TestAskFallbackEmptyLLMText(t *testing.T) {
	searcher := &stubSearcher{}
	svc := newTestService(weekStore(), searcher, nil)

	ans, err := svc.Ask(context.Background(), "sự kiện về EMBA")
	require.NoError(t, err)
	assert.Equal(t, "Mình không tìm thấy thông tin trong lịch tuần này.", ans.Answer)
}

func TestAskFallbackSearchErrorPropagates(t *testing.T) {
	searcher := &stubSearcher{err: errors.New("index offline")}
	svc := newTestService(weekStore(), searcher, nil)

	_, err := svc.Ask(context.Background(), "sự kiện về EMBA")
	assert.Error(t, err)

	var wErr *apperrors.WrappedError
	require.ErrorAs(t, err, &wErr)
	assert.NotEmpty(t, wErr.UserMessage)
}

func TestAskBlankQuestion(t *testing.T) {
	svc := newTestService(weekStore(), nil, nil)

	_, err := svc.Ask(context.Background(), "   ")
	var vErr *apperrors.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "question", vErr.Field)
}
