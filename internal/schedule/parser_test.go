package schedule

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveHeader(t *testing.T) {
	tests := []struct {
		name     string
		cell     string
		year     int
		wantDow  string
		wantDate string
	}{
		{"full date with year", "Thứ 5, 20/08/2025", 0, "Thứ 5", "20/08/2025"},
		{"two digit year", "Thứ 2, 18-08-25", 0, "Thứ 2", "18/08/2025"},
		{"no year uses default", "Thứ 6, 22/08", 2025, "Thứ 6", "22/08/2025"},
		{"spelled day", "Thứ Năm 21/8/2025", 0, "Thứ Năm", "21/08/2025"},
		{"sunday abbreviation", "CN 24/08/2025", 0, "CN", "24/08/2025"},
		{"sunday spelled", "Chủ nhật, 24/08/2025", 0, "Chủ nhật", "24/08/2025"},
		{"dow only", "Thứ 3", 0, "Thứ 3", ""},
		{"invalid calendar date", "Thứ 4, 31/11/2025", 0, "Thứ 4", ""},
		{"header row", "Ngày", 0, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dow, date := ResolveHeader(tt.cell, tt.year)
			assert.Equal(t, tt.wantDow, dow)
			assert.Equal(t, tt.wantDate, date)
		})
	}
}

func TestResolveHeaderDateRoundTrip(t *testing.T) {
	// Re-parsing a rendered date must be stable.
	inputs := []string{"1/2/2025", "09-10-25", "20/08/2025", "31/12/2024"}
	for _, in := range inputs {
		_, first := ResolveHeader(in, 0)
		require.NotEmpty(t, first, "input %q should parse", in)
		_, second := ResolveHeader(first, 0)
		assert.Equal(t, first, second, "round trip for %q", in)
	}
}

func TestInferYear(t *testing.T) {
	texts := []string{"LỊCH CÔNG TÁC TUẦN", "Thứ 2, 18/08", "Thứ 5, 20/08/2025"}
	assert.Equal(t, 2025, InferYear(texts))

	assert.Equal(t, 2024, InferYear([]string{"từ 5/2/24 đến 9/2/24"}))
	assert.Equal(t, 0, InferYear([]string{"Thứ 2, 18/08", "không có năm"}))
}

func TestSplitBlocks(t *testing.T) {
	t.Run("one block per bullet", func(t *testing.T) {
		cell := "* 08h00 Họp giao ban tại P.A1\n* 14h Hội ý BGH\n* 16h00 Làm việc với đoàn kiểm tra"
		blocks := SplitBlocks(cell)
		require.Len(t, blocks, 3)
		assert.Contains(t, blocks[1][0], "Hội ý BGH")
	})

	t.Run("continuation lines merge into previous bullet", func(t *testing.T) {
		cell := "* 08h00 Họp giao ban tại P.A1\nTP: BGH, trưởng các đơn vị\n* 14h Hội ý"
		blocks := SplitBlocks(cell)
		require.Len(t, blocks, 2)
		require.Len(t, blocks[0], 2)
		assert.Contains(t, blocks[0][1], "TP:")
	})

	t.Run("blank lines dropped", func(t *testing.T) {
		cell := "* Họp A\n\n\n* Họp B\n"
		blocks := SplitBlocks(cell)
		assert.Len(t, blocks, 2)
	})

	t.Run("no bullets yields single implicit block", func(t *testing.T) {
		cell := "Cả ngày: coi thi tuyển sinh\ntại Hội trường H1"
		blocks := SplitBlocks(cell)
		require.Len(t, blocks, 1)
		assert.Len(t, blocks[0], 2)
	})

	t.Run("empty cell yields no blocks", func(t *testing.T) {
		assert.Empty(t, SplitBlocks("  \n \n"))
	})
}

func TestExtractEvent(t *testing.T) {
	t.Run("time location and title", func(t *testing.T) {
		ev := ExtractEvent([]string{"* 08h00 Họp giao ban tại P.A1"})
		assert.Equal(t, "08:00", ev.Start)
		assert.Empty(t, ev.End)
		assert.Equal(t, "P.A1", ev.Location)
		assert.Contains(t, ev.Title, "Họp giao ban") // nothing after the marker, falls back to cleaned full text
		assert.Contains(t, ev.Raw, "Họp giao ban")
	})

	t.Run("time range", func(t *testing.T) {
		ev := ExtractEvent([]string{"* 14h00 - 16h30 Hội thảo khoa học tại Hội trường H1: chủ đề chuyển đổi số"})
		assert.Equal(t, "14:00", ev.Start)
		assert.Equal(t, "16:30", ev.End)
	})

	t.Run("start end ordering invariant", func(t *testing.T) {
		ev := ExtractEvent([]string{"* Tổng kết 17h, bắt đầu từ 15h30"})
		require.NotEmpty(t, ev.Start)
		require.NotEmpty(t, ev.End)
		assert.LessOrEqual(t, ev.Start, ev.End)
	})

	t.Run("all day suppresses times", func(t *testing.T) {
		ev := ExtractEvent([]string{"Cả ngày: coi thi tuyển sinh đợt 2"})
		assert.Empty(t, ev.Start)
		assert.Empty(t, ev.End)
		assert.Contains(t, ev.Title, "coi thi")
	})

	t.Run("colon time with minutes", func(t *testing.T) {
		ev := ExtractEvent([]string{"* 9:15 Tiếp đoàn công tác"})
		assert.Equal(t, "09:15", ev.Start)
	})

	t.Run("online with platform", func(t *testing.T) {
		ev := ExtractEvent([]string{"* 15h Họp trực tuyến qua phần mềm MS Teams", "TP: Lãnh đạo các khoa"})
		assert.Equal(t, "Trực Tuyến Qua MS Teams", ev.Location)
		assert.Equal(t, "Lãnh đạo các khoa", ev.Participants)
		assert.NotContains(t, ev.Title, "qua phần mềm")
		assert.NotContains(t, ev.Title, "Teams")
	})

	t.Run("online without platform", func(t *testing.T) {
		ev := ExtractEvent([]string{"* 10h Bảo vệ luận án online"})
		assert.Equal(t, "Trực Tuyến", ev.Location)
	})

	t.Run("participants variants", func(t *testing.T) {
		ev := ExtractEvent([]string{"* Họp hội đồng", "Thành phần: toàn thể giảng viên"})
		assert.Equal(t, "toàn thể giảng viên", ev.Participants)
	})

	t.Run("missing markers leave fields empty", func(t *testing.T) {
		ev := ExtractEvent([]string{"* Làm việc theo kế hoạch"})
		assert.Empty(t, ev.Start)
		assert.Empty(t, ev.Location)
		assert.Empty(t, ev.Participants)
		assert.Equal(t, "Làm việc theo kế hoạch", ev.Title)
	})

	t.Run("title strips trailing participants clause", func(t *testing.T) {
		ev := ExtractEvent([]string{"* 8h Họp xét học bổng TP: Phòng CTSV"})
		assert.NotContains(t, ev.Title, "TP:")
		assert.Contains(t, ev.Title, "Họp xét học bổng")
	})
}

func TestParseTable(t *testing.T) {
	rows := []TableRow{
		{DayCell: "Ngày", WorkCell: "Nội dung"}, // header row, skipped
		{DayCell: "Thứ 5, 20/08/2025", WorkCell: "* 08h00 Họp giao ban tại P.A1\n* 14h Hội ý BGH"},
		{DayCell: "Thứ 6, 21/08", WorkCell: "Cả ngày: coi thi"},
		{DayCell: "", WorkCell: "không có ngày"}, // skipped
	}

	events := ParseTable(rows, 2025)
	require.Len(t, events, 3)

	first := events[0]
	assert.Equal(t, "20/08/2025", first.Date)
	assert.Equal(t, "Thứ 5", first.Dow)
	assert.Equal(t, "08:00", first.Start)
	assert.Equal(t, "P.A1", first.Location)

	second := events[1]
	assert.Equal(t, "20/08/2025", second.Date)
	assert.Equal(t, "14:00", second.Start)
	assert.Contains(t, second.Title, "Hội ý BGH")

	third := events[2]
	assert.Equal(t, "21/08/2025", third.Date)
	assert.Empty(t, third.Start)
}

func TestIndexText(t *testing.T) {
	ev := Event{
		Date:  "20/08/2025",
		Dow:   "Thứ 5",
		Start: "08:00",
		Title: "Họp giao ban",
		Raw:   "08h00 Họp giao ban tại P.A1",
	}
	text := ev.IndexText()

	lines := strings.Split(text, "\n")
	assert.Equal(t, "date: 20/08/2025", lines[0])
	assert.Contains(t, text, "title: Họp giao ban")
	assert.NotContains(t, text, "location:") // empty fields omitted
	assert.Contains(t, text, "raw: 08h00")
}
