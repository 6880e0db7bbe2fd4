package tracker

import (
	"testing"
	"time"
)

func TestMapTask(t *testing.T) {
	item := TaskDTO{
		ID:          "t1",
		Name:        "  Store A  ",
		DateCreated: "1700000000000",
		DateClosed:  "1700864000000",
		Tags:        []TagDTO{{Name: "erp:sap"}, {Name: " "}},
	}
	item.Status.Status = "  In Review "

	task := MapTask(item, nil)

	if task.Name != "Store A" {
		t.Errorf("Name = %q, want %q", task.Name, "Store A")
	}
	if task.Status != "in review" {
		t.Errorf("Status = %q, want %q", task.Status, "in review")
	}
	if !task.CreatedAt.Equal(time.UnixMilli(1700000000000)) {
		t.Errorf("CreatedAt = %v", task.CreatedAt)
	}
	if task.ClosedAt == nil || task.CycleDays() != 10 {
		t.Errorf("ClosedAt = %v, CycleDays = %d, want 10", task.ClosedAt, task.CycleDays())
	}
	if len(task.Tags) != 1 {
		t.Errorf("Tags = %v, want one tag", task.Tags)
	}
	if task.History != nil {
		t.Errorf("History = %v, want nil", task.History)
	}
}

func TestMapHistory_AppendsCurrentAndSorts(t *testing.T) {
	dto := &TimeInStatusDTO{
		CurrentStatus: &StatusTimeDTO{Status: "Blocked", TotalTime: TotalTimeDTO{ByMinute: 30, Since: "1700200000000"}},
		StatusHistory: []StatusTimeDTO{
			{Status: "In Progress", TotalTime: TotalTimeDTO{ByMinute: 2000, Since: "1700100000000"}},
			{Status: "Backlog", TotalTime: TotalTimeDTO{ByMinute: 1000, Since: "1700000000000"}},
		},
	}

	got := MapHistory(dto)

	want := []string{"backlog", "in progress", "blocked"}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d (%+v)", len(got), len(want), got)
	}
	for i, status := range want {
		if got[i].Status != status {
			t.Errorf("got[%d].Status = %q, want %q", i, got[i].Status, status)
		}
	}
}

func TestMapHistory_DeduplicatesCurrentStatus(t *testing.T) {
	cur := StatusTimeDTO{Status: "backlog", TotalTime: TotalTimeDTO{ByMinute: 10, Since: "1700000000000"}}
	dto := &TimeInStatusDTO{CurrentStatus: &cur, StatusHistory: []StatusTimeDTO{cur}}

	if got := MapHistory(dto); len(got) != 1 {
		t.Errorf("len = %d, want 1", len(got))
	}
}

func TestParseMillis(t *testing.T) {
	if _, err := ParseMillis(""); err == nil {
		t.Error("ParseMillis(\"\") expected error")
	}
	if _, err := ParseMillis("abc"); err == nil {
		t.Error("ParseMillis(\"abc\") expected error")
	}
	got, err := ParseMillis("0")
	if err != nil || !got.Equal(time.Unix(0, 0)) {
		t.Errorf("ParseMillis(\"0\") = %v, %v", got, err)
	}
}
