package report

import (
	"context"
	"errors"
	"testing"
)

type fakeSource struct {
	tasks []Task
	err   error
	since string
}

func (f *fakeSource) Name() string        { return "fake" }
func (f *fakeSource) ProjectName() string { return "Accessibility Web Engine" }

func (f *fakeSource) FetchTasks(ctx context.Context, since string) ([]Task, error) {
	f.since = since
	return f.tasks, f.err
}

func sampleTasks() []Task {
	return []Task{
		{Name: "Ship login", Description: "OAuth flow done.", DueOn: "2020-03-01", Completed: true},
		{Name: "Audit colours", Description: "", DueOn: "2020-03-12"},
		{Name: "Someday", Description: "No date yet.", DueOn: NoDueDate},
		{Name: "Fix focus ring", Description: "Keyboard users lose focus.", DueOn: "2020-03-05"},
		{Name: "Write docs", Description: "", DueOn: "", Completed: true},
	}
}

func TestClassify(t *testing.T) {
	r := Classify("2020-03-02", "Accessibility Web Engine", sampleTasks())

	if r.Date != "2020-03-02" || r.ProjectName != "Accessibility Web Engine" {
		t.Fatalf("unexpected header fields: %+v", r)
	}

	wantCompleted := []string{"Ship login", "Write docs"}
	if len(r.Completed) != len(wantCompleted) {
		t.Fatalf("got %d completed tasks, want %d", len(r.Completed), len(wantCompleted))
	}
	for i, name := range wantCompleted {
		if r.Completed[i].Name != name {
			t.Errorf("completed[%d] = %q, want %q", i, r.Completed[i].Name, name)
		}
	}

	wantPlanned := []string{"Fix focus ring", "Audit colours", "Someday"}
	if len(r.Planned) != len(wantPlanned) {
		t.Fatalf("got %d planned tasks, want %d", len(r.Planned), len(wantPlanned))
	}
	for i, name := range wantPlanned {
		if r.Planned[i].Name != name {
			t.Errorf("planned[%d] = %q, want %q", i, r.Planned[i].Name, name)
		}
	}

	if r.Completed[1].DueOn != NoDueDate {
		t.Errorf("empty due date should become the sentinel, got %q", r.Completed[1].DueOn)
	}
}

func TestClassifyEmpty(t *testing.T) {
	r := Classify("2020-03-02", "Empty", nil)
	if r.Completed == nil || r.Planned == nil {
		t.Fatal("sections should be empty slices, not nil")
	}
}

func TestClassifyDoesNotMutateInput(t *testing.T) {
	tasks := sampleTasks()
	Classify("2020-03-02", "p", tasks)
	if tasks[4].DueOn != "" {
		t.Errorf("input task was modified: %+v", tasks[4])
	}
}

func TestGenerate(t *testing.T) {
	src := &fakeSource{tasks: sampleTasks()}
	gen := NewGenerator(src)

	r, err := gen.Generate(context.Background(), "2020-03-02")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if src.since != "2020-03-02" {
		t.Errorf("source asked for tasks since %q", src.since)
	}

	stats := gen.Statistics(r)
	want := Stats{Total: 5, Completed: 2, Planned: 2, Omitted: 1}
	if stats != want {
		t.Errorf("Statistics() = %+v, want %+v", stats, want)
	}
}

func TestGenerateSourceError(t *testing.T) {
	boom := errors.New("boom")
	gen := NewGenerator(&fakeSource{err: boom})

	if _, err := gen.Generate(context.Background(), "2020-03-02"); !errors.Is(err, boom) {
		t.Fatalf("Generate() error = %v, want wrapped %v", err, boom)
	}
}

func TestGenerateCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	gen := NewGenerator(&fakeSource{tasks: sampleTasks()})
	if _, err := gen.Generate(ctx, "2020-03-02"); !errors.Is(err, context.Canceled) {
		t.Fatalf("Generate() error = %v, want context.Canceled", err)
	}
}

func TestHasDueDate(t *testing.T) {
	tests := []struct {
		dueOn string
		want  bool
	}{
		{"2020-03-01", true},
		{NoDueDate, false},
		{"", false},
	}
	for _, tt := range tests {
		if got := (Task{DueOn: tt.dueOn}).HasDueDate(); got != tt.want {
			t.Errorf("HasDueDate(%q) = %v, want %v", tt.dueOn, got, tt.want)
		}
	}
}
