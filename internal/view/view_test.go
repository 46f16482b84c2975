package view

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todo/internal/service"
)

var base = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func sample() []service.Task {
	return []service.Task{
		{ID: 1, Title: "banana", Completed: false, CreatedAt: base.Add(2 * time.Hour), UpdatedAt: base.Add(5 * time.Hour)},
		{ID: 2, Title: "apple", Completed: true, CreatedAt: base.Add(1 * time.Hour), UpdatedAt: base.Add(6 * time.Hour)},
		{ID: 3, Title: "cherry", Completed: false, CreatedAt: base.Add(3 * time.Hour), UpdatedAt: base.Add(4 * time.Hour)},
		{ID: 4, Title: "", Completed: true},
	}
}

func randomTasks(r *rand.Rand, n int) []service.Task {
	out := make([]service.Task, n)
	for i := range out {
		out[i] = service.Task{
			ID:        i + 1,
			Title:     string(rune('a' + r.Intn(26))),
			Completed: r.Intn(2) == 0,
			CreatedAt: base.Add(time.Duration(r.Intn(1000)) * time.Minute),
			UpdatedAt: base.Add(time.Duration(r.Intn(1000)) * time.Minute),
		}
	}
	return out
}

func idsOf(tasks []service.Task) []int {
	out := make([]int, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.ID)
	}
	return out
}

func TestFilter(t *testing.T) {
	tasks := sample()
	assert.Equal(t, []int{1, 3}, idsOf(Filter(tasks, service.StatusPending)))
	assert.Equal(t, []int{2, 4}, idsOf(Filter(tasks, service.StatusCompleted)))
	assert.Equal(t, []int{1, 2, 3, 4}, idsOf(Filter(tasks, service.StatusAll)))
	assert.Equal(t, []int{1, 2, 3, 4}, idsOf(Filter(tasks, "")))
}

func TestFilterPartitionsAll(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for i := 0; i < 50; i++ {
		tasks := randomTasks(r, r.Intn(20))
		all := Filter(tasks, service.StatusAll)
		pending := Filter(tasks, service.StatusPending)
		completed := Filter(tasks, service.StatusCompleted)

		require.Len(t, all, len(pending)+len(completed))
		seen := map[int]bool{}
		for _, task := range pending {
			seen[task.ID] = true
		}
		for _, task := range completed {
			assert.False(t, seen[task.ID], "task %d in both partitions", task.ID)
			seen[task.ID] = true
		}
		for _, task := range all {
			assert.True(t, seen[task.ID])
		}
	}
}

func TestSortAscendingIsOrdered(t *testing.T) {
	r := rand.New(rand.NewSource(2))
	fields := []service.SortField{service.SortCreatedAt, service.SortTitle, service.SortUpdatedAt}
	for i := 0; i < 50; i++ {
		tasks := randomTasks(r, r.Intn(20))
		for _, field := range fields {
			out := Apply(tasks, Options{Status: service.StatusAll, Sort: field, Order: service.OrderAsc})
			for j := 1; j < len(out); j++ {
				assert.LessOrEqual(t, compare(out[j-1], out[j], field), 0, "field %s", field)
			}
		}
	}
}

func TestSortByField(t *testing.T) {
	tasks := sample()
	tests := []struct {
		field service.SortField
		order service.SortOrder
		want  []int
	}{
		{service.SortTitle, service.OrderAsc, []int{4, 2, 1, 3}},
		{service.SortTitle, service.OrderDesc, []int{3, 1, 2, 4}},
		{service.SortCreatedAt, service.OrderAsc, []int{4, 2, 1, 3}},
		{service.SortCreatedAt, service.OrderDesc, []int{3, 1, 2, 4}},
		{service.SortUpdatedAt, service.OrderDesc, []int{2, 1, 3, 4}},
	}
	for _, tt := range tests {
		t.Run(string(tt.field)+"_"+string(tt.order), func(t *testing.T) {
			out := Apply(tasks, Options{Sort: tt.field, Order: tt.order})
			assert.Equal(t, tt.want, idsOf(out))
		})
	}
}

func TestApplyDoesNotModifyInput(t *testing.T) {
	tasks := sample()
	_ = Apply(tasks, Default)
	assert.Equal(t, sample(), tasks)
}

func TestSummarize(t *testing.T) {
	assert.Equal(t, Stats{}, Summarize(nil))
	assert.Equal(t, Stats{Total: 4, Completed: 2, Pending: 2, Percent: 50}, Summarize(sample()))
	assert.Equal(t, 67, Summarize([]service.Task{{Completed: true}, {Completed: true}, {}}).Percent)
	assert.Equal(t, 33, Summarize([]service.Task{{Completed: true}, {}, {}}).Percent)
}
