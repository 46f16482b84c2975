// Package view derives the displayed task list from the collection.
package view

import (
	"math"
	"sort"
	"strings"
	"time"

	"todo/internal/service"
)

// Options selects which tasks are shown and in what order.
type Options struct {
	Status service.Status
	Sort   service.SortField
	Order  service.SortOrder
}

// Default shows all tasks, newest first.
var Default = Options{
	Status: service.StatusAll,
	Sort:   service.SortCreatedAt,
	Order:  service.OrderDesc,
}

// Apply filters and sorts a copy of tasks. The input is not modified.
// Equal keys keep no particular order.
func Apply(tasks []service.Task, opts Options) []service.Task {
	out := Filter(tasks, opts.Status)
	Sort(out, opts.Sort, opts.Order)
	return out
}

// Filter returns the tasks matching status in their original order.
// An empty or unknown status keeps everything.
func Filter(tasks []service.Task, status service.Status) []service.Task {
	out := make([]service.Task, 0, len(tasks))
	for _, t := range tasks {
		switch status {
		case service.StatusPending:
			if t.Completed {
				continue
			}
		case service.StatusCompleted:
			if !t.Completed {
				continue
			}
		}
		out = append(out, t)
	}
	return out
}

// Sort orders tasks in place by field. An empty field sorts by creation
// time; an empty order is ascending.
func Sort(tasks []service.Task, field service.SortField, order service.SortOrder) {
	less := func(a, b service.Task) bool { return compare(a, b, field) < 0 }
	if order == service.OrderDesc {
		less = func(a, b service.Task) bool { return compare(a, b, field) > 0 }
	}
	sort.SliceStable(tasks, func(i, j int) bool { return less(tasks[i], tasks[j]) })
}

// compare orders two tasks on field. Missing times sort first, like empty
// strings.
func compare(a, b service.Task, field service.SortField) int {
	switch field {
	case service.SortTitle:
		return strings.Compare(a.Title, b.Title)
	case service.SortUpdatedAt:
		return compareTime(a.UpdatedAt, b.UpdatedAt)
	default:
		return compareTime(a.CreatedAt, b.CreatedAt)
	}
}

func compareTime(a, b time.Time) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	}
	return 0
}

// Stats summarizes a collection.
type Stats struct {
	Total     int `json:"total" yaml:"total"`
	Completed int `json:"completed" yaml:"completed"`
	Pending   int `json:"pending" yaml:"pending"`
	// Percent is the rounded share of completed tasks, 0 for no tasks.
	Percent int `json:"percent" yaml:"percent"`
}

// Summarize counts tasks by completion.
func Summarize(tasks []service.Task) Stats {
	var s Stats
	s.Total = len(tasks)
	for _, t := range tasks {
		if t.Completed {
			s.Completed++
		}
	}
	s.Pending = s.Total - s.Completed
	if s.Total > 0 {
		s.Percent = int(math.Round(float64(s.Completed) / float64(s.Total) * 100))
	}
	return s
}
