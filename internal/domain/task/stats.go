package task

type Stats struct {
	Total          int            `json:"total"`
	Completed      int            `json:"completed"`
	Pending        int            `json:"pending"`
	Overdue        int            `json:"overdue"`
	DueToday       int            `json:"dueToday"`
	HighPriority   int            `json:"highPriority"`
	MediumPriority int            `json:"mediumPriority"`
	LowPriority    int            `json:"lowPriority"`
	Categories     map[string]int `json:"categories"`
}

// ComputeStats aggregates an owner's full task set as of the given day.
// Pending is derived from the other two counts so the three always agree.
// Priority counts and the due buckets only consider pending tasks.
func ComputeStats(tasks []Task, today Date) Stats {
	s := Stats{Categories: make(map[string]int)}

	for _, t := range tasks {
		s.Total++

		if t.Category != "" {
			s.Categories[t.Category]++
		}

		if t.Completed {
			s.Completed++
			continue
		}

		switch t.Priority {
		case PriorityHigh:
			s.HighPriority++
		case PriorityMedium:
			s.MediumPriority++
		case PriorityLow:
			s.LowPriority++
		}

		if t.DueDate == nil {
			continue
		}
		switch {
		case t.DueDate.Before(today):
			s.Overdue++
		case t.DueDate.Equal(today):
			s.DueToday++
		}
	}

	s.Pending = s.Total - s.Completed
	return s
}
