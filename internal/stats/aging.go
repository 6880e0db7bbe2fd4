package stats

import (
	"cmp"
	"fmt"
	"math"
	"slices"
)

// NewAgeBuckets lays out empty buckets from ascending upper bounds, e.g. [30 60 90]
// gives 0-30, 31-60, 61-90 and 90+. The last two buckets are critical.
func NewAgeBuckets(bounds []int) []AgeBucket {
	buckets := make([]AgeBucket, 0, len(bounds)+1)
	lo := 0
	for _, hi := range bounds {
		buckets = append(buckets, AgeBucket{
			Label: fmt.Sprintf("%d-%d", lo, hi),
			Min:   lo,
			Max:   hi,
		})
		lo = hi + 1
	}
	last := 0
	if len(bounds) > 0 {
		last = bounds[len(bounds)-1]
	}
	buckets = append(buckets, AgeBucket{
		Label: fmt.Sprintf("%d+", last),
		Min:   lo,
		Max:   -1,
	})

	firstCritical := max(len(buckets)-2, 1)
	for i := firstCritical; i < len(buckets); i++ {
		buckets[i].Critical = true
	}
	return buckets
}

// BucketIndex returns the bucket holding days: the first bound with days <= bound, else the open-ended one.
func BucketIndex(bounds []int, days int) int {
	for i, hi := range bounds {
		if days <= hi {
			return i
		}
	}
	return len(bounds)
}

// CalculateAgeBuckets distributes open tasks by age.
func CalculateAgeBuckets(tasks []ClassifiedTask, bounds []int) []AgeBucket {
	buckets := NewAgeBuckets(bounds)
	for _, ct := range tasks {
		idx := BucketIndex(bounds, ct.AgeDays)
		buckets[idx].Count++
		buckets[idx].TaskIDs = append(buckets[idx].TaskIDs, ct.Task.ID)
	}
	return buckets
}

// CriticalCount sums the tasks in critical buckets.
func CriticalCount(buckets []AgeBucket) int {
	n := 0
	for _, b := range buckets {
		if b.Critical {
			n += b.Count
		}
	}
	return n
}

// CalculateGroupBuckets distributes the queue, blocked and work days of open tasks.
// Tasks with no time in a group are left out of that group's buckets.
func CalculateGroupBuckets(tasks []ClassifiedTask, bounds []int) []GroupBuckets {
	groups := []struct {
		name string
		days func(ClassifiedTask) int
	}{
		{"queue", func(ct ClassifiedTask) int { return ct.QueueDays }},
		{"blocked", func(ct ClassifiedTask) int { return ct.BlockedDays }},
		{"work", func(ct ClassifiedTask) int { return ct.WorkDays }},
	}

	result := make([]GroupBuckets, 0, len(groups))
	for _, g := range groups {
		buckets := NewAgeBuckets(bounds)
		for _, ct := range tasks {
			d := g.days(ct)
			if d <= 0 {
				continue
			}
			idx := BucketIndex(bounds, d)
			buckets[idx].Count++
		}
		result = append(result, GroupBuckets{Group: g.name, Buckets: buckets})
	}
	return result
}

// CalculateWIPSummary describes the open population.
func CalculateWIPSummary(tasks []ClassifiedTask) WIPSummary {
	summary := WIPSummary{
		Total:    len(tasks),
		ByStatus: make(map[string]int),
	}
	ages := make([]int, 0, len(tasks))
	for _, ct := range tasks {
		if ct.IsBlocked {
			summary.Blocked++
		}
		summary.ByStatus[ct.Task.Status]++
		ages = append(ages, ct.AgeDays)
		summary.OldestAge = max(summary.OldestAge, ct.AgeDays)
	}
	summary.BlockedPct = Percent(summary.Blocked, summary.Total)
	summary.AvgAge = int(math.Round(MeanInt(ages)))
	return summary
}

// CalculateTagBreakdown groups open tasks by their extracted tag.
// Tasks without a tag are grouped under "N/A". Returns nil when no tag prefix is configured.
func CalculateTagBreakdown(tasks []ClassifiedTask, prefix string) []TagStat {
	if prefix == "" {
		return nil
	}

	type acc struct {
		stat TagStat
		ages []int
	}
	byTag := make(map[string]*acc)
	for _, ct := range tasks {
		tag := ct.Tag
		if tag == "" {
			tag = "N/A"
		}
		a, ok := byTag[tag]
		if !ok {
			a = &acc{stat: TagStat{Tag: tag}}
			byTag[tag] = a
		}
		a.stat.Total++
		if ct.IsBlocked {
			a.stat.Blocked++
		}
		a.ages = append(a.ages, ct.AgeDays)
	}

	result := make([]TagStat, 0, len(byTag))
	for _, a := range byTag {
		a.stat.AvgAge = int(math.Round(MeanInt(a.ages)))
		result = append(result, a.stat)
	}
	slices.SortFunc(result, func(a, b TagStat) int {
		if c := cmp.Compare(b.Total, a.Total); c != 0 {
			return c
		}
		return cmp.Compare(a.Tag, b.Tag)
	})
	return result
}
