// Package schedule expands task templates into dated task-instance drafts.
// It is pure computation: instance-id allocation and duplicate suppression
// belong to the store, which is responsible for skipping templates that are
// already materialized.
package schedule

import (
	"fmt"

	"github.com/DawoodMehmood/transaction-management-system-sub000/internal/dates"
	"github.com/DawoodMehmood/transaction-management-system-sub000/internal/domain"
)

// Draft is an unpersisted task instance produced by expansion. TaskDays is
// nil when the template's anchor date has not been entered yet; such drafts
// stay pending until the date arrives.
type Draft struct {
	TemplateTaskID int
	StageID        int
	Name           string
	TaskDays       *int
	DueDate        *string
	Status         domain.TaskStatus
}

// Expand produces the drafts for one template against a concrete anchor date.
// The base draft is due offsetDays after the anchor. A repeat rule with
// frequency F adds F more drafts; draft i's delta is resolved against the
// anchor itself (interval*i units), never compounded from the previous draft,
// so repeated month clamping cannot drift the schedule.
//
// anchor may be the zero Date, meaning no value has been entered for the
// bound field: every draft is then produced with nil TaskDays and DueDate.
func Expand(tpl domain.TaskTemplate, anchor dates.Date) []Draft {
	count := 1 + max(tpl.Repeat.Frequency, 0)
	drafts := make([]Draft, 0, count)

	for i := 0; i < count; i++ {
		d := Draft{
			TemplateTaskID: tpl.TaskID,
			StageID:        tpl.StageID,
			Name:           tpl.Name,
			Status:         domain.TaskStatusOpen,
		}
		if !anchor.IsZero() {
			days := tpl.OffsetDays + DeltaDays(anchor, tpl.Repeat, i)
			due := anchor.AddDays(days).String()
			d.TaskDays = &days
			d.DueDate = &due
		}
		drafts = append(drafts, d)
	}

	return drafts
}

// DeltaDays returns the day count separating repeat occurrence i (0 = base
// instance) from the base instance, for the given rule and anchor. Day and
// week units are plain multiples; month units resolve interval*i months
// against the anchor and take the calendar-day difference, so a Jan 31 anchor
// yields 29/28-day steps instead of a fictitious 30.
func DeltaDays(anchor dates.Date, rule domain.RepeatRule, i int) int {
	if i <= 0 || !rule.Repeats() {
		return 0
	}
	switch dates.Unit(rule.Unit) {
	case dates.UnitDay:
		return rule.Interval * i
	case dates.UnitWeek:
		return rule.Interval * i * 7
	case dates.UnitMonth:
		return dates.DaysBetween(anchor, dates.AddInterval(anchor, rule.Interval*i, dates.UnitMonth))
	default:
		// Rules are validated on write; an unknown unit here is a programming
		// error, same contract as dates.AddInterval.
		panic(fmt.Sprintf("schedule: unknown repeat unit %q", rule.Unit))
	}
}
