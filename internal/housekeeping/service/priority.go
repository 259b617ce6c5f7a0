package service

import (
	"sort"
	"time"

	"roomsync/pkg/model"
)

var baseScores = map[model.TaskPriority]int{
	model.PriorityLow:    10,
	model.PriorityMedium: 20,
	model.PriorityHigh:   30,
	model.PriorityUrgent: 40,
}

// BaseScore is the score of a priority before any arrival boost.
func BaseScore(p model.TaskPriority) int {
	if s, ok := baseScores[p]; ok {
		return s
	}
	return baseScores[model.PriorityMedium]
}

// ArrivalBoost raises a room's cleaning score when a guest is due soon. An
// arrival already in the past gets the largest boost.
func ArrivalBoost(untilArrival time.Duration) int {
	switch {
	case untilArrival < 2*time.Hour:
		return 30
	case untilArrival < 4*time.Hour:
		return 20
	case untilArrival < 6*time.Hour:
		return 10
	default:
		return 0
	}
}

// PriorityForScore maps a boosted score back onto the priority scale.
func PriorityForScore(score int) model.TaskPriority {
	switch {
	case score >= 40:
		return model.PriorityUrgent
	case score >= 30:
		return model.PriorityHigh
	case score >= 20:
		return model.PriorityMedium
	default:
		return model.PriorityLow
	}
}

// Score combines a base priority with the next arrival, if any.
func Score(base model.TaskPriority, now time.Time, nextArrival *time.Time) (int, model.TaskPriority) {
	score := BaseScore(base)
	if nextArrival != nil {
		score += ArrivalBoost(nextArrival.Sub(now))
	}
	priority := PriorityForScore(score)
	if BaseScore(priority) < BaseScore(base) {
		priority = base
	}
	return score, priority
}

// SortQueue orders tasks for the housekeeping queue: highest score first, then
// oldest, then by id so equal tasks always come back in the same order.
func SortQueue(tasks []*model.HousekeepingTask) {
	sort.SliceStable(tasks, func(i, j int) bool {
		a, b := tasks[i], tasks[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}
