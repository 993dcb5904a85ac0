package cache

import (
	"fmt"
	"time"
)

const defaultMarkCapacity = 10_000

// MonthMarks records that an owner's recurring expenses were materialized for
// a month, so repeated dashboard loads skip the work until the mark expires
// or the owner's expenses change.
type MonthMarks struct {
	lru *LRUCache[struct{}]
}

func NewMonthMarks(ttl time.Duration) *MonthMarks {
	return &MonthMarks{lru: NewLRUCache[struct{}](defaultMarkCapacity, ttl)}
}

func markKey(owner string, year, month int) string {
	return fmt.Sprintf("%s|%04d-%02d", owner, year, month)
}

func (m *MonthMarks) Mark(owner string, year, month int) {
	m.lru.Set(markKey(owner, year, month), struct{}{})
}

func (m *MonthMarks) Marked(owner string, year, month int) bool {
	_, ok := m.lru.Get(markKey(owner, year, month))
	return ok
}

// Forget drops every mark of owner.
func (m *MonthMarks) Forget(owner string) {
	m.lru.DeletePrefix(owner + "|")
}

func (m *MonthMarks) CleanExpired() int {
	return m.lru.CleanExpired()
}
