package limits

import "fmt"

// Budget counts consumed units (instructions) against a limit. A zero limit
// means unlimited.
type Budget struct {
	limit int64
	used  int64
}

func NewBudget(limit int64) *Budget {
	if limit < 0 {
		limit = 0
	}
	return &Budget{limit: limit}
}

func (b *Budget) Limit() int64 {
	if b == nil {
		return 0
	}
	return b.limit
}

func (b *Budget) Used() int64 {
	if b == nil {
		return 0
	}
	return b.used
}

func (b *Budget) Reset() {
	if b != nil {
		b.used = 0
	}
}

func MaxStepsMessage(limit int64) string {
	return fmt.Sprintf("max instruction count exceeded (%d)", limit)
}

func MaxStackMessage(limit int) string {
	return fmt.Sprintf("max stack depth exceeded (%d)", limit)
}

type MaxStepsError struct {
	Limit int64
}

func (e MaxStepsError) Error() string {
	return MaxStepsMessage(e.Limit)
}

type MaxStackError struct {
	Limit int
}

func (e MaxStackError) Error() string {
	return MaxStackMessage(e.Limit)
}

// Charge records n units. With a zero limit it only counts.
func (b *Budget) Charge(n int64) error {
	if b == nil || n <= 0 {
		return nil
	}
	if b.limit > 0 && b.used+n > b.limit {
		return MaxStepsError{Limit: b.limit}
	}
	b.used += n
	return nil
}
