package models

import (
	"time"
)

// Missing is written for any field that could not be resolved.
const Missing = "-"

// ProductRecord is the structured result of one product page.
type ProductRecord struct {
	Title       string `json:"title"`
	Price       string `json:"price"`
	Description string `json:"description"`
}

// OutputRow is one line of the results file, in column order
// title, price, description.
type OutputRow [3]string

// SentinelRow is written in place of a record when an item fails.
func SentinelRow() OutputRow {
	return OutputRow{Missing, Missing, Missing}
}

func NewProductRecord() ProductRecord {
	return ProductRecord{
		Title:       Missing,
		Price:       Missing,
		Description: Missing,
	}
}

func (p ProductRecord) Row() OutputRow {
	return OutputRow{p.Title, p.Price, p.Description}
}

func (r OutputRow) Strings() []string {
	return []string{r[0], r[1], r[2]}
}

func (r OutputRow) IsSentinel() bool {
	return r == SentinelRow()
}

// RunState carries the progress counters of a single run. It is passed by
// value through the orchestrator and never persisted.
type RunState struct {
	Total     int
	Processed int
	StartedAt time.Time
}

func NewRunState(total int, now time.Time) RunState {
	return RunState{
		Total:     total,
		StartedAt: now,
	}
}

func (s RunState) Elapsed(now time.Time) time.Duration {
	return now.Sub(s.StartedAt)
}

// ItemResult describes the outcome of one input URL after its row was written.
type ItemResult struct {
	RunID     string
	Index     int
	URL       string
	Record    ProductRecord
	Row       OutputRow
	ImagePath string
	Err       error
	Duration  time.Duration
}

func (r ItemResult) Success() bool {
	return r.Err == nil
}
