package task

import "time"

// Collection names a set of task records that share the Task shape.
type Collection string

const (
	// ActiveTasks holds tasks that have not been completed yet.
	ActiveTasks Collection = "active_tasks"
	// CompletedTasks holds tasks that were marked done.
	CompletedTasks Collection = "completed_tasks"
)

// Collections lists every collection a store must provision.
var Collections = []Collection{ActiveTasks, CompletedTasks}

// String returns the table or collection name.
func (c Collection) String() string {
	return string(c)
}

// Task is the record stored in both the active and the completed collection.
type Task struct {
	ID        string    `gorm:"primarykey;size:36" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	Date      string    `gorm:"size:8" json:"date"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// WithDisplayDate returns a copy of t whose Date is filled from CreatedAt
// when no date was stored.
func (t Task) WithDisplayDate() Task {
	if t.Date == "" {
		t.Date = FormatDate(t.CreatedAt)
	}
	return t
}
