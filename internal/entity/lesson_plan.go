package entity

import "time"

type LessonPlan struct {
	ID              int       `json:"id"`
	OwnerID         int       `json:"owner_id"`
	Title           string    `json:"title"`
	Subject         string    `json:"subject"`
	GradeLevel      string    `json:"grade_level"`
	DurationMinutes int       `json:"duration_minutes"`
	Objectives      string    `json:"objectives"`
	Materials       string    `json:"materials"`
	Body            string    `json:"body"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
