// Package audit inspects both sides of the enrollment ledger for drift and
// for registration patterns worth a human look. It never mutates its input.
package audit

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/sparks-2204/course-recommendation-system/internal/app/models"
)

// Severity of a finding
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
)

// Timeframes accepted by Detect
const (
	TimeframeDaily   = "daily"
	TimeframeWeekly  = "weekly"
	TimeframeMonthly = "monthly"
)

// Finding types
const (
	TypeOverEnrollment         = "over_enrollment"
	TypeSuspiciousFull         = "suspicious_full_enrollment"
	TypeExcessiveRegistrations = "excessive_registrations"
	TypeExcessiveDrops         = "excessive_drops"
	TypeMassRegistration       = "mass_registration"
	TypeRapidDrop              = "rapid_drop"
	TypeUnusualHour            = "unusual_hour"
	TypePopularitySpike        = "popularity_spike"
)

const (
	suspiciousCapacityThreshold = 50
	rapidDropWindow             = 24 * time.Hour
)

// Finding is one detected anomaly. Only the fields relevant to its Type are set.
type Finding struct {
	Type        string     `json:"type"`
	Severity    Severity   `json:"severity"`
	CourseID    int64      `json:"courseId,omitempty"`
	CourseCode  string     `json:"courseCode,omitempty"`
	Title       string     `json:"title,omitempty"`
	StudentID   int64      `json:"studentId,omitempty"`
	StudentName string     `json:"studentName,omitempty"`
	Capacity    int        `json:"capacity,omitempty"`
	Enrolled    int        `json:"enrolled,omitempty"`
	Overage     int        `json:"overage,omitempty"`
	Count       int        `json:"count,omitempty"`
	Hour        *time.Time `json:"hour,omitempty"`
	EnrolledAt  *time.Time `json:"enrolledAt,omitempty"`
	DroppedAt   *time.Time `json:"droppedAt,omitempty"`
	HoursHeld   float64    `json:"hoursHeld,omitempty"`
	Description string     `json:"description,omitempty"`
}

// Category groups the findings of one detector
type Category struct {
	Detected bool      `json:"detected"`
	Count    int       `json:"count"`
	Details  []Finding `json:"details"`
}

func newCategory(details []Finding) Category {
	if details == nil {
		details = []Finding{}
	}
	return Category{Detected: len(details) > 0, Count: len(details), Details: details}
}

// Anomalies holds every detector's output
type Anomalies struct {
	MassRegistrations      Category `json:"massRegistrations"`
	RapidDrops             Category `json:"rapidDrops"`
	UnusualTimePatterns    Category `json:"unusualTimePatterns"`
	CapacityAnomalies      Category `json:"capacityAnomalies"`
	SuspiciousUserBehavior Category `json:"suspiciousUserBehavior"`
	CoursePopularitySpikes Category `json:"coursePopularitySpikes"`
}

func (a Anomalies) named() []struct {
	name string
	cat  Category
} {
	return []struct {
		name string
		cat  Category
	}{
		{"massRegistrations", a.MassRegistrations},
		{"rapidDrops", a.RapidDrops},
		{"unusualTimePatterns", a.UnusualTimePatterns},
		{"capacityAnomalies", a.CapacityAnomalies},
		{"suspiciousUserBehavior", a.SuspiciousUserBehavior},
		{"coursePopularitySpikes", a.CoursePopularitySpikes},
	}
}

// Summary counts findings across categories
type Summary struct {
	TotalAnomalies int      `json:"totalAnomalies"`
	HighSeverity   int      `json:"highSeverity"`
	MediumSeverity int      `json:"mediumSeverity"`
	Categories     []string `json:"categories"`
}

// Report is the result of Detect
type Report struct {
	Timeframe  string    `json:"timeframe"`
	DetectedAt time.Time `json:"detectedAt"`
	Summary    Summary   `json:"summary"`
	Anomalies  Anomalies `json:"anomalies"`
}

// Window is the closed time range [Start, End] a report looks at
type Window struct {
	Start time.Time
	End   time.Time
}

func (w Window) contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// NormalizeTimeframe maps unknown timeframes onto weekly
func NormalizeTimeframe(timeframe string) string {
	switch tf := strings.ToLower(strings.TrimSpace(timeframe)); tf {
	case TimeframeDaily, TimeframeWeekly, TimeframeMonthly:
		return tf
	default:
		return TimeframeWeekly
	}
}

// WindowFor returns the window ending at now for a timeframe
func WindowFor(timeframe string, now time.Time) Window {
	days := 7
	switch NormalizeTimeframe(timeframe) {
	case TimeframeDaily:
		days = 1
	case TimeframeMonthly:
		days = 30
	}
	return Window{Start: now.Add(-time.Duration(days) * 24 * time.Hour), End: now}
}

// Detect runs every detector over a snapshot of active courses and students
func Detect(courses []*models.Course, users []*models.User, timeframe string, now time.Time) Report {
	tf := NormalizeTimeframe(timeframe)
	w := WindowFor(tf, now)

	a := Anomalies{
		MassRegistrations:      newCategory(MassRegistrations(courses, w)),
		RapidDrops:             newCategory(RapidDrops(users, w)),
		UnusualTimePatterns:    newCategory(UnusualHours(courses, w)),
		CapacityAnomalies:      newCategory(CapacityAnomalies(courses)),
		SuspiciousUserBehavior: newCategory(SuspiciousUsers(users, w)),
		CoursePopularitySpikes: newCategory(PopularitySpikes(courses, w)),
	}

	return Report{
		Timeframe:  tf,
		DetectedAt: now,
		Summary:    Summarize(a),
		Anomalies:  a,
	}
}

// Summarize totals the findings of every detected category
func Summarize(a Anomalies) Summary {
	s := Summary{Categories: []string{}}
	for _, n := range a.named() {
		if !n.cat.Detected {
			continue
		}
		s.TotalAnomalies += n.cat.Count
		s.Categories = append(s.Categories, n.name)
		for _, f := range n.cat.Details {
			switch f.Severity {
			case SeverityHigh:
				s.HighSeverity++
			case SeverityMedium:
				s.MediumSeverity++
			}
		}
	}
	return s
}

// CapacityAnomalies flags rosters above capacity and suspiciously full large courses
func CapacityAnomalies(courses []*models.Course) []Finding {
	var out []Finding
	for _, c := range courses {
		if c == nil || !c.IsActive {
			continue
		}
		enrolled := len(c.EnrolledStudents)
		if enrolled > c.MaxCapacity {
			out = append(out, Finding{
				Type:       TypeOverEnrollment,
				Severity:   SeverityHigh,
				CourseID:   c.ID,
				CourseCode: c.CourseCode,
				Title:      c.Title,
				Capacity:   c.MaxCapacity,
				Enrolled:   enrolled,
				Overage:    enrolled - c.MaxCapacity,
			})
		}
		if enrolled == c.MaxCapacity && c.MaxCapacity > suspiciousCapacityThreshold {
			out = append(out, Finding{
				Type:       TypeSuspiciousFull,
				Severity:   SeverityMedium,
				CourseID:   c.ID,
				CourseCode: c.CourseCode,
				Title:      c.Title,
				Capacity:   c.MaxCapacity,
				Enrolled:   enrolled,
			})
		}
	}
	return out
}

// RapidDrops flags records dropped inside the window less than a day after enrolling
func RapidDrops(users []*models.User, w Window) []Finding {
	var out []Finding
	for _, u := range users {
		if !u.IsStudent() {
			continue
		}
		for _, e := range u.EnrolledCourses {
			if e.DroppedAt == nil || e.EnrolledAt.IsZero() || !w.contains(*e.DroppedAt) {
				continue
			}
			held := e.DroppedAt.Sub(e.EnrolledAt)
			if held >= rapidDropWindow {
				continue
			}
			sev := SeverityMedium
			if held < time.Hour {
				sev = SeverityHigh
			}
			enrolledAt, droppedAt := e.EnrolledAt, *e.DroppedAt
			f := Finding{
				Type:        TypeRapidDrop,
				Severity:    sev,
				CourseID:    e.CourseID,
				StudentID:   u.ID,
				StudentName: u.Name,
				EnrolledAt:  &enrolledAt,
				DroppedAt:   &droppedAt,
				HoursHeld:   roundTenth(held.Hours()),
			}
			if e.Course != nil {
				f.CourseCode = e.Course.CourseCode
			}
			out = append(out, f)
		}
	}
	return out
}

// MassRegistrations flags more than ten roster additions to one course within a clock hour
func MassRegistrations(courses []*models.Course, w Window) []Finding {
	var out []Finding
	for _, c := range courses {
		if c == nil {
			continue
		}
		byHour := make(map[time.Time]int)
		var hours []time.Time
		for _, r := range c.EnrolledStudents {
			if !w.contains(r.EnrolledAt) {
				continue
			}
			h := r.EnrolledAt.UTC().Truncate(time.Hour)
			if byHour[h] == 0 {
				hours = append(hours, h)
			}
			byHour[h]++
		}
		for _, h := range hours {
			n := byHour[h]
			if n <= 10 {
				continue
			}
			sev := SeverityMedium
			if n > 20 {
				sev = SeverityHigh
			}
			hour := h
			out = append(out, Finding{
				Type:       TypeMassRegistration,
				Severity:   sev,
				CourseID:   c.ID,
				CourseCode: c.CourseCode,
				Title:      c.Title,
				Hour:       &hour,
				Count:      n,
			})
		}
	}
	return out
}

// UnusualHours flags more than five registrations in any hour between 00:00 and 06:00 UTC
func UnusualHours(courses []*models.Course, w Window) []Finding {
	var perHour [24]int
	for _, c := range courses {
		if c == nil {
			continue
		}
		for _, r := range c.EnrolledStudents {
			if w.contains(r.EnrolledAt) {
				perHour[r.EnrolledAt.UTC().Hour()]++
			}
		}
	}

	var out []Finding
	for h := 0; h < 6; h++ {
		n := perHour[h]
		if n <= 5 {
			continue
		}
		sev := SeverityMedium
		if n > 15 {
			sev = SeverityHigh
		}
		out = append(out, Finding{
			Type:        TypeUnusualHour,
			Severity:    sev,
			Count:       n,
			Description: fmt.Sprintf("%d registrations between %d:00-%d:00", n, h, h+1),
		})
	}
	return out
}

// SuspiciousUsers flags students with many registrations or drops in the window
func SuspiciousUsers(users []*models.User, w Window) []Finding {
	var out []Finding
	for _, u := range users {
		if !u.IsStudent() {
			continue
		}
		recent, drops := 0, 0
		for _, e := range u.EnrolledCourses {
			if !w.contains(e.EnrolledAt) {
				continue
			}
			recent++
			if e.DroppedAt != nil {
				drops++
			}
		}
		if recent > 10 {
			sev := SeverityMedium
			if recent > 20 {
				sev = SeverityHigh
			}
			out = append(out, Finding{
				Type: TypeExcessiveRegistrations, Severity: sev,
				StudentID: u.ID, StudentName: u.Name, Count: recent,
			})
		}
		if drops > 5 {
			out = append(out, Finding{
				Type: TypeExcessiveDrops, Severity: SeverityMedium,
				StudentID: u.ID, StudentName: u.Name, Count: drops,
			})
		}
	}
	return out
}

// PopularitySpikes flags courses where most of the roster joined inside the window
func PopularitySpikes(courses []*models.Course, w Window) []Finding {
	var out []Finding
	for _, c := range courses {
		if c == nil || !c.IsActive {
			continue
		}
		total := len(c.EnrolledStudents)
		recent := 0
		for _, r := range c.EnrolledStudents {
			if w.contains(r.EnrolledAt) {
				recent++
			}
		}
		if total == 0 || recent <= 5 {
			continue
		}
		share := float64(recent) / float64(total)
		if share <= 0.5 {
			continue
		}
		sev := SeverityMedium
		if share > 0.8 {
			sev = SeverityHigh
		}
		out = append(out, Finding{
			Type:        TypePopularitySpike,
			Severity:    sev,
			CourseID:    c.ID,
			CourseCode:  c.CourseCode,
			Title:       c.Title,
			Enrolled:    total,
			Count:       recent,
			Description: fmt.Sprintf("%d%% of the roster enrolled recently", int(share*100+0.5)),
		})
	}
	return out
}

func roundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}
