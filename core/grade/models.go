package grade

import (
	"strconv"

	"github.com/volatiletech/null/v8"
)

// StudentMark is a roster student joined with their mark for one grade level and subject.
type StudentMark struct {
	FullName        string      `json:"full_name"`
	BirthCertNumber string      `json:"birth_cert_number"`
	Mark            null.String `json:"mark"`
	IsAbsent        bool        `json:"is_absent"`
}

// EffectiveMark is the mark as readers should see it: an absent student is not graded.
func (m StudentMark) EffectiveMark() null.String {
	if m.IsAbsent {
		return null.String{}
	}
	return m.Mark
}

func (m *StudentMark) apply(mu MarkUpdate) {
	m.Mark = mu.text()
	m.IsAbsent = mu.IsAbsent
}

// MarkRecord is a stored mark, keyed by the student's birth certificate number.
type MarkRecord struct {
	BirthCertNumber string
	FullName        string
	Mark            null.String
	IsAbsent        bool
}

// MarkUpdate overwrites a stored mark.
type MarkUpdate struct {
	FullName string   `json:"full_name"`
	Mark     null.Int `json:"mark"`
	IsAbsent bool     `json:"is_absent"`
}

func (mu MarkUpdate) text() null.String {
	if !mu.Mark.Valid {
		return null.String{}
	}
	return null.StringFrom(strconv.Itoa(mu.Mark.Int))
}
