package models

import (
	"fmt"
	"strings"
	"time"
)

type Traveler struct {
	FullName         *string `json:"fullName"`
	PassportNumber   *string `json:"passportNumber"`
	Nationality      *string `json:"nationality"`
	BirthDate        *string `json:"birthDate"`
	DietaryNeeds     *string `json:"dietaryNeeds"`
	EmergencyContact *string `json:"emergencyContact"`
	Notes            *string `json:"notes"`
}

type UpdateTravelersRequest struct {
	Travelers []Traveler `json:"travelers"`
}

// Normalize trims every field and turns empty values into nil.
func (t Traveler) Normalize() Traveler {
	return Traveler{
		FullName:         trimOrNil(t.FullName),
		PassportNumber:   trimOrNil(t.PassportNumber),
		Nationality:      trimOrNil(t.Nationality),
		BirthDate:        trimOrNil(t.BirthDate),
		DietaryNeeds:     trimOrNil(t.DietaryNeeds),
		EmergencyContact: trimOrNil(t.EmergencyContact),
		Notes:            trimOrNil(t.Notes),
	}
}

func (t Traveler) Validate() error {
	if t.BirthDate != nil {
		born, err := time.Parse("2006-01-02", *t.BirthDate)
		if err != nil {
			return fmt.Errorf("%w: birthDate must be YYYY-MM-DD", ErrInvalidInput)
		}
		if born.After(time.Now()) {
			return fmt.Errorf("%w: birthDate is in the future", ErrInvalidInput)
		}
	}
	if t.FullName != nil && len(*t.FullName) > 200 {
		return fmt.Errorf("%w: fullName too long", ErrInvalidInput)
	}
	return nil
}

// Complete means the traveler can be ticketed by the operator.
func (t Traveler) Complete() bool {
	return t.FullName != nil && t.PassportNumber != nil
}

func trimOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
