package models

import "time"

type PersonName struct {
	FirstName  string `json:"first_name" binding:"max=100"`
	MiddleName string `json:"middle_name" binding:"max=100"`
	LastName   string `json:"last_name" binding:"max=100"`
}

type Address struct {
	Line1   string `json:"address_line_1" binding:"max=100"`
	Line2   string `json:"address_line_2" binding:"max=100"`
	City    string `json:"city" binding:"max=100"`
	State   string `json:"state" binding:"max=100"`
	Country string `json:"country" binding:"max=100"`
	Zip     string `json:"zip" binding:"max=100"`
}

type EmergencyContact struct {
	PersonName
	PhoneNumber  string `json:"phone_number" binding:"max=100"`
	Relationship string `json:"relationship" binding:"max=100"`
}

type Physician struct {
	PersonName
	PrimaryPhone      string `json:"primary_phone_number" binding:"max=100"`
	SecondaryPhone    string `json:"secondary_phone_number" binding:"max=100"`
	PreferredHospital string `json:"preferred_hospital_name" binding:"max=100"`
	SpecialNotes      string `json:"special_notes"`
}

type PreviousSchool struct {
	Name        string     `json:"name" binding:"max=100"`
	City        string     `json:"city" binding:"max=100"`
	State       string     `json:"state" binding:"max=100"`
	Country     string     `json:"country" binding:"max=100"`
	DateStarted *time.Time `json:"date_started"`
	DateEnded   *time.Time `json:"date_ended"`
	Notes       string     `json:"notes"`
}

type Student struct {
	ID int `json:"id"`

	PersonName
	Father PersonName `json:"father"`
	Mother PersonName `json:"mother"`

	Email       string     `json:"email" binding:"omitempty,email,max=100"`
	PhoneNumber string     `json:"phone_number" binding:"max=15"`
	BirthDate   *time.Time `json:"birth_date"`
	Gender      string     `json:"gender" binding:"omitempty,gender"`

	StudentID string `json:"student_id" binding:"max=10"`
	EntryYear string `json:"entry_year" binding:"max=100"`
	Semester  string `json:"semester" binding:"omitempty,oneof=first second third fourth"`

	Address         Address `json:"address"`
	ImagePath       string  `json:"image"`
	GuardianAddress Address `json:"guardian_address"`

	FirstEmergency  EmergencyContact `json:"first_emergency"`
	SecondEmergency EmergencyContact `json:"second_emergency"`

	Physician      Physician      `json:"physician"`
	PreviousSchool PreviousSchool `json:"previous_school"`
}

func (s *Student) FullName() string {
	name := s.FirstName
	if s.MiddleName != "" {
		name += " " + s.MiddleName
	}
	if s.LastName != "" {
		name += " " + s.LastName
	}
	return name
}
