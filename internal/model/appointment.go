package model

import "time"

type AppointmentStatus string

const (
	AppointmentStatusPending   AppointmentStatus = "pending"   // waiting for the teacher
	AppointmentStatusApproved  AppointmentStatus = "approved"  // confirmed by the teacher
	AppointmentStatusRejected  AppointmentStatus = "rejected"  // declined by the teacher
	AppointmentStatusCancelled AppointmentStatus = "cancelled" // withdrawn by a party
)

// ParseAppointmentStatus returns the status named by s
func ParseAppointmentStatus(s string) (AppointmentStatus, bool) {
	st := AppointmentStatus(s)
	switch st {
	case AppointmentStatusPending, AppointmentStatusApproved, AppointmentStatusRejected, AppointmentStatusCancelled:
		return st, true
	}
	return "", false
}

// IsActive reports whether the appointment still holds its slot
func (s AppointmentStatus) IsActive() bool {
	return s == AppointmentStatusPending || s == AppointmentStatusApproved
}

// IsTerminal reports whether no further transition is possible
func (s AppointmentStatus) IsTerminal() bool {
	return s == AppointmentStatusRejected || s == AppointmentStatusCancelled
}

// SlotStatusFor is the slot status an appointment in this state requires.
// Terminal states leave the slot open.
func (s AppointmentStatus) SlotStatusFor() SlotStatus {
	switch s {
	case AppointmentStatusPending:
		return SlotStatusHeld
	case AppointmentStatusApproved:
		return SlotStatusBooked
	default:
		return SlotStatusOpen
	}
}

var transitions = map[AppointmentStatus][]AppointmentStatus{
	AppointmentStatusPending:  {AppointmentStatusApproved, AppointmentStatusRejected, AppointmentStatusCancelled},
	AppointmentStatusApproved: {AppointmentStatusCancelled},
}

// CanTransition reports whether from -> to is an edge of the appointment state machine
func CanTransition(from, to AppointmentStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type Appointment struct {
	ID        int64             `json:"id"`
	StudentID int64             `json:"student_id"`
	TeacherID int64             `json:"teacher_id"`
	SlotID    int64             `json:"slot_id"`
	Purpose   string            `json:"purpose"`
	Status    AppointmentStatus `json:"status"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// IsParty reports whether the user is the student or the teacher of the appointment
func (a *Appointment) IsParty(userID int64) bool {
	return a.StudentID == userID || a.TeacherID == userID
}

// Counterpart returns the other party of the appointment
func (a *Appointment) Counterpart(userID int64) int64 {
	if a.StudentID == userID {
		return a.TeacherID
	}
	return a.StudentID
}

// AppointmentFilter narrows ledger list queries. Zero fields are ignored.
type AppointmentFilter struct {
	StudentID int64
	TeacherID int64
	SlotID    int64
	Status    AppointmentStatus
}

// Decision is a teacher's answer to a pending appointment
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

// Target returns the appointment status the decision leads to
func (d Decision) Target() (AppointmentStatus, bool) {
	switch d {
	case DecisionApprove:
		return AppointmentStatusApproved, true
	case DecisionReject:
		return AppointmentStatusRejected, true
	}
	return "", false
}
