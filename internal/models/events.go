package models

import "time"

// Subjects for reservation lifecycle events published to NATS Streaming.
const (
	EventReservationBooked   = "reservation.booked"
	EventReservationPaid     = "reservation.paid"
	EventReservationCanceled = "reservation.canceled"
)

type ReservationBookedEvent struct {
	RID       int       `json:"rid"`
	Username  string    `json:"username"`
	FID1      int       `json:"fid1"`
	FID2      int       `json:"fid2"`
	Price     int       `json:"price"`
	Timestamp time.Time `json:"timestamp"`
}

type ReservationPaidEvent struct {
	RID       int       `json:"rid"`
	Username  string    `json:"username"`
	Balance   int       `json:"balance"`
	Timestamp time.Time `json:"timestamp"`
}

type ReservationCanceledEvent struct {
	RID       int       `json:"rid"`
	Username  string    `json:"username"`
	Timestamp time.Time `json:"timestamp"`
}
