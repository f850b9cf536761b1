package models

import "fmt"

// NoSecondFlight is the fid2 sentinel stored for single-flight reservations.
const NoSecondFlight = -1

// Flight mirrors a row of the flights table. Rows are immutable; the live
// seat count lives in flight_capacity and is tracked separately.
type Flight struct {
	FID        int
	DayOfMonth int
	CarrierID  string
	FlightNum  string
	OriginCity string
	DestCity   string
	Duration   int
	Capacity   int
	Price      int
}

// Line renders the flight in the wire format shared by search results and
// reservation listings. Callers parse these strings, so the format is frozen.
func (f Flight) Line() string {
	return fmt.Sprintf("ID: %d Day: %d Carrier: %s Number: %s Origin: %s Dest: %s Duration: %d Capacity: %d Price: %d",
		f.FID, f.DayOfMonth, f.CarrierID, f.FlightNum, f.OriginCity, f.DestCity, f.Duration, f.Capacity, f.Price)
}

// Itinerary is one ranked search result: one or two flights on the same day.
// Itineraries are session-scoped and never persisted; the ordinal index a
// caller books with is the position in the session's latest search snapshot.
type Itinerary struct {
	First  Flight
	Second *Flight
	Price  int
	Day    int
	Total  int
}

// NumFlights returns 1 for a direct itinerary, 2 for a one-hop one.
func (it Itinerary) NumFlights() int {
	if it.Second != nil {
		return 2
	}
	return 1
}

// Render prints the itinerary under the given ordinal index.
func (it Itinerary) Render(index int) string {
	s := fmt.Sprintf("Itinerary %d: %d flight(s), %d minutes\n%s",
		index, it.NumFlights(), it.Total, it.First.Line())
	if it.Second != nil {
		s += "\n" + it.Second.Line()
	}
	return s
}

// Reservation mirrors a row of the reservations table. FID2 holds
// NoSecondFlight when the reservation covers a single flight. Reservation
// ids are monotonic and never reused, even after cancellation.
type Reservation struct {
	RID      int
	Paid     bool
	FID1     int
	FID2     int
	Username string
	Price    int
}

// User mirrors a row of the users table. The balance only changes when a
// reservation is paid.
type User struct {
	Username     string
	PasswordHash string
	Balance      int
}
