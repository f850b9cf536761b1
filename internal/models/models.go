package models

// Request bodies for the HTTP surface. Responses are the literal engine
// strings served as text/plain, so there are no response DTOs here.

type CreateUserRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	Balance  int    `json:"balance"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type BookRequest struct {
	Itinerary int `json:"itinerary"`
}

type PayRequest struct {
	Reservation int `json:"reservation"`
}

type CancelRequest struct {
	Reservation int `json:"reservation"`
}
