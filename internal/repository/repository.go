package repository

import (
	"turnstile/internal/database"
)

type Repositories struct {
	Seats        *SeatRepository
	Reservations *ReservationRepository
	Users        *UserRepository
	Venues       *VenueRepository
}

func NewRepositories(db *database.DB) *Repositories {
	return &Repositories{
		Seats:        NewSeatRepository(db),
		Reservations: NewReservationRepository(db),
		Users:        NewUserRepository(db),
		Venues:       NewVenueRepository(db),
	}
}
