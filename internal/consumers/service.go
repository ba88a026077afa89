package consumers

import (
	"context"
	"log/slog"

	"turnstile/internal/config"
	"turnstile/internal/database"
	"turnstile/internal/messaging"
	"turnstile/internal/models"
	"turnstile/internal/repository"
)

// ConsumerService tails the engine's event stream for the audit trail. The
// booking flow itself is synchronous; everything here is observational.
type ConsumerService struct {
	db       *database.DB
	nats     *messaging.NATSClient
	repos    *repository.Repositories
	handlers *Handlers
}

func NewConsumerService(cfg *config.Config) (*ConsumerService, error) {
	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, err
	}

	natsClient, err := messaging.NewNATSClient(cfg.NATS)
	if err != nil {
		return nil, err
	}

	repos := repository.NewRepositories(db)
	handlers := NewHandlers(repos)

	return &ConsumerService{
		db:       db,
		nats:     natsClient,
		repos:    repos,
		handlers: handlers,
	}, nil
}

func (cs *ConsumerService) Start() error {
	slog.Info("Starting NATS consumers...")

	if _, err := cs.nats.SubscribeQueue(models.EventSeatHeld, "consumers", cs.handlers.HandleSeatHeld); err != nil {
		return err
	}
	if _, err := cs.nats.SubscribeQueue(models.EventSeatReleased, "consumers", cs.handlers.HandleSeatReleased); err != nil {
		return err
	}
	if _, err := cs.nats.SubscribeQueue(models.EventSeatStatusChanged, "consumers", cs.handlers.HandleSeatStatusChanged); err != nil {
		return err
	}
	if _, err := cs.nats.SubscribeQueue(models.EventQueueAdmitted, "consumers", cs.handlers.HandleQueueAdmitted); err != nil {
		return err
	}
	if _, err := cs.nats.SubscribeQueue(models.EventReservationCreated, "consumers", cs.handlers.HandleReservationCreated); err != nil {
		return err
	}
	if _, err := cs.nats.SubscribeQueue(models.EventReservationExpired, "consumers", cs.handlers.HandleReservationExpired); err != nil {
		return err
	}
	if _, err := cs.nats.SubscribeQueue(models.EventReservationCancel, "consumers", cs.handlers.HandleReservationCancelled); err != nil {
		return err
	}
	if _, err := cs.nats.SubscribeQueue(models.EventPaymentConfirmed, "consumers", cs.handlers.HandlePaymentConfirmed); err != nil {
		return err
	}
	if _, err := cs.nats.SubscribeQueue(models.EventPaymentFailed, "consumers", cs.handlers.HandlePaymentFailed); err != nil {
		return err
	}

	slog.Info("All consumers started successfully")
	return nil
}

func (cs *ConsumerService) Shutdown(ctx context.Context) error {
	slog.Info("Shutting down consumer service...")

	if cs.nats != nil {
		if err := cs.nats.Close(); err != nil {
			slog.Error("Error closing NATS connection", "error", err)
		}
	}

	if cs.db != nil {
		if err := cs.db.Close(); err != nil {
			slog.Error("Error closing database connection", "error", err)
			return err
		}
	}

	return nil
}
