package repositories

import (
	"database/sql"
	"strings"

	"github.com/clagate/clagate/internal/models"
)

type DeliveryRepository struct {
	db *sql.DB
}

func NewDeliveryRepository(db *sql.DB) *DeliveryRepository {
	return &DeliveryRepository{db: db}
}

// Record inserts the delivery into the idempotency ledger. The bool
// reports whether the delivery was new; a UNIQUE violation means the
// upstream transport redelivered an already-applied notification.
func (r *DeliveryRepository) Record(delivery *models.Delivery) (bool, error) {
	query := `
		INSERT INTO deliveries (
			id, delivery_id, event_action, received_at
		) VALUES (?, ?, ?, ?)
	`

	_, err := r.db.Exec(query, delivery.ID, delivery.DeliveryID, delivery.EventAction, delivery.ReceivedAt)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return false, nil
		}
		return false, err
	}

	return true, nil
}

// Exists checks whether a delivery id has already been applied
func (r *DeliveryRepository) Exists(deliveryID string) (bool, error) {
	query := `SELECT COUNT(*) FROM deliveries WHERE delivery_id = ?`

	var count int
	err := r.db.QueryRow(query, deliveryID).Scan(&count)
	return count > 0, err
}

// GetByDeliveryID retrieves one ledger entry
func (r *DeliveryRepository) GetByDeliveryID(deliveryID string) (*models.Delivery, error) {
	query := `
		SELECT id, delivery_id, event_action, received_at
		FROM deliveries WHERE delivery_id = ?
	`

	delivery := &models.Delivery{}
	err := r.db.QueryRow(query, deliveryID).Scan(
		&delivery.ID, &delivery.DeliveryID, &delivery.EventAction, &delivery.ReceivedAt,
	)

	if err != nil {
		return nil, err
	}

	return delivery, nil
}
