package repositories

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"hookgate/internal/platform/models"
)

type DeliveryRepository struct {
	db *sql.DB
}

func NewDeliveryRepository(db *sql.DB) *DeliveryRepository {
	return &DeliveryRepository{db: db}
}

func (r *DeliveryRepository) Create(d *models.Delivery) error {
	d.ID = "dlv_" + uuid.New().String()
	d.ReceivedAt = time.Now().Unix()

	query := `
		INSERT INTO deliveries (id, endpoint_id, event_id, event_type, api_version, event_created, payload, sig_header, sig_timestamp, received_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.Exec(query, d.ID, d.EndpointID, d.EventID, d.EventType, d.APIVersion,
		d.EventCreated, d.Payload, d.SigHeader, d.SigTimestamp, d.ReceivedAt)
	return err
}

const deliveryColumns = `id, endpoint_id, event_id, event_type, api_version, event_created, payload, sig_header, sig_timestamp, received_at`

// The event columns and sig_timestamp are nullable: a payload may verify
// without carrying the standard event envelope.
func scanDelivery(row interface{ Scan(...interface{}) error }) (*models.Delivery, error) {
	var d models.Delivery
	var eventID, eventType, apiVersion sql.NullString
	var eventCreated, sigTimestamp sql.NullInt64

	err := row.Scan(&d.ID, &d.EndpointID, &eventID, &eventType, &apiVersion,
		&eventCreated, &d.Payload, &d.SigHeader, &sigTimestamp, &d.ReceivedAt)
	if err != nil {
		return nil, err
	}

	d.EventID = eventID.String
	d.EventType = eventType.String
	d.APIVersion = apiVersion.String
	d.EventCreated = eventCreated.Int64
	d.SigTimestamp = sigTimestamp.Int64
	return &d, nil
}

func (r *DeliveryRepository) GetByID(id string) (*models.Delivery, error) {
	row := r.db.QueryRow(`SELECT `+deliveryColumns+` FROM deliveries WHERE id = ?`, id)
	return scanDelivery(row)
}

func (r *DeliveryRepository) ListByEndpoint(endpointID string, limit, offset int) ([]*models.Delivery, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	query := `SELECT ` + deliveryColumns + ` FROM deliveries WHERE endpoint_id = ? ORDER BY received_at DESC LIMIT ? OFFSET ?`
	rows, err := r.db.Query(query, endpointID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var deliveries []*models.Delivery
	for rows.Next() {
		d, err := scanDelivery(rows)
		if err != nil {
			return nil, err
		}
		deliveries = append(deliveries, d)
	}
	return deliveries, rows.Err()
}

func (r *DeliveryRepository) DeleteOlderThan(cutoff int64) (int64, error) {
	res, err := r.db.Exec(`DELETE FROM deliveries WHERE received_at < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *DeliveryRepository) CountAll() (int64, error) {
	var n int64
	err := r.db.QueryRow(`SELECT COUNT(*) FROM deliveries`).Scan(&n)
	return n, err
}

type RejectionRepository struct {
	db *sql.DB
}

func NewRejectionRepository(db *sql.DB) *RejectionRepository {
	return &RejectionRepository{db: db}
}

func (r *RejectionRepository) Create(rej *models.Rejection) error {
	rej.ID = "rej_" + uuid.New().String()
	rej.ReceivedAt = time.Now().Unix()

	query := `
		INSERT INTO rejections (id, endpoint_id, reason, sig_header, received_at)
		VALUES (?, ?, ?, ?, ?)
	`
	_, err := r.db.Exec(query, rej.ID, rej.EndpointID, rej.Reason, rej.SigHeader, rej.ReceivedAt)
	return err
}

func (r *RejectionRepository) ListByEndpoint(endpointID string, limit, offset int) ([]*models.Rejection, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	query := `SELECT id, endpoint_id, reason, sig_header, received_at FROM rejections WHERE endpoint_id = ? ORDER BY received_at DESC LIMIT ? OFFSET ?`
	rows, err := r.db.Query(query, endpointID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rejections []*models.Rejection
	for rows.Next() {
		var rej models.Rejection
		var sigHeader sql.NullString
		if err := rows.Scan(&rej.ID, &rej.EndpointID, &rej.Reason, &sigHeader, &rej.ReceivedAt); err != nil {
			return nil, err
		}
		rej.SigHeader = sigHeader.String
		rejections = append(rejections, &rej)
	}
	return rejections, rows.Err()
}

func (r *RejectionRepository) DeleteOlderThan(cutoff int64) (int64, error) {
	res, err := r.db.Exec(`DELETE FROM rejections WHERE received_at < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *RejectionRepository) CountAll() (int64, error) {
	var n int64
	err := r.db.QueryRow(`SELECT COUNT(*) FROM rejections`).Scan(&n)
	return n, err
}
