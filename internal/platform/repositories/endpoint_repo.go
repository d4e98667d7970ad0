package repositories

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"hookgate/internal/platform/models"
)

type EndpointRepository struct {
	db *sql.DB
}

func NewEndpointRepository(db *sql.DB) *EndpointRepository {
	return &EndpointRepository{db: db}
}

const endpointColumns = `id, slug, name, secret, previous_secret, secret_rotated_at, tolerance_seconds, status, delivered_count, rejected_count, created_at, updated_at`

func (r *EndpointRepository) Create(ep *models.Endpoint) error {
	ep.ID = "ep_" + uuid.New().String()
	ep.CreatedAt = time.Now().Unix()
	ep.UpdatedAt = ep.CreatedAt
	if ep.Status == "" {
		ep.Status = "active"
	}

	query := `
		INSERT INTO endpoints (id, slug, name, secret, tolerance_seconds, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.Exec(query, ep.ID, ep.Slug, ep.Name, ep.Secret, ep.ToleranceSeconds, ep.Status, ep.CreatedAt, ep.UpdatedAt)
	return err
}

func scanEndpoint(row interface{ Scan(...interface{}) error }) (*models.Endpoint, error) {
	var ep models.Endpoint
	var previousSecret sql.NullString
	var rotatedAt sql.NullInt64

	err := row.Scan(&ep.ID, &ep.Slug, &ep.Name, &ep.Secret, &previousSecret, &rotatedAt,
		&ep.ToleranceSeconds, &ep.Status, &ep.DeliveredCount, &ep.RejectedCount, &ep.CreatedAt, &ep.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if previousSecret.Valid {
		ep.PreviousSecret = previousSecret.String
	}
	if rotatedAt.Valid {
		ep.SecretRotatedAt = new(int64)
		*ep.SecretRotatedAt = rotatedAt.Int64
	}
	return &ep, nil
}

func (r *EndpointRepository) GetByID(id string) (*models.Endpoint, error) {
	row := r.db.QueryRow(`SELECT `+endpointColumns+` FROM endpoints WHERE id = ?`, id)
	return scanEndpoint(row)
}

func (r *EndpointRepository) GetBySlug(slug string) (*models.Endpoint, error) {
	row := r.db.QueryRow(`SELECT `+endpointColumns+` FROM endpoints WHERE slug = ?`, slug)
	return scanEndpoint(row)
}

func (r *EndpointRepository) List() ([]*models.Endpoint, error) {
	rows, err := r.db.Query(`SELECT ` + endpointColumns + ` FROM endpoints ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var endpoints []*models.Endpoint
	for rows.Next() {
		ep, err := scanEndpoint(rows)
		if err != nil {
			return nil, err
		}
		endpoints = append(endpoints, ep)
	}
	return endpoints, rows.Err()
}

func (r *EndpointRepository) Update(ep *models.Endpoint) error {
	ep.UpdatedAt = time.Now().Unix()
	query := `
		UPDATE endpoints
		SET name = ?, tolerance_seconds = ?, status = ?, updated_at = ?
		WHERE id = ?
	`
	_, err := r.db.Exec(query, ep.Name, ep.ToleranceSeconds, ep.Status, ep.UpdatedAt, ep.ID)
	return err
}

func (r *EndpointRepository) Delete(id string) error {
	_, err := r.db.Exec(`DELETE FROM endpoints WHERE id = ?`, id)
	return err
}

// RotateSecret installs newSecret and keeps the old one verifying until the
// rotation grace window expires.
func (r *EndpointRepository) RotateSecret(id, newSecret string) error {
	now := time.Now().Unix()
	query := `
		UPDATE endpoints
		SET previous_secret = secret, secret = ?, secret_rotated_at = ?, updated_at = ?
		WHERE id = ?
	`
	_, err := r.db.Exec(query, newSecret, now, now, id)
	return err
}

// ClearExpiredPreviousSecrets drops retired secrets rotated before cutoff.
func (r *EndpointRepository) ClearExpiredPreviousSecrets(cutoff int64) (int64, error) {
	res, err := r.db.Exec(`
		UPDATE endpoints
		SET previous_secret = NULL, secret_rotated_at = NULL
		WHERE previous_secret IS NOT NULL AND secret_rotated_at < ?
	`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *EndpointRepository) IncrementDelivered(id string) error {
	_, err := r.db.Exec(`UPDATE endpoints SET delivered_count = delivered_count + 1 WHERE id = ?`, id)
	return err
}

func (r *EndpointRepository) IncrementRejected(id string) error {
	_, err := r.db.Exec(`UPDATE endpoints SET rejected_count = rejected_count + 1 WHERE id = ?`, id)
	return err
}
