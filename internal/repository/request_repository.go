package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/medevalink/be-ts-requests/internal/database"
	"github.com/medevalink/be-ts-requests/internal/domain"
	"github.com/medevalink/be-ts-requests/internal/errors"
)

// ListFilter narrows List results. Nil fields are not applied.
type ListFilter struct {
	Status        *domain.Status
	Track         *domain.Track
	RequesterID   *string
	Department    *string
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
	Limit         int
	Offset        int
}

// RequestRepository persists purchase requests. The request is stored as one
// row: filter columns plus the full document (history included) as JSONB, so
// the audit trail is never truncated or stored apart from the request.
type RequestRepository struct {
	db *database.DB
}

// NewRequestRepository creates a new RequestRepository.
func NewRequestRepository(db *database.DB) *RequestRepository {
	return &RequestRepository{db: db}
}

// Create inserts a new request. The progressive number must already be set.
func (r *RequestRepository) Create(ctx context.Context, req *domain.Request) error {
	doc, err := json.Marshal(req)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to marshal request")
	}

	query := `
		INSERT INTO technology_requests
		    (id, number, status, track, requester_id, department,
		     operating_unit, estimated_value, history_len, doc,
		     created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6,
		        $7, $8, $9, $10,
		        $11, $12)
	`

	_, err = r.db.Exec(ctx, query,
		req.ID,
		req.Number,
		req.Status,
		req.Track,
		req.RequesterID,
		req.Department,
		req.OperatingUnit,
		req.Budget.EstimatedValue,
		len(req.History),
		doc,
		req.CreatedAt,
		req.UpdatedAt,
	)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to create request")
	}
	return nil
}

// GetByID retrieves a request by primary key.
func (r *RequestRepository) GetByID(ctx context.Context, id string) (*domain.Request, error) {
	query := `SELECT doc FROM technology_requests WHERE id = $1`

	req, err := r.scanDoc(r.db.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("request", id)
	}
	return req, err
}

// GetByNumber retrieves a request by its progressive number.
func (r *RequestRepository) GetByNumber(ctx context.Context, number string) (*domain.Request, error) {
	query := `SELECT doc FROM technology_requests WHERE number = $1`

	req, err := r.scanDoc(r.db.QueryRow(ctx, query, number))
	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("request", number)
	}
	return req, err
}

// List returns requests matching the filter, newest first.
func (r *RequestRepository) List(ctx context.Context, filter ListFilter) ([]*domain.Request, error) {
	query := `SELECT doc FROM technology_requests WHERE 1=1`
	args := []any{}
	argNum := 1

	addArg := func(clause string, value any) {
		query += fmt.Sprintf(" AND %s $%d", clause, argNum)
		args = append(args, value)
		argNum++
	}

	if filter.Status != nil {
		addArg("status =", *filter.Status)
	}
	if filter.Track != nil {
		addArg("track =", *filter.Track)
	}
	if filter.RequesterID != nil {
		addArg("requester_id =", *filter.RequesterID)
	}
	if filter.Department != nil {
		addArg("department =", *filter.Department)
	}
	if filter.CreatedAfter != nil {
		addArg("created_at >=", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		addArg("created_at <=", *filter.CreatedBefore)
	}

	query += " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argNum)
		args = append(args, filter.Limit)
		argNum++
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argNum)
		args = append(args, filter.Offset)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to list requests")
	}
	defer rows.Close()

	var requests []*domain.Request
	for rows.Next() {
		req, err := r.scanDoc(rows)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to scan request")
		}
		requests = append(requests, req)
	}
	return requests, nil
}

// Save persists a modified request. expectedHistoryLen is the history length
// the caller loaded; if another writer appended an entry in the meantime the
// update matches no row and the save fails with a conflict.
func (r *RequestRepository) Save(ctx context.Context, req *domain.Request, expectedHistoryLen int) error {
	doc, err := json.Marshal(req)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to marshal request")
	}

	query := `
		UPDATE technology_requests
		SET status          = $3,
		    track           = $4,
		    department      = $5,
		    operating_unit  = $6,
		    estimated_value = $7,
		    history_len     = $8,
		    doc             = $9,
		    updated_at      = $10
		WHERE id = $1 AND history_len = $2
	`

	tag, err := r.db.Exec(ctx, query,
		req.ID,
		expectedHistoryLen,
		req.Status,
		req.Track,
		req.Department,
		req.OperatingUnit,
		req.Budget.EstimatedValue,
		len(req.History),
		doc,
		req.UpdatedAt,
	)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to save request")
	}
	if tag.RowsAffected() == 0 {
		// Either the row is gone or another writer got there first.
		var n int
		err := r.db.QueryRow(ctx, `SELECT history_len FROM technology_requests WHERE id = $1`, req.ID).Scan(&n)
		if err == pgx.ErrNoRows {
			return errors.NotFound("request", req.ID)
		}
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeInternal, "failed to check request staleness")
		}
		return errors.Conflict(fmt.Sprintf("request %s was modified concurrently (history length %d, expected %d)", req.ID, n, expectedHistoryLen))
	}
	return nil
}

// NextProgressiveNumber allocates the next number in the per-year sequence,
// formatted as YYYY-NNN.
func (r *RequestRepository) NextProgressiveNumber(ctx context.Context, year int) (string, error) {
	query := `
		INSERT INTO request_sequences (year, last_seq)
		VALUES ($1, 1)
		ON CONFLICT (year) DO UPDATE SET last_seq = request_sequences.last_seq + 1
		RETURNING last_seq
	`

	var seq int
	if err := r.db.QueryRow(ctx, query, year).Scan(&seq); err != nil {
		return "", errors.Wrap(err, errors.ErrCodeInternal, "failed to allocate progressive number")
	}
	return fmt.Sprintf("%d-%03d", year, seq), nil
}

// ── scan helpers ─────────────────────────────────────────────────────────────

type docScanner interface {
	Scan(dest ...any) error
}

func (r *RequestRepository) scanDoc(row docScanner) (*domain.Request, error) {
	var doc []byte
	if err := row.Scan(&doc); err != nil {
		return nil, err
	}

	req := &domain.Request{}
	if err := json.Unmarshal(doc, req); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to unmarshal request")
	}
	return req, nil
}
