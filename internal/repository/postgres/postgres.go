package postgres

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/smartcity/governance/internal/domain"
)

//go:embed schema.sql
var schema string

// PostgresRepository implements domain.RequestRepository
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// EnsureSchema creates the tables if they do not exist
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("postgres: failed to apply schema: %w", err)
	}
	return nil
}

// SaveServiceRequest persists a request as pending with its assigned department
func (r *PostgresRepository) SaveServiceRequest(ctx context.Context, req domain.ServiceRequest, decision domain.RoutingDecision) error {
	query := `
		INSERT INTO service_requests (
			id, description, district, feedback_score, citizen_id, phone, address, aadhaar,
			department, category, status, submitted_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, 'pending', $11)
		ON CONFLICT (id) DO NOTHING
	`

	_, err := r.pool.Exec(ctx, query,
		req.ID, req.Description, req.District, req.FeedbackScore(),
		nullable(req.CitizenID), nullable(req.Phone), nullable(req.Address), nullable(req.Aadhaar),
		decision.AssignedDepartment, string(decision.Category), req.SubmittedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: failed to save service request: %w", err)
	}

	return nil
}

// RequestExists reports whether a request id is already stored
func (r *PostgresRepository) RequestExists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM service_requests WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("postgres: failed to look up request: %w", err)
	}
	return exists, nil
}

// SaveRoutingDecision persists a routing decision; a second decision for the
// same request id is ignored
func (r *PostgresRepository) SaveRoutingDecision(ctx context.Context, d domain.RoutingDecision) error {
	query := `
		INSERT INTO routing_decisions (
			request_id, assigned_department, priority_score, estimated_days,
			category, urgency, district, citizen_message, routed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (request_id) DO NOTHING
	`

	_, err := r.pool.Exec(ctx, query,
		d.RequestID, d.AssignedDepartment, d.PriorityScore, d.EstimatedResolutionDays,
		string(d.Category), string(d.Urgency), d.District, d.CitizenMessage, d.RoutedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: failed to save routing decision: %w", err)
	}

	return nil
}

// PendingBacklog counts pending requests per department
func (r *PostgresRepository) PendingBacklog(ctx context.Context) (domain.DepartmentLoad, error) {
	query := `
		SELECT department, COUNT(*) AS active_requests
		FROM service_requests
		WHERE status = 'pending'
		GROUP BY department
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to query backlog: %w", err)
	}
	defer rows.Close()

	load := domain.DepartmentLoad{}
	for rows.Next() {
		var (
			department string
			count      int
		)
		if err := rows.Scan(&department, &count); err != nil {
			return nil, fmt.Errorf("postgres: failed to scan backlog row: %w", err)
		}
		load[department] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: failed to read backlog rows: %w", err)
	}

	return load, nil
}

// RecentDecisions retrieves the newest routing decisions
func (r *PostgresRepository) RecentDecisions(ctx context.Context, limit int) ([]domain.RoutingDecision, error) {
	query := `
		SELECT request_id, assigned_department, priority_score, estimated_days,
			   category, urgency, district, citizen_message, routed_at
		FROM routing_decisions
		ORDER BY routed_at DESC
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to query routing decisions: %w", err)
	}
	defer rows.Close()

	var results []domain.RoutingDecision
	for rows.Next() {
		var (
			d                 domain.RoutingDecision
			category, urgency string
		)
		err := rows.Scan(
			&d.RequestID, &d.AssignedDepartment, &d.PriorityScore, &d.EstimatedResolutionDays,
			&category, &urgency, &d.District, &d.CitizenMessage, &d.RoutedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("postgres: failed to scan routing decision row: %w", err)
		}
		d.Category = domain.Category(category)
		d.Urgency = domain.Urgency(urgency)
		results = append(results, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: failed to read routing decision rows: %w", err)
	}

	return results, nil
}

// CountByDistrict counts decisions routed since the given time per district
func (r *PostgresRepository) CountByDistrict(ctx context.Context, since time.Time) (map[string]int, error) {
	query := `
		SELECT district, COUNT(*)
		FROM routing_decisions
		WHERE routed_at >= $1
		GROUP BY district
	`

	counts, err := r.countBy(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to count by district: %w", err)
	}
	return counts, nil
}

// CountByCategory counts decisions routed since the given time per category
func (r *PostgresRepository) CountByCategory(ctx context.Context, since time.Time) (map[domain.Category]int, error) {
	query := `
		SELECT category, COUNT(*)
		FROM routing_decisions
		WHERE routed_at >= $1
		GROUP BY category
	`

	counts, err := r.countBy(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to count by category: %w", err)
	}

	out := make(map[domain.Category]int, len(counts))
	for k, v := range counts {
		out[domain.Category(k)] = v
	}
	return out, nil
}

func (r *PostgresRepository) countBy(ctx context.Context, query string, since time.Time) (map[string]int, error) {
	rows, err := r.pool.Query(ctx, query, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var (
			key   string
			count int
		)
		if err := rows.Scan(&key, &count); err != nil {
			return nil, err
		}
		counts[key] = count
	}
	return counts, rows.Err()
}

// PurgeExpired deletes requests and decisions older than cutoff and returns
// how many rows were removed
func (r *PostgresRepository) PurgeExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("postgres: failed to begin purge: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	requests, err := tx.Exec(ctx, `DELETE FROM service_requests WHERE submitted_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("postgres: failed to purge service requests: %w", err)
	}
	decisions, err := tx.Exec(ctx, `DELETE FROM routing_decisions WHERE routed_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("postgres: failed to purge routing decisions: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("postgres: failed to commit purge: %w", err)
	}

	return requests.RowsAffected() + decisions.RowsAffected(), nil
}

// Health checks database connectivity
func (r *PostgresRepository) Health(ctx context.Context) error {
	if err := r.pool.Ping(ctx); err != nil {
		return fmt.Errorf("postgres: health check failed: %w", err)
	}
	return nil
}

// nullable stores empty optional strings as NULL
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

var _ domain.RequestRepository = (*PostgresRepository)(nil)
