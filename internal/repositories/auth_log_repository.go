package repositories

import (
	"context"

	"cold-backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

// AuthLogRepository is an append-only log of successful logins, adapted from the
// teacher's login_logs table with logout tracking dropped — nothing in the picking
// domain needs a session-duration audit, only a record of who authenticated when.
type AuthLogRepository struct {
	DB *pgxpool.Pool
}

func NewAuthLogRepository(db *pgxpool.Pool) *AuthLogRepository {
	return &AuthLogRepository{DB: db}
}

func (r *AuthLogRepository) Create(ctx context.Context, userID int, ipAddress, userAgent string) (int, error) {
	var id int
	err := r.DB.QueryRow(ctx,
		`INSERT INTO auth_logs (user_id, login_time, ip_address, user_agent)
		 VALUES ($1, NOW(), $2, $3) RETURNING id`,
		userID, ipAddress, userAgent,
	).Scan(&id)
	return id, err
}

func (r *AuthLogRepository) ListAll(ctx context.Context) ([]*models.AuthLog, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT al.id, al.user_id, al.login_time, COALESCE(al.ip_address,''), COALESCE(al.user_agent,''), al.created_at
		 FROM auth_logs al
		 ORDER BY al.login_time DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []*models.AuthLog
	for rows.Next() {
		l := &models.AuthLog{}
		if err := rows.Scan(&l.ID, &l.UserID, &l.LoginTime, &l.IPAddress, &l.UserAgent, &l.CreatedAt); err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

func (r *AuthLogRepository) ListByUser(ctx context.Context, userID int) ([]*models.AuthLog, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT id, user_id, login_time, COALESCE(ip_address,''), COALESCE(user_agent,''), created_at
		 FROM auth_logs WHERE user_id = $1 ORDER BY login_time DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []*models.AuthLog
	for rows.Next() {
		l := &models.AuthLog{}
		if err := rows.Scan(&l.ID, &l.UserID, &l.LoginTime, &l.IPAddress, &l.UserAgent, &l.CreatedAt); err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
