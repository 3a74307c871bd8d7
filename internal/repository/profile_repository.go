package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/it-helpdesk/internal/domain"
)

// ProfileRepository reads and maintains employee profiles.
type ProfileRepository interface {
	GetByUserID(ctx context.Context, userID int64) (*domain.Profile, error)
	Upsert(ctx context.Context, profile *domain.Profile) error
}

type profileRepository struct {
	pool *pgxpool.Pool
}

// NewProfileRepository builds repository.
func NewProfileRepository(pool *pgxpool.Pool) ProfileRepository {
	return &profileRepository{pool: pool}
}

func (r *profileRepository) GetByUserID(ctx context.Context, userID int64) (*domain.Profile, error) {
	const query = `
        SELECT user_id, employee_name, department, phone_number, laptop_model, laptop_serial
        FROM profiles WHERE user_id=$1`

	var profile domain.Profile
	if err := r.pool.QueryRow(ctx, query, userID).Scan(
		&profile.UserID,
		&profile.EmployeeName,
		&profile.Department,
		&profile.PhoneNumber,
		&profile.LaptopModel,
		&profile.LaptopSerial,
	); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *profileRepository) Upsert(ctx context.Context, profile *domain.Profile) error {
	const query = `
        INSERT INTO profiles (user_id, employee_name, department, phone_number, laptop_model, laptop_serial)
        VALUES ($1,$2,$3,$4,$5,$6)
        ON CONFLICT (user_id) DO UPDATE SET
            employee_name=EXCLUDED.employee_name,
            department=EXCLUDED.department,
            phone_number=EXCLUDED.phone_number,
            laptop_model=EXCLUDED.laptop_model,
            laptop_serial=EXCLUDED.laptop_serial`
	_, err := r.pool.Exec(ctx, query,
		profile.UserID,
		profile.EmployeeName,
		profile.Department,
		profile.PhoneNumber,
		profile.LaptopModel,
		profile.LaptopSerial,
	)
	return err
}
