package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/vladislavdragonenkov/sto/internal/domain"
)

const opTimeout = 5 * time.Second

// snapshotRepository — PostgreSQL-реализация SnapshotRepository.
// Семантика та же, что у файлового бэкенда: полный снапшот читается и
// пишется целиком, запись идёт одной транзакцией.
type snapshotRepository struct {
	db *sql.DB
}

// NewSnapshotRepository создаёт PostgreSQL-реализацию SnapshotRepository.
func NewSnapshotRepository(store *Store) domain.SnapshotRepository {
	return &snapshotRepository{db: store.db}
}

func (r *snapshotRepository) Load() (domain.Snapshot, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	snap := domain.NewSnapshot()

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, brand, model, year, reg_number, owner, registration_date
		FROM vehicles
	`)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("query vehicles: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var v domain.Vehicle
		if err := rows.Scan(&v.ID, &v.Brand, &v.Model, &v.Year, &v.RegNumber, &v.Owner, &v.RegisteredAt); err != nil {
			return domain.Snapshot{}, fmt.Errorf("scan vehicle: %w", err)
		}
		snap.Vehicles[v.ID] = v
	}
	if err := rows.Err(); err != nil {
		return domain.Snapshot{}, fmt.Errorf("iterate vehicles: %w", err)
	}

	orderRows, err := r.db.QueryContext(ctx, `
		SELECT id, vehicle_id, date_created, work_type, parts, resources, estimated_cost, status
		FROM repair_orders
	`)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("query repair orders: %w", err)
	}
	defer orderRows.Close()

	for orderRows.Next() {
		var (
			o      domain.RepairOrder
			status string
		)
		if err := orderRows.Scan(&o.ID, &o.VehicleID, &o.CreatedAt, &o.WorkType, &o.Parts, &o.Resources, &o.EstimatedCost, &status); err != nil {
			return domain.Snapshot{}, fmt.Errorf("scan repair order: %w", err)
		}
		o.Status = domain.PaymentStatus(status)
		if !o.Status.Valid() {
			o.Status = domain.PaymentStatusUnpaid
		}
		snap.RepairOrders[o.ID] = o
	}
	if err := orderRows.Err(); err != nil {
		return domain.Snapshot{}, fmt.Errorf("iterate repair orders: %w", err)
	}

	return snap, nil
}

func (r *snapshotRepository) Save(snap domain.Snapshot) (err error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	// Снапшот заменяет всё содержимое; порядок удаления уважает внешний ключ.
	if _, err = tx.ExecContext(ctx, `DELETE FROM repair_orders`); err != nil {
		return fmt.Errorf("clear repair orders: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM vehicles`); err != nil {
		return fmt.Errorf("clear vehicles: %w", err)
	}

	for _, v := range snap.Vehicles {
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO vehicles (id, brand, model, year, reg_number, owner, registration_date)
			VALUES ($1,$2,$3,$4,$5,$6,$7)
		`, v.ID, v.Brand, v.Model, v.Year, v.RegNumber, v.Owner, v.RegisteredAt); err != nil {
			return fmt.Errorf("insert vehicle %s: %w", v.ID, err)
		}
	}

	for _, o := range snap.RepairOrders {
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO repair_orders (id, vehicle_id, date_created, work_type, parts, resources, estimated_cost, status)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		`, o.ID, o.VehicleID, o.CreatedAt, o.WorkType, o.Parts, o.Resources, o.EstimatedCost, string(o.Status)); err != nil {
			return fmt.Errorf("insert repair order %s: %w", o.ID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}

	return nil
}

var _ domain.SnapshotRepository = (*snapshotRepository)(nil)
