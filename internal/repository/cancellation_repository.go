package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/restaurant-booking/internal/database"
	"github.com/iliyamo/restaurant-booking/internal/model"
)

type CancellationReasonRepo struct{ db *database.DB }

func NewCancellationReasonRepo(db *database.DB) *CancellationReasonRepo {
	return &CancellationReasonRepo{db: db}
}

func (r *CancellationReasonRepo) Get(ctx context.Context, id int64) (model.CancellationReason, error) {
	q := r.db.Ext(ctx)
	var reason model.CancellationReason
	err := sqlx.GetContext(ctx, q, &reason, q.Rebind("SELECT id, reason, description FROM cancellation_reasons WHERE id = ?"), id)
	return reason, notFound(err)
}

func (r *CancellationReasonRepo) List(ctx context.Context) ([]model.CancellationReason, error) {
	q := r.db.Ext(ctx)
	reasons := []model.CancellationReason{}
	err := sqlx.SelectContext(ctx, q, &reasons, "SELECT id, reason, description FROM cancellation_reasons ORDER BY id")
	return reasons, err
}
