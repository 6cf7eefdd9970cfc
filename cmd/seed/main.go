// Package main provides a CLI tool for seeding the database with demo data.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	appctx "stockbook/internal/core/context"
	"stockbook/internal/core/types"
	"stockbook/internal/domain/movement"
	"stockbook/internal/domain/product"
	"stockbook/internal/infrastructure/storage/postgres"
	"stockbook/internal/infrastructure/storage/postgres/movement_repo"
	"stockbook/internal/infrastructure/storage/postgres/product_repo"
	"stockbook/internal/infrastructure/storage/postgres/transfer_repo"
	"stockbook/pkg/logger"
)

func main() {
	log, err := logger.New(logger.Config{
		Level:       "info",
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}

	ctx := appctx.WithActor(context.Background(), "seed")

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	poolCfg := postgres.DefaultPoolConfig(dbURL)
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	log.Info("connected to database")

	txm := postgres.NewTxManager(pool)
	productRepo := product_repo.NewProductRepo(txm)
	movementRepo := movement_repo.NewMovementRepo(txm)
	transferRepo := transfer_repo.NewTransferRepo(txm)

	products := product.NewService(productRepo, txm)
	movements := movement.NewService(movementRepo, productRepo, transferRepo, nil, txm)

	today := time.Now().UTC().Truncate(24 * time.Hour)

	demo := []struct {
		code      string
		name      string
		threshold types.Quantity
		price     types.Money
		entry     types.Quantity
		lot       string
		expiry    time.Time
	}{
		{"AMX-500", "Amoxicillin 500mg", types.NewQuantityFromInt(50), types.MustMoney("0.42"),
			types.NewQuantityFromInt(400), "AMX-2026-01", today.AddDate(0, 6, 0)},
		{"IBU-200", "Ibuprofen 200mg", types.NewQuantityFromInt(100), types.MustMoney("0.15"),
			types.NewQuantityFromInt(1000), "IBU-2025-11", today.AddDate(0, 0, 20)},
		{"PCM-500", "Paracetamol 500mg", types.NewQuantityFromInt(80), types.MustMoney("0.08"),
			types.NewQuantityFromInt(600), "PCM-2025-09", today.AddDate(0, 0, 5)},
	}

	for _, d := range demo {
		p := &product.Product{
			Code:           d.code,
			Name:           d.name,
			AlertThreshold: d.threshold,
			UnitPrice:      d.price,
		}
		if err := products.Create(ctx, p); err != nil {
			log.Warnw("product seed skipped", "code", d.code, "error", err)
			continue
		}

		expiry := d.expiry
		m := &movement.Movement{
			ProductID:    p.ID,
			Kind:         movement.KindEntry,
			Quantity:     d.entry,
			MovementDate: today,
			LotNumber:    d.lot,
			ExpiryDate:   &expiry,
			UnitPrice:    d.price,
			Reference:    "seed",
		}
		if err := movements.Append(ctx, m); err != nil {
			log.Fatalw("movement seed failed", "code", d.code, "error", err)
		}
	}

	log.Info("seeding completed successfully")
}
