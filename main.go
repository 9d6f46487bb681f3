package main

import (
	"time"

	"github.com/finalthread/server/config"
	"github.com/finalthread/server/models"
	"github.com/finalthread/server/routes"
	"github.com/finalthread/server/storage"
	"github.com/finalthread/server/utils"
	"github.com/finalthread/server/workers"
)

func main() {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}

	db := config.InitDatabase(
		&models.User{},
		&models.Message{},
		&models.TimeCapsule{},
		&models.DigitalAsset{},
		&models.TrustedContact{},
		&models.LegacyInstruction{},
		&models.CheckIn{},
		&models.DeliveryLog{},
		&models.BlobTombstone{},
	)

	blobs, err := storage.NewS3Store(cfg)
	if err != nil {
		utils.Sugar.Fatalf("blob store init failed: %v", err)
	}

	r := routes.SetupRouter(db, blobs)

	// Background release and cleanup loops (best-effort)
	workers.StartDeliveryWorker(db, time.Duration(cfg.DeliveryIntervalMinutes)*time.Minute)
	workers.StartInactivityWorker(db, time.Duration(cfg.InactivityCheckMinutes)*time.Minute)
	workers.StartReconcileWorker(db, blobs, time.Duration(cfg.ReconcileIntervalMinutes)*time.Minute)

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	if err := utils.GraceServer(":"+cfg.AppPort, r); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
