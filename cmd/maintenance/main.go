// Runs periodic housekeeping against the store. Meant to be invoked by
// an external scheduler (cron, systemd timer).
package main

import (
	"context"
	"flag"
	"log"

	"merx/internal/config"
	"merx/internal/repositories"
	"merx/internal/services/audit"
)

func main() {
	config.LoadEnv()

	retention := flag.Int("retention-days", config.AuditRetentionDays(), "retention window for non-PCI audit rows")
	flag.Parse()

	if err := repositories.InitDB(); err != nil {
		log.Fatalf("database init failed: %v", err)
	}

	auditService := audit.NewService(repositories.NewAuditRepository(repositories.DB))

	deleted, err := auditService.CleanupExpired(context.Background(), *retention)
	if err != nil {
		log.Fatalf("audit cleanup failed: %v", err)
	}
	log.Printf("audit cleanup removed %d rows (retention %d days)", deleted, *retention)
}
