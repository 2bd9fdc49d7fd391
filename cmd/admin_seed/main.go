// Seeds the first tenant with its admin operator. Intended for fresh
// environments; re-running against an existing subdomain is a no-op.
package main

import (
	"context"
	"errors"
	"log"
	"os"

	"merx/internal/config"
	"merx/internal/repositories"
	"merx/internal/services/audit"
	"merx/internal/services/tenant"
)

func main() {
	config.LoadEnv()

	name := os.Getenv("SEED_TENANT_NAME")
	subdomain := os.Getenv("SEED_TENANT_SUBDOMAIN")
	adminEmail := os.Getenv("SEED_ADMIN_EMAIL")
	adminPassword := os.Getenv("SEED_ADMIN_PASSWORD")
	if name == "" || subdomain == "" || adminEmail == "" || adminPassword == "" {
		log.Fatal("SEED_TENANT_NAME, SEED_TENANT_SUBDOMAIN, SEED_ADMIN_EMAIL and SEED_ADMIN_PASSWORD must be set")
	}

	if err := repositories.InitDB(); err != nil {
		log.Fatalf("database init failed: %v", err)
	}

	ctx := context.Background()
	tenantRepo := repositories.NewTenantRepository(repositories.DB)

	if _, err := tenantRepo.GetBySubdomain(ctx, subdomain); err == nil {
		log.Printf("tenant %q already exists, nothing to do", subdomain)
		return
	} else if !errors.Is(err, repositories.ErrTenantNotFound) {
		log.Fatalf("tenant lookup failed: %v", err)
	}

	tenantService := tenant.NewService(
		tenantRepo,
		repositories.NewUserRepository(repositories.DB),
		audit.NewService(repositories.NewAuditRepository(repositories.DB)),
		nil,
		repositories.NewTransactionManager(repositories.DB),
		config.BaseDomain(),
	)

	created, admin, err := tenantService.Signup(ctx, tenant.SignupRequest{
		Name:          name,
		Subdomain:     subdomain,
		Plan:          config.GetEnv("SEED_TENANT_PLAN", "enterprise"),
		AdminEmail:    adminEmail,
		AdminPassword: adminPassword,
	})
	if err != nil {
		log.Fatalf("seeding failed: %v", err)
	}

	log.Printf("tenant %q created (id=%d, plan=%s)", created.Subdomain, created.ID, created.Plan)
	log.Printf("admin operator %q created (id=%d)", admin.Email, admin.ID)
	// Shown once; the key is not readable through the API afterwards.
	log.Printf("api key: %s", created.APIKey)
}
