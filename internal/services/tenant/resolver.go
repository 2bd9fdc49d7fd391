package tenant

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"merx/internal/models"
	"merx/internal/repositories"
	"merx/internal/services/audit"
	"merx/internal/validation"
)

// Resolve maps a request to exactly one active tenant or fails. A signal
// that matches no tenant falls through to the next one; a signal that
// matches an inactive tenant stops resolution and records a security
// event. Successful resolution touches the tenant's activity timestamp
// without blocking the request.
func (s *service) Resolve(ctx context.Context, req ResolveRequest) (*models.Tenant, error) {
	resolved, err := s.resolveSignals(ctx, req)
	if err != nil {
		return nil, err
	}
	if resolved == nil {
		return nil, ErrTenantNotFound
	}

	if !resolved.IsActive() {
		s.audit.RecordAsync(s.inactiveAccessEntry(resolved, req))
		return nil, ErrTenantInactive
	}

	s.touchActivity(resolved.ID)
	return resolved, nil
}

func (s *service) resolveSignals(ctx context.Context, req ResolveRequest) (*models.Tenant, error) {
	if sub := SubdomainFromHost(req.Host, s.baseDomain); sub != "" {
		tenant, err := s.lookupBySubdomain(ctx, sub)
		if err == nil {
			return tenant, nil
		}
		if !errors.Is(err, repositories.ErrTenantNotFound) {
			return nil, fmt.Errorf("subdomain lookup failed: %w", err)
		}
	}

	if req.APIKey != "" {
		tenant, err := s.lookupByAPIKey(ctx, req.APIKey)
		if err == nil {
			return tenant, nil
		}
		if !errors.Is(err, repositories.ErrTenantNotFound) {
			return nil, fmt.Errorf("api key lookup failed: %w", err)
		}
	}

	if req.TenantHeader != "" {
		id, err := strconv.ParseUint(req.TenantHeader, 10, 32)
		if err != nil {
			return nil, nil
		}
		tenant, err := s.repo.GetByID(ctx, uint(id))
		if err == nil {
			return tenant, nil
		}
		if !errors.Is(err, repositories.ErrTenantNotFound) {
			return nil, fmt.Errorf("tenant id lookup failed: %w", err)
		}
	}

	return nil, nil
}

func (s *service) lookupBySubdomain(ctx context.Context, subdomain string) (*models.Tenant, error) {
	if s.cache != nil {
		if tenant, ok := s.cache.GetTenantBySubdomain(ctx, subdomain); ok {
			return tenant, nil
		}
	}
	tenant, err := s.repo.GetBySubdomain(ctx, subdomain)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		_ = s.cache.CacheTenant(ctx, tenant)
	}
	return tenant, nil
}

func (s *service) lookupByAPIKey(ctx context.Context, apiKey string) (*models.Tenant, error) {
	if s.cache != nil {
		if tenant, ok := s.cache.GetTenantByAPIKey(ctx, apiKey); ok {
			return tenant, nil
		}
	}
	tenant, err := s.repo.GetByAPIKey(ctx, apiKey)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		_ = s.cache.CacheTenant(ctx, tenant)
	}
	return tenant, nil
}

// touchActivity is fire-and-forget: resolution never waits on it and its
// failure never fails the request.
func (s *service) touchActivity(tenantID uint) {
	now := time.Now()
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = s.repo.TouchActivity(ctx, tenantID, now)
	}()
}

func (s *service) inactiveAccessEntry(t *models.Tenant, req ResolveRequest) audit.Entry {
	return audit.Entry{
		TenantID:      t.ID,
		Action:        models.AuditActionAccess,
		Level:         models.AuditLevelCritical,
		EntityType:    "tenant",
		EntityID:      strconv.FormatUint(uint64(t.ID), 10),
		Description:   fmt.Sprintf("request for %s tenant rejected", t.Status),
		NewValues:     models.JSON{"status": t.Status},
		SecurityEvent: true,
		IPAddress:     req.IPAddress,
		UserAgent:     req.UserAgent,
	}
}

// SubdomainFromHost extracts the tenant label from a request host. Bare
// domains, IP addresses, localhost, multi-label subdomains and reserved
// labels yield no signal.
func SubdomainFromHost(host, baseDomain string) string {
	host = strings.ToLower(strings.TrimSpace(host))
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	if host == "" || host == "localhost" || net.ParseIP(host) != nil {
		return ""
	}

	base := strings.ToLower(baseDomain)
	if host == base || !strings.HasSuffix(host, "."+base) {
		return ""
	}

	sub := strings.TrimSuffix(host, "."+base)
	if sub == "" || strings.Contains(sub, ".") || validation.IsReservedSubdomain(sub) {
		return ""
	}
	return sub
}
