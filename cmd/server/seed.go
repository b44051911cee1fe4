package main

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	authmodels "storefront/internal/auth/models"
	catalogmodels "storefront/internal/catalog/models"
	"storefront/internal/platform/config"
	tenantmodels "storefront/internal/tenant/models"
	id "storefront/pkg/domain"
	"storefront/pkg/platform/sentinel"
)

const demoSubdomain = "demo"

var demoProducts = []catalogmodels.ProductInput{
	{Name: "Widget", Description: "A dependable widget", Price: decimal.RequireFromString("10.00"), Stock: 50, Category: "tools", IsActive: true},
	{Name: "Gadget", Description: "Does gadget things", Price: decimal.RequireFromString("24.99"), Stock: 20, Category: "tools", IsActive: true},
	{Name: "Mug", Description: "Holds coffee", Price: decimal.RequireFromString("7.50"), Stock: 100, Category: "kitchen", IsActive: true},
}

type superuserCreator interface {
	CreateSuperuser(ctx context.Context, tenantID id.TenantID, username, pw string) (*authmodels.User, error)
}

// seed bootstraps the demo tenant and, when credentials are configured, a
// superuser inside it. Reruns are no-ops.
func seed(ctx context.Context, cfg config.SeedConfig, tenants tenantStore, users userStore, products productStore, auth superuserCreator, logger *slog.Logger) error {
	if !cfg.DemoTenant && cfg.SuperuserUsername == "" {
		return nil
	}
	now := time.Now().UTC()

	demo, created, err := ensureDemoTenant(ctx, tenants, now)
	if err != nil {
		return err
	}
	if created {
		logger.Info("seeded demo tenant", "tenant_id", demo.ID.String(), "subdomain", demo.Subdomain)
		if cfg.DemoTenant {
			for _, in := range demoProducts {
				p, err := catalogmodels.NewProduct(id.ProductID(uuid.New()), demo.ID, nil, in, now)
				if err != nil {
					return err
				}
				if err := products.Create(ctx, p); err != nil {
					return err
				}
			}
		}
	}

	if cfg.SuperuserUsername == "" || cfg.SuperuserPassword == "" {
		return nil
	}
	if _, err := users.FindByTenantAndUsername(ctx, demo.ID, cfg.SuperuserUsername); err == nil {
		return nil
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return err
	}
	u, err := auth.CreateSuperuser(ctx, demo.ID, cfg.SuperuserUsername, cfg.SuperuserPassword)
	if err != nil {
		return err
	}
	logger.Info("seeded superuser", "username", u.Username, "tenant_id", demo.ID.String())
	return nil
}

func ensureDemoTenant(ctx context.Context, tenants tenantStore, now time.Time) (*tenantmodels.Tenant, bool, error) {
	existing, err := tenants.FindActiveBySubdomain(ctx, demoSubdomain)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, false, err
	}
	t, err := tenantmodels.NewTenant(id.TenantID(uuid.New()), "Demo", "Demo Store", demoSubdomain, now)
	if err != nil {
		return nil, false, err
	}
	if err := tenants.Create(ctx, t); err != nil {
		return nil, false, err
	}
	return t, true, nil
}
