package e2e

import (
	"github.com/cucumber/godog"

	"storefront/e2e/steps/auth"
	"storefront/e2e/steps/common"
	"storefront/e2e/steps/orders"
)

// RegisterSteps registers all step definitions from modular packages
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	// Background, generic requests, assertions
	common.RegisterSteps(ctx, tc)

	auth.RegisterSteps(ctx, tc)

	// Catalog and order flows
	orders.RegisterSteps(ctx, tc)
}
