package orders

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	POST(path string, body interface{}) error
	GET(path string, headers map[string]string) error
	Do(method, path string, body interface{}, headers map[string]string) error
	GetResponseField(field string) (interface{}, error)
	StatusCode() int
	Body() []byte
	ActAs(username string) error
	Save(key, value string)
	Saved(key string) (string, error)
}

// RegisterSteps registers catalog and order step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &orderSteps{tc: tc}

	// Catalog
	ctx.Step(`^"([^"]*)" adds a product "([^"]*)" priced "([^"]*)" with stock (\d+)$`, steps.addProduct)
	ctx.Step(`^I add a product "([^"]*)" priced "([^"]*)" with stock (\d+)$`, steps.createProduct)
	ctx.Step(`^I delete the product "([^"]*)"$`, steps.deleteProduct)
	ctx.Step(`^the stock of "([^"]*)" should be (\d+)$`, steps.stockShouldBe)

	// Orders
	ctx.Step(`^I order (\d+) "([^"]*)"$`, steps.order)
	ctx.Step(`^I save the order$`, steps.saveOrder)
	ctx.Step(`^I view the saved order$`, steps.viewOrder)
	ctx.Step(`^I assign the saved order to "([^"]*)"$`, steps.assignOrder)
	ctx.Step(`^I set the saved order status to "([^"]*)"$`, steps.setStatus)
	ctx.Step(`^my order list should have (\d+) orders?$`, steps.myOrdersShouldHave)
}

type orderSteps struct {
	tc TestContext
}

func (s *orderSteps) addProduct(ctx context.Context, owner, name, price string, stock int) error {
	if err := s.tc.ActAs(owner); err != nil {
		return err
	}
	if err := s.createProduct(ctx, name, price, stock); err != nil {
		return err
	}
	if s.tc.StatusCode() != http.StatusCreated {
		return fmt.Errorf("create product %s: status %d: %s", name, s.tc.StatusCode(), s.tc.Body())
	}
	return nil
}

func (s *orderSteps) createProduct(ctx context.Context, name, price string, stock int) error {
	if err := s.tc.POST("/products/", map[string]interface{}{
		"name":     name,
		"price":    price,
		"stock":    stock,
		"category": "e2e",
	}); err != nil {
		return err
	}
	if s.tc.StatusCode() == http.StatusCreated {
		productID, err := s.tc.GetResponseField("id")
		if err != nil {
			return err
		}
		s.tc.Save("product:"+name, productID.(string))
	}
	return nil
}

func (s *orderSteps) deleteProduct(ctx context.Context, name string) error {
	productID, err := s.tc.Saved("product:" + name)
	if err != nil {
		return err
	}
	return s.tc.Do(http.MethodDelete, "/products/"+productID, nil, nil)
}

func (s *orderSteps) stockShouldBe(ctx context.Context, name string, expected int) error {
	productID, err := s.tc.Saved("product:" + name)
	if err != nil {
		return err
	}
	if err := s.tc.GET("/products/"+productID, nil); err != nil {
		return err
	}
	stock, err := s.tc.GetResponseField("stock")
	if err != nil {
		return err
	}
	if got, ok := stock.(float64); !ok || int(got) != expected {
		return fmt.Errorf("expected stock %d for %s, got %v", expected, name, stock)
	}
	return nil
}

func (s *orderSteps) order(ctx context.Context, qty int, name string) error {
	productID, err := s.tc.Saved("product:" + name)
	if err != nil {
		return err
	}
	return s.tc.POST("/orders/", map[string]interface{}{
		"items":            []map[string]interface{}{{"product": productID, "quantity": qty}},
		"shipping_address": "1 Test Street",
	})
}

func (s *orderSteps) saveOrder(ctx context.Context) error {
	orderID, err := s.tc.GetResponseField("id")
	if err != nil {
		return err
	}
	s.tc.Save("order", orderID.(string))
	return nil
}

func (s *orderSteps) viewOrder(ctx context.Context) error {
	orderID, err := s.tc.Saved("order")
	if err != nil {
		return err
	}
	return s.tc.GET("/orders/"+orderID, nil)
}

func (s *orderSteps) assignOrder(ctx context.Context, staff string) error {
	orderID, err := s.tc.Saved("order")
	if err != nil {
		return err
	}
	staffID, err := s.tc.Saved("user:" + staff)
	if err != nil {
		return err
	}
	return s.tc.POST("/orders/"+orderID+"/assign_staff", map[string]interface{}{"staff_id": staffID})
}

func (s *orderSteps) setStatus(ctx context.Context, status string) error {
	orderID, err := s.tc.Saved("order")
	if err != nil {
		return err
	}
	return s.tc.POST("/orders/"+orderID+"/update_status", map[string]interface{}{"status": status})
}

func (s *orderSteps) myOrdersShouldHave(ctx context.Context, expected int) error {
	if err := s.tc.GET("/orders/my_orders", nil); err != nil {
		return err
	}
	var list []json.RawMessage
	if err := json.Unmarshal(s.tc.Body(), &list); err != nil {
		return fmt.Errorf("order list is not an array: %s", s.tc.Body())
	}
	if len(list) != expected {
		return fmt.Errorf("expected %d orders, got %d", expected, len(list))
	}
	return nil
}
