package handler

import (
	"fmt"
	"strings"

	"storefront/internal/order/models"
	"storefront/internal/order/service"
	id "storefront/pkg/domain"
	dErrors "storefront/pkg/domain-errors"
)

type OrderLineRequest struct {
	Product  string `json:"product"`
	Quantity int    `json:"quantity"`
}

// CreateOrderRequest is the body for POST /orders/. Totals, customer and
// status are never read from the client.
type CreateOrderRequest struct {
	Items           []OrderLineRequest `json:"items"`
	ShippingAddress string             `json:"shipping_address"`
	Notes           string             `json:"notes"`

	lines []service.LineInput
}

func (r *CreateOrderRequest) Normalize() {
	r.ShippingAddress = strings.TrimSpace(r.ShippingAddress)
	r.Notes = strings.TrimSpace(r.Notes)
	for i := range r.Items {
		r.Items[i].Product = strings.TrimSpace(r.Items[i].Product)
	}
}

// Validate parses product ids; quantity and address rules live in the service.
func (r *CreateOrderRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.lines = make([]service.LineInput, 0, len(r.Items))
	for _, item := range r.Items {
		productID, err := id.ParseProductID(item.Product)
		if err != nil {
			return dErrors.NewField(dErrors.CodeValidation, "items",
				fmt.Sprintf("Invalid pk %q - object does not exist.", item.Product))
		}
		r.lines = append(r.lines, service.LineInput{ProductID: productID, Quantity: item.Quantity})
	}
	return nil
}

func (r *CreateOrderRequest) Input() service.CreateInput {
	return service.CreateInput{
		Items:           r.lines,
		ShippingAddress: r.ShippingAddress,
		Notes:           r.Notes,
	}
}

// UpdateOrderRequest is the body for PUT and PATCH /orders/{id}.
type UpdateOrderRequest struct {
	ShippingAddress *string `json:"shipping_address"`
	Notes           *string `json:"notes"`
	Status          *string `json:"status"`

	status *models.Status
}

func (r *UpdateOrderRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if r.ShippingAddress != nil && strings.TrimSpace(*r.ShippingAddress) == "" {
		return dErrors.NewField(dErrors.CodeValidation, "shipping_address", "This field may not be blank.")
	}
	if r.Status != nil {
		st, err := models.ParseStatus(*r.Status)
		if err != nil {
			return err
		}
		r.status = &st
	}
	return nil
}

func (r *UpdateOrderRequest) Update() models.OrderUpdate {
	return models.OrderUpdate{
		ShippingAddress: r.ShippingAddress,
		Notes:           r.Notes,
		Status:          r.status,
	}
}

type AssignStaffRequest struct {
	StaffID string `json:"staff_id"`

	staffID id.UserID
}

func (r *AssignStaffRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if strings.TrimSpace(r.StaffID) == "" {
		return dErrors.NewField(dErrors.CodeValidation, "staff_id", "staff_id is required")
	}
	staffID, err := id.ParseUserID(strings.TrimSpace(r.StaffID))
	if err != nil {
		return dErrors.NewField(dErrors.CodeValidation, "staff_id", "Must be a valid UUID.")
	}
	r.staffID = staffID
	return nil
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
}

func (r *UpdateStatusRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if strings.TrimSpace(r.Status) == "" {
		return dErrors.NewField(dErrors.CodeValidation, "status", "status is required")
	}
	return nil
}
