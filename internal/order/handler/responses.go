package handler

import (
	"time"

	"storefront/internal/order/service"
)

// OrderListItem is the compact list shape.
type OrderListItem struct {
	ID           string    `json:"id"`
	OrderNumber  string    `json:"order_number"`
	CustomerName string    `json:"customer_name"`
	Status       string    `json:"status"`
	TotalAmount  string    `json:"total_amount"`
	ItemsCount   int       `json:"items_count"`
	CreatedAt    time.Time `json:"created_at"`
}

type OrderItemResponse struct {
	ID          string `json:"id"`
	Product     string `json:"product"`
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
	Price       string `json:"price"`
	Subtotal    string `json:"subtotal"`
}

type OrderResponse struct {
	ID                string              `json:"id"`
	OrderNumber       string              `json:"order_number"`
	Customer          string              `json:"customer"`
	CustomerName      string              `json:"customer_name"`
	Status            string              `json:"status"`
	TotalAmount       string              `json:"total_amount"`
	ShippingAddress   string              `json:"shipping_address"`
	Notes             string              `json:"notes"`
	AssignedStaff     *string             `json:"assigned_staff"`
	AssignedStaffName string              `json:"assigned_staff_name"`
	Items             []OrderItemResponse `json:"items"`
	CreatedAt         time.Time           `json:"created_at"`
	UpdatedAt         time.Time           `json:"updated_at"`
}

func toOrderDetail(v service.OrderView) *OrderResponse {
	resp := &OrderResponse{
		ID:                v.ID.String(),
		OrderNumber:       v.OrderNumber,
		Customer:          v.CustomerID.String(),
		CustomerName:      v.CustomerName,
		Status:            string(v.Status),
		TotalAmount:       v.TotalAmount.StringFixed(2),
		ShippingAddress:   v.ShippingAddress,
		Notes:             v.Notes,
		AssignedStaffName: v.AssignedStaffName,
		Items:             make([]OrderItemResponse, 0, len(v.Items)),
		CreatedAt:         v.CreatedAt,
		UpdatedAt:         v.UpdatedAt,
	}
	if v.AssignedStaffID != nil {
		staff := v.AssignedStaffID.String()
		resp.AssignedStaff = &staff
	}
	for _, item := range v.Items {
		resp.Items = append(resp.Items, OrderItemResponse{
			ID:          item.ID.String(),
			Product:     item.ProductID.String(),
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			Price:       item.Price.StringFixed(2),
			Subtotal:    item.Subtotal().StringFixed(2),
		})
	}
	return resp
}

func toOrderList(views []service.OrderView) []OrderListItem {
	out := make([]OrderListItem, 0, len(views))
	for _, v := range views {
		out = append(out, OrderListItem{
			ID:           v.ID.String(),
			OrderNumber:  v.OrderNumber,
			CustomerName: v.CustomerName,
			Status:       string(v.Status),
			TotalAmount:  v.TotalAmount.StringFixed(2),
			ItemsCount:   v.ItemsCount(),
			CreatedAt:    v.CreatedAt,
		})
	}
	return out
}
