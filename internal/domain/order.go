package domain

import "time"

type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderConfirmed OrderStatus = "confirmed"
	OrderPreparing OrderStatus = "preparing"
	OrderDelivered OrderStatus = "delivered"
)

// CustomerInfo is collected fresh for every checkout attempt.
type CustomerInfo struct {
	Name                string `json:"name"`
	UnitNumber          string `json:"unitNumber"`
	Email               string `json:"email,omitempty"`
	Phone               string `json:"phone,omitempty"`
	SpecialInstructions string `json:"specialInstructions,omitempty"`
}

type DeliveryWindow struct {
	ID        string `json:"id"`
	Label     string `json:"label"`
	Time      string `json:"time"`
	Available bool   `json:"available"`
}

type Order struct {
	ID             string         `json:"id"`
	Items          []CartLine     `json:"items"`
	Customer       CustomerInfo   `json:"customer"`
	DeliveryWindow DeliveryWindow `json:"deliveryWindow"`
	PaymentID      string         `json:"paymentId"`
	Total          int64          `json:"total"`
	Status         OrderStatus    `json:"status"`
	CreatedAt      time.Time      `json:"createdAt"`
	DeliveredAt    *time.Time     `json:"deliveredAt,omitempty"`
}
