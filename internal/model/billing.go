package model

import (
	"fmt"
	"time"
)

const (
	BillingStatusDraft   = "draft"
	BillingStatusPending = "pending"
	BillingStatusPaid    = "paid"
	BillingStatusOverdue = "overdue"
)

type LineItem struct {
	Description string  `json:"description"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unitPrice"`
	Amount      float64 `json:"amount"`
}

type BillingRecord struct {
	Base
	PatientID     int64      `json:"patientId" binding:"required,gt=0"`
	InvoiceNumber string     `json:"invoiceNumber"`
	Date          string     `json:"date" binding:"omitempty,ymd"`
	DueDate       string     `json:"dueDate" binding:"omitempty,ymd"`
	Status        string     `json:"status" binding:"omitempty,oneof=draft pending paid overdue"`
	Amount        float64    `json:"amount" binding:"gte=0"`
	Items         []LineItem `json:"items"`
	PaymentMethod *string    `json:"paymentMethod"`
	PaidDate      *string    `json:"paidDate"`
	Notes         string     `json:"notes"`
}

// ApplyDefaults fills status, dates and the invoice number. The amount is
// derived from the line items when it was not given.
func (b *BillingRecord) ApplyDefaults(now time.Time) {
	if b.Status == "" {
		b.Status = BillingStatusDraft
	}
	if b.Date == "" {
		b.Date = today(now)
	}
	if b.Items == nil {
		b.Items = []LineItem{}
	}
	if b.InvoiceNumber == "" {
		b.InvoiceNumber = fmt.Sprintf("INV-%d-%04d", now.Year(), b.ID)
	}
	if b.Amount == 0 {
		for _, item := range b.Items {
			amount := item.Amount
			if amount == 0 {
				amount = float64(item.Quantity) * item.UnitPrice
			}
			b.Amount += amount
		}
	}
}

type Invoice struct {
	InvoiceNumber string `json:"invoiceNumber"`
	InvoiceURL    string `json:"invoiceUrl"`
}
