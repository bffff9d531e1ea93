package models

import "time"

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPreparing OrderStatus = "preparing"
	OrderStatusReady     OrderStatus = "ready"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

type OrderType string

const (
	OrderTypeDining   OrderType = "dining"
	OrderTypeTakeaway OrderType = "takeaway"
)

type PaymentStatus string

const (
	PaymentStatusUnpaid PaymentStatus = "unpaid"
	PaymentStatusPaid   PaymentStatus = "paid"
)

// Order: Sipariş başlığı. Oluşturulduktan sonra yalnızca durum geçişleri ve
// izinli alan güncellemeleri (ödeme bilgisi) ile değişir, asla silinmez.
type Order struct {
	ID             uint  `gorm:"primaryKey"`
	TenantID       uint  `gorm:"index;not null"`
	BranchID       *uint `gorm:"index"`
	TableID        *uint `gorm:"index"`
	Table          *DiningTable
	CashierID      *uint
	Cashier        *User
	CustomerID     *uint
	Customer       *Customer
	OrderNo        string        `gorm:"size:20;not null;index"` // tenant bazlı sıralı numara
	Status         OrderStatus   `gorm:"size:20;not null;index;default:pending"`
	OrderType      OrderType     `gorm:"size:20;not null"`
	PaymentMethod  string        `gorm:"size:30"` // nakit, kart vs.
	PaymentStatus  PaymentStatus `gorm:"size:20;not null;default:unpaid"`
	TotalAmount    float64       `gorm:"not null"`
	DiscountAmount float64       `gorm:"not null;default:0"`
	RedeemedPoints int           `gorm:"not null;default:0"`
	CancelReason   string        `gorm:"size:255"` // yalnızca cancelled siparişlerde dolu
	CreatedAt      time.Time
	UpdatedAt      time.Time

	Items []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

// OrderItem: Sipariş anındaki kalem fotoğrafı. Oluşturulduktan sonra değişmez.
type OrderItem struct {
	ID        uint `gorm:"primaryKey"`
	OrderID   uint `gorm:"index;not null"`
	ProductID uint `gorm:"index;not null"`
	Product   Product
	Quantity  int     `gorm:"not null"`
	UnitPrice float64 `gorm:"not null"` // sipariş anındaki birim fiyat
	CreatedAt time.Time
}
