package orders

import "time"

type Product struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Qty       int       `json:"qty"`
	Price     int       `json:"price"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// OrderItem menyimpan harga saat order dibuat (price dari request, bukan
// harga produk saat ini).
type OrderItem struct {
	ProductID string `json:"productId"`
	Qty       int    `json:"quantity"`
	Price     int    `json:"price"`
}

type Order struct {
	ID         string      `json:"id"`
	CreatedBy  string      `json:"createdBy"`
	Status     Status      `json:"status"`
	GrandTotal int         `json:"grandTotal"`
	Items      []OrderItem `json:"orderItems"`
	CreatedAt  time.Time   `json:"createdAt"`
}

type User struct {
	ID           string    `json:"id"`
	FullName     string    `json:"fullName"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}
