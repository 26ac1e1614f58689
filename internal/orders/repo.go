package orders

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ DB *pgxpool.Pool }

// CreateOrderTx menjalankan seluruh workflow pembuatan order dalam satu
// transaksi: per item (urut sesuai request) lock stok produk (FOR UPDATE),
// validasi, kurangi qty, akumulasi grand total, lalu insert order + items.
// Gagal di item manapun -> rollback total, stok tidak berubah sama sekali.
func (r *Repo) CreateOrderTx(ctx context.Context, userID string, items []OrderItem) (Order, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Order{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	total := 0
	for _, it := range items {
		if it.Qty <= 0 {
			return Order{}, &InvalidQtyError{ProductID: it.ProductID, Qty: it.Qty}
		}

		var qty int
		err := tx.QueryRow(ctx, `SELECT qty FROM products WHERE id=$1 FOR UPDATE`, it.ProductID).Scan(&qty)
		if errors.Is(err, pgx.ErrNoRows) {
			return Order{}, &ProductNotFoundError{ProductID: it.ProductID}
		}
		if err != nil {
			return Order{}, err
		}
		if it.Qty > qty {
			return Order{}, &InsufficientStockError{ProductID: it.ProductID, Requested: it.Qty, Available: qty}
		}

		if _, err := tx.Exec(ctx,
			`UPDATE products SET qty = qty - $2, updated_at = now() WHERE id=$1`,
			it.ProductID, it.Qty); err != nil {
			return Order{}, err
		}

		total += it.Price * it.Qty
	}

	o := Order{
		ID:         uuid.NewString(),
		CreatedBy:  userID,
		Status:     StatusPending,
		GrandTotal: total,
		Items:      items,
		CreatedAt:  time.Now().UTC(),
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO orders(id, created_by, status, grand_total, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, o.ID, o.CreatedBy, string(o.Status), o.GrandTotal, o.CreatedAt); err != nil {
		return Order{}, err
	}
	for i, it := range items {
		if _, err := tx.Exec(ctx, `
			INSERT INTO order_items(order_id, position, product_id, qty, price)
			VALUES ($1, $2, $3, $4, $5)
		`, o.ID, i, it.ProductID, it.Qty, it.Price); err != nil {
			return Order{}, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return Order{}, err
	}
	return o, nil
}

// ListByUser mengembalikan semua order milik user, urut waktu pembuatan.
// Slice kosong bukan error (user belum pernah order).
func (r *Repo) ListByUser(ctx context.Context, userID string) ([]Order, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, created_by, status, grand_total, created_at
		FROM orders WHERE created_by=$1 ORDER BY created_at, id
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Order
	index := map[string]int{}
	for rows.Next() {
		var o Order
		var status string
		if err := rows.Scan(&o.ID, &o.CreatedBy, &status, &o.GrandTotal, &o.CreatedAt); err != nil {
			return nil, err
		}
		o.Status = Status(status)
		index[o.ID] = len(out)
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return []Order{}, nil
	}

	ids := make([]string, 0, len(out))
	for _, o := range out {
		ids = append(ids, o.ID)
	}
	irows, err := r.DB.Query(ctx, `
		SELECT order_id, product_id, qty, price
		FROM order_items WHERE order_id = ANY($1::uuid[]) ORDER BY order_id, position
	`, ids)
	if err != nil {
		return nil, err
	}
	defer irows.Close()
	for irows.Next() {
		var orderID string
		var it OrderItem
		if err := irows.Scan(&orderID, &it.ProductID, &it.Qty, &it.Price); err != nil {
			return nil, err
		}
		i := index[orderID]
		out[i].Items = append(out[i].Items, it)
	}
	return out, irows.Err()
}

func (r *Repo) FindProduct(ctx context.Context, id string) (Product, error) {
	var p Product
	err := r.DB.QueryRow(ctx, `
		SELECT id, name, qty, price, created_at, updated_at
		FROM products WHERE id=$1
	`, id).Scan(&p.ID, &p.Name, &p.Qty, &p.Price, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, &ProductNotFoundError{ProductID: id}
	}
	if err != nil {
		return Product{}, err
	}
	return p, nil
}

// DecrementStock: conditional update atomik, qty tidak mungkin negatif.
// Dipakai standalone di luar CreateOrderTx (mis. koreksi stok manual).
func (r *Repo) DecrementStock(ctx context.Context, id string, amount int) (Product, error) {
	if amount <= 0 {
		return Product{}, &InvalidQtyError{ProductID: id, Qty: amount}
	}
	var p Product
	err := r.DB.QueryRow(ctx, `
		UPDATE products SET qty = qty - $2, updated_at = now()
		WHERE id=$1 AND qty >= $2
		RETURNING id, name, qty, price, created_at, updated_at
	`, id, amount).Scan(&p.ID, &p.Name, &p.Qty, &p.Price, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		// bedakan produk tidak ada vs stok kurang
		cur, ferr := r.FindProduct(ctx, id)
		if ferr != nil {
			return Product{}, ferr
		}
		return Product{}, &InsufficientStockError{ProductID: id, Requested: amount, Available: cur.Qty}
	}
	if err != nil {
		return Product{}, err
	}
	return p, nil
}

func (r *Repo) ListProducts(ctx context.Context) ([]Product, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, name, qty, price, created_at, updated_at
		FROM products ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Qty, &p.Price, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
