package services

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/example/storefront/internal/models"
	"github.com/example/storefront/internal/utils"
)

// OrderService turns carts into orders and moves orders through their lifecycle.
type OrderService struct {
	db       *gorm.DB
	notifier Notifier
	log      *zap.Logger
	now      func() time.Time
}

func NewOrderService(db *gorm.DB, notifier Notifier, log *zap.Logger) *OrderService {
	return &OrderService{db: db, notifier: notifier, log: log.Named("orders"), now: time.Now}
}

// Checkout converts the cart into a Pending order shipped to addressID.
// Stock for every line is taken in the same transaction; if any line is
// short nothing is written.
func (s *OrderService) Checkout(ctx context.Context, userID, cartID, addressID uuid.UUID) (*models.Order, error) {
	var order models.Order
	var phone string

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := lockUser(tx, userID)
		if err != nil {
			return err
		}
		phone = user.PhoneNumber

		cart, err := lockOwnedCart(tx, userID, cartID)
		if err != nil {
			return err
		}
		address, err := ownedAddress(tx, userID, addressID)
		if err != nil {
			return err
		}

		var items []models.CartItem
		if err := tx.Preload("Product").Where("cart_id = ?", cart.ID).Order("created_at asc").Find(&items).Error; err != nil {
			return err
		}
		if len(items) == 0 {
			return ErrEmptyCart
		}
		// Product rows are locked in ID order so concurrent checkouts cannot deadlock.
		sort.Slice(items, func(i, j int) bool {
			return bytes.Compare(items[i].ProductID[:], items[j].ProductID[:]) < 0
		})

		now := s.now()
		order = models.Order{
			UserID:          userID,
			Number:          newOrderNumber(now),
			Status:          models.OrderStatusPending,
			PlacedAt:        now,
			AddressID:       &address.ID,
			ShippingAddress: address.Address,
			ShippingCity:    address.City,
			ShippingProv:    address.Province,
			ShippingPostal:  address.PostalCode,
		}

		for _, item := range items {
			ok, err := reduceStock(tx, item.ProductID, item.Quantity)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("%w: %s", ErrInsufficientStock, item.Product.Title)
			}

			line := models.OrderItem{
				ProductID:    item.ProductID,
				ProductTitle: item.Product.Title,
				Quantity:     item.Quantity,
				UnitPrice:    item.Product.UnitPrice,
			}
			line.Price = line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity)))
			order.Items = append(order.Items, line)
		}
		order.Recalculate()

		if err := tx.Create(&order).Error; err != nil {
			return err
		}

		if err := tx.Where("cart_id = ?", cart.ID).Delete(&models.CartItem{}).Error; err != nil {
			return err
		}
		cart.Items = nil
		cart.Recalculate()
		return tx.Model(cart).Update("total_price", cart.TotalPrice).Error
	})
	if err != nil {
		return nil, err
	}

	if err := s.notifier.NotifyNewOrder(ctx, orderNotification(&order, phone)); err != nil {
		s.log.Warn("failed to notify staff about order", zap.String("number", order.Number), zap.Error(err))
	}
	return &order, nil
}

func newOrderNumber(now time.Time) string {
	return fmt.Sprintf("#%s-%s", now.Format("060102"), strings.ToUpper(uuid.NewString()[:8]))
}

func orderNotification(order *models.Order, phone string) OrderNotification {
	n := OrderNotification{
		OrderNumber: order.Number,
		UserPhone:   phone,
		Address:     strings.TrimSpace(order.ShippingCity + " " + order.ShippingAddress),
		Total:       order.TotalPrice,
	}
	for _, item := range order.Items {
		n.Items = append(n.Items, OrderItemNotification{
			Title:    item.ProductTitle,
			Quantity: item.Quantity,
			Price:    item.Price,
		})
	}
	return n
}

// UpdateStatus moves an order along the status graph. Canceling a Pending
// order puts its stock back.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID uuid.UUID, status string) (*models.Order, error) {
	if !models.IsOrderStatus(status) {
		return nil, NewValidationError("status", "oneof")
	}

	var order models.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Preload("Items").First(&order, "id = ?", orderID).Error; err != nil {
			return notFound(err)
		}
		if !order.CanTransitionTo(status) {
			return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, order.Status, status)
		}

		if status == models.OrderStatusCanceled {
			for _, item := range order.Items {
				if err := restoreStock(tx, item.ProductID, item.Quantity); err != nil {
					return err
				}
			}
		}

		order.Status = status
		return tx.Model(&order).Update("status", status).Error
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// List returns one page of the user's orders, newest first.
func (s *OrderService) List(ctx context.Context, userID uuid.UUID, page utils.Pagination) ([]models.Order, int64, error) {
	return s.list(s.db.WithContext(ctx).Where("user_id = ?", userID), page)
}

// ListAll returns orders of every user, optionally filtered by status.
func (s *OrderService) ListAll(ctx context.Context, page utils.Pagination, status string) ([]models.Order, int64, error) {
	q := s.db.WithContext(ctx)
	if status != "" {
		if !models.IsOrderStatus(status) {
			return nil, 0, NewValidationError("status", "oneof")
		}
		q = q.Where("status = ?", status)
	}
	return s.list(q, page)
}

func (s *OrderService) list(q *gorm.DB, page utils.Pagination) ([]models.Order, int64, error) {
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Model(&models.Order{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var orders []models.Order
	err := q.Preload("Items").
		Order("placed_at desc").
		Limit(page.Limit).Offset(page.Offset).
		Find(&orders).Error
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

func (s *OrderService) Get(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := s.db.WithContext(ctx).Preload("Items").First(&order, "id = ?", orderID).Error; err != nil {
		return nil, notFound(err)
	}
	if order.UserID != userID {
		return nil, ErrPermissionDenied
	}
	return &order, nil
}

// Stats summarises orders for the staff dashboard.
type Stats struct {
	TotalUsers     int64            `json:"total_users"`
	TotalOrders    int64            `json:"total_orders"`
	OrdersByStatus map[string]int64 `json:"orders_by_status"`
	TotalRevenue   decimal.Decimal  `json:"total_revenue"`
	TodayRevenue   decimal.Decimal  `json:"today_revenue"`
}

// Stats counts users and orders and sums the revenue of orders that were not canceled.
func (s *OrderService) Stats(ctx context.Context) (*Stats, error) {
	db := s.db.WithContext(ctx)
	stats := &Stats{
		OrdersByStatus: make(map[string]int64),
		TotalRevenue:   decimal.Zero,
		TodayRevenue:   decimal.Zero,
	}

	if err := db.Model(&models.User{}).Count(&stats.TotalUsers).Error; err != nil {
		return nil, err
	}

	type statusCount struct {
		Status string
		Count  int64
	}
	var counts []statusCount
	if err := db.Model(&models.Order{}).Select("status, count(*) as count").Group("status").Scan(&counts).Error; err != nil {
		return nil, err
	}
	for _, sc := range counts {
		stats.OrdersByStatus[sc.Status] = sc.Count
		stats.TotalOrders += sc.Count
	}

	revenue := db.Model(&models.Order{}).
		Select("COALESCE(SUM(order_total_price), 0)").
		Where("status <> ?", models.OrderStatusCanceled).
		Session(&gorm.Session{})

	if err := revenue.Row().Scan(&stats.TotalRevenue); err != nil {
		return nil, err
	}
	now := s.now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if err := revenue.Where("placed_at >= ?", startOfDay).Row().Scan(&stats.TodayRevenue); err != nil {
		return nil, err
	}
	return stats, nil
}
