package audit

import (
	"context"
	"sync"
	"time"

	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"

	"riskgate/internal/engine"
	"riskgate/internal/schema"
	"riskgate/pkg/conn"
)

const defaultQueueSize = 1024

// RejectedOrder is one gated-out order kept for offline review.
type RejectedOrder struct {
	ID         uint      `gorm:"primaryKey"`
	OrderID    string    `gorm:"index"`
	UserID     string    `gorm:"index"`
	Symbol     string    `gorm:"index"`
	Side       string
	Kind       string
	Price      float64
	Qty        float64
	OrderTime  time.Time
	Reason     string    `gorm:"index"`
	Detail     string
	RecordedAt time.Time
}

// Store persists rejected orders to PostgreSQL off the order hot path:
// rejections are queued and written by one worker, and a full queue drops
// the record rather than stall the gate.
type Store struct {
	client *conn.Client
	ch     chan RejectedOrder
	wg     sync.WaitGroup
	once   sync.Once
}

// Open migrates the schema and returns a ready store.
func Open(client *conn.Client) (*Store, error) {
	if err := client.DB().AutoMigrate(&RejectedOrder{}); err != nil {
		return nil, errors.Wrap(err, "migrate audit schema")
	}
	return &Store{
		client: client,
		ch:     make(chan RejectedOrder, defaultQueueSize),
	}, nil
}

// Attach hooks the store into the engine's rejection stream.
func (s *Store) Attach(eng *engine.Engine) {
	eng.OnReject(func(o schema.Order, rej *engine.Rejection) {
		rec := RejectedOrder{
			OrderID:    string(o.OrderID),
			UserID:     string(o.UserID),
			Symbol:     string(o.Symbol),
			Side:       o.Side.String(),
			Kind:       o.Kind.String(),
			Price:      o.Price,
			Qty:        o.Qty,
			OrderTime:  o.Time,
			Reason:     rej.Reason,
			Detail:     rej.Detail,
			RecordedAt: time.Now(),
		}
		select {
		case s.ch <- rec:
		default:
			logs.Errorf("audit queue full, rejection dropped, order %s", o.OrderID)
		}
	})
}

// Start runs the writer loop in a new goroutine.
func (s *Store) Start(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case rec, ok := <-s.ch:
				if !ok {
					return
				}
				if err := s.client.DB().Create(&rec).Error; err != nil {
					logs.Errorf("audit insert failed, order %s: %+v", rec.OrderID, err)
				}
			}
		}
	}()
}

// Close stops the writer and the underlying pool.
func (s *Store) Close() {
	s.once.Do(func() { close(s.ch) })
	s.wg.Wait()
	if err := s.client.Close(); err != nil {
		logs.Errorf("close audit store failed: %+v", err)
	}
}
