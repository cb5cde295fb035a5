package order

import (
	"errors"
	"time"
)

var (
	// ErrIncomplete is returned when a session lacks a field needed downstream.
	ErrIncomplete = errors.New("order: session is incomplete")
	// ErrStageOrder is returned for a transition that is neither forward nor a reset.
	ErrStageOrder = errors.New("order: stage may only advance or reset")
)

// Stage is the position of a session within the prompt sequence.
type Stage string

const (
	StageStart          Stage = "start"
	StageDirection      Stage = "await_direction"
	StageCurrency       Stage = "await_currency"
	StageTransferMethod Stage = "await_transfer_method"
	StageAmount         Stage = "await_amount"
	StagePrice          Stage = "await_price"
	StageFinal          Stage = "await_final"
)

var stageRank = map[Stage]int{
	StageStart:          0,
	StageDirection:      1,
	StageCurrency:       2,
	StageTransferMethod: 3,
	StageAmount:         4,
	StagePrice:          5,
	StageFinal:          6,
}

// rank orders stages along the flow; unknown stages rank -1.
func (s Stage) rank() int {
	if r, ok := stageRank[s]; ok {
		return r
	}
	return -1
}

// follows reports whether s may replace from: any known stage may reset to
// Start, otherwise s must lie further along the flow.
func (s Stage) follows(from Stage) bool {
	if s == StageStart {
		return true
	}
	return s.rank() > from.rank() && from.rank() >= 0
}

// Session is the accumulated state of one user's order. Values are replaced
// as a whole after every transition.
type Session struct {
	Stage          Stage     `json:"stage"`
	Direction      string    `json:"direction,omitempty"`
	Currency       string    `json:"currency,omitempty"`
	TransferMethod string    `json:"transfer_method,omitempty"`
	Amount         int64     `json:"amount"`
	Price          int64     `json:"price"`
	HasAmount      bool      `json:"has_amount,omitempty"`
	HasPrice       bool      `json:"has_price,omitempty"`
	UserID         int64     `json:"user_id,omitempty"`
	Username       string    `json:"username,omitempty"`
	SubmittedAt    time.Time `json:"submitted_at"`
	OrderID        string    `json:"order_id,omitempty"`
}

// Order is a completed session ready for formatting and publishing.
type Order struct {
	ID             string
	Direction      string
	Currency       string
	TransferMethod string
	Amount         int64
	Price          int64
	UserID         int64
	Username       string
	SubmittedAt    time.Time
}

// NeedsTransferMethod reports whether currency requires a transfer method.
func NeedsTransferMethod(currency string) bool {
	return currency != USDT
}

// Retained reports whether the session still holds a completed, unpublished order.
func (s Session) Retained() bool {
	_, err := s.Complete()
	return err == nil
}

// Complete returns the order held by the session or ErrIncomplete.
func (s Session) Complete() (Order, error) {
	switch {
	case s.Direction == "", s.Currency == "", !s.HasAmount, !s.HasPrice, s.OrderID == "":
		return Order{}, ErrIncomplete
	case NeedsTransferMethod(s.Currency) && s.TransferMethod == "":
		return Order{}, ErrIncomplete
	}
	o := Order{
		ID:          s.OrderID,
		Direction:   s.Direction,
		Currency:    s.Currency,
		Amount:      s.Amount,
		Price:       s.Price,
		UserID:      s.UserID,
		Username:    s.Username,
		SubmittedAt: s.SubmittedAt,
	}
	if NeedsTransferMethod(s.Currency) {
		o.TransferMethod = s.TransferMethod
	}
	return o, nil
}
