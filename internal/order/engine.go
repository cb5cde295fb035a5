package order

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/m3rciful/orderbot/core/logger"
	"github.com/m3rciful/orderbot/core/telegram/state"
)

// SelectCallback is the callback key carried by currency buttons.
const SelectCallback = "select"

// EngineOptions configures an Engine. Store, Outbound and Publisher are required.
type EngineOptions struct {
	Store     state.Store[Session]
	Outbound  Outbound
	Publisher *Publisher
	Catalog   Catalog
	Metrics   *Metrics

	// Location is the time zone of the submission time; nil means time.Local.
	Location *time.Location
	Clock    func() time.Time
	NewID    func() string
}

// Engine drives the order conversation. Events of one session are
// processed one at a time; different sessions proceed independently.
type Engine struct {
	store     state.Store[Session]
	locks     *state.KeyedMutex
	out       Outbound
	publisher *Publisher
	cat       Catalog
	metrics   *Metrics
	loc       *time.Location
	clock     func() time.Time
	newID     func() string
}

// NewEngine builds an Engine from opts.
func NewEngine(opts EngineOptions) (*Engine, error) {
	var errs []error
	if opts.Store == nil {
		errs = append(errs, errors.New("order: engine needs a session store"))
	}
	if opts.Outbound == nil {
		errs = append(errs, errors.New("order: engine needs an outbound port"))
	}
	if opts.Publisher == nil {
		errs = append(errs, errors.New("order: engine needs a publisher"))
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	e := &Engine{
		store:     opts.Store,
		locks:     state.NewKeyedMutex(),
		out:       opts.Outbound,
		publisher: opts.Publisher,
		cat:       opts.Catalog,
		metrics:   opts.Metrics,
		loc:       opts.Location,
		clock:     opts.Clock,
		newID:     opts.NewID,
	}
	if e.cat.Language == "" {
		e.cat = persian
	}
	if e.loc == nil {
		e.loc = time.Local
	}
	if e.clock == nil {
		e.clock = time.Now
	}
	if e.newID == nil {
		e.newID = func() string { return uuid.NewString() }
	}
	return e, nil
}

// Catalog returns the prompt set the engine speaks.
func (e *Engine) Catalog() Catalog {
	return e.cat
}

// Session returns a copy of the stored session for id.
func (e *Engine) Session(ctx context.Context, id int64) (Session, bool, error) {
	return e.store.Get(ctx, id)
}

// Active counts stored sessions.
func (e *Engine) Active(ctx context.Context) (int, error) {
	return e.store.Len(ctx)
}

// Handle applies ev to its session. Errors come only from the session store;
// outbound failures are logged and do not stop the transition.
func (e *Engine) Handle(ctx context.Context, ev Event) error {
	unlock := e.locks.Lock(ev.SessionID)
	defer unlock()

	sess, found, err := e.store.Get(ctx, ev.SessionID)
	if err != nil {
		return fmt.Errorf("order: load session %d: %w", ev.SessionID, err)
	}
	if !found {
		sess = Session{Stage: StageStart}
	}

	switch ev.Kind {
	case EventBegin:
		return e.begin(ctx, ev)
	case EventSelection:
		if sess.Stage != StageCurrency {
			e.ignored(ctx, ev, sess.Stage, "selection_out_of_stage")
			return nil
		}
		return e.selectCurrency(ctx, ev, sess)
	case EventText:
		return e.handleText(ctx, ev, sess)
	default:
		e.ignored(ctx, ev, sess.Stage, "unknown_event")
		return nil
	}
}

func (e *Engine) handleText(ctx context.Context, ev Event, sess Session) error {
	text := strings.TrimSpace(ev.Text)
	if text == e.cat.RestartLabel {
		return e.begin(ctx, ev)
	}
	if strings.HasPrefix(text, "/") {
		e.ignored(ctx, ev, sess.Stage, "command")
		return nil
	}

	switch sess.Stage {
	case StageStart:
		if sess.Retained() && text == e.cat.SendLabel {
			return e.publish(ctx, ev, sess)
		}
		kb := e.cat.StartKeyboard()
		if sess.Retained() {
			kb = e.cat.SubmitKeyboard()
		}
		e.sendText(ctx, ev.ChatID, e.cat.RestartHint, SendOptions{Keyboard: kb})
		return nil

	case StageDirection:
		sess.Direction = text
		if err := e.advance(ctx, ev, sess, StageCurrency); err != nil {
			return err
		}
		e.sendChoice(ctx, ev.ChatID, e.cat.ChooseCurrency, e.cat.CurrencyChoices())
		return nil

	case StageCurrency:
		e.ignored(ctx, ev, sess.Stage, "text_needs_selection")
		return nil

	case StageTransferMethod:
		sess.TransferMethod = text
		if err := e.advance(ctx, ev, sess, StageAmount); err != nil {
			return err
		}
		e.sendText(ctx, ev.ChatID, e.cat.EnterAmount, SendOptions{})
		return nil

	case StageAmount:
		n, err := ParseQuantity(text)
		if err != nil {
			return e.reject(ctx, ev, "amount", err)
		}
		sess.Amount, sess.HasAmount = n, true
		if err := e.advance(ctx, ev, sess, StagePrice); err != nil {
			return err
		}
		e.sendText(ctx, ev.ChatID, e.cat.EnterPrice, SendOptions{})
		return nil

	case StagePrice:
		n, err := ParseQuantity(text)
		if err != nil {
			return e.reject(ctx, ev, "price", err)
		}
		return e.submit(ctx, ev, sess, n)

	case StageFinal:
		if text == e.cat.SendLabel {
			return e.publish(ctx, ev, sess)
		}
		e.ignored(ctx, ev, sess.Stage, "not_send_action")
		return nil
	}

	e.ignored(ctx, ev, sess.Stage, "unknown_stage")
	return nil
}

// begin discards the session, greets the user and asks for a direction.
func (e *Engine) begin(ctx context.Context, ev Event) error {
	if err := e.advance(ctx, ev, Session{}, StageDirection); err != nil {
		return err
	}
	e.sendText(ctx, ev.ChatID, e.cat.Welcome, SendOptions{})
	e.sendText(ctx, ev.ChatID, e.cat.ChooseDirection, SendOptions{Keyboard: e.cat.StartKeyboard()})
	return nil
}

func (e *Engine) selectCurrency(ctx context.Context, ev Event, sess Session) error {
	cur, ok := e.cat.Currency(strings.TrimSpace(ev.SelectionID))
	if !ok {
		e.ignored(ctx, ev, sess.Stage, "unknown_currency")
		return nil
	}
	sess.Currency = cur.Code

	next := StageTransferMethod
	if !NeedsTransferMethod(cur.Code) {
		next = StageAmount
	}
	if err := e.advance(ctx, ev, sess, next); err != nil {
		return err
	}

	e.sendText(ctx, ev.ChatID, fmt.Sprintf(e.cat.CurrencyChosen, cur.Code, cur.Name),
		SendOptions{EditMessageID: ev.MessageID})
	if next == StageAmount {
		e.sendText(ctx, ev.ChatID, e.cat.EnterAmount, SendOptions{})
		return nil
	}
	e.sendText(ctx, ev.ChatID, e.cat.ChooseTransfer, SendOptions{Keyboard: e.cat.TransferKeyboard()})
	return nil
}

func (e *Engine) submit(ctx context.Context, ev Event, sess Session, price int64) error {
	sess.Price, sess.HasPrice = price, true
	sess.UserID = ev.User.ID
	sess.Username = ev.User.Username
	sess.SubmittedAt = e.clock().In(e.loc)
	sess.OrderID = e.newID()

	o, err := sess.Complete()
	if err != nil {
		return fmt.Errorf("order: submit session %d: %w", ev.SessionID, err)
	}
	if err := e.advance(ctx, ev, sess, StageFinal); err != nil {
		return err
	}
	logger.Info(ctx, "order", "order.submitted",
		slog.String("status", "ok"),
		slog.String("order_id", o.ID),
		slog.String("currency", o.Currency),
	)

	e.sendText(ctx, ev.ChatID, FormatSummary(e.cat, o), SendOptions{})
	e.sendText(ctx, ev.ChatID, e.cat.Submitted, SendOptions{Keyboard: e.cat.SubmitKeyboard()})
	return nil
}

// publish sends the order and returns the session to Start. A failed order
// stays stored so the send action can be repeated.
func (e *Engine) publish(ctx context.Context, ev Event, sess Session) error {
	o, err := sess.Complete()
	if err != nil {
		return fmt.Errorf("order: publish session %d: %w", ev.SessionID, err)
	}

	if e.publisher.Publish(ctx, o) {
		if err := e.store.Delete(ctx, ev.SessionID); err != nil {
			return fmt.Errorf("order: discard session %d: %w", ev.SessionID, err)
		}
		e.logTransition(ctx, ev, sess.Stage, StageStart)
		e.sendText(ctx, ev.ChatID, e.cat.PublishOK, SendOptions{})
		e.sendText(ctx, ev.ChatID, e.cat.RestartHint, SendOptions{Keyboard: e.cat.StartKeyboard()})
		return nil
	}

	if err := e.advance(ctx, ev, sess, StageStart); err != nil {
		return err
	}
	e.sendText(ctx, ev.ChatID, e.cat.PublishFailed, SendOptions{})
	e.sendText(ctx, ev.ChatID, e.cat.RestartHint, SendOptions{Keyboard: e.cat.SubmitKeyboard()})
	return nil
}

func (e *Engine) reject(ctx context.Context, ev Event, field string, cause error) error {
	e.metrics.rejected(field)
	logger.Debug(ctx, "order", "order.validation",
		slog.String("status", "fail"),
		slog.String("outcome", "invalid"),
		slog.String("field", field),
		slog.String("err", cause.Error()),
	)
	e.sendText(ctx, ev.ChatID, e.cat.NumbersOnly, SendOptions{})
	return nil
}

// advance stores sess at stage to, replacing the previous value.
func (e *Engine) advance(ctx context.Context, ev Event, sess Session, to Stage) error {
	from := sess.Stage
	if from == "" {
		from = StageStart
	}
	if !to.follows(from) {
		return fmt.Errorf("%w: %s -> %s", ErrStageOrder, from, to)
	}
	sess.Stage = to
	if err := e.store.Put(ctx, ev.SessionID, sess); err != nil {
		return fmt.Errorf("order: store session %d: %w", ev.SessionID, err)
	}
	e.logTransition(ctx, ev, from, to)
	return nil
}

func (e *Engine) logTransition(ctx context.Context, ev Event, from, to Stage) {
	e.metrics.transition(to)
	logger.Debug(ctx, "order", "order.transition",
		slog.Int64("session_id", ev.SessionID),
		slog.String("event_kind", ev.Kind.String()),
		slog.String("from", string(from)),
		slog.String("to", string(to)),
	)
}

func (e *Engine) ignored(ctx context.Context, ev Event, stage Stage, reason string) {
	e.metrics.ignore(reason)
	logger.Debug(ctx, "order", "order.ignored",
		slog.String("status", "skip"),
		slog.String("outcome", "ignored"),
		slog.String("event_kind", ev.Kind.String()),
		slog.String("stage", string(stage)),
		slog.String("reason", reason),
	)
}

func (e *Engine) sendText(ctx context.Context, chatID int64, text string, opts SendOptions) {
	if err := e.out.SendText(ctx, chatID, text, opts); err != nil {
		logger.Warn(ctx, "order", "order.outbound",
			slog.String("status", "fail"),
			slog.String("kind", "text"),
			slog.String("err", err.Error()),
		)
	}
}

func (e *Engine) sendChoice(ctx context.Context, chatID int64, prompt string, choices []Choice) {
	if err := e.out.SendChoice(ctx, chatID, prompt, choices); err != nil {
		logger.Warn(ctx, "order", "order.outbound",
			slog.String("status", "fail"),
			slog.String("kind", "choice"),
			slog.String("err", err.Error()),
		)
	}
}
