package notification

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// 送信するメール1通分。
type Message struct {
	To      string
	Subject string
	Body    string
}

// Mailer はメールを1通送る約束。実装はSMTPでもログ出力でもよい。
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// 注文確定の通知イベント。checkoutのcommit後にenqueueされる。
type OrderConfirmedEvent struct {
	OrderNumber string
	Email       string
	TotalAmount string
	Items       []OrderConfirmedItem
	PlacedAt    time.Time
}

type OrderConfirmedItem struct {
	Name     string
	Quantity int64
	Price    string
}

// Worker はキューを1本のgoroutineで処理するベストエフォートの通知送信。
// 送信失敗はログに残すだけで呼び出し側には伝えない。
type Worker struct {
	mailer Mailer
	queue  chan Message
	logger *zap.Logger

	wg       sync.WaitGroup
	stopOnce sync.Once
}

func NewWorker(mailer Mailer, queueSize int, logger *zap.Logger) *Worker {
	if queueSize <= 0 {
		queueSize = 64
	}
	return &Worker{
		mailer: mailer,
		queue:  make(chan Message, queueSize),
		logger: logger,
	}
}

// Start はctxが閉じるかStopが呼ばれるまでキューを処理する。
func (w *Worker) Start(ctx context.Context) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-w.queue:
				if !ok {
					return
				}
				w.deliver(ctx, msg)
			}
		}
	}()
}

// Stop はキューを閉じ、処理中の送信が終わるまで待つ。
func (w *Worker) Stop() {
	w.stopOnce.Do(func() {
		close(w.queue)
	})
	w.wg.Wait()
}

// Enqueue は決してブロックしない。キューが満杯なら捨ててログに残す。
func (w *Worker) Enqueue(msg Message) {
	select {
	case w.queue <- msg:
	default:
		w.logger.Warn("notification queue full, dropping message",
			zap.String("to", msg.To),
			zap.String("subject", msg.Subject))
	}
}

// OrderConfirmed は注文確認メールを組み立ててenqueueする。
func (w *Worker) OrderConfirmed(ev OrderConfirmedEvent) {
	if ev.Email == "" {
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Thank you for your order.\n\n")
	fmt.Fprintf(&b, "Order number: %s\n", ev.OrderNumber)
	fmt.Fprintf(&b, "Placed at: %s\n\n", ev.PlacedAt.Format(time.RFC3339))
	for _, it := range ev.Items {
		fmt.Fprintf(&b, "  %s x %d @ %s\n", it.Name, it.Quantity, it.Price)
	}
	fmt.Fprintf(&b, "\nTotal: %s\n", ev.TotalAmount)

	w.Enqueue(Message{
		To:      ev.Email,
		Subject: fmt.Sprintf("Order confirmation %s", ev.OrderNumber),
		Body:    b.String(),
	})
}

func (w *Worker) deliver(ctx context.Context, msg Message) {
	sendCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := w.mailer.Send(sendCtx, msg); err != nil {
		// ベストエフォート。失敗してもリトライしない。
		w.logger.Warn("failed to send notification",
			zap.String("to", msg.To),
			zap.String("subject", msg.Subject),
			zap.Error(err))
		return
	}

	w.logger.Info("notification sent",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject))
}
