package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/bookyourshoot/backend/internal/ledger"
	"github.com/bookyourshoot/backend/internal/models"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// Частота пересчёта обратного отсчёта.
	tickPeriod = time.Second

	// Как часто перечитывать транзакцию из базы: статус может смениться
	// релизом, возвратом или спором в обход этого соединения.
	refreshPeriod = 10 * time.Second
)

// TransactionSource отдаёт снимок транзакции с проверкой прав доступа.
type TransactionSource interface {
	Get(ctx context.Context, id, actorID uuid.UUID, role string) (*models.EscrowTransaction, error)
}

// CountdownStream шлёт клиенту обратный отсчёт по одной транзакции раз в
// секунду. Между перечитываниями из базы отсчёт считается локально: это
// чистая функция от (транзакция, now).
type CountdownStream struct {
	conn   *websocket.Conn
	source TransactionSource
	txID   uuid.UUID
	userID uuid.UUID
	role   string
}

func NewCountdownStream(conn *websocket.Conn, source TransactionSource, txID, userID uuid.UUID, role string) *CountdownStream {
	return &CountdownStream{
		conn:   conn,
		source: source,
		txID:   txID,
		userID: userID,
		role:   role,
	}
}

// Run запускает обработку соединения и блокируется до его закрытия.
func (s *CountdownStream) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go s.writePumpSafe(ctx, cancel)
	s.readPump(ctx)
}

// writePumpSafe запускает writePump с обработкой panic
func (s *CountdownStream) writePumpSafe(ctx context.Context, cancel context.CancelFunc) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Printf("WebSocket writePump panic recovered: %v\nStack trace:\n%s\n", r, debug.Stack())
		}
		cancel()
		s.conn.Close()
	}()
	s.writePump(ctx)
}

func (s *CountdownStream) readPump(ctx context.Context) {
	defer s.conn.Close()

	s.conn.SetReadLimit(1024)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		select {
		case <-ctx.Done():
			return
		default:
			// Клиент только получает сообщения, входящие игнорируем.
			if _, _, err := s.conn.ReadMessage(); err != nil {
				return
			}
		}
	}
}

func (s *CountdownStream) writePump(ctx context.Context) {
	ticker := time.NewTicker(tickPeriod)
	pinger := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		pinger.Stop()
	}()

	tx, err := s.source.Get(ctx, s.txID, s.userID, s.role)
	if err != nil {
		s.writeClose(websocket.ClosePolicyViolation, "транзакция недоступна")
		return
	}
	lastRefresh := time.Now()

	if done := s.sendSnapshot(tx, time.Now()); done {
		return
	}

	for {
		select {
		case <-ctx.Done():
			s.writeClose(websocket.CloseNormalClosure, "")
			return
		case <-pinger.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case now := <-ticker.C:
			if now.Sub(lastRefresh) >= refreshPeriod {
				fresh, err := s.source.Get(ctx, s.txID, s.userID, s.role)
				if err != nil {
					s.writeClose(websocket.ClosePolicyViolation, "транзакция недоступна")
					return
				}
				tx = fresh
				lastRefresh = now
			}

			if done := s.sendSnapshot(tx, now); done {
				return
			}
		}
	}
}

// sendSnapshot пишет один кадр отсчёта. Возвращает true, когда поток пора
// закрывать: транзакция ушла из held и дальше меняться нечему.
func (s *CountdownStream) sendSnapshot(tx *models.EscrowTransaction, now time.Time) bool {
	cd := ledger.ComputeCountdown(tx, now)

	payload, err := json.Marshal(cd)
	if err != nil {
		return true
	}

	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := s.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		return true
	}

	if tx.Status != models.EscrowStatusHeld {
		s.writeClose(websocket.CloseNormalClosure, "платёж обработан")
		return true
	}
	return false
}

func (s *CountdownStream) writeClose(code int, reason string) {
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = s.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason))
}
