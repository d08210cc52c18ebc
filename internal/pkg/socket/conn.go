package socket

import (
	"Marquee/internal/api/dto"
	"errors"
	log "log/slog"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

var (
	ErrClosed         = errors.New("连接已关闭")
	ErrSendBufferFull = errors.New("发送缓冲区已满")
)

// Conn 一条 websocket 连接：写操作全部经由发送队列，由 WritePump 串行写出
type Conn struct {
	id        string
	ws        *websocket.Conn
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func NewConn(ws *websocket.Conn, sendBuffer int) *Conn {
	if sendBuffer <= 0 {
		sendBuffer = 256
	}
	return &Conn{
		id:   uuid.NewString(),
		ws:   ws,
		send: make(chan []byte, sendBuffer),
		done: make(chan struct{}),
	}
}

func (c *Conn) ID() string {
	return c.id
}

// Emit 编码为 {event, data} 后入队，不阻塞调用方；队列满时丢弃并返回错误
func (c *Conn) Emit(event string, payload any) error {
	data, err := json.Marshal(dto.OutboundEnvelope{Event: event, Data: payload})
	if err != nil {
		return err
	}
	select {
	case <-c.done:
		return ErrClosed
	default:
	}
	select {
	case c.send <- data:
		return nil
	case <-c.done:
		return ErrClosed
	default:
		return ErrSendBufferFull
	}
}

// Close 可重复调用
func (c *Conn) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}

// ReadPump 阻塞读取入站帧，按接收顺序回调；无法解析的帧以空事件名回调
// 连接断开或读超时后返回
func (c *Conn) ReadPump(handle func(event string, data []byte)) {
	defer c.Close()

	c.ws.SetReadLimit(maxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Warn("WS 读取失败", "conn_id", c.id, "err", err)
			}
			return
		}
		var env dto.Envelope
		if err = json.Unmarshal(raw, &env); err != nil {
			handle("", nil)
			continue
		}
		handle(env.Event, env.Data)
	}
}

// WritePump 串行写出发送队列并定时 ping，退出时关闭底层连接
func (c *Conn) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
	}()

	for {
		select {
		case msg := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
				log.Debug("WS 写入失败", "conn_id", c.id, "err", err)
				c.Close()
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.Close()
				return
			}
		case <-c.done:
			c.flush()
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// flush 关闭前尽量写出已入队的消息
func (c *Conn) flush() {
	for {
		select {
		case msg := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		default:
			return
		}
	}
}
