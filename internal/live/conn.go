package live

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/Vovarama1992/tartarus_chat/internal/ports"
	"github.com/Vovarama1992/tartarus_chat/internal/session"
	json "github.com/goccy/go-json"
	"github.com/gorilla/websocket"
)

type conn struct {
	ws       *websocket.Conn
	id       string
	log      *logger.ZapLogger
	ctrl     *session.Controller
	recorder *chunkRecorder

	// gorilla допускает только одного писателя
	writeMu sync.Mutex
	closed  bool

	wg sync.WaitGroup
}

func newConn(ws *websocket.Conn, id string, log *logger.ZapLogger) *conn {
	return &conn{
		ws:       ws,
		id:       id,
		log:      log,
		recorder: newChunkRecorder(maxCaptureSize),
	}
}

func (c *conn) run(ctx context.Context, cancel context.CancelFunc) {
	started := time.Now()
	c.info("connected")

	c.ws.SetReadLimit(maxFrameSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.keepAlive(ctx)
	}()

	c.sendState(c.ctrl.State())
	c.readLoop(ctx)

	// сначала отменяем всё, что ещё висит у провайдеров, потом закрываем сокет
	cancel()
	c.wg.Wait()

	c.writeMu.Lock()
	c.closed = true
	_ = c.ws.Close()
	c.writeMu.Unlock()

	c.info(fmt.Sprintf("disconnected after %s, turns=%d",
		time.Since(started).Round(time.Second), len(c.ctrl.Transcript())))
}

func (c *conn) readLoop(ctx context.Context) {
	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logWarn("read failed", err)
			}
			return
		}

		var f clientFrame
		if err := json.Unmarshal(data, &f); err != nil {
			c.sendError("invalid frame")
			continue
		}
		c.dispatch(ctx, f)
	}
}

func (c *conn) dispatch(ctx context.Context, f clientFrame) {
	switch f.Type {
	case frameInput:
		c.ctrl.SetInput(deref(f.Text))

	case frameSubmit:
		text := c.ctrl.Input()
		if f.Text != nil {
			text = *f.Text
		}
		c.async(func() {
			if _, err := c.ctrl.SubmitText(ctx, text); err != nil {
				c.sendError(err.Error())
			}
		})

	case frameCaptureBegin:
		if err := c.ctrl.BeginCapture(ctx); err != nil {
			c.sendError(err.Error())
		}

	case frameCaptureChunk:
		data, err := base64.StdEncoding.DecodeString(f.AudioBase64)
		if err != nil {
			c.sendError("invalid base64")
			return
		}
		if err := c.recorder.Append(data, f.Mime); err != nil {
			c.sendError(err.Error())
		}

	case frameCaptureEnd:
		c.async(func() {
			// сбои расшифровки пользователь уже увидел через alert
			if _, err := c.ctrl.EndCapture(ctx); errors.Is(err, session.ErrNotRecording) {
				c.sendError(err.Error())
			}
		})

	case frameSpeak:
		text := deref(f.Text)
		c.async(func() {
			_ = c.ctrl.Synthesize(ctx, text)
		})

	default:
		c.sendError("unknown frame type " + f.Type)
	}
}

func (c *conn) async(fn func()) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		fn()
	}()
}

func (c *conn) keepAlive(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.writeMu.Lock()
			err := c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
			c.writeMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

// === session.Player / session.Alerter ===

func (c *conn) Play(_ context.Context, audio ports.Audio) error {
	return c.send(serverFrame{
		Type:        frameAudio,
		Mime:        audio.ContentType,
		AudioBase64: base64.StdEncoding.EncodeToString(audio.Data),
	})
}

func (c *conn) Alert(_ context.Context, message string) {
	_ = c.send(serverFrame{Type: frameAlert, Message: message})
}

func (c *conn) sendState(st session.State) {
	_ = c.send(serverFrame{Type: frameState, State: &st})
}

func (c *conn) sendError(msg string) {
	_ = c.send(serverFrame{Type: frameError, Error: msg})
}

func (c *conn) send(f serverFrame) error {
	data, err := json.Marshal(f)
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if c.closed {
		return websocket.ErrCloseSent
	}
	_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return c.ws.WriteMessage(websocket.TextMessage, data)
}

func (c *conn) info(msg string) {
	c.log.Log(logger.LogEntry{Level: "info", Message: "[live " + c.id + "] " + msg, Service: serviceName})
}

func (c *conn) logWarn(msg string, err error) {
	c.log.Log(logger.LogEntry{Level: "warn", Message: "[live " + c.id + "] " + msg, Error: err, Service: serviceName})
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
