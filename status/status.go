// Package status broadcasts authoring and export progress to any
// connected websocket client, so a browser panel can follow a long
// bake without polling.
package status

import (
	"encoding/json"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	INFO = iota
	ERROR
	PROGRESS
)

type status struct {
	Message  string
	Stage    string
	Time     time.Time
	Type     int
	Progress float32
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

var (
	statusBroadcast chan *status
	broadcastList   map[*client]bool
	globalLock      sync.Mutex
	lastMessage     []byte
	log             = zap.NewNop()
)

// SetLogger routes websocket transport errors to the given logger.
func SetLogger(l *zap.Logger) {
	globalLock.Lock()
	defer globalLock.Unlock()
	if l != nil {
		log = l
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(time.Second * 30)
	defer func() {
		ticker.Stop()
		unregisterClient(c)
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(40 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				log.Warn("status ws write failed", zap.Error(err))
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(40 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Warn("status ws ping failed", zap.Error(err))
				return
			}
		}
	}
}

// NewClient registers a websocket connection and replays the last
// message so a late panel still shows the current stage.
func NewClient(conn *websocket.Conn) *client {
	c := &client{conn: conn, send: make(chan []byte, 32)}
	registerClient(c)
	go c.writePump()
	globalLock.Lock()
	defer globalLock.Unlock()
	if lastMessage != nil {
		c.send <- lastMessage
	}
	return c
}

func registerClient(c *client) {
	globalLock.Lock()
	defer globalLock.Unlock()
	broadcastList[c] = true
}

func unregisterClient(c *client) {
	globalLock.Lock()
	defer globalLock.Unlock()
	delete(broadcastList, c)
}

func init() {
	statusBroadcast = make(chan *status, 16)
	broadcastList = make(map[*client]bool)
	go func() {
		for s := range statusBroadcast {
			data, err := json.Marshal(s)
			if err != nil {
				continue
			}
			globalLock.Lock()
			lastMessage = data
			for c := range broadcastList {
				select {
				case c.send <- data:
				default:
				}
			}
			globalLock.Unlock()
		}
	}()
}

func push(stage, msg string, kind int, progress float32) {
	if math.IsNaN(float64(progress)) || math.IsInf(float64(progress), 0) {
		progress = 0
	}
	statusBroadcast <- &status{
		Message:  msg,
		Stage:    stage,
		Time:     time.Now(),
		Type:     kind,
		Progress: progress,
	}
}

func Info(format string, a ...interface{}) {
	push("", fmt.Sprintf(format, a...), INFO, 0)
}

func Error(format string, a ...interface{}) {
	push("", fmt.Sprintf(format, a...), ERROR, 0)
}

// Progress reports a named pipeline stage at a fraction in [0,1].
func Progress(stage string, progress float32, format string, a ...interface{}) {
	push(stage, fmt.Sprintf(format, a...), PROGRESS, progress)
}
