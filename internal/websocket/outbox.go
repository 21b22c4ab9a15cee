package websocket

import (
	"sync"

	"github.com/gorilla/websocket"
)

// Outbox serializes writes to a connection. Messages are queued without
// blocking and written by Run, the connection's only writer.
type Outbox struct {
	conn *websocket.Conn
	out  chan interface{}
	done chan struct{}
	once sync.Once
}

// NewOutbox creates an outbox holding up to size pending messages.
func NewOutbox(conn *websocket.Conn, size int) *Outbox {
	return &Outbox{
		conn: conn,
		out:  make(chan interface{}, size),
		done: make(chan struct{}),
	}
}

// Send queues v. It reports false when the outbox is closed or full.
func (o *Outbox) Send(v interface{}) bool {
	select {
	case <-o.done:
		return false
	default:
	}
	select {
	case o.out <- v:
		return true
	default:
		return false
	}
}

// Run writes queued messages until Close is called or a write fails. On
// Close, messages already queued are still written.
func (o *Outbox) Run() error {
	for {
		select {
		case v := <-o.out:
			if err := WriteTyped(o.conn, v); err != nil {
				o.Close()
				return err
			}
		case <-o.done:
			for {
				select {
				case v := <-o.out:
					if err := WriteTyped(o.conn, v); err != nil {
						return err
					}
				default:
					return nil
				}
			}
		}
	}
}

// Close stops accepting messages. It is safe to call more than once.
func (o *Outbox) Close() {
	o.once.Do(func() { close(o.done) })
}
