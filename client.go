// Package respstream drives a single outbound RESP2/RESP3 connection
// on top of gnet's event loop, feeding every inbound chunk to a
// pkg/resp.Parser and routing decoded replies to a Sink. Where the
// teacher package (redhub.go) is a server accepting many connections
// and parsing client commands, this package is the client half:
// one connection, replies instead of commands, Dial instead of Listen.
package respstream

import (
	"errors"
	"sync"
	"time"

	"github.com/panjf2000/gnet/v2"
	"go.uber.org/zap"

	"github.com/IceFireDB/respstream/pkg/bufpool"
	"github.com/IceFireDB/respstream/pkg/resp"
)

// Action mirrors the teacher's Action enum, trimmed to what a single
// client connection can do: there is no Shutdown, since stopping a
// one-connection client is just Close.
type Action int

const (
	// None leaves the connection open.
	None Action = iota
	// Close tears down the connection.
	Close
)

// Conn wraps gnet.Conn the same way the teacher's Conn does, so Sink
// callbacks can stash per-connection state via SetContext/Context.
type Conn struct {
	gnet.Conn
}

func (c *Conn) SetContext(ctx interface{}) { c.Conn.SetContext(ctx) }
func (c *Conn) Context() interface{}       { return c.Conn.Context() }

// Sink is the set of callbacks a Client delivers decoded traffic to.
// OnReply and OnError mirror resp.Options' required pair; the rest
// follow the same optional/default-ignored contract as resp.Options.
type Sink struct {
	// OnOpen fires once the connection is established.
	OnOpen func(c *Conn) Action
	// OnClose fires when the connection is torn down, by either side.
	OnClose func(c *Conn, err error)
	// OnReply delivers a decoded top-level reply. Required.
	OnReply func(c *Conn, r resp.Reply)
	// OnError delivers a server error reply, and fatal protocol errors
	// when OnFatal is nil. Required.
	OnError func(c *Conn, err error)
	// OnFatal delivers a protocol violation and decides whether to
	// close the connection. If nil, fatal errors go to OnError and the
	// connection is left open.
	OnFatal func(c *Conn, err error) Action
	// OnPush delivers a RESP3 push frame. If nil, push frames are
	// decoded and dropped.
	OnPush func(c *Conn, r resp.Reply)
	// OnAttribute delivers RESP3 attribute metadata. If nil, discarded.
	OnAttribute func(c *Conn, r resp.Reply)
}

// Options configures the gnet client engine and the underlying
// parser's mode flags. It is a deliberately smaller surface than the
// teacher's server Options: Multicore, LB, NumEventLoop, ReusePort and
// the TLS-forwarding-proxy fields all describe accepting many
// connections, which has no analogue for a single outbound dial.
type Options struct {
	LockOSThread    bool
	ReadBufferCap   int
	TCPKeepAlive    time.Duration
	TCPNoDelay      gnet.TCPSocketOpt
	EdgeTriggeredIO bool

	ReturnBuffers bool
	StringNumbers bool
	BigInt        bool

	Pool   *bufpool.Pool
	Logger *zap.Logger
}

// Client owns one outbound connection and the resp.Parser decoding its
// replies. Create with New, connect with Dial.
type Client struct {
	sink   Sink
	opts   Options
	logger *zap.Logger

	mu     sync.Mutex
	engine *gnet.Client
	conn   gnet.Conn
	parser *resp.Parser
}

// New validates sink and builds a Client ready to Dial.
func New(sink Sink, opts Options) (*Client, error) {
	if sink.OnReply == nil {
		return nil, &resp.ConfigError{Field: "Sink.OnReply", Reason: "required callback is nil"}
	}
	if sink.OnError == nil {
		return nil, &resp.ConfigError{Field: "Sink.OnError", Reason: "required callback is nil"}
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	cl := &Client{sink: sink, opts: opts, logger: logger}
	parser, err := resp.NewParser(resp.Options{
		OnReply:       func(r resp.Reply) { cl.sink.OnReply(cl.currentConn(), r) },
		OnError:       func(e error) { cl.sink.OnError(cl.currentConn(), e) },
		OnFatal:       cl.dispatchFatal,
		OnPush:        cl.dispatchPush,
		OnAttribute:   cl.dispatchAttribute,
		ReturnBuffers: opts.ReturnBuffers,
		StringNumbers: opts.StringNumbers,
		BigInt:        opts.BigInt,
		Pool:          opts.Pool,
		Logger:        logger,
	})
	if err != nil {
		return nil, err
	}
	cl.parser = parser
	return cl, nil
}

func (cl *Client) currentConn() *Conn {
	return &Conn{Conn: cl.conn}
}

func (cl *Client) dispatchFatal(err error) {
	if cl.sink.OnFatal == nil {
		cl.sink.OnError(cl.currentConn(), err)
		return
	}
	if cl.sink.OnFatal(cl.currentConn(), err) == Close && cl.conn != nil {
		_ = cl.conn.Close()
	}
}

func (cl *Client) dispatchPush(r resp.Reply) {
	if cl.sink.OnPush != nil {
		cl.sink.OnPush(cl.currentConn(), r)
	}
}

func (cl *Client) dispatchAttribute(r resp.Reply) {
	if cl.sink.OnAttribute != nil {
		cl.sink.OnAttribute(cl.currentConn(), r)
	}
}

// SetReturnBuffers, SetStringNumbers and SetBigInt toggle the
// underlying parser's mode flags for replies decoded after the call.
func (cl *Client) SetReturnBuffers(v bool) { cl.parser.SetReturnBuffers(v) }
func (cl *Client) SetStringNumbers(v bool) error { return cl.parser.SetStringNumbers(v) }
func (cl *Client) SetBigInt(v bool) error        { return cl.parser.SetBigInt(v) }

// gnet.EventHandler implementation. OnTraffic is the core of the
// pipeline: it hands every inbound chunk straight to the parser,
// whose callbacks (wired in New) reach the Sink synchronously.

func (cl *Client) OnBoot(eng gnet.Engine) gnet.Action { return gnet.None }

func (cl *Client) OnShutdown(eng gnet.Engine) {}

func (cl *Client) OnOpen(c gnet.Conn) (out []byte, action gnet.Action) {
	cl.conn = c
	cl.parser.Reset()
	if cl.sink.OnOpen != nil {
		return nil, gnet.Action(cl.sink.OnOpen(&Conn{Conn: c}))
	}
	return nil, gnet.None
}

func (cl *Client) OnClose(c gnet.Conn, err error) (action gnet.Action) {
	if cl.sink.OnClose != nil {
		cl.sink.OnClose(&Conn{Conn: c}, err)
	}
	return gnet.None
}

func (cl *Client) OnTraffic(c gnet.Conn) gnet.Action {
	buf, _ := c.Next(-1)
	if len(buf) > 0 {
		chunk := make([]byte, len(buf))
		copy(chunk, buf)
		cl.parser.Feed(chunk)
	}
	return gnet.None
}

func (cl *Client) OnTick() (delay time.Duration, action gnet.Action) {
	return 0, gnet.None
}

// Dial starts the gnet client engine and connects to address over
// network (e.g. "tcp", "127.0.0.1:6379").
func (cl *Client) Dial(network, address string) error {
	var opts []gnet.Option
	if cl.opts.LockOSThread {
		opts = append(opts, gnet.WithLockOSThread(true))
	}
	if cl.opts.ReadBufferCap > 0 {
		opts = append(opts, gnet.WithReadBufferCap(cl.opts.ReadBufferCap))
	}
	if cl.opts.TCPKeepAlive > 0 {
		opts = append(opts, gnet.WithTCPKeepAlive(cl.opts.TCPKeepAlive))
	}
	opts = append(opts, gnet.WithTCPNoDelay(cl.opts.TCPNoDelay))
	if cl.opts.EdgeTriggeredIO {
		opts = append(opts, gnet.WithEdgeTriggeredIO(true))
	}

	eng, err := gnet.NewClient(cl, opts...)
	if err != nil {
		return err
	}
	if err := eng.Start(); err != nil {
		return err
	}

	conn, err := eng.Dial(network, address)
	if err != nil {
		_ = eng.Stop()
		return err
	}

	cl.mu.Lock()
	cl.engine = eng
	cl.conn = conn
	cl.mu.Unlock()
	return nil
}

// Write sends p on the connection established by Dial.
func (cl *Client) Write(p []byte) error {
	cl.mu.Lock()
	conn := cl.conn
	cl.mu.Unlock()
	if conn == nil {
		return errors.New("respstream: not connected")
	}
	_, err := conn.Write(p)
	return err
}

// Close tears down the connection and stops the client engine.
func (cl *Client) Close() error {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	if cl.conn != nil {
		_ = cl.conn.Close()
	}
	if cl.engine != nil {
		return cl.engine.Stop()
	}
	return nil
}
