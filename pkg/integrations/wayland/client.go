package wayland

import (
	"log"
	"math"
	"time"

	"github.com/pkg/errors"

	"idlemark/pkg/idle"
)

type objectKind int

const (
	kindDisplay objectKind = iota
	kindRegistry
	kindSeat
	kindNotifier
	kindNotification
)

func (k objectKind) String() string {
	switch k {
	case kindDisplay:
		return "wl_display"
	case kindRegistry:
		return "wl_registry"
	case kindSeat:
		return InterfaceSeat
	case kindNotifier:
		return InterfaceIdleNotifier
	case kindNotification:
		return "ext_idle_notification_v1"
	default:
		return "unknown"
	}
}

// Client implements idle.Source on top of ext-idle-notify-v1.
//
// It holds the whole session state: the timeout, the bound seat and idle
// notifier, the single idle notification and the outbound queue. A Client is
// owned by the goroutine calling Run or Dispatch and takes no locks.
type Client struct {
	conn    *Conn
	handler idle.Handler
	timeout uint32 // milliseconds

	objects map[uint32]objectKind

	registry     uint32
	seat         uint32
	notifier     uint32
	notification uint32
	subscribed   bool
}

// NewSource connects to the compositor named by the environment and
// requests the registry
func NewSource(timeout time.Duration, handler idle.Handler) (*Client, error) {
	conn, err := Connect()
	if err != nil {
		return nil, err
	}

	c, err := NewClient(conn, timeout, handler)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return c, nil
}

// NewClient starts a session over an open connection. The get_registry
// request is queued and sent by the first Dispatch.
func NewClient(conn *Conn, timeout time.Duration, handler idle.Handler) (*Client, error) {
	ms := timeout.Milliseconds()
	if ms < 0 || ms > math.MaxUint32 {
		return nil, errors.Errorf("idle timeout %v does not fit the protocol's millisecond range", timeout)
	}

	c := &Client{
		conn:    conn,
		handler: handler,
		timeout: uint32(ms),
		objects: map[uint32]objectKind{displayID: kindDisplay},
	}

	c.registry = conn.NewID()
	var args argWriter
	args.NewID(c.registry)
	if err := conn.Queue(displayID, displayRequestGetRegistry, &args); err != nil {
		return nil, errors.Wrap(err, "failed to request registry")
	}
	c.objects[c.registry] = kindRegistry

	return c, nil
}

// Name returns "wayland"
func (c *Client) Name() string {
	return "wayland"
}

// Run dispatches forever. It only returns on a fatal error.
func (c *Client) Run() error {
	log.Printf("Starting wayland dispatch loop (idle timeout %dms)", c.timeout)
	for {
		if err := c.Dispatch(); err != nil {
			return err
		}
	}
}

// Dispatch flushes queued requests, blocks for the next batch of events and
// routes every event of that batch to its handler
func (c *Client) Dispatch() error {
	if err := c.conn.Flush(); err != nil {
		return err
	}

	msg, err := c.conn.ReadMessage()
	if err != nil {
		return errors.Wrap(err, "wayland connection lost")
	}
	if err := c.dispatch(msg); err != nil {
		return err
	}

	for c.conn.Pending() {
		msg, err := c.conn.ReadMessage()
		if err != nil {
			return errors.Wrap(err, "wayland connection lost")
		}
		if err := c.dispatch(msg); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the compositor connection, which makes a blocked Dispatch return
func (c *Client) Close() error {
	return c.conn.Close()
}

// Subscribed reports whether the idle notification has been requested
func (c *Client) Subscribed() bool {
	return c.subscribed
}

func (c *Client) dispatch(msg Message) error {
	kind, ok := c.objects[msg.Object]
	if !ok {
		log.Printf("Ignoring event %d for unknown object %d", msg.Opcode, msg.Object)
		return nil
	}

	switch kind {
	case kindDisplay:
		ev, err := decodeDisplayEvent(msg.Opcode, msg.Body)
		if err != nil {
			return err
		}
		return c.handleDisplay(ev)
	case kindRegistry:
		ev, err := decodeRegistryEvent(msg.Opcode, msg.Body)
		if err != nil {
			return err
		}
		return c.handleRegistry(ev)
	case kindSeat:
		ev, err := decodeSeatEvent(msg.Opcode, msg.Body)
		if err != nil {
			return err
		}
		c.handleSeat(ev)
		return nil
	case kindNotifier:
		ev, err := decodeNotifierEvent(msg.Opcode, msg.Body)
		if err != nil {
			return err
		}
		c.handleNotifier(ev)
		return nil
	case kindNotification:
		ev, err := decodeNotificationEvent(msg.Opcode, msg.Body)
		if err != nil {
			return err
		}
		return c.handleNotification(ev)
	default:
		return errors.Errorf("object %d has no handler", msg.Object)
	}
}

func (c *Client) handleDisplay(ev DisplayEvent) error {
	switch e := ev.(type) {
	case DisplayError:
		return e
	case DisplayDeleteID:
		delete(c.objects, e.ID)
	case UnknownEvent:
		log.Printf("Ignoring unknown wl_display event %d", e.Opcode)
	}
	return nil
}

func (c *Client) handleRegistry(ev RegistryEvent) error {
	switch e := ev.(type) {
	case RegistryGlobal:
		switch e.Interface {
		case InterfaceSeat:
			if c.seat != 0 {
				log.Printf("Ignoring additional %s global %d", e.Interface, e.Name)
				return nil
			}
			id, err := c.bind(e, seatVersion, kindSeat)
			if err != nil {
				return err
			}
			c.seat = id
			log.Println("Wl seat set up")
			return c.attemptInitiate()
		case InterfaceIdleNotifier:
			if c.notifier != 0 {
				log.Printf("Ignoring additional %s global %d", e.Interface, e.Name)
				return nil
			}
			id, err := c.bind(e, idleNotifierVersion, kindNotifier)
			if err != nil {
				return err
			}
			c.notifier = id
			log.Println("Idle notifier set up")
			return c.attemptInitiate()
		}
	case RegistryGlobalRemove:
		log.Printf("Global %d removed by compositor", e.Name)
	case UnknownEvent:
		log.Printf("Ignoring unknown wl_registry event %d", e.Opcode)
	}
	return nil
}

func (c *Client) bind(global RegistryGlobal, version uint32, kind objectKind) (uint32, error) {
	id := c.conn.NewID()

	var args argWriter
	args.Uint(global.Name)
	args.String(global.Interface)
	args.Uint(version)
	args.NewID(id)
	if err := c.conn.Queue(c.registry, registryRequestBind, &args); err != nil {
		return 0, errors.Wrapf(err, "failed to bind %s", global.Interface)
	}

	c.objects[id] = kind
	return id, nil
}

// ready reports whether both the seat and the idle notifier are bound
func (c *Client) ready() bool {
	return c.seat != 0 && c.notifier != 0
}

// attemptInitiate requests the idle notification once both capabilities are
// bound. Later calls are no-ops.
func (c *Client) attemptInitiate() error {
	if c.subscribed || !c.ready() {
		return nil
	}

	id := c.conn.NewID()
	var args argWriter
	args.NewID(id)
	args.Uint(c.timeout)
	args.Object(c.seat)
	if err := c.conn.Queue(c.notifier, notifierRequestGetIdleNotification, &args); err != nil {
		return errors.Wrap(err, "failed to request idle notification")
	}

	c.objects[id] = kindNotification
	c.notification = id
	c.subscribed = true
	log.Printf("Idle notification requested (timeout %dms)", c.timeout)
	return nil
}

func (c *Client) handleSeat(ev SeatEvent) {
	switch e := ev.(type) {
	case SeatCapabilities, SeatName:
	case UnknownEvent:
		log.Printf("Ignoring unknown wl_seat event %d", e.Opcode)
	}
}

func (c *Client) handleNotifier(ev NotifierEvent) {
	if e, ok := ev.(UnknownEvent); ok {
		log.Printf("Ignoring unknown %s event %d", InterfaceIdleNotifier, e.Opcode)
	}
}

func (c *Client) handleNotification(ev NotificationEvent) error {
	switch e := ev.(type) {
	case NotificationIdled:
		return c.handler.Idled()
	case NotificationResumed:
		return c.handler.Resumed()
	case UnknownEvent:
		log.Printf("unknown idle notification event %d", e.Opcode)
	}
	return nil
}
