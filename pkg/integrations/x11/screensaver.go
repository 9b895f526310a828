package x11

import (
	"log"
	"math"
	"sync"
	"time"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/screensaver"
	"github.com/jezek/xgb/xproto"
	"github.com/pkg/errors"

	"idlemark/pkg/idle"
)

// Source implements idle.Source with the MIT-SCREEN-SAVER extension. The X
// server's screensaver timeout is set to the idle timeout and its notify
// events are mapped onto the handler. Close puts the previous settings back.
type Source struct {
	conn      *xgb.Conn
	root      xproto.Window
	handler   idle.Handler
	saved     saverSettings
	closeOnce sync.Once
}

// saverSettings holds the arguments of a SetScreenSaver request
type saverSettings struct {
	timeout   int16
	interval  int16
	blanking  byte
	exposures byte
}

// settingsFromReply picks the values to restore from the server's current
// settings. The server never reports more than MaxInt16 seconds, but the
// reply fields are unsigned.
func settingsFromReply(r *xproto.GetScreenSaverReply) saverSettings {
	clamp := func(v uint16) int16 {
		if v > math.MaxInt16 {
			return math.MaxInt16
		}
		return int16(v)
	}
	return saverSettings{
		timeout:   clamp(r.Timeout),
		interval:  clamp(r.Interval),
		blanking:  r.PreferBlanking,
		exposures: r.AllowExposures,
	}
}

// withTimeout replaces only the timeout, keeping the user's cycle interval,
// blanking and exposure preferences
func (s saverSettings) withTimeout(seconds int16) saverSettings {
	s.timeout = seconds
	return s
}

func (s saverSettings) apply(X *xgb.Conn) error {
	return xproto.SetScreenSaverChecked(X, s.timeout, s.interval, s.blanking, s.exposures).Check()
}

// NewSource connects to $DISPLAY and subscribes to screensaver notifications
func NewSource(timeout time.Duration, handler idle.Handler) (*Source, error) {
	seconds, err := screensaverTimeout(timeout)
	if err != nil {
		return nil, err
	}

	xgb.Logger = log.New(log.Writer(), "X11: ", log.LstdFlags|log.Lmsgprefix)

	X, err := xgb.NewConn()
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to X server")
	}

	if err := screensaver.Init(X); err != nil {
		X.Close()
		return nil, errors.Wrap(err, "MIT-SCREEN-SAVER extension not available")
	}

	root := xproto.Setup(X).DefaultScreen(X).Root

	reply, err := xproto.GetScreenSaver(X).Reply()
	if err != nil {
		X.Close()
		return nil, errors.Wrap(err, "failed to read screensaver settings")
	}
	saved := settingsFromReply(reply)

	if err := saved.withTimeout(seconds).apply(X); err != nil {
		X.Close()
		return nil, errors.Wrap(err, "failed to set screensaver timeout")
	}

	err = screensaver.SelectInputChecked(X, xproto.Drawable(root), screensaver.EventNotifyMask).Check()
	if err != nil {
		if rerr := saved.apply(X); rerr != nil {
			log.Printf("Failed to restore screensaver settings: %v", rerr)
		}
		X.Close()
		return nil, errors.Wrap(err, "failed to register for screensaver events")
	}

	log.Printf("X11 screensaver timeout set to %ds (was %ds)", seconds, saved.timeout)

	return &Source{conn: X, root: root, handler: handler, saved: saved}, nil
}

// screensaverTimeout converts the idle timeout to the server's whole seconds.
// Zero would disable the screensaver entirely.
func screensaverTimeout(timeout time.Duration) (int16, error) {
	seconds := int64(timeout / time.Second)
	if seconds < 1 || seconds > math.MaxInt16 {
		return 0, errors.Errorf("idle timeout %v is outside the X11 screensaver range (1s to %ds)", timeout, math.MaxInt16)
	}
	return int16(seconds), nil
}

// Name returns "x11"
func (s *Source) Name() string {
	return "x11"
}

// Run waits for screensaver events until the connection closes
func (s *Source) Run() error {
	log.Println("Starting X11 event loop")
	for {
		ev, xerr := s.conn.WaitForEvent()
		if ev == nil && xerr == nil {
			return errors.New("X11 connection closed")
		}
		if xerr != nil {
			return errors.Errorf("X11 error: %v", xerr)
		}

		if err := handleEvent(s.handler, ev); err != nil {
			return err
		}
	}
}

// handleEvent maps one X event onto the handler. Anything other than a
// screensaver on/off notification is ignored.
func handleEvent(h idle.Handler, ev xgb.Event) error {
	switch e := ev.(type) {
	case screensaver.NotifyEvent:
		switch e.State {
		case screensaver.StateOn:
			return h.Idled()
		case screensaver.StateOff:
			return h.Resumed()
		default:
			log.Printf("Ignoring screensaver state %d", e.State)
		}
	default:
		log.Printf("Ignoring X11 event %T", ev)
	}
	return nil
}

// Close restores the screensaver settings found at startup and closes the X
// connection, which makes Run return
func (s *Source) Close() error {
	var err error
	s.closeOnce.Do(func() {
		if rerr := s.saved.apply(s.conn); rerr != nil {
			err = errors.Wrap(rerr, "failed to restore screensaver settings")
		} else {
			log.Printf("X11 screensaver timeout restored to %ds", s.saved.timeout)
		}
		s.conn.Close()
	})
	return err
}
