package wayland

import (
	"bufio"
	"io"
	"net"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pkg/errors"
)

const defaultDisplay = "wayland-0"

// Conn is a client connection to a compositor. Requests are queued and only
// written by Flush; incoming events are read through a buffer large enough to
// hold the biggest possible message.
type Conn struct {
	rwc    io.ReadWriteCloser
	r      *bufio.Reader
	out    []byte
	nextID uint32
}

// NewConn wraps an already open transport. Object id 1 is the display.
func NewConn(rwc io.ReadWriteCloser) *Conn {
	return &Conn{
		rwc:    rwc,
		r:      bufio.NewReaderSize(rwc, maxMessageSize+1),
		nextID: displayID + 1,
	}
}

// Connect opens the compositor socket named by the environment.
// WAYLAND_SOCKET (an inherited fd) takes precedence over WAYLAND_DISPLAY.
func Connect() (*Conn, error) {
	if fdStr := os.Getenv("WAYLAND_SOCKET"); fdStr != "" {
		return connectFD(fdStr)
	}

	path, err := SocketPath()
	if err != nil {
		return nil, err
	}

	nc, err := net.DialUnix("unix", nil, &net.UnixAddr{Name: path, Net: "unix"})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to connect to wayland display at %s", path)
	}
	return NewConn(nc), nil
}

func connectFD(fdStr string) (*Conn, error) {
	fd, err := strconv.Atoi(fdStr)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid WAYLAND_SOCKET %q", fdStr)
	}
	// the fd must not leak into children
	os.Unsetenv("WAYLAND_SOCKET")

	f := os.NewFile(uintptr(fd), "wayland-socket")
	if f == nil {
		return nil, errors.Errorf("invalid WAYLAND_SOCKET fd %d", fd)
	}
	defer f.Close()

	nc, err := net.FileConn(f)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to use WAYLAND_SOCKET fd %d", fd)
	}
	return NewConn(nc), nil
}

// SocketPath resolves the compositor socket from WAYLAND_DISPLAY and XDG_RUNTIME_DIR
func SocketPath() (string, error) {
	display := os.Getenv("WAYLAND_DISPLAY")
	if display == "" {
		display = defaultDisplay
	}
	if filepath.IsAbs(display) {
		return display, nil
	}

	runtimeDir := os.Getenv("XDG_RUNTIME_DIR")
	if runtimeDir == "" {
		return "", errors.New("XDG_RUNTIME_DIR is not set, cannot locate wayland display")
	}
	return filepath.Join(runtimeDir, display), nil
}

// NewID allocates the next client-side object id
func (c *Conn) NewID() uint32 {
	id := c.nextID
	c.nextID++
	return id
}

// Queue appends a request to the outbound queue
func (c *Conn) Queue(object uint32, opcode uint16, args *argWriter) error {
	var payload []byte
	if args != nil {
		payload = args.Bytes()
	}
	msg, err := encodeMessage(object, opcode, payload)
	if err != nil {
		return err
	}
	c.out = append(c.out, msg...)
	return nil
}

// Flush writes every queued request
func (c *Conn) Flush() error {
	if len(c.out) == 0 {
		return nil
	}
	if _, err := c.rwc.Write(c.out); err != nil {
		return errors.Wrap(err, "failed to flush requests")
	}
	c.out = c.out[:0]
	return nil
}

// ReadMessage blocks until the next event is available
func (c *Conn) ReadMessage() (Message, error) {
	return readMessage(c.r)
}

// Pending reports whether a complete event is already buffered
func (c *Conn) Pending() bool {
	return messageBuffered(c.r)
}

// Close closes the underlying transport
func (c *Conn) Close() error {
	return c.rwc.Close()
}
