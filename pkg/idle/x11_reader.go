package idle

import (
	"errors"
	"fmt"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/screensaver"
	"github.com/jezek/xgb/xproto"
)

// xConn is the part of an X connection the reader owns.
type xConn interface {
	Close()
}

// x11Backend holds the X calls so tests can replace them.
type x11Backend struct {
	connect func(display string) (xConn, error)
	initExt func(conn xConn) error
	query   func(conn xConn) (uint32, error)
}

var defaultX11Backend = x11Backend{
	connect: func(display string) (xConn, error) {
		conn, err := xgb.NewConnDisplay(display)
		if err != nil {
			return nil, err
		}
		return conn, nil
	},
	initExt: func(conn xConn) error {
		return screensaver.Init(conn.(*xgb.Conn))
	},
	query: func(conn xConn) (uint32, error) {
		c := conn.(*xgb.Conn)
		root := xproto.Setup(c).DefaultScreen(c).Root
		reply, err := screensaver.QueryInfo(c, xproto.Drawable(root)).Reply()
		if err != nil {
			return 0, err
		}
		return reply.MsSinceUserInput, nil
	},
}

// X11Reader reads idle time from the MIT-SCREEN-SAVER extension.
// It holds one X connection for its whole lifetime.
type X11Reader struct {
	backend x11Backend
	conn    xConn
	closed  bool
}

// NewX11Reader connects to display and initializes the screensaver
// extension. The connection is closed again if the extension is missing.
func NewX11Reader(display string) (*X11Reader, error) {
	return newX11Reader(display, defaultX11Backend)
}

func newX11Reader(display string, backend x11Backend) (*X11Reader, error) {
	if display == "" {
		return nil, errors.New("no X display set")
	}

	conn, err := backend.connect(display)
	if err != nil {
		return nil, fmt.Errorf("failed to open X display %s: %w", display, err)
	}

	if err := backend.initExt(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize MIT-SCREEN-SAVER on %s: %w", display, err)
	}

	return &X11Reader{backend: backend, conn: conn}, nil
}

// IdleMillis returns the server's time since the last input event.
// An X protocol error on the query means the server does not support it.
func (r *X11Reader) IdleMillis() (uint64, error) {
	if r.closed {
		return 0, ErrClosed
	}

	ms, err := r.backend.query(r.conn)
	if err != nil {
		var xerr xgb.Error
		if errors.As(err, &xerr) {
			return 0, fmt.Errorf("%w: %v", ErrUnsupported, err)
		}
		return 0, fmt.Errorf("failed to query screensaver info: %w", err)
	}

	return uint64(ms), nil
}

// Close releases the X connection. Later calls are no-ops.
func (r *X11Reader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	r.conn.Close()
	return nil
}
