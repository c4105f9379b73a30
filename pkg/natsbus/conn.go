// Package natsbus carries ranging traffic over NATS: a RangingEngine backed
// by a remote UWB service, and a publisher fanning updates out to subscribers.
package natsbus

import (
	"strings"
	"time"

	"github.com/Krajiyah/uwb-sdk/pkg/util"
	"github.com/nats-io/nats.go"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// DefaultPrefix roots every subject
const DefaultPrefix = "uwb"

// Conn is the part of a NATS connection the bus needs
type Conn interface {
	Publish(subject string, data []byte) error
	Subscribe(subject string, h nats.MsgHandler) (Subscription, error)
}

// Subscription is an active NATS subscription
type Subscription interface {
	Unsubscribe() error
}

type natsConn struct {
	nc *nats.Conn
}

// Wrap adapts a nats connection to Conn
func Wrap(nc *nats.Conn) Conn { return &natsConn{nc: nc} }

func (c *natsConn) Publish(subject string, data []byte) error { return c.nc.Publish(subject, data) }

func (c *natsConn) Subscribe(subject string, h nats.MsgHandler) (Subscription, error) {
	return c.nc.Subscribe(subject, h)
}

// Connect dials url with reconnects enabled, logging connection changes
func Connect(url string, log zerolog.Logger) (*nats.Conn, error) {
	nc, err := nats.Connect(url,
		nats.Name("uwbd"),
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn().Err(err).Msg("nats disconnected")
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			log.Info().Str("url", c.ConnectedUrl()).Msg("nats reconnected")
		}),
	)
	return nc, errors.Wrap(err, "nats connect")
}

// Subjects builds the subject names under one prefix
type Subjects struct {
	Prefix string
}

func (s Subjects) join(parts ...string) string {
	p := s.Prefix
	if p == "" {
		p = DefaultPrefix
	}
	return p + "." + strings.Join(parts, ".")
}

func (s Subjects) EngineStart() string  { return s.join("engine", "start") }
func (s Subjects) EngineStop() string   { return s.join("engine", "stop") }
func (s Subjects) EngineClose() string  { return s.join("engine", "close") }
func (s Subjects) EngineEvents() string { return s.join("engine", "events") }

// Range is the subject updates for mac are published on. MAC colons are not
// valid in a token, so they are dropped.
func (s Subjects) Range(mac string) string { return s.join("range", token(mac)) }

// Disconnect is the subject disconnects of mac are published on
func (s Subjects) Disconnect(mac string) string { return s.join("disconnect", token(mac)) }

func token(mac string) string {
	return strings.ReplaceAll(util.NormalizeMAC(mac), ":", "")
}
