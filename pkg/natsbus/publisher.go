package natsbus

import (
	"encoding/json"

	"github.com/Krajiyah/uwb-sdk/pkg/models"
	"github.com/rs/zerolog"
)

// Publisher fans orchestrator callbacks out on NATS
type Publisher struct {
	conn     Conn
	subjects Subjects
	log      zerolog.Logger
}

// NewPublisher publishes under prefix
func NewPublisher(conn Conn, prefix string, log zerolog.Logger) *Publisher {
	return &Publisher{conn: conn, subjects: Subjects{Prefix: prefix}, log: log}
}

// OnUpdate is a models.UpdateHandler
func (p *Publisher) OnUpdate(u models.RangingUpdate) {
	p.publish(p.subjects.Range(u.MAC), u)
}

// OnDisconnect is a models.DisconnectHandler
func (p *Publisher) OnDisconnect(d models.DisconnectInfo) {
	p.publish(p.subjects.Disconnect(d.MAC), d)
}

func (p *Publisher) publish(subject string, v interface{}) {
	b, err := json.Marshal(v)
	if err == nil {
		err = p.conn.Publish(subject, b)
	}
	if err != nil {
		p.log.Warn().Err(err).Str("subject", subject).Msg("publish failed")
	}
}
