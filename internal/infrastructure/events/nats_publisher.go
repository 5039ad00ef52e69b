package events

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"qualtrack/internal/errs"
	"qualtrack/internal/ports"
)

const DefaultSubject = "qualtrack.equipment.status"

// NATSPublisher publishes status changes as JSON on <subject>.<equipment id>.
type NATSPublisher struct {
	conn    *nats.Conn
	subject string
}

var _ ports.StatusPublisher = (*NATSPublisher)(nil)

func NewNATSPublisher(url string, subject string) (*NATSPublisher, error) {
	if strings.TrimSpace(url) == "" {
		return nil, errors.New("nats url is required")
	}
	conn, err := nats.Connect(url,
		nats.Name("qualtrack"),
		nats.MaxReconnects(5),
		nats.ReconnectWait(time.Second),
	)
	if err != nil {
		return nil, errs.Wrap(err, "connect to nats")
	}
	return newNATSPublisher(conn, subject), nil
}

func newNATSPublisher(conn *nats.Conn, subject string) *NATSPublisher {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		subject = DefaultSubject
	}
	return &NATSPublisher{conn: conn, subject: subject}
}

func (p *NATSPublisher) Subject(equipmentID uint64) string {
	return p.subject + "." + formatID(equipmentID)
}

func (p *NATSPublisher) PublishStatusChange(ctx context.Context, change ports.StatusChange) error {
	if err := ctx.Err(); err != nil {
		return errs.Wrap(err, "check context")
	}
	data, err := json.Marshal(change)
	if err != nil {
		return errs.Wrap(err, "marshal status change")
	}
	if err := p.conn.Publish(p.Subject(change.EquipmentID), data); err != nil {
		return errs.Wrap(err, "publish status change")
	}
	return nil
}

// Close flushes pending messages before closing the connection.
func (p *NATSPublisher) Close() error {
	if p.conn == nil {
		return nil
	}
	return p.conn.Drain()
}

func formatID(id uint64) string {
	return strconv.FormatUint(id, 10)
}
