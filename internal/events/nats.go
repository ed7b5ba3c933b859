package events

import (
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// NATSConfig configures the notification publisher.
type NATSConfig struct {
	URL string `yaml:"url" json:"url" env:"RCPD_NATS_URL"`

	// SubjectPrefix is prepended to the notification's category to form the
	// publish subject, e.g. "rcp.events.net".
	SubjectPrefix string `yaml:"subject_prefix" json:"subjectPrefix" env:"RCPD_NATS_SUBJECT_PREFIX"`
}

// NATSSink publishes notifications as JSON to a per-category NATS subject,
// letting the topology layer subscribe to just the areas it tracks.
type NATSSink struct {
	conn   *nats.Conn
	prefix string
	log    zerolog.Logger
}

func NewNATSSink(cfg NATSConfig, log zerolog.Logger) (*NATSSink, error) {
	if cfg.SubjectPrefix == "" {
		cfg.SubjectPrefix = "rcp.events"
	}
	conn, err := nats.Connect(cfg.URL, nats.Name("rcpd"))
	if err != nil {
		return nil, fmt.Errorf("events: connect %s: %w", cfg.URL, err)
	}
	log.Info().Str("url", cfg.URL).Str("prefix", cfg.SubjectPrefix).Msg("connected to NATS")
	return &NATSSink{conn: conn, prefix: cfg.SubjectPrefix, log: log}, nil
}

func (s *NATSSink) Publish(n Notification) error {
	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("events: marshal notification: %w", err)
	}
	subject := s.prefix + "." + n.Category
	if err := s.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("events: publish %s: %w", subject, err)
	}
	return nil
}

func (s *NATSSink) Close() {
	s.conn.Close()
}
