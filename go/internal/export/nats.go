package export

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/quizbattle/go/internal/projection"
)

const DefaultSubjectPrefix = "quizbattle.results"

// NATSConfig holds the connection settings for the NATS sink
type NATSConfig struct {
	URL           string
	SubjectPrefix string
	MaxReconnects int
	ReconnectWait time.Duration
	FlushTimeout  time.Duration
}

func DefaultNATSConfig() NATSConfig {
	return NATSConfig{
		URL:           nats.DefaultURL,
		SubjectPrefix: DefaultSubjectPrefix,
		MaxReconnects: -1, // Infinite
		ReconnectWait: 2 * time.Second,
		FlushTimeout:  5 * time.Second,
	}
}

// Publisher is the subset of *nats.Conn the sink needs
type Publisher interface {
	PublishMsg(m *nats.Msg) error
	FlushTimeout(timeout time.Duration) error
}

// NATSSink publishes result reports to quizbattle.results.<PIN>
type NATSSink struct {
	pub    Publisher
	nc     *nats.Conn
	config NATSConfig
}

type reportEnvelope struct {
	Report     projection.Report `json:"report"`
	Text       string            `json:"text"`
	ExportedAt time.Time         `json:"exported_at"`
}

// DialNATS connects to NATS and returns a sink that owns the connection
func DialNATS(cfg NATSConfig) (*NATSSink, error) {
	opts := []nats.Option{
		nats.Name("quizbattle-client"),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
		}),
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	s := NewNATSSink(nc, cfg)
	s.nc = nc
	return s, nil
}

// NewNATSSink wraps an existing publisher
func NewNATSSink(pub Publisher, cfg NATSConfig) *NATSSink {
	if cfg.SubjectPrefix == "" {
		cfg.SubjectPrefix = DefaultSubjectPrefix
	}
	if cfg.FlushTimeout <= 0 {
		cfg.FlushTimeout = DefaultNATSConfig().FlushTimeout
	}
	return &NATSSink{pub: pub, config: cfg}
}

// Subject returns the subject a report for pin is published on
func (s *NATSSink) Subject(pin string) string {
	return fmt.Sprintf("%s.%s", s.config.SubjectPrefix, strings.ToUpper(pin))
}

func (s *NATSSink) Export(ctx context.Context, report projection.Report) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	data, err := json.Marshal(reportEnvelope{
		Report:     report,
		Text:       report.Text(),
		ExportedAt: time.Now().UTC(),
	})
	if err != nil {
		return "", fmt.Errorf("marshal report: %w", err)
	}

	subject := s.Subject(report.Pin)
	msg := &nats.Msg{
		Subject: subject,
		Data:    data,
		Header: nats.Header{
			"Game-Pin":     []string{strings.ToUpper(report.Pin)},
			"Content-Type": []string{"application/json"},
		},
	}
	if err := s.pub.PublishMsg(msg); err != nil {
		return "", fmt.Errorf("publish report: %w", err)
	}

	timeout := s.config.FlushTimeout
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < timeout {
			timeout = left
		}
	}
	if err := s.pub.FlushTimeout(timeout); err != nil {
		return "", fmt.Errorf("flush report: %w", err)
	}

	log.Info().Str("subject", subject).Str("pin", report.Pin).Msg("published result report")
	return subject, nil
}

func (s *NATSSink) Close() error {
	if s.nc != nil {
		s.nc.Close()
	}
	return nil
}
