package publisher

import (
	"encoding/json"
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"migration-renderer/internal/render"
)

type NATSPublisher struct {
	nc          *nats.Conn
	frames      string
	seek        string
	logSubjects bool
	metrics     PublisherMetrics
}

type PublisherMetrics interface {
	NATSPublishedInc()
	NATSPublishErrInc()
	PublishObserve(d time.Duration)
	NATSSetConnected(connected bool)
}

func NewNATSPublisher(url, subjectPrefix string, logSubjects bool, m PublisherMetrics) (*NATSPublisher, error) {
	nc, err := nats.Connect(url,
		nats.Name("migration-renderer"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if m != nil {
				m.NATSSetConnected(false)
			}
			log.Printf("nats disconnected: %v", err)
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			if m != nil {
				m.NATSSetConnected(true)
			}
			log.Printf("nats reconnected to %s", c.ConnectedUrl())
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			if m != nil {
				m.NATSSetConnected(false)
			}
			log.Printf("nats closed")
		}),
	)
	if err != nil {
		return nil, err
	}
	if m != nil {
		m.NATSSetConnected(true)
	}
	frames, seek := Subjects(subjectPrefix)
	return &NATSPublisher{nc: nc, frames: frames, seek: seek, logSubjects: logSubjects, metrics: m}, nil
}

func (p *NATSPublisher) Close() {
	if p.nc != nil {
		p.nc.Drain()
		p.nc.Close()
	}
}

// FrameMessage is what the render backend receives once per frame. The
// attribute declarations are sent with the first frame of a session and
// the columns only when they changed; uint8 columns encode as base64.
type FrameMessage struct {
	Session    string                 `json:"session"`
	Seq        uint64                 `json:"seq"`
	Layer      string                 `json:"layer"`
	Generation uint64                 `json:"generation"`
	Changed    bool                   `json:"changed"`
	QueryTime  float64                `json:"queryTime"`
	Timestamp  time.Time              `json:"timestamp"`
	Count      int                    `json:"count"`
	Uniforms   render.Uniforms        `json:"uniforms"`
	Attributes []render.AttributeInfo `json:"attributes,omitempty"`
	Columns    map[string]any         `json:"columns,omitempty"`
}

func (p *NATSPublisher) PublishFrame(msg FrameMessage) error {
	b, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	if p.logSubjects {
		log.Printf("nats publish subject=%s seq=%d bytes=%d", p.frames, msg.Seq, len(b))
	}
	start := time.Now()
	err = p.nc.Publish(p.frames, b)
	if p.metrics != nil {
		p.metrics.PublishObserve(time.Since(start))
		if err != nil {
			p.metrics.NATSPublishErrInc()
		} else {
			p.metrics.NATSPublishedInc()
		}
	}
	return err
}

// SeekCommand moves the query time of a running player.
type SeekCommand struct {
	Time float64 `json:"time"`
}

// SubscribeSeek delivers every valid seek command to fn. Malformed
// messages are logged and dropped.
func (p *NATSPublisher) SubscribeSeek(fn func(t float64)) (*nats.Subscription, error) {
	return p.nc.Subscribe(p.seek, func(m *nats.Msg) {
		t, err := DecodeSeek(m.Data)
		if err != nil {
			log.Printf("ignoring seek on %s: %v", m.Subject, err)
			return
		}
		fn(t)
	})
}

// DecodeSeek parses a seek command payload.
func DecodeSeek(data []byte) (float64, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return 0, err
	}
	if v, ok := raw["time"]; !ok || string(v) == "null" {
		return 0, fmt.Errorf("missing time")
	}
	var cmd SeekCommand
	if err := json.Unmarshal(data, &cmd); err != nil {
		return 0, err
	}
	if math.IsNaN(cmd.Time) || math.IsInf(cmd.Time, 0) {
		return 0, fmt.Errorf("time is not finite")
	}
	return cmd.Time, nil
}

// Subjects returns the frame and seek subjects under prefix. Each
// dot-separated token of the prefix is sanitized.
func Subjects(prefix string) (frames, seek string) {
	parts := strings.Split(prefix, ".")
	for i, s := range parts {
		parts[i] = subjectToken(s)
	}
	base := strings.Join(parts, ".")
	return base + ".frames", base + ".seek"
}

func subjectToken(s string) string {
	s = strings.TrimSpace(s)
	// NATS token cannot contain spaces, '>', '*', or trailing '.'
	repl := strings.NewReplacer(" ", "_", ".", "_", ">", "_", "*", "_", "/", "_", "\t", "_")
	s = repl.Replace(s)
	if s == "" {
		s = "_"
	}
	return s
}
