// Package sns publishes sharing-workflow notifications to an AWS SNS topic.
package sns

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	awssns "github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
)

// ErrEmptyMessage is returned when a message has no body.
var ErrEmptyMessage = errors.New("sns message body is required")

// Message is one notification. Attributes become SNS string message
// attributes so subscribers can filter on them.
type Message struct {
	Subject    string            `json:"subject"`
	Body       string            `json:"body"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// Publisher delivers notifications.
type Publisher interface {
	Publish(ctx context.Context, msg Message) (string, error)
}

// api is the subset of the SNS client used here.
type api interface {
	Publish(ctx context.Context, params *awssns.PublishInput, optFns ...func(*awssns.Options)) (*awssns.PublishOutput, error)
}

// TopicPublisher publishes to a single SNS topic.
type TopicPublisher struct {
	client   api
	topicARN string
}

// NewTopicPublisher loads the default AWS configuration (environment, shared
// config, instance role) and returns a publisher for topicARN.
// PRE: topicARN is non-empty
func NewTopicPublisher(ctx context.Context, topicARN string) (*TopicPublisher, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &TopicPublisher{client: awssns.NewFromConfig(cfg), topicARN: topicARN}, nil
}

// Publish sends msg to the topic and returns the SNS message ID.
func (p *TopicPublisher) Publish(ctx context.Context, msg Message) (string, error) {
	if msg.Body == "" {
		return "", ErrEmptyMessage
	}
	input := &awssns.PublishInput{
		TopicArn:          aws.String(p.topicARN),
		Message:           aws.String(msg.Body),
		MessageAttributes: toAttributes(msg.Attributes),
	}
	if subject := cleanSubject(msg.Subject); subject != "" {
		input.Subject = aws.String(subject)
	}

	out, err := p.client.Publish(ctx, input)
	if err != nil {
		slog.Error("sns_publish_failed", "error", err, "topic", p.topicARN)
		return "", fmt.Errorf("sns publish failed: %w", err)
	}
	id := aws.ToString(out.MessageId)
	slog.Info("sns_published", "message_id", id, "topic", p.topicARN)
	return id, nil
}

// MaxSubjectLength is one less than the SNS limit of 100 characters.
const MaxSubjectLength = 99

// cleanSubject makes s acceptable as an SNS subject: printable ASCII on one
// line, shorter than 100 characters. Long subjects end in "...".
func cleanSubject(s string) string {
	s = strings.Map(func(r rune) rune {
		switch {
		case r == '\n' || r == '\r' || r == '\t':
			return ' '
		case r < 0x20 || r > 0x7e:
			return -1
		}
		return r
	}, s)
	s = strings.Join(strings.Fields(s), " ")
	if len(s) > MaxSubjectLength {
		s = strings.TrimRight(s[:MaxSubjectLength-3], " ") + "..."
	}
	return s
}

func toAttributes(attrs map[string]string) map[string]types.MessageAttributeValue {
	if len(attrs) == 0 {
		return nil
	}
	out := make(map[string]types.MessageAttributeValue, len(attrs))
	for k, v := range attrs {
		out[k] = types.MessageAttributeValue{
			DataType:    aws.String("String"),
			StringValue: aws.String(v),
		}
	}
	return out
}

// LogPublisher logs messages instead of publishing them. It is used when no
// topic is configured.
type LogPublisher struct {
	mu        sync.Mutex
	published []Message
}

// NewLogPublisher creates a LogPublisher.
func NewLogPublisher() *LogPublisher {
	return &LogPublisher{}
}

// Publish records and logs msg.
func (p *LogPublisher) Publish(_ context.Context, msg Message) (string, error) {
	if msg.Body == "" {
		return "", ErrEmptyMessage
	}
	p.mu.Lock()
	p.published = append(p.published, msg)
	n := len(p.published)
	p.mu.Unlock()

	keys := make([]string, 0, len(msg.Attributes))
	for k := range msg.Attributes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	slog.Info("sns_publish_skipped", "subject", msg.Subject, "attributes", keys)
	return fmt.Sprintf("log-%d", n), nil
}

// Published returns a copy of every message recorded so far.
func (p *LogPublisher) Published() []Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Message, len(p.published))
	copy(out, p.published)
	return out
}
