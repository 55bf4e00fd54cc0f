package mailqueue

import (
	"fmt"
	"net/url"

	"github.com/redis/go-redis/v9"
)

// NewPublisher picks the transport from the broker URL scheme.
func NewPublisher(brokerURL string) (Publisher, error) {
	u, err := url.Parse(brokerURL)
	if err != nil {
		return nil, fmt.Errorf("parse broker url: %w", err)
	}
	switch u.Scheme {
	case "amqp", "amqps":
		return NewAMQPPublisher(brokerURL), nil
	case "redis", "rediss":
		opts, err := redis.ParseURL(brokerURL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		return NewRedisPublisher(redis.NewClient(opts)), nil
	default:
		return nil, fmt.Errorf("unsupported broker scheme %q", u.Scheme)
	}
}
