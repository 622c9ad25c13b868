package listing

import (
	"github.com/redis/rueidis"
	"go.uber.org/zap"
)

// NewStoreForTest wraps a (mock) rueidis client; tests only.
func NewStoreForTest(c rueidis.Client, keyPrefix string) *Store {
	return &Store{client: c, keyPrefix: keyPrefix, logger: zap.NewNop()}
}
