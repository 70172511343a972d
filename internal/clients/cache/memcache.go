package cache

import (
	"strconv"

	"github.com/bradfitz/gomemcache/memcache"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"budgetbot/internal/logger"
)

type config interface {
	Hosts() []string
}

// report options carry the render day, so an entry is never read again once
// the day rolls over; the expiry lets memcached drop those dead entries.
const reportExpirationSeconds = 24 * 60 * 60

// MemcacheClient caches rendered expense reports keyed by user and report
// period.
type MemcacheClient struct {
	client *memcache.Client
}

func NewMemcache(cfg config) (*MemcacheClient, error) {
	logger.Info("memcached hosts", zap.Strings("hosts", cfg.Hosts()))
	mc := memcache.New(cfg.Hosts()...)
	return &MemcacheClient{mc}, mc.Ping()
}

func reportKey(userID int64, option string) string {
	return "report:" + strconv.FormatInt(userID, 10) + ":" + option
}

func (mc *MemcacheClient) CacheReport(userID int64, option string, report string) error {
	return mc.client.Set(&memcache.Item{
		Key:        reportKey(userID, option),
		Value:      []byte(report),
		Expiration: reportExpirationSeconds,
	})
}

func (mc *MemcacheClient) GetReport(userID int64, option string) (string, error) {
	item, err := mc.client.Get(reportKey(userID, option))
	if err != nil {
		return "", err
	}
	return string(item.Value), nil
}

func (mc *MemcacheClient) InvalidateCache(userID int64, options []string) error {
	for _, opt := range options {
		err := mc.client.Delete(reportKey(userID, opt))
		if err != nil && !errors.Is(err, memcache.ErrCacheMiss) {
			return err
		}
	}
	return nil
}
