package redis

import "fmt"

const (
	// KeyPrefixHistory is the prefix for per-business history streams
	KeyPrefixHistory = "upsync:history:"
	// KeyPrefixSession is the prefix for shop session keys
	KeyPrefixSession = "upsync:session:"
	// KeyPrefixCache is the prefix for cache keys
	KeyPrefixCache = "upsync:cache:"
	// KeyPrefixLock is the prefix for run locks
	KeyPrefixLock = "upsync:lock:"
	// KeyAllShops is the key for the set of all registered shops
	KeyAllShops = "upsync:shops:all"

	// historyField is the stream entry field holding the snapshot JSON
	historyField = "payload"
)

// HistoryKey returns the stream key holding a business's snapshots
func HistoryKey(businessCode string) string {
	return KeyPrefixHistory + businessCode
}

// SessionKey returns the Redis key for a shop session
func SessionKey(shop string) string {
	return KeyPrefixSession + shop
}

// StoreDomainKey returns the cache key for a shop's public domain
func StoreDomainKey(shop string) string {
	return KeyPrefixCache + "store-domain:" + shop
}

// LockKey returns the run lock key of a business
func LockKey(businessCode string) string {
	return KeyPrefixLock + businessCode
}

// AllShopsKey returns the key for the set of all registered shops
func AllShopsKey() string {
	return KeyAllShops
}

// ExtractShop extracts the shop from a session key
func ExtractShop(key string) (string, error) {
	if len(key) <= len(KeyPrefixSession) || key[:len(KeyPrefixSession)] != KeyPrefixSession {
		return "", fmt.Errorf("invalid session key: %s", key)
	}
	return key[len(KeyPrefixSession):], nil
}
