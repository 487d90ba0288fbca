package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"miseflow/internal/infrastructure/config"
)

// 快取命名空間
const (
	NamespaceExtraction  = "extraction"
	NamespaceFingerprint = "fingerprint"
)

// Store 擷取結果與發布指紋共用的快取介面
//
// 未命中時 Get 回傳 common.ErrCacheMiss。
type Store interface {
	Get(ctx context.Context, namespace, key string) (string, error)
	Set(ctx context.Context, namespace, key, value string) error
	Stats() map[string]interface{}
	Close() error
}

// NewStore 依設定建立記憶體或 Redis 快取；停用時回傳 nil
func NewStore(cfg *config.Config) (Store, error) {
	if !cfg.Cache.Enabled {
		return nil, nil
	}

	switch cfg.Cache.Backend {
	case "redis":
		store, err := NewRedisStore(&cfg.Redis, &cfg.Cache)
		if err != nil {
			return nil, err
		}
		return store, nil
	case "memory", "":
		return NewManager(&cfg.Cache), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Cache.Backend)
	}
}

// generateKey 生成緩存鍵
func generateKey(namespace, key string) string {
	return fmt.Sprintf("%s:%s", namespace, hashString(key))
}

// hashString 計算字符串的 SHA-256 哈希值
func hashString(s string) string {
	hash := sha256.Sum256([]byte(s))
	return hex.EncodeToString(hash[:])
}
