package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/concierge-core/gateway/internal/gateway/model"
)

// Fingerprint derives the context fingerprint that scopes cache entries to a
// customer/session. Entries under different fingerprints never see each
// other, regardless of embedding similarity.
func Fingerprint(cctx *model.CacheContext) string {
	if cctx == nil {
		return "global"
	}
	parts := make([]string, 0, len(cctx.Flags)+1)
	parts = append(parts, "customer="+cctx.CustomerID)
	keys := make([]string, 0, len(cctx.Flags))
	for k := range cctx.Flags {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		parts = append(parts, k+"="+cctx.Flags[k])
	}
	sum := sha256.Sum256([]byte(strings.Join(parts, ";")))
	return hex.EncodeToString(sum[:16])
}

// Key builds the deterministic cache key for (query, intent, fingerprint).
// Identical queries under different contexts get different keys.
func Key(query string, intent model.Intent, fingerprint string) string {
	normalized := strings.ToLower(strings.TrimSpace(query))
	normalized = strings.Join(strings.Fields(normalized), " ")
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%s", normalized, intent, fingerprint)))
	return hex.EncodeToString(sum[:])
}
