package reconcile

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
)

// HashPrefix marks the digest algorithm in serialized hashes.
const HashPrefix = "sha256:"

// DataHash computes the deterministic content hash binding an asset, its
// merged price, the ordered contributing source list and the snapshot
// timestamp. Identical inputs always yield the identical hash, so a value
// served from a cached snapshot can be checked against one later published
// to the attestation ledger.
//
// Canonical form: ticker|price|source1,source2|unixTimestamp with the price
// rendered by strconv.FormatFloat(p, 'f', -1, 64).
func DataHash(ticker string, price float64, sources []string, unixTS int64) string {
	canonical := ticker + "|" +
		strconv.FormatFloat(price, 'f', -1, 64) + "|" +
		strings.Join(sources, ",") + "|" +
		strconv.FormatInt(unixTS, 10)
	sum := sha256.Sum256([]byte(canonical))
	return HashPrefix + hex.EncodeToString(sum[:])
}
