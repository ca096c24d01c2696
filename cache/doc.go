// Package cache provides the cache gate that sits in front of list queries.
//
// # Overview
//
// This package exports three pieces:
//
//   - CacheService: the key/value backend holding serialized page payloads
//   - Gate: the read-through front used by the list engine; it never fails a request
//   - KeySerializer: builds stable cache keys from a method name and arguments
//
// # Basic Usage
//
//	service, err := cache.NewCacheService(cache.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	gate := cache.NewGate(service, logger)
//
//	key := cache.NewHashedKeySerializer().SerializeKey("product::List", params)
//	if payload, ok := gate.Lookup(ctx, key); ok {
//		// decode and serve
//	}
//	gate.Store(ctx, key, encoded)
//
// # Key Serialization Strategy
//
// The default key serializer uses reflection:
//
//   - Strings are quoted, so separators inside user input stay in their segment
//   - Maps are emitted as sorted key=value pairs
//   - Structs emit exported fields as Name:value pairs
//   - Stringers such as uuid.UUID use their canonical text
//   - Anything else falls back to JSON
//
// The hashed serializer keeps the method segment readable and replaces the
// argument segments with an xxhash digest, so keys stay short regardless of the
// free-text query length and prefix invalidation keeps working.
//
// # Failure Policy
//
// A Gate logs and swallows backend failures: a failed Lookup is a miss and a
// failed Store is dropped. Cache availability never decides whether a list
// request succeeds.
//
// # Staleness
//
// Entries expire after Config.TTL. Writers are expected to invalidate the
// affected namespace on success (see the repositorycache package); the TTL
// bounds staleness for changes that bypass the engine. Encoded pages larger
// than Config.MaxEntryBytes are not stored.
package cache
