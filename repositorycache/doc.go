// Package repositorycache serves paginated list queries through a cache gate.
//
// # Overview
//
// A CachedLister wraps the List method of a go-repository-bun repository. For
// every request it derives a cache key from the namespace and the complete set
// of query parameters, serves a cached page when one exists, and otherwise
// queries the store, caches the result and returns it:
//
//  1. Serialize namespace + "List" + params into a key
//  2. Gate lookup; on hit decode the payload and tag it SourceCache
//  3. On miss build the filter, sort and window criteria from query.Spec
//  4. Query the store for the window and the filter-wide total
//  5. Encode {records, total} with msgpack, store it, tag the page SourceDB
//
// # Basic Usage
//
//	repo := repository.NewRepository[*entity.Product](db, handlers)
//	lister := repositorycache.New[*entity.Product](repo, gate, cache.NewHashedKeySerializer())
//
//	page, err := lister.List(ctx, spec, params)
//
// # Invalidation
//
// Every key the lister writes is registered. Writers call Invalidate after a
// successful create, update or delete so the next identical request goes back
// to the store. Purge removes every entry under the namespace, including keys
// this process never registered. Entries also expire after the cache TTL.
//
// A page read from the store while an invalidation runs is removed again
// right after it is written, so it cannot outlive the write that raced it.
//
// The namespace defaults to the plural snake_case name of T ("products" for
// *entity.Product), matching the table name; WithNamespace overrides it.
//
// # Error Handling
//
// Store errors are returned wrapped and nothing is cached for them. Cache
// errors never surface: an undecodable entry is logged and treated as a miss,
// and backend failures are absorbed by cache.Gate.
package repositorycache
