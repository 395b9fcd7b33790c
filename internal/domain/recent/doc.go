// Package recent keeps the most-recently-edited blueprint list.
//
// The list is a JSON array stored under "cradle-recent-blueprints", newest
// first, at most ten entries, unique by blueprint id. Writes are
// last-write-wins. RedisStore is used when REDIS_URL is set, MemoryStore
// otherwise.
package recent
