// Package snapshot stores rendered HTML under string keys.
//
// A snapshot is the serialized HTML of a live node at one point in time.
// Stores are interchangeable:
//
//   - MemoryStore keeps snapshots in process memory
//   - FileStore writes one .html file per key under a directory
//   - RedisStore keeps them in Redis, optionally with a TTL
//   - S3Store puts them in an S3 (or S3-compatible) bucket
//
// Open builds a store from a Config, and Capture renders a node into one:
//
//	store, err := snapshot.Open(snapshot.Config{Backend: "file", Dir: "snapshots"})
//	if err != nil {
//	    return err
//	}
//	err = snapshot.Capture(ctx, store, "home", doc.Root())
//
// Keys are slash-separated paths such as "pages/home". See ValidateKey.
package snapshot
