package exchange

import "fmt"

// Redis key pattern helpers
//
// Keys and channels are namespaced so that several labs or studies can share
// one Redis server.
//
// Key pattern: coda:{namespace}:snapshot:{project}
// Channel pattern: coda:{namespace}:snapshot_events

// SnapshotKey returns the Redis key for a project's latest snapshot.
// Pattern: coda:{namespace}:snapshot:{project}
func SnapshotKey(namespace, project string) string {
	return fmt.Sprintf("coda:%s:snapshot:%s", namespace, project)
}

// SnapshotEventsChannel returns the Pub/Sub channel announcing new snapshots.
// Pattern: coda:{namespace}:snapshot_events
func SnapshotEventsChannel(namespace string) string {
	return fmt.Sprintf("coda:%s:snapshot_events", namespace)
}
