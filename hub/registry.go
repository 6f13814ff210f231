package hub

import (
	"hash/fnv"
	"sync"
)

// shardCount fixes the number of registry shards. Channels are hashed onto
// shards so subscription churn on one channel never contends with publishes
// on a channel in another shard.
const shardCount = 32

// channelState holds a channel's subscriber set and its sequence counter.
// The counter lives under the same lock as the set so sequence assignment
// and subscriber snapshotting cannot race.
type channelState struct {
	seq     uint64
	members map[string]struct{}
	order   []string // insertion order, used for deterministic iteration
}

type registryShard struct {
	mu       sync.Mutex
	channels map[string]*channelState
}

// Registry maps channel names to the set of subscribed connection ids.
// Channel state (including the sequence counter) is created implicitly on
// first subscribe or first publish and kept for the process lifetime, so
// per-channel sequence numbers stay strictly increasing across subscriber
// churn.
type Registry struct {
	shards [shardCount]*registryShard
}

// NewRegistry creates an empty sharded registry.
func NewRegistry() *Registry {
	r := &Registry{}
	for i := range r.shards {
		r.shards[i] = &registryShard{channels: make(map[string]*channelState)}
	}
	return r
}

func (r *Registry) shardFor(channel string) *registryShard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(channel))
	return r.shards[h.Sum32()%shardCount]
}

// getOrCreate must be called with the shard lock held.
func (s *registryShard) getOrCreate(channel string) *channelState {
	cs, ok := s.channels[channel]
	if !ok {
		cs = &channelState{members: make(map[string]struct{})}
		s.channels[channel] = cs
	}
	return cs
}

// Subscribe adds subscriberID to the channel's set. Idempotent: subscribing
// twice is a no-op.
func (r *Registry) Subscribe(channel, subscriberID string) {
	shard := r.shardFor(channel)
	shard.mu.Lock()
	defer shard.mu.Unlock()

	cs := shard.getOrCreate(channel)
	if _, exists := cs.members[subscriberID]; exists {
		return
	}
	cs.members[subscriberID] = struct{}{}
	cs.order = append(cs.order, subscriberID)
}

// Unsubscribe removes subscriberID from the channel's set. Removing a
// non-member is a no-op.
func (r *Registry) Unsubscribe(channel, subscriberID string) {
	shard := r.shardFor(channel)
	shard.mu.Lock()
	defer shard.mu.Unlock()

	cs, ok := shard.channels[channel]
	if !ok {
		return
	}
	cs.remove(subscriberID)
}

// remove must be called with the shard lock held.
func (cs *channelState) remove(subscriberID string) {
	if _, exists := cs.members[subscriberID]; !exists {
		return
	}
	delete(cs.members, subscriberID)
	for i, id := range cs.order {
		if id == subscriberID {
			cs.order = append(cs.order[:i], cs.order[i+1:]...)
			break
		}
	}
}

// UnsubscribeAll removes subscriberID from every channel it belongs to.
// Called exactly once, at disconnect.
func (r *Registry) UnsubscribeAll(subscriberID string) {
	for _, shard := range r.shards {
		shard.mu.Lock()
		for _, cs := range shard.channels {
			cs.remove(subscriberID)
		}
		shard.mu.Unlock()
	}
}

// Subscribers returns a point-in-time snapshot of the channel's subscriber
// ids in subscribe order. The snapshot is a copy; concurrent subscribe or
// unsubscribe calls do not invalidate it.
func (r *Registry) Subscribers(channel string) []string {
	shard := r.shardFor(channel)
	shard.mu.Lock()
	defer shard.mu.Unlock()

	cs, ok := shard.channels[channel]
	if !ok {
		return nil
	}
	snapshot := make([]string, len(cs.order))
	copy(snapshot, cs.order)
	return snapshot
}

// SnapshotForPublish atomically assigns the channel's next sequence number
// and snapshots its subscribers, under a single shard lock. Publishing to a
// channel nobody subscribes to still consumes a sequence number.
func (r *Registry) SnapshotForPublish(channel string) (uint64, []string) {
	shard := r.shardFor(channel)
	shard.mu.Lock()
	defer shard.mu.Unlock()

	cs := shard.getOrCreate(channel)
	cs.seq++
	snapshot := make([]string, len(cs.order))
	copy(snapshot, cs.order)
	return cs.seq, snapshot
}

// SubscriberCount returns the number of subscribers on a channel.
func (r *Registry) SubscriberCount(channel string) int {
	shard := r.shardFor(channel)
	shard.mu.Lock()
	defer shard.mu.Unlock()

	cs, ok := shard.channels[channel]
	if !ok {
		return 0
	}
	return len(cs.members)
}

// ChannelCount returns the number of known channels, idle ones included.
func (r *Registry) ChannelCount() int {
	total := 0
	for _, shard := range r.shards {
		shard.mu.Lock()
		total += len(shard.channels)
		shard.mu.Unlock()
	}
	return total
}

// Channels returns the names of all known channels. Order is unspecified.
func (r *Registry) Channels() []string {
	var names []string
	for _, shard := range r.shards {
		shard.mu.Lock()
		for name := range shard.channels {
			names = append(names, name)
		}
		shard.mu.Unlock()
	}
	return names
}
