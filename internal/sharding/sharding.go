package sharding

import "hash/fnv"

type ShardRouter struct {
	ShardCount int // Number of shards
}

func NewShardRouter(shardCount int) *ShardRouter {
	return &ShardRouter{ShardCount: shardCount}
}

// GetShard hashes the key and returns the shard index. Orders are routed by
// purchaser email so every order of one purchaser lands on the same shard.
func (r *ShardRouter) GetShard(key string) int {
	h := fnv.New32a()
	h.Write([]byte(key))
	return int(h.Sum32() % uint32(r.ShardCount))
}
