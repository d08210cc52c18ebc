package redis

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// DrainSet 将集合并入 processing 副本后读出成员，用于定时任务消费脏数据集合
// 上一轮未清理的 processing 副本会一并返回，调用方处理完成后应删除 processingKey
func DrainSet(ctx context.Context, rdb redis.Cmdable, key string) (string, []string, error) {
	processingKey := key + ":processing"
	pipe := rdb.TxPipeline()
	pipe.SUnionStore(ctx, processingKey, processingKey, key)
	pipe.Del(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return processingKey, nil, err
	}
	members, err := rdb.SMembers(ctx, processingKey).Result()
	if err != nil {
		return processingKey, nil, err
	}
	return processingKey, members, nil
}
