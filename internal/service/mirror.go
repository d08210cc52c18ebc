package service

import (
	"Marquee/internal/api/dto"
	"context"
)

// MirrorPublisher 把实时路径上的变更异步投递到 SQL 镜像，失败不影响实时路径
type MirrorPublisher interface {
	Publish(ctx context.Context, ev *dto.MirrorEvent) error
}

// NopMirror 未启用 Kafka 时使用
type NopMirror struct{}

func (NopMirror) Publish(context.Context, *dto.MirrorEvent) error { return nil }
