// Package service implements the business logic layer
// Package service 实现业务逻辑层
package service

import "time"

// ServiceConfig service layer configuration
// ServiceConfig 服务层配置
type ServiceConfig struct {
	App AppServiceConfig // App related config // 应用相关配置
}

// AppServiceConfig app service configuration
// AppServiceConfig 应用服务配置
type AppServiceConfig struct {
	SuggestLimit       int           // Default number of title suggestions // 标题联想默认返回数量
	ReindexConcurrency int           // Notes reindexed in parallel // 重建图谱时的并发笔记数
	ReindexTimeout     time.Duration // Upper bound for one owner's reindex // 单个用户重建图谱的超时时间
}

// withDefaults fills zero values
func (c *ServiceConfig) withDefaults() *ServiceConfig {
	out := ServiceConfig{}
	if c != nil {
		out = *c
	}
	if out.App.SuggestLimit <= 0 {
		out.App.SuggestLimit = 10
	}
	if out.App.ReindexConcurrency <= 0 {
		out.App.ReindexConcurrency = 4
	}
	if out.App.ReindexTimeout <= 0 {
		out.App.ReindexTimeout = 10 * time.Minute
	}
	return &out
}
