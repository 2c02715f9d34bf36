package core

import "runtime"

// ScoringConfig 是建模与打分相关的配置接口，用于提供默认值。
type ScoringConfig interface {
	// DefaultNeighborhoodSize 返回默认的邻域大小 K
	DefaultNeighborhoodSize() int

	// DefaultBuildWorkers 返回建模时的默认并发数
	DefaultBuildWorkers() int

	// DefaultCandidateLimit 返回召回阶段默认的候选数
	DefaultCandidateLimit() int
}

// DefaultScoringConfig 是默认的配置实现。
type DefaultScoringConfig struct{}

func (c DefaultScoringConfig) DefaultNeighborhoodSize() int {
	return 20
}

func (c DefaultScoringConfig) DefaultBuildWorkers() int {
	return runtime.NumCPU()
}

func (c DefaultScoringConfig) DefaultCandidateLimit() int {
	return 100
}

// Defaults 是包级默认配置。
var Defaults ScoringConfig = DefaultScoringConfig{}
