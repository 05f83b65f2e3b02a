package backtest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"fxlab/internal/logger"
)

// RunStatus 是回测任务的生命周期状态。
type RunStatus string

const (
	StatusPending RunStatus = "pending"
	StatusRunning RunStatus = "running"
	StatusDone    RunStatus = "done"
	StatusFailed  RunStatus = "failed"
)

// Run 是一次异步回测任务的记录。
type Run struct {
	ID         string    `json:"id"`
	Config     Config    `json:"config"`
	Status     RunStatus `json:"status"`
	Message    string    `json:"message,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	StartedAt  time.Time `json:"started_at,omitempty"`
	FinishedAt time.Time `json:"finished_at,omitempty"`
	Results    *Results  `json:"results,omitempty"`
}

// RunRegistry 是进程内的任务簿，不做持久化。
type RunRegistry struct {
	mu   sync.RWMutex
	runs map[string]*Run
	ids  []string // 创建顺序
}

func NewRunRegistry() *RunRegistry {
	return &RunRegistry{runs: make(map[string]*Run)}
}

func (r *RunRegistry) add(run *Run) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs[run.ID] = run
	r.ids = append(r.ids, run.ID)
}

// Get 返回任务的副本，避免调用方拿到内部指针后读到写一半的状态。
func (r *RunRegistry) Get(id string) (Run, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	run, ok := r.runs[id]
	if !ok {
		return Run{}, false
	}
	return *run, true
}

// List 按创建顺序返回所有任务副本。
func (r *RunRegistry) List() []Run {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Run, 0, len(r.ids))
	for _, id := range r.ids {
		out = append(out, *r.runs[id])
	}
	return out
}

func (r *RunRegistry) update(id string, fn func(*Run)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if run, ok := r.runs[id]; ok {
		fn(run)
	}
}

// Service 管理异步回测任务，并限制同时执行的任务数。
type Service struct {
	runner   *Runner
	registry *RunRegistry
	sem      chan struct{}
}

func NewService(runner *Runner, maxConcurrent int) *Service {
	if maxConcurrent <= 0 {
		maxConcurrent = 2
	}
	return &Service{
		runner:   runner,
		registry: NewRunRegistry(),
		sem:      make(chan struct{}, maxConcurrent),
	}
}

func (s *Service) Registry() *RunRegistry { return s.registry }

// StartRun 校验配置后登记任务并异步执行，返回任务 ID。
func (s *Service) StartRun(ctx context.Context, cfg Config) (string, error) {
	if err := cfg.Normalize(); err != nil {
		return "", fmt.Errorf("回测配置非法: %w", err)
	}
	run := &Run{
		ID:        uuid.NewString(),
		Config:    cfg,
		Status:    StatusPending,
		CreatedAt: time.Now(),
	}
	s.registry.add(run)
	// HTTP 请求结束不应终止后台回测，脱离调用方的取消链
	go s.runLoop(context.WithoutCancel(ctx), run.ID, cfg)
	return run.ID, nil
}

func (s *Service) runLoop(ctx context.Context, id string, cfg Config) {
	select {
	case s.sem <- struct{}{}:
	case <-ctx.Done():
		s.registry.update(id, func(r *Run) {
			r.Status = StatusFailed
			r.Message = ctx.Err().Error()
			r.FinishedAt = time.Now()
		})
		return
	}
	defer func() { <-s.sem }()

	s.registry.update(id, func(r *Run) {
		r.Status = StatusRunning
		r.StartedAt = time.Now()
	})
	logger.Infof("[backtest] run %s 开始: %s %s %s", id, cfg.Symbol, cfg.Timeframe, cfg.Strategy)

	results, err := s.runner.Run(ctx, cfg)
	s.registry.update(id, func(r *Run) {
		r.FinishedAt = time.Now()
		if err != nil {
			r.Status = StatusFailed
			r.Message = err.Error()
			return
		}
		r.Status = StatusDone
		r.Results = results
	})
	if err != nil {
		logger.Errorf("[backtest] run %s 失败: %v", id, err)
		return
	}
	logger.Infof("[backtest] run %s 完成", id)
}
