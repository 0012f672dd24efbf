package hasher

import (
	"sort"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/moyu-x/image-manager/internal"
	"github.com/moyu-x/image-manager/pkg/logger"
)

type Task struct {
	Index int
	Path  string
	Size  int64
}

type Result[R any] struct {
	Task
	Value R
	Error error
}

// Pool 用固定数量的 ants worker 对每个文件执行 fn。一个 Pool 只能使用一次。
type Pool[R any] struct {
	workers int
	fn      func(Task) (R, error)
	tasks   chan Task
	results chan Result[R]
	wg      sync.WaitGroup
	pool    *ants.Pool
}

func NewPool[R any](workers int, fn func(Task) (R, error)) *Pool[R] {
	if workers <= 0 {
		workers = 1
	}
	return &Pool[R]{
		workers: workers,
		fn:      fn,
		tasks:   make(chan Task, internal.DefaultBufferSize),
		results: make(chan Result[R], internal.DefaultBufferSize),
	}
}

func (p *Pool[R]) Start() error {
	logger.Get().Debug().Msgf("启动计算池，工作线程数: %d", p.workers)

	var err error
	p.pool, err = ants.NewPool(p.workers)
	if err != nil {
		logger.Get().Error().Err(err).Msg("创建 goroutine 池失败")
		return err
	}

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		if err := p.pool.Submit(p.worker); err != nil {
			p.wg.Done()
			close(p.tasks)
			p.wg.Wait()
			p.pool.Release()
			return err
		}
	}
	return nil
}

func (p *Pool[R]) worker() {
	defer p.wg.Done()
	for task := range p.tasks {
		value, err := p.fn(task)
		p.results <- Result[R]{Task: task, Value: value, Error: err}
	}
}

func (p *Pool[R]) AddTask(task Task) {
	p.tasks <- task
}

func (p *Pool[R]) Results() <-chan Result[R] {
	return p.results
}

// Close 停止接收任务，等待所有 worker 退出后关闭结果通道
func (p *Pool[R]) Close() {
	close(p.tasks)
	p.wg.Wait()
	if p.pool != nil {
		p.pool.Release()
	}
	close(p.results)
}

// Run 处理全部 tasks 并按 Index 顺序返回结果。onResult 在每个结果到达时
// 在调用方的 goroutine 中执行。
func (p *Pool[R]) Run(tasks []Task, onResult func(done int, r Result[R])) ([]Result[R], error) {
	if err := p.Start(); err != nil {
		return nil, err
	}

	go func() {
		for _, t := range tasks {
			p.AddTask(t)
		}
		p.Close()
	}()

	results := make([]Result[R], 0, len(tasks))
	for r := range p.Results() {
		results = append(results, r)
		if onResult != nil {
			onResult(len(results), r)
		}
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Index < results[j].Index })
	return results, nil
}
