package progress

import "sync"

// Phase 长时间操作当前所处的阶段
type Phase int

const (
	PhaseInitializing Phase = iota
	PhaseScanning
	PhaseHashing
	PhaseComparing
	PhaseOrganizing
	PhaseCopying
)

func (p Phase) String() string {
	switch p {
	case PhaseInitializing:
		return "Initializing"
	case PhaseScanning:
		return "Scanning"
	case PhaseHashing:
		return "Hashing"
	case PhaseComparing:
		return "Comparing"
	case PhaseOrganizing:
		return "Organizing"
	case PhaseCopying:
		return "Copying"
	default:
		return "Processing"
	}
}

// Snapshot 进度的一次完整快照，发布后不再修改
type Snapshot struct {
	Phase       Phase
	Percentage  *float64 // nil 表示总量未知
	CurrentItem string   // 空字符串表示没有当前条目
	Complete    bool
}

// Handle 在工作方（写）和监视器（读）之间共享的进度句柄。
// 写入方每次整体替换快照，读取方总能看到一致的状态。
type Handle struct {
	mu   sync.RWMutex
	snap Snapshot
	done chan struct{}
	once sync.Once
}

func NewHandle() *Handle {
	return &Handle{
		done: make(chan struct{}),
	}
}

// Update 基于当前快照生成新快照并替换。完成之后的更新被忽略。
func (h *Handle) Update(fn func(s *Snapshot)) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.snap.Complete {
		return
	}

	next := h.snap
	fn(&next)
	// complete 只能通过 Complete() 设置
	next.Complete = false
	h.snap = next
}

// SetPhase 切换阶段，同时清空百分比
func (h *Handle) SetPhase(phase Phase) {
	h.Update(func(s *Snapshot) {
		s.Phase = phase
		s.Percentage = nil
	})
}

// SetPercentage 设置百分比，超出 [0,100] 的值会被截断
func (h *Handle) SetPercentage(pct float64) {
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	h.Update(func(s *Snapshot) {
		s.Percentage = &pct
	})
}

// SetProgress 按已完成数量和总数更新百分比与当前条目
func (h *Handle) SetProgress(done, total int, item string) {
	h.Update(func(s *Snapshot) {
		if total > 0 {
			pct := float64(done) / float64(total) * 100
			if pct > 100 {
				pct = 100
			}
			s.Percentage = &pct
		}
		s.CurrentItem = item
	})
}

func (h *Handle) SetCurrentItem(item string) {
	h.Update(func(s *Snapshot) {
		s.CurrentItem = item
	})
}

// Complete 标记操作结束，可以重复调用
func (h *Handle) Complete() {
	h.once.Do(func() {
		h.mu.Lock()
		h.snap.Complete = true
		h.mu.Unlock()
		close(h.done)
	})
}

func (h *Handle) IsComplete() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.snap.Complete
}

// Done 在 Complete 被调用后关闭
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

func (h *Handle) Snapshot() Snapshot {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.snap
}
