package progress

import (
	"fmt"
	"io"
	"time"

	bubbleprogress "github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/moyu-x/image-manager/internal"
	"github.com/moyu-x/image-manager/pkg/logger"
)

const CompletedMessage = "Operation completed"

const barWidth = 20

var (
	spinnerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	messageStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	doneStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true)
)

// Monitor 在后台按固定间隔读取 Handle 并刷新一行状态。
// 它从不写 Handle，也从不阻塞工作方。
type Monitor struct {
	handle   *Handle
	out      *termenv.Output
	interval time.Duration
	finished chan struct{}
	spinner  spinner.Model
	bar      bubbleprogress.Model
	frames   int
}

// StartMonitor 启动监视器，调用方必须在输出结果前调用 Wait
func StartMonitor(h *Handle, out io.Writer, interval time.Duration, initialMessage string) *Monitor {
	if interval <= 0 {
		interval = internal.DefaultProgressInterval
	}

	m := &Monitor{
		handle:   h,
		out:      termenv.NewOutput(out),
		interval: interval,
		finished: make(chan struct{}),
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(spinnerStyle)),
		bar: bubbleprogress.New(
			bubbleprogress.WithDefaultGradient(),
			bubbleprogress.WithWidth(barWidth),
			bubbleprogress.WithoutPercentage(),
		),
	}

	go m.run(initialMessage)
	return m
}

func (m *Monitor) run(initialMessage string) {
	defer close(m.finished)

	logger.Get().Debug().Dur("interval", m.interval).Msg("启动进度监视")

	if initialMessage != "" && !m.handle.IsComplete() {
		m.draw(initialMessage, 0)
	}

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.handle.Done():
			m.finish()
			return
		case <-ticker.C:
			snap := m.handle.Snapshot()
			if snap.Complete {
				m.finish()
				return
			}
			m.draw(Render(snap), percentOf(snap))
		}
	}
}

// draw 推进一帧 spinner 并重绘状态行，pct 取值 0 到 1
func (m *Monitor) draw(msg string, pct float64) {
	m.spinner, _ = m.spinner.Update(spinner.TickMsg{ID: m.spinner.ID(), Time: time.Now()})
	m.frames++

	m.out.ClearLine()
	fmt.Fprintf(m.out, "\r%s %s %s", m.spinner.View(), m.bar.ViewAs(pct), messageStyle.Render(msg))
}

func (m *Monitor) finish() {
	m.out.ClearLine()
	fmt.Fprintf(m.out, "\r%s\n", doneStyle.Render(CompletedMessage))
	logger.Get().Debug().Int("frames", m.frames).Msg("进度监视结束")
}

// Wait 阻塞直到监视器输出最后一行并退出
func (m *Monitor) Wait() {
	<-m.finished
}

func percentOf(s Snapshot) float64 {
	if s.Percentage == nil {
		return 0
	}
	return *s.Percentage / 100
}

// Render 生成状态行："{phase}: {percentage}% - {current item}"
func Render(s Snapshot) string {
	pct := 0.0
	if s.Percentage != nil {
		pct = *s.Percentage
	}
	item := s.CurrentItem
	if item == "" {
		item = "processing..."
	}
	return fmt.Sprintf("%s: %.1f%% - %s", s.Phase, pct, item)
}
