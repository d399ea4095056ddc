package health

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/spf13/viper"

	"github.com/vitaplus/vitabot/internal/notify"
)

// CheckFunc проверка одной зависимости. Возвращает ошибку при недоступности.
type CheckFunc func(ctx context.Context) error

// ComponentStatus результат проверки одной зависимости.
type ComponentStatus struct {
	Name    string        `json:"name"`
	Healthy bool          `json:"healthy"`
	Latency time.Duration `json:"latency"`
	Error   string        `json:"error,omitempty"`
}

// Status агрегированное состояние всех зависимостей.
type Status struct {
	Healthy    bool              `json:"healthy"`
	Components []ComponentStatus `json:"components"`
	CheckedAt  time.Time         `json:"checked_at"`
}

// Monitor периодически проверяет зависимости и уведомляет администраторов
// о деградации и восстановлении.
type Monitor struct {
	mu       sync.Mutex
	checks   map[string]CheckFunc
	notifier *notify.Notifier
	interval time.Duration

	lastHealthy bool
	hasBaseline bool
	lastStatus  Status
}

// NewMonitor собирает монитор с интервалом из health.check_interval (секунды).
func NewMonitor(notifier *notify.Notifier) *Monitor {
	interval := time.Duration(viper.GetInt("health.check_interval")) * time.Second
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Monitor{
		checks:   make(map[string]CheckFunc),
		notifier: notifier,
		interval: interval,
	}
}

// Register добавляет проверку зависимости под именем.
func (m *Monitor) Register(name string, check CheckFunc) {
	m.mu.Lock()
	m.checks[name] = check
	m.mu.Unlock()
}

// Check прогоняет все проверки и возвращает агрегированный статус.
func (m *Monitor) Check(ctx context.Context) Status {
	m.mu.Lock()
	names := make([]string, 0, len(m.checks))
	for name := range m.checks {
		names = append(names, name)
	}
	checks := make(map[string]CheckFunc, len(m.checks))
	for name, fn := range m.checks {
		checks[name] = fn
	}
	m.mu.Unlock()
	sort.Strings(names)

	status := Status{Healthy: true, CheckedAt: time.Now().UTC()}
	for _, name := range names {
		component := ComponentStatus{Name: name, Healthy: true}

		checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		start := time.Now()
		err := checks[name](checkCtx)
		component.Latency = time.Since(start)
		cancel()

		if err != nil {
			component.Healthy = false
			component.Error = err.Error()
			status.Healthy = false
			log.Printf("Проверка %s не пройдена за %s: %v", name, component.Latency, err)
		}
		status.Components = append(status.Components, component)
	}

	m.mu.Lock()
	m.lastStatus = status
	m.mu.Unlock()
	return status
}

// LastStatus последний вычисленный статус.
func (m *Monitor) LastStatus() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastStatus
}

// Run периодически выполняет проверки до отмены ctx.
// Администраторы уведомляются при смене состояния: деградация и восстановление.
func (m *Monitor) Run(ctx context.Context) {
	log.Printf("Монитор состояния запущен с интервалом %s", m.interval)
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.runOnce(ctx)
		}
	}
}

func (m *Monitor) runOnce(ctx context.Context) {
	status := m.Check(ctx)

	m.mu.Lock()
	changed := !m.hasBaseline || m.lastHealthy != status.Healthy
	m.hasBaseline = true
	m.lastHealthy = status.Healthy
	m.mu.Unlock()

	if !changed || m.notifier == nil {
		return
	}

	if status.Healthy {
		m.notifier.NotifyAdmins(ctx, notify.FormatHealthCheck("ru"))
		return
	}
	m.notifier.NotifyAdmins(ctx, notify.FormatHealthCheckFailed("ru", describeFailures(status)))
}

func describeFailures(status Status) string {
	out := ""
	for _, c := range status.Components {
		if c.Healthy {
			continue
		}
		if out != "" {
			out += "; "
		}
		out += fmt.Sprintf("%s: %s", c.Name, c.Error)
	}
	return out
}
