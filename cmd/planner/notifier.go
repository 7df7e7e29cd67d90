package main

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
)

var reminderStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(lipgloss.Color("#FFB454")).
	Padding(0, 1)

// terminalNotifier 将课程提醒打印到终端；仅 watch 模式下开启
type terminalNotifier struct {
	mu      sync.Mutex
	out     io.Writer
	enabled *bool
}

func (n *terminalNotifier) Permitted() bool {
	return n.enabled != nil && *n.enabled
}

func (n *terminalNotifier) Notify(title, body string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	stamp := time.Now().Format("15:04")
	fmt.Fprintln(n.out, reminderStyle.Render(fmt.Sprintf("%s  %s\n%s", stamp, lipgloss.NewStyle().Bold(true).Render(title), body)))
}
