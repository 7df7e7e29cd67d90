package client

import (
	"sync"
	"time"
)

// DefaultNoticeTTL 提示自动清除时间
const DefaultNoticeTTL = 3 * time.Second

// NoticeKind 提示类型
type NoticeKind string

const (
	NoticeInfo    NoticeKind = "info"
	NoticeSuccess NoticeKind = "success"
	NoticeError   NoticeKind = "error"
)

// Notice 一条提示
type Notice struct {
	Kind NoticeKind
	Text string
}

// Notices 单条提示区，显示后 ttl 自动清除。
//
// 会话过期提示显示期间：重复的过期提示与其他错误都不会覆盖它，
// 多个并发请求同时 401 也只显示一次。
type Notices struct {
	mu       sync.Mutex
	ttl      time.Duration
	after    func(time.Duration, func()) Timer
	current  *Notice
	expired  bool
	gen      uint64
	clearing Timer
}

// NewNotices 创建提示区；ttl<=0 时使用默认 3 秒
func NewNotices(ttl time.Duration) *Notices {
	if ttl <= 0 {
		ttl = DefaultNoticeTTL
	}
	return &Notices{
		ttl: ttl,
		after: func(d time.Duration, f func()) Timer {
			return time.AfterFunc(d, f)
		},
	}
}

func (n *Notices) Info(text string)    { n.show(NoticeInfo, text, false) }
func (n *Notices) Success(text string) { n.show(NoticeSuccess, text, false) }

// Error 显示错误；会话过期提示在显示中时忽略
func (n *Notices) Error(text string) { n.show(NoticeError, text, false) }

// SessionExpired 显示会话过期提示，显示期间重复调用无效
func (n *Notices) SessionExpired() { n.show(NoticeError, SessionExpiredMessage, true) }

func (n *Notices) show(kind NoticeKind, text string, sessionExpired bool) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.expired && n.current != nil && kind == NoticeError {
		return
	}

	if n.clearing != nil {
		n.clearing.Stop()
	}
	n.gen++
	gen := n.gen
	n.current = &Notice{Kind: kind, Text: text}
	n.expired = sessionExpired
	n.clearing = n.after(n.ttl, func() { n.clearIf(gen) })
}

// clearIf 仅清除仍是同一代的提示，避免旧定时器清掉新消息
func (n *Notices) clearIf(gen uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.gen == gen {
		n.current = nil
		n.expired = false
		n.clearing = nil
	}
}

// Current 当前提示
func (n *Notices) Current() (Notice, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.current == nil {
		return Notice{}, false
	}
	return *n.current, true
}

// Clear 立即清除
func (n *Notices) Clear() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.clearing != nil {
		n.clearing.Stop()
	}
	n.gen++
	n.current = nil
	n.expired = false
	n.clearing = nil
}
