package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/Dreamstarlake/EduNexus/internal/calendar"
	"github.com/Dreamstarlake/EduNexus/internal/dto"
)

// Options Planner 构造参数，零值字段取默认
type Options struct {
	BaseURL      string
	Timeout      time.Duration
	TokenFile    string
	Window       calendar.DayWindow
	MaxDots      int
	NoticeTTL    time.Duration
	ReminderLead time.Duration
	Notifier     Notifier
	HTTPClient   *http.Client
	Now          func() time.Time
	NewID        func() string
	Logger       *zap.Logger
}

// View 当前视图的渲染结果，Week 与 Month 恰有一个非 nil
type View struct {
	Kind     calendar.ViewKind
	Header   string
	Week     *calendar.WeekView
	Month    *calendar.MonthView
	LoggedIn bool
	Username string
	Notice   *Notice
}

// Planner 课程表客户端门面
//
// 聚合会话、同步客户端、课程快照、视图游标、提醒与提示区。
// 所有操作的错误都会写入提示区，同时原样返回给调用方。
type Planner struct {
	session   *Session
	store     *Store
	client    *Client
	cursor    *calendar.Cursor
	reminders *Reminders
	notices   *Notices
	window    calendar.DayWindow
	maxDots   int
	now       func() time.Time
	logger    *zap.Logger
}

// New 创建 Planner 并恢复已保存的会话（不发请求）
func New(opts Options) (*Planner, error) {
	if opts.BaseURL == "" {
		return nil, errors.New("api base url is required")
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Window.TotalHours() == 0 {
		opts.Window = calendar.DefaultDayWindow
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}

	session, err := NewSession(opts.TokenFile)
	if err != nil {
		return nil, err
	}

	clientOpts := []Option{WithLogger(opts.Logger)}
	if opts.HTTPClient != nil {
		clientOpts = append(clientOpts, WithHTTPClient(opts.HTTPClient))
	}
	if opts.NewID != nil {
		clientOpts = append(clientOpts, WithIDGenerator(opts.NewID))
	}

	store := NewStore()
	p := &Planner{
		session:   session,
		store:     store,
		client:    NewClient(opts.BaseURL, opts.Timeout, session, store, clientOpts...),
		cursor:    calendar.NewCursor(opts.Now()),
		reminders: NewReminders(opts.Notifier, opts.ReminderLead),
		notices:   NewNotices(opts.NoticeTTL),
		window:    opts.Window,
		maxDots:   opts.MaxDots,
		now:       opts.Now,
		logger:    opts.Logger,
	}
	p.client.OnSessionEnd(func() {
		p.reminders.CancelAll()
		p.notices.SessionExpired()
	})
	return p, nil
}

// ═══════════════════════════════════════════════════════════
// 会话
// ═══════════════════════════════════════════════════════════

// Start 已登录时加载课程并安排当天提醒
func (p *Planner) Start(ctx context.Context) error {
	if !p.session.LoggedIn() {
		return nil
	}
	if err := p.client.LoadCourses(ctx); err != nil {
		return p.report(err)
	}
	p.reminders.ScheduleToday(p.store.Snapshot(), p.now())
	return nil
}

func (p *Planner) Register(ctx context.Context, username, password string) error {
	if _, err := p.client.Register(ctx, username, password); err != nil {
		return p.report(err)
	}
	p.notices.Success("Registration successful! Please log in.")
	return nil
}

func (p *Planner) Login(ctx context.Context, username, password string) error {
	if err := p.client.Login(ctx, username, password); err != nil {
		return p.report(err)
	}
	p.reminders.ScheduleToday(p.store.Snapshot(), p.now())
	p.notices.Success("Login successful!")
	return nil
}

// Logout 登出：取消提醒、丢弃凭证、清空快照
func (p *Planner) Logout(ctx context.Context) {
	p.reminders.CancelAll()
	p.client.Logout(ctx)
	p.notices.Success("You have been successfully logged out.")
}

// LoggedIn 是否持有凭证
func (p *Planner) LoggedIn() bool { return p.session.LoggedIn() }

// Username 当前用户名
func (p *Planner) Username() string { return p.session.Username() }

// ═══════════════════════════════════════════════════════════
// 课程
// ═══════════════════════════════════════════════════════════

// Reload 重新拉取课程
func (p *Planner) Reload(ctx context.Context) error {
	if err := p.client.LoadCourses(ctx); err != nil {
		return p.report(err)
	}
	return nil
}

// Courses 当前快照副本
func (p *Planner) Courses() []dto.Course { return p.store.Snapshot() }

// Course 按 ID 查找快照中的课程
func (p *Planner) Course(id string) (dto.Course, bool) { return p.store.Find(id) }

func (p *Planner) AddCourse(ctx context.Context, in CourseInput) (*dto.Course, error) {
	created, err := p.client.CreateCourse(ctx, in)
	if err != nil && created == nil {
		return nil, p.report(err)
	}
	p.notices.Success(fmt.Sprintf("Course %q added!", created.Name))
	if err != nil {
		return created, p.report(err)
	}
	return created, nil
}

func (p *Planner) UpdateCourse(ctx context.Context, id string, in CourseInput) (*dto.Course, error) {
	updated, err := p.client.UpdateCourse(ctx, id, in)
	if err != nil && updated == nil {
		return nil, p.report(err)
	}
	name := updated.Name
	if name == "" {
		name = in.Name
	}
	p.notices.Success(fmt.Sprintf("Course %q updated!", name))
	if err != nil {
		return updated, p.report(err)
	}
	return updated, nil
}

func (p *Planner) DeleteCourse(ctx context.Context, id string) error {
	if err := p.client.DeleteCourse(ctx, id); err != nil {
		return p.report(err)
	}
	p.notices.Success("Course deleted successfully.")
	return nil
}

// ═══════════════════════════════════════════════════════════
// 导航与渲染
// ═══════════════════════════════════════════════════════════

func (p *Planner) NextWeek()  { p.cursor.NextWeek() }
func (p *Planner) PrevWeek()  { p.cursor.PrevWeek() }
func (p *Planner) ThisWeek()  { p.cursor.ThisWeek() }
func (p *Planner) NextMonth() { p.cursor.NextMonth() }
func (p *Planner) PrevMonth() { p.cursor.PrevMonth() }

// SwitchTo 切换视图；进入月视图重置为当月
func (p *Planner) SwitchTo(view calendar.ViewKind) { p.cursor.SwitchTo(view, p.now()) }

// Cursor 当前游标副本
func (p *Planner) Cursor() calendar.Cursor { return *p.cursor }

// Render 基于快照与游标生成当前视图
func (p *Planner) Render() View {
	now := p.now()
	courses := p.store.Snapshot()
	v := View{
		Kind:     p.cursor.Active,
		LoggedIn: p.session.LoggedIn(),
		Username: p.session.Username(),
	}
	if n, ok := p.notices.Current(); ok {
		v.Notice = &n
	}

	if p.cursor.Active == calendar.ViewMonth {
		m := calendar.BuildMonth(courses, p.cursor.Year, p.cursor.Month, now, p.maxDots)
		v.Month, v.Header = &m, m.Header
		return v
	}
	w := calendar.BuildWeek(courses, p.cursor.WeekOffset, now, p.window)
	v.Week, v.Header = &w, w.Header
	return v
}

// Notice 当前提示
func (p *Planner) Notice() (Notice, bool) { return p.notices.Current() }

// Reminders 提醒调度器
func (p *Planner) Reminders() *Reminders { return p.reminders }

// Close 取消全部定时器
func (p *Planner) Close() {
	p.reminders.CancelAll()
	p.notices.Clear()
}

// report 将错误写入提示区；401 的提示已由会话拆除回调给出
func (p *Planner) report(err error) error {
	if errors.Is(err, ErrUnauthorized) {
		p.notices.SessionExpired()
		return err
	}

	var (
		vErr *ValidationError
		rErr *RemoteError
		nErr *NetworkError
	)
	switch {
	case errors.As(err, &vErr):
		p.notices.Error(vErr.Message)
	case errors.As(err, &rErr):
		p.notices.Error(rErr.Message)
	case errors.As(err, &nErr):
		p.logger.Warn("请求失败", zap.Error(err))
		p.notices.Error("Unable to reach the server. Please try again.")
	default:
		p.notices.Error(err.Error())
	}
	return err
}
