package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Dreamstarlake/EduNexus/internal/calendar"
	"github.com/Dreamstarlake/EduNexus/internal/dto"
)

// CourseInput 课程表单输入（新增与编辑共用，编辑时整表提交）
type CourseInput struct {
	Name       string
	StartTime  string
	EndTime    string
	DayOfWeek  int
	Color      string
	Instructor string
	Location   string
}

// Client 课程服务的同步客户端
//
// 持有 Session 与 Store：每次变更成功后整体重新拉取列表，
// 快照永远与服务端一致。任何请求遇到 401 都会拆除会话并清空快照。
type Client struct {
	baseURL string
	http    *http.Client
	session *Session
	store   *Store
	newID   func() string
	logger  *zap.Logger

	// onSessionEnd 会话因 401 被拆除后回调
	onSessionEnd func()
}

// Option Client 可选项
type Option func(*Client)

// WithHTTPClient 替换底层 http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithIDGenerator 替换课程 ID 生成器
func WithIDGenerator(fn func() string) Option {
	return func(c *Client) { c.newID = fn }
}

// WithLogger 设置日志
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient 创建客户端；baseURL 形如 http://localhost:3000/api
func NewClient(baseURL string, timeout time.Duration, session *Session, store *Store, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		session: session,
		store:   store,
		newID:   NewCourseID,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewCourseID 客户端生成的课程 ID（UUIDv7：时间戳 + 随机位）
func NewCourseID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// OnSessionEnd 注册会话拆除回调
func (c *Client) OnSessionEnd(fn func()) {
	c.onSessionEnd = fn
}

// ═══════════════════════════════════════════════════════════
// 认证
// ═══════════════════════════════════════════════════════════

// Register 注册新用户，不改变登录态
func (c *Client) Register(ctx context.Context, username, password string) (*dto.RegisterResponse, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, validationf("Username and password are required.")
	}
	if len(password) < dto.MinPasswordLength {
		return nil, validationf("Password must be at least %d characters.", dto.MinPasswordLength)
	}

	var out dto.RegisterResponse
	if err := c.do(ctx, http.MethodPost, "/auth/register", false, dto.RegisterRequest{Username: username, Password: password}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Login 登录并加载课程。
// 登录请求失败时不保留任何凭证；登录成功后的加载失败原样返回，凭证保留（401 除外）。
func (c *Client) Login(ctx context.Context, username, password string) error {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return validationf("Username and password are required.")
	}

	var out dto.TokenResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", false, dto.LoginRequest{Username: username, Password: password}, &out); err != nil {
		c.session.Clear()
		c.store.Clear()
		return err
	}
	if out.Token == "" {
		c.session.Clear()
		return &RemoteError{Status: http.StatusOK, Message: "Login response did not include a token"}
	}
	if err := c.session.Set(out.Token); err != nil {
		c.logger.Warn("凭证持久化失败", zap.Error(err))
	}

	return c.LoadCourses(ctx)
}

// Logout 通知服务端吊销凭证（尽力而为），然后清空本地状态
func (c *Client) Logout(ctx context.Context) {
	if c.session.LoggedIn() {
		if err := c.do(ctx, http.MethodPost, "/auth/logout", true, nil, nil); err != nil {
			c.logger.Debug("服务端登出失败", zap.Error(err))
		}
	}
	c.session.Clear()
	c.store.Clear()
}

// ═══════════════════════════════════════════════════════════
// 课程
// ═══════════════════════════════════════════════════════════

// LoadCourses 拉取课程列表并整体替换快照。
// 未登录时不发请求，快照置空；失败时同样置空并返回错误。
func (c *Client) LoadCourses(ctx context.Context) error {
	if !c.session.LoggedIn() {
		c.store.Clear()
		return nil
	}

	var courses []dto.Course
	if err := c.do(ctx, http.MethodGet, "/courses", true, nil, &courses); err != nil {
		c.store.Clear()
		c.logger.Warn("加载课程失败", zap.Error(err))
		return err
	}
	c.store.Replace(courses)
	return nil
}

// CreateCourse 新增课程，ID 在客户端生成
func (c *Client) CreateCourse(ctx context.Context, in CourseInput) (*dto.Course, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	day := in.DayOfWeek
	req := dto.CreateCourseRequest{
		ID:         c.newID(),
		Name:       strings.TrimSpace(in.Name),
		StartTime:  in.StartTime,
		EndTime:    in.EndTime,
		DayOfWeek:  &day,
		Color:      in.Color,
		Instructor: strings.TrimSpace(in.Instructor),
		Location:   strings.TrimSpace(in.Location),
	}

	var created dto.Course
	if err := c.do(ctx, http.MethodPost, "/courses", true, req, &created); err != nil {
		return nil, err
	}
	return &created, c.LoadCourses(ctx)
}

// UpdateCourse 整表提交编辑
func (c *Client) UpdateCourse(ctx context.Context, id string, in CourseInput) (*dto.Course, error) {
	if strings.TrimSpace(id) == "" {
		return nil, validationf("Cannot update: Course ID missing.")
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(in.Name)
	instructor := strings.TrimSpace(in.Instructor)
	location := strings.TrimSpace(in.Location)
	day := in.DayOfWeek
	req := dto.UpdateCourseRequest{
		Name:       &name,
		StartTime:  &in.StartTime,
		EndTime:    &in.EndTime,
		DayOfWeek:  &day,
		Color:      &in.Color,
		Instructor: &instructor,
		Location:   &location,
	}

	var updated dto.Course
	if err := c.do(ctx, http.MethodPut, "/courses/"+url.PathEscape(id), true, req, &updated); err != nil {
		return nil, err
	}
	return &updated, c.LoadCourses(ctx)
}

// DeleteCourse 删除课程
func (c *Client) DeleteCourse(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return validationf("Cannot delete: Course ID missing.")
	}
	if err := c.do(ctx, http.MethodDelete, "/courses/"+url.PathEscape(id), true, nil, nil); err != nil {
		return err
	}
	return c.LoadCourses(ctx)
}

// validate 与表单一致的本地校验
func (in CourseInput) validate() error {
	if strings.TrimSpace(in.Name) == "" || in.StartTime == "" || in.EndTime == "" {
		return validationf("Required fields: Name, Start Time, End Time.")
	}
	if !calendar.ValidClock(in.StartTime) || !calendar.ValidClock(in.EndTime) {
		return validationf("Start and end time must be in HH:MM format.")
	}
	// 定宽补零格式下字典序即时间序
	if in.EndTime <= in.StartTime {
		return validationf("End time must be after start time.")
	}
	if in.DayOfWeek < 0 || in.DayOfWeek > 6 {
		return validationf("Day of week must be between 0 and 6.")
	}
	return nil
}

// ═══════════════════════════════════════════════════════════
// 传输
// ═══════════════════════════════════════════════════════════

// envelope 服务端统一响应；登录/注册接口直接返回业务结构
type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Changes *int64          `json:"changes"`
	Error   string          `json:"error"`
}

// do 发送 JSON 请求。
// authed 为 true 时附带 Bearer 凭证，401 触发会话拆除；
// out 非 nil 时解码响应：信封接口取 data，其余接口解码整个 body。
func (c *Client) do(ctx context.Context, method, path string, authed bool, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("编码请求失败: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return &NetworkError{Op: method + " " + path, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token := c.session.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &NetworkError{Op: method + " " + path, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &NetworkError{Op: method + " " + path, Err: err}
	}

	if resp.StatusCode == http.StatusUnauthorized && authed {
		c.endSession()
		return fmt.Errorf("%s %s: %w", method, path, ErrUnauthorized)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return remoteError(resp.StatusCode, raw)
	}
	if resp.StatusCode == http.StatusNoContent || out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}

	target := raw
	if authed {
		var env envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			return &NetworkError{Op: "decode " + path, Err: err}
		}
		if len(env.Data) == 0 || string(env.Data) == "null" {
			return nil
		}
		target = env.Data
	}
	if err := json.Unmarshal(target, out); err != nil {
		return &NetworkError{Op: "decode " + path, Err: err}
	}
	return nil
}

func (c *Client) endSession() {
	hadSession := c.session.Clear()
	c.store.Clear()
	c.logger.Info("凭证失效，已退出登录")
	if hadSession && c.onSessionEnd != nil {
		c.onSessionEnd()
	}
}

func remoteError(status int, raw []byte) error {
	var env envelope
	_ = json.Unmarshal(raw, &env)
	msg := env.Error
	if msg == "" {
		msg = fmt.Sprintf("HTTP error! Status: %d", status)
	}
	return &RemoteError{Status: status, Code: env.Code, Message: msg}
}
