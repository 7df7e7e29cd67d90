package client

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Dreamstarlake/EduNexus/config"
	"github.com/Dreamstarlake/EduNexus/internal/dto"
	"github.com/Dreamstarlake/EduNexus/pkg/jwt"
	"github.com/Dreamstarlake/EduNexus/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeServer 内存版课程服务，接口形状与真实服务一致
type fakeServer struct {
	srv *httptest.Server
	jwt *jwt.Manager

	mu       sync.Mutex
	users    map[string]string // username → password
	courses  map[string][]dto.Course
	requests int64
	// rejectAll 为 true 时所有需认证接口返回 401
	rejectAll atomic.Bool
	logouts   int
}

func newFakeServer(t *testing.T) *fakeServer {
	t.Helper()
	f := &fakeServer{
		jwt:     jwt.NewManager(&config.AuthConfig{JWTSecret: "fake-server-secret-2026", TokenTTL: time.Hour}),
		users:   map[string]string{"alice": "secret1"},
		courses: map[string][]dto.Course{},
	}

	r := gin.New()
	r.Use(func(c *gin.Context) {
		atomic.AddInt64(&f.requests, 1)
		c.Next()
	})
	api := r.Group("/api")
	api.POST("/auth/register", f.register)
	api.POST("/auth/login", f.login)

	authed := api.Group("", f.auth)
	authed.POST("/auth/logout", func(c *gin.Context) {
		f.mu.Lock()
		f.logouts++
		f.mu.Unlock()
		c.Status(http.StatusNoContent)
	})
	authed.GET("/courses", f.list)
	authed.POST("/courses", f.create)
	authed.PUT("/courses/:id", f.update)
	authed.DELETE("/courses/:id", f.remove)
	api.GET("/broken", func(c *gin.Context) { c.String(http.StatusBadGateway, "<html>bad gateway</html>") })

	f.srv = httptest.NewServer(r)
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeServer) baseURL() string { return f.srv.URL + "/api" }

func (f *fakeServer) requestCount() int64 { return atomic.LoadInt64(&f.requests) }

func (f *fakeServer) auth(c *gin.Context) {
	if f.rejectAll.Load() {
		response.Unauthorized(c, 10002, "Token is not valid")
		c.Abort()
		return
	}
	h := c.GetHeader("Authorization")
	claims, err := f.jwt.ParseToken(strings.TrimPrefix(h, "Bearer "))
	if !strings.HasPrefix(h, "Bearer ") || err != nil {
		response.Unauthorized(c, 10002, "Token is not valid")
		c.Abort()
		return
	}
	c.Set("user", claims.Username)
	c.Next()
}

func (f *fakeServer) register(c *gin.Context) {
	var req dto.RegisterRequest
	_ = c.ShouldBindJSON(&req)

	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[req.Username]; ok {
		response.BadRequest(c, 11003, "Username already exists")
		return
	}
	f.users[req.Username] = req.Password
	c.JSON(http.StatusCreated, dto.RegisterResponse{Message: "User registered successfully", UserID: "u-" + req.Username})
}

func (f *fakeServer) login(c *gin.Context) {
	var req dto.LoginRequest
	_ = c.ShouldBindJSON(&req)

	f.mu.Lock()
	pw, ok := f.users[req.Username]
	f.mu.Unlock()
	if !ok || pw != req.Password {
		response.BadRequest(c, 11004, "Invalid credentials")
		return
	}
	token, _ := f.jwt.GenerateToken("u-"+req.Username, req.Username)
	c.JSON(http.StatusOK, dto.TokenResponse{Token: token, Message: "Login successful", ExpiresIn: 3600})
}

func (f *fakeServer) list(c *gin.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := append([]dto.Course{}, f.courses[c.GetString("user")]...)
	response.OK(c, out)
}

func (f *fakeServer) create(c *gin.Context) {
	var req dto.CreateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.ID == "" || req.DayOfWeek == nil {
		response.BadRequest(c, 12001, "Client-generated ID is required")
		return
	}
	user := c.GetString("user")
	course := dto.Course{
		ID: req.ID, Name: req.Name, StartTime: req.StartTime, EndTime: req.EndTime,
		DayOfWeek: *req.DayOfWeek, Color: req.Color, Instructor: req.Instructor,
		Location: req.Location, UserID: "u-" + user,
	}
	if course.Color == "" {
		course.Color = dto.DefaultCourseColor
	}

	f.mu.Lock()
	f.courses[user] = append(f.courses[user], course)
	f.mu.Unlock()
	response.Created(c, course)
}

func (f *fakeServer) update(c *gin.Context) {
	var req dto.UpdateCourseRequest
	_ = c.ShouldBindJSON(&req)
	user, id := c.GetString("user"), c.Param("id")

	f.mu.Lock()
	defer f.mu.Unlock()
	for i, course := range f.courses[user] {
		if course.ID != id {
			continue
		}
		if req.Name != nil {
			course.Name = *req.Name
		}
		if req.StartTime != nil {
			course.StartTime = *req.StartTime
		}
		if req.EndTime != nil {
			course.EndTime = *req.EndTime
		}
		if req.DayOfWeek != nil {
			course.DayOfWeek = *req.DayOfWeek
		}
		f.courses[user][i] = course
		response.WithChanges(c, http.StatusOK, "success", course, 1)
		return
	}
	response.NotFound(c, 12003, "Course not found or not authorized to update.")
}

func (f *fakeServer) remove(c *gin.Context) {
	user, id := c.GetString("user"), c.Param("id")

	f.mu.Lock()
	defer f.mu.Unlock()
	list := f.courses[user]
	for i, course := range list {
		if course.ID == id {
			f.courses[user] = append(list[:i:i], list[i+1:]...)
			response.WithChanges(c, http.StatusOK, "deleted", nil, 1)
			return
		}
	}
	response.NotFound(c, 12003, "Course not found or not authorized to delete.")
}

// ── 测试替身 ──

// fakeTimer 记录定时任务，由测试手动触发
type fakeTimer struct {
	d       time.Duration
	fn      func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

func (t *fakeTimer) fire() {
	if !t.stopped {
		t.fn()
	}
}

type fakeScheduler struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

func (s *fakeScheduler) after(d time.Duration, fn func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &fakeTimer{d: d, fn: fn}
	s.timers = append(s.timers, t)
	return t
}

func (s *fakeScheduler) last() *fakeTimer {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.timers) == 0 {
		return nil
	}
	return s.timers[len(s.timers)-1]
}

type fakeNotifier struct {
	mu      sync.Mutex
	allowed bool
	sent    []string
}

func (n *fakeNotifier) Permitted() bool { return n.allowed }

func (n *fakeNotifier) Notify(title, body string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, title+" | "+body)
}
