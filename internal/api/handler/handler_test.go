package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Dreamstarlake/EduNexus/internal/api/middleware"
	"github.com/Dreamstarlake/EduNexus/internal/dto"
	"github.com/Dreamstarlake/EduNexus/internal/service"
	"github.com/Dreamstarlake/EduNexus/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ═══════════════════════════════════════════════════════════
// Mock Services
// ═══════════════════════════════════════════════════════════

// ── Mock AuthService ──

type mockAuthService struct {
	registerResult *dto.RegisterResponse
	registerErr    error
	loginResult    *dto.TokenResponse
	loginErr       error
	logoutErr      error
	logoutJTI      string
}

func (m *mockAuthService) Register(_ context.Context, _ *dto.RegisterRequest) (*dto.RegisterResponse, error) {
	return m.registerResult, m.registerErr
}
func (m *mockAuthService) Login(_ context.Context, _ *dto.LoginRequest) (*dto.TokenResponse, error) {
	return m.loginResult, m.loginErr
}
func (m *mockAuthService) Logout(_ context.Context, jti string, _ time.Time) error {
	m.logoutJTI = jti
	return m.logoutErr
}

// ── Mock CourseService ──

type mockCourseService struct {
	listResult   []dto.Course
	listErr      error
	createResult *dto.Course
	createErr    error
	updateResult *dto.Course
	updateErr    error
	deleteErr    error
	importResult *dto.ImportResult
	importErr    error
	exportData   []byte
	exportErr    error

	lastUserID string
	lastID     string
}

func (m *mockCourseService) List(_ context.Context, userID string) ([]dto.Course, error) {
	m.lastUserID = userID
	return m.listResult, m.listErr
}
func (m *mockCourseService) Create(_ context.Context, userID string, _ *dto.CreateCourseRequest) (*dto.Course, error) {
	m.lastUserID = userID
	return m.createResult, m.createErr
}
func (m *mockCourseService) Update(_ context.Context, userID, id string, _ *dto.UpdateCourseRequest) (*dto.Course, int64, error) {
	m.lastUserID, m.lastID = userID, id
	if m.updateErr != nil {
		return nil, 0, m.updateErr
	}
	return m.updateResult, 1, nil
}
func (m *mockCourseService) Delete(_ context.Context, userID, id string) (int64, error) {
	m.lastUserID, m.lastID = userID, id
	if m.deleteErr != nil {
		return 0, m.deleteErr
	}
	return 1, nil
}
func (m *mockCourseService) ImportICS(_ context.Context, userID string, r io.Reader) (*dto.ImportResult, error) {
	m.lastUserID = userID
	_, _ = io.ReadAll(r)
	return m.importResult, m.importErr
}
func (m *mockCourseService) ExportICS(_ context.Context, _ string, _ time.Time) ([]byte, error) {
	return m.exportData, m.exportErr
}

// ── Mock ExportService ──

type mockExportService struct {
	buf        *bytes.Buffer
	filename   string
	err        error
	lastOffset int
}

func (m *mockExportService) ExportWeek(_ context.Context, _ string, weekOffset int, _ time.Time) (*bytes.Buffer, string, error) {
	m.lastOffset = weekOffset
	return m.buf, m.filename, m.err
}

// ═══════════════════════════════════════════════════════════
// Test Helpers
// ═══════════════════════════════════════════════════════════

var fixedNow = func() time.Time { return time.Date(2026, time.October, 17, 12, 0, 0, 0, time.UTC) }

// fakeAuth 模拟 JWTAuth 注入的上下文
func fakeAuth(c *gin.Context) {
	c.Set(middleware.CtxUserID, "test-user-id")
	c.Set(middleware.CtxUsername, "alice")
	c.Set(middleware.CtxTokenID, "test-jti")
	c.Set(middleware.CtxTokenExp, time.Now().Add(15*time.Minute))
	c.Next()
}

func newCourseRouter(h *CourseHandler) *gin.Engine {
	r := gin.New()
	g := r.Group("/api/courses", fakeAuth)
	g.GET("", h.ListCourses)
	g.POST("", h.CreateCourse)
	g.PUT("/:id", h.UpdateCourse)
	g.DELETE("/:id", h.DeleteCourse)
	g.POST("/import", h.ImportICS)
	g.GET("/export.ics", h.ExportICS)
	return r
}

func jsonBody(v interface{}) io.Reader {
	b, _ := json.Marshal(v)
	return bytes.NewReader(b)
}

func doJSON(r http.Handler, method, path string, body io.Reader) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func parseResponse(w *httptest.ResponseRecorder) response.Response {
	var resp response.Response
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return resp
}

// ═══════════════════════════════════════════════════════════
// AuthHandler Tests
// ═══════════════════════════════════════════════════════════

func TestAuthHandler_Register_Success(t *testing.T) {
	mock := &mockAuthService{registerResult: &dto.RegisterResponse{Message: "User registered successfully", UserID: "u1"}}
	h := NewAuthHandler(mock)

	r := gin.New()
	r.POST("/auth/register", h.Register)
	w := doJSON(r, http.MethodPost, "/auth/register", jsonBody(dto.RegisterRequest{Username: "alice", Password: "secret1"}))

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", w.Code)
	}
	var body dto.RegisterResponse
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	if body.UserID != "u1" || body.Message != "User registered successfully" {
		t.Errorf("unexpected body: %s", w.Body.String())
	}
}

func TestAuthHandler_Register_Errors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"密码过短", service.ErrPasswordTooShort, 11002},
		{"用户名已存在", service.ErrUsernameTaken, 11003},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewAuthHandler(&mockAuthService{registerErr: tt.err})
			r := gin.New()
			r.POST("/auth/register", h.Register)
			w := doJSON(r, http.MethodPost, "/auth/register", jsonBody(dto.RegisterRequest{Username: "alice", Password: "x"}))

			if w.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", w.Code)
			}
			resp := parseResponse(w)
			if resp.Code != tt.code || resp.Error != tt.err.Error() {
				t.Errorf("expected code=%d error=%q, got %+v", tt.code, tt.err.Error(), resp)
			}
		})
	}
}

func TestAuthHandler_Register_MissingFields(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{})
	r := gin.New()
	r.POST("/auth/register", h.Register)
	w := doJSON(r, http.MethodPost, "/auth/register", strings.NewReader(`{"username":"alice"}`))

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
	if resp := parseResponse(w); resp.Error != "Username and password are required" {
		t.Errorf("unexpected error: %q", resp.Error)
	}
}

func TestAuthHandler_Login_Success(t *testing.T) {
	mock := &mockAuthService{loginResult: &dto.TokenResponse{Token: "tok", Message: "Login successful", ExpiresIn: 3600}}
	h := NewAuthHandler(mock)

	r := gin.New()
	r.POST("/auth/login", h.Login)
	w := doJSON(r, http.MethodPost, "/auth/login", jsonBody(dto.LoginRequest{Username: "alice", Password: "secret1"}))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var body dto.TokenResponse
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	if body.Token != "tok" || body.Message != "Login successful" {
		t.Errorf("unexpected body: %s", w.Body.String())
	}
}

func TestAuthHandler_Login_BadJSON(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{})
	r := gin.New()
	r.POST("/auth/login", h.Login)
	w := doJSON(r, http.MethodPost, "/auth/login", strings.NewReader("invalid json"))

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{loginErr: service.ErrInvalidCredentials})
	r := gin.New()
	r.POST("/auth/login", h.Login)
	w := doJSON(r, http.MethodPost, "/auth/login", jsonBody(dto.LoginRequest{Username: "alice", Password: "wrong"}))

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
	resp := parseResponse(w)
	if resp.Code != 11004 || resp.Error != "Invalid credentials" {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestAuthHandler_Logout_PassesJTI(t *testing.T) {
	mock := &mockAuthService{}
	h := NewAuthHandler(mock)
	r := gin.New()
	r.POST("/auth/logout", fakeAuth, h.Logout)
	w := doJSON(r, http.MethodPost, "/auth/logout", nil)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	if mock.logoutJTI != "test-jti" {
		t.Errorf("expected jti test-jti, got %q", mock.logoutJTI)
	}
}

func TestAuthHandler_Me(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{})
	r := gin.New()
	r.GET("/auth/me", fakeAuth, h.Me)
	r.GET("/auth/anon", h.Me)

	w := doJSON(r, http.MethodGet, "/auth/me", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"username":"alice"`) {
		t.Errorf("unexpected response %d: %s", w.Code, w.Body.String())
	}

	w = doJSON(r, http.MethodGet, "/auth/anon", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without auth context, got %d", w.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// CourseHandler Tests
// ═══════════════════════════════════════════════════════════

func TestCourseHandler_List(t *testing.T) {
	mock := &mockCourseService{listResult: []dto.Course{{ID: "c1", Name: "Algorithms"}}}
	r := newCourseRouter(NewCourseHandler(mock, fixedNow))

	w := doJSON(r, http.MethodGet, "/api/courses", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if mock.lastUserID != "test-user-id" {
		t.Errorf("list should be scoped to caller, got %q", mock.lastUserID)
	}
	resp := parseResponse(w)
	if resp.Message != "success" {
		t.Errorf("expected message success, got %q", resp.Message)
	}
	if !strings.Contains(w.Body.String(), `"data":[{"id":"c1"`) {
		t.Errorf("unexpected body: %s", w.Body.String())
	}
}

func TestCourseHandler_Create(t *testing.T) {
	mock := &mockCourseService{createResult: &dto.Course{ID: "c1", Name: "Algorithms", Color: dto.DefaultCourseColor}}
	r := newCourseRouter(NewCourseHandler(mock, fixedNow))

	w := doJSON(r, http.MethodPost, "/api/courses", strings.NewReader(`{"id":"c1","name":"Algorithms","startTime":"09:00","endTime":"10:30","dayOfWeek":2}`))
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"color":"#4A90E2"`) {
		t.Errorf("unexpected body: %s", w.Body.String())
	}
}

func TestCourseHandler_Create_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   int
	}{
		{"缺少字段", &service.ValidationError{Problems: []string{"Name is required"}}, http.StatusBadRequest, 12001},
		{"时间倒挂", service.ErrInvalidTimeRange, http.StatusBadRequest, 12002},
		{"重复 ID", service.ErrCourseExists, http.StatusConflict, 12004},
		{"未知错误", io.ErrUnexpectedEOF, http.StatusInternalServerError, 50000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockCourseService{createErr: tt.err}
			r := newCourseRouter(NewCourseHandler(mock, fixedNow))
			w := doJSON(r, http.MethodPost, "/api/courses", strings.NewReader(`{}`))
			if w.Code != tt.status {
				t.Errorf("expected %d, got %d", tt.status, w.Code)
			}
			if resp := parseResponse(w); resp.Code != tt.code || resp.Error == "" {
				t.Errorf("unexpected response: %+v", resp)
			}
		})
	}
}

func TestCourseHandler_Update(t *testing.T) {
	mock := &mockCourseService{updateResult: &dto.Course{ID: "c1", Name: "Renamed"}}
	r := newCourseRouter(NewCourseHandler(mock, fixedNow))

	w := doJSON(r, http.MethodPut, "/api/courses/c1", strings.NewReader(`{"name":"Renamed"}`))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if mock.lastID != "c1" {
		t.Errorf("expected id c1, got %q", mock.lastID)
	}
	resp := parseResponse(w)
	if resp.Changes == nil || *resp.Changes != 1 {
		t.Errorf("expected changes=1, got %v", resp.Changes)
	}
}

func TestCourseHandler_Update_NotFound(t *testing.T) {
	mock := &mockCourseService{updateErr: service.ErrCourseNotFound}
	r := newCourseRouter(NewCourseHandler(mock, fixedNow))

	w := doJSON(r, http.MethodPut, "/api/courses/missing", strings.NewReader(`{}`))
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
	if resp := parseResponse(w); resp.Error != "Course not found or not authorized to update." {
		t.Errorf("unexpected error: %q", resp.Error)
	}
}

func TestCourseHandler_Delete(t *testing.T) {
	mock := &mockCourseService{}
	r := newCourseRouter(NewCourseHandler(mock, fixedNow))

	w := doJSON(r, http.MethodDelete, "/api/courses/c1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	resp := parseResponse(w)
	if resp.Message != "deleted" || resp.Changes == nil || *resp.Changes != 1 {
		t.Errorf("unexpected response: %+v", resp)
	}

	mock.deleteErr = service.ErrCourseNotFound
	w = doJSON(r, http.MethodDelete, "/api/courses/c1", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 on second delete, got %d", w.Code)
	}
	if resp := parseResponse(w); resp.Error != "Course not found or not authorized to delete." {
		t.Errorf("unexpected error: %q", resp.Error)
	}
}

func TestCourseHandler_ImportICS(t *testing.T) {
	mock := &mockCourseService{importResult: &dto.ImportResult{Courses: []dto.Course{{ID: "a"}, {ID: "b"}}}}
	r := newCourseRouter(NewCourseHandler(mock, fixedNow))

	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	part, _ := mw.CreateFormFile("file", "courses.ics")
	_, _ = part.Write([]byte("BEGIN:VCALENDAR\r\nEND:VCALENDAR\r\n"))
	_ = mw.Close()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/courses/import", body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	if resp := parseResponse(w); resp.Changes == nil || *resp.Changes != 2 {
		t.Errorf("expected changes=2, got %+v", resp)
	}
}

func TestCourseHandler_ImportICS_MissingFile(t *testing.T) {
	r := newCourseRouter(NewCourseHandler(&mockCourseService{}, fixedNow))
	w := doJSON(r, http.MethodPost, "/api/courses/import", strings.NewReader(`{}`))
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestCourseHandler_ExportICS(t *testing.T) {
	mock := &mockCourseService{exportData: []byte("BEGIN:VCALENDAR\r\nEND:VCALENDAR\r\n")}
	r := newCourseRouter(NewCourseHandler(mock, fixedNow))

	w := doJSON(r, http.MethodGet, "/api/courses/export.ics", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/calendar") {
		t.Errorf("unexpected content type %q", ct)
	}
}

// ═══════════════════════════════════════════════════════════
// ExportHandler Tests
// ═══════════════════════════════════════════════════════════

func TestExportHandler_ExportWeek(t *testing.T) {
	mock := &mockExportService{buf: bytes.NewBufferString("xlsx"), filename: "courses_2026-10-11.xlsx"}
	h := NewExportHandler(mock, fixedNow)
	r := gin.New()
	r.GET("/export.xlsx", fakeAuth, h.ExportWeek)

	w := doJSON(r, http.MethodGet, "/export.xlsx?week=-2", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if mock.lastOffset != -2 {
		t.Errorf("expected offset -2, got %d", mock.lastOffset)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "courses_2026-10-11.xlsx") {
		t.Errorf("unexpected disposition %q", cd)
	}
}

func TestExportHandler_ExportWeek_BadOffset(t *testing.T) {
	h := NewExportHandler(&mockExportService{}, fixedNow)
	r := gin.New()
	r.GET("/export.xlsx", fakeAuth, h.ExportWeek)

	w := doJSON(r, http.MethodGet, "/export.xlsx?week=abc", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}
