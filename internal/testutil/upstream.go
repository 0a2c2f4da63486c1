// Package testutil 提供测试共用的上游下载桩服务。
package testutil

import (
	"net"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v3"
)

// Route 描述桩服务上某个路径的响应行为。
type Route struct {
	Body []byte
	// Filename 非空时通过 Content-Disposition 返回附件名。
	Filename string
	// FailTimes 表示前 N 次请求直接返回 FailStatus（默认 503）。
	FailTimes  int
	FailStatus int
	// Status 非 0 时所有请求都返回该状态码，不带正文。
	Status int
}

// Upstream 是基于 fiber 的本地 HTTP 桩，记录每个路径的请求次数。
type Upstream struct {
	URL string

	app      *fiber.App
	listener net.Listener

	mu     sync.Mutex
	routes map[string]*Route
	hits   map[string]int
}

// NewUpstream 在 127.0.0.1 的随机端口上启动桩服务，并在测试结束时关闭。
func NewUpstream(t testing.TB) *Upstream {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Skipf("unable to start stub listener: %v", err)
	}

	u := &Upstream{
		URL:      "http://" + listener.Addr().String(),
		listener: listener,
		routes:   make(map[string]*Route),
		hits:     make(map[string]int),
	}
	u.app = fiber.New()
	u.app.Use(u.handle)

	go func() {
		_ = u.app.Listener(listener, fiber.ListenConfig{DisableStartupMessage: true})
	}()

	t.Cleanup(u.Close)
	return u
}

// Serve 注册（或替换）一个路径的响应。
func (u *Upstream) Serve(path string, route Route) {
	u.mu.Lock()
	defer u.mu.Unlock()
	r := route
	u.routes[path] = &r
}

// SetStatus 将路径切换为固定状态码响应。
func (u *Upstream) SetStatus(path string, status int) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if r, ok := u.routes[path]; ok {
		r.Status = status
		return
	}
	u.routes[path] = &Route{Status: status}
}

// Requests 返回路径累计收到的请求数。
func (u *Upstream) Requests(path string) int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.hits[path]
}

// Close 关闭桩服务。
func (u *Upstream) Close() {
	if u.app != nil {
		_ = u.app.Shutdown()
	}
	if u.listener != nil {
		_ = u.listener.Close()
	}
}

func (u *Upstream) handle(c fiber.Ctx) error {
	path := c.Path()

	u.mu.Lock()
	u.hits[path]++
	hit := u.hits[path]
	route, ok := u.routes[path]
	var snapshot Route
	if ok {
		snapshot = *route
	}
	u.mu.Unlock()

	if !ok {
		return c.SendStatus(fiber.StatusNotFound)
	}
	if snapshot.Status != 0 {
		return c.SendStatus(snapshot.Status)
	}
	if hit <= snapshot.FailTimes {
		status := snapshot.FailStatus
		if status == 0 {
			status = fiber.StatusServiceUnavailable
		}
		return c.SendStatus(status)
	}
	if snapshot.Filename != "" {
		c.Attachment(snapshot.Filename)
	}
	return c.Send(snapshot.Body)
}
