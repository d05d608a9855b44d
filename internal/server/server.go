// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// ============================================================================
// CONSTANTS
// ============================================================================

const (
	// DefaultPort is the default port for the sandbox.
	DefaultPort = 8787

	// DefaultMessageLimit is the monthly allowance of sandbox accounts.
	DefaultMessageLimit = 100

	// MaxRequestBodySize is the maximum size for a request body (1MB).
	MaxRequestBodySize = 1 * 1024 * 1024

	// TokenTTL is the lifetime of issued tokens.
	TokenTTL = 24 * time.Hour

	// wireTime is how the backend serialises timestamps: local date-time
	// without a zone.
	wireTime = "2006-01-02T15:04:05.000000"

	defaultTitle = "New Chat"
)

// Backend role names.
const (
	RoleEmployee    = "EMPLOYEE"
	RoleTenantAdmin = "TENANT_ADMIN"
	RoleSuperAdmin  = "SUPER_ADMIN"
)

// Responder produces the assistant reply for a user message.
type Responder func(message string) string

// EchoResponder answers with the message it was given.
func EchoResponder(message string) string {
	return "You said: " + message
}

// ============================================================================
// STATE
// ============================================================================

type account struct {
	ID       int64
	Email    string
	Password string
	FullName string
	Role     string
	Tenant   *tenant
	Used     int
}

type tenant struct {
	ID       int64
	Name     string
	Domain   string
	Active   bool
	Plan     string
	MaxMsgs  int
	Accounts []*account
}

type message struct {
	ID        int64
	Role      string
	Content   string
	CreatedAt time.Time
}

type conversation struct {
	ID        int64
	Owner     *account
	Title     string
	Messages  []message
	CreatedAt time.Time
	UpdatedAt time.Time
}

type fault struct {
	status  int
	message string
}

// Account describes a sandbox login.
type Account struct {
	Email    string
	Password string
	FullName string
	Role     string
	Tenant   string
}

// ============================================================================
// SERVER
// ============================================================================

// Server is the sandbox backend.
type Server struct {
	port   int
	router *http.ServeMux
	server *http.Server
	secret []byte

	mu            sync.Mutex
	accounts      map[string]*account
	tenants       []*tenant
	conversations map[int64]*conversation
	nextID        int64
	limit         int
	respond       Responder
	replyDelay    time.Duration
	faults        map[string][]fault
	requests      map[string]int
	now           func() time.Time
}

// NewServer creates an empty sandbox listening on port when started.
// If port is 0, the default port (8787) is used.
func NewServer(port int) *Server {
	if port == 0 {
		port = DefaultPort
	}
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		panic(err)
	}

	s := &Server{
		port:          port,
		router:        http.NewServeMux(),
		secret:        secret,
		accounts:      make(map[string]*account),
		conversations: make(map[int64]*conversation),
		limit:         DefaultMessageLimit,
		respond:       EchoResponder,
		faults:        make(map[string][]fault),
		requests:      make(map[string]int),
		now:           time.Now,
	}
	s.setupRoutes()
	return s
}

// WithAccount registers a login. The tenant is created on first use.
func (s *Server) WithAccount(a Account) *Server {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addAccount(a)
	return s
}

// WithResponder sets the reply generator.
func (s *Server) WithResponder(r Responder) *Server {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r != nil {
		s.respond = r
	}
	return s
}

// WithMessageLimit sets the monthly allowance for new tenants.
func (s *Server) WithMessageLimit(n int) *Server {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.limit = n
	for _, t := range s.tenants {
		t.MaxMsgs = n
	}
	return s
}

// WithReplyDelay makes /chat/ask wait before answering, like the real
// backend does while the model runs.
func (s *Server) WithReplyDelay(d time.Duration) *Server {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replyDelay = d
	return s
}

// WithDemoData seeds one tenant with an employee and an admin, plus a
// platform administrator.
func (s *Server) WithDemoData() *Server {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addAccount(Account{Email: "ana@acme.test", Password: "password", FullName: "Ana Lima", Role: RoleEmployee, Tenant: "Acme"})
	s.addAccount(Account{Email: "admin@acme.test", Password: "password", FullName: "Acme Admin", Role: RoleTenantAdmin, Tenant: "Acme"})
	s.addAccount(Account{Email: "root@evo.test", Password: "password", FullName: "Platform Admin", Role: RoleSuperAdmin})
	return s
}

// Port returns the configured port.
func (s *Server) Port() int {
	return s.port
}

func (s *Server) id() int64 {
	s.nextID++
	return s.nextID
}

// addAccount must be called with s.mu held.
func (s *Server) addAccount(a Account) *account {
	acc := &account{
		ID:       s.id(),
		Email:    strings.ToLower(a.Email),
		Password: a.Password,
		FullName: a.FullName,
		Role:     a.Role,
	}
	if acc.Role == "" {
		acc.Role = RoleEmployee
	}
	if a.Tenant != "" {
		t := s.tenantByName(a.Tenant)
		if t == nil {
			t = &tenant{
				ID:      s.id(),
				Name:    a.Tenant,
				Domain:  strings.ToLower(a.Tenant) + ".test",
				Active:  true,
				Plan:    "TRIAL",
				MaxMsgs: s.limit,
			}
			s.tenants = append(s.tenants, t)
		}
		acc.Tenant = t
		t.Accounts = append(t.Accounts, acc)
	}
	s.accounts[acc.Email] = acc
	return acc
}

func (s *Server) tenantByName(name string) *tenant {
	for _, t := range s.tenants {
		if strings.EqualFold(t.Name, name) {
			return t
		}
	}
	return nil
}

// ============================================================================
// FAULTS AND INSPECTION
// ============================================================================

// FailNext queues a failure for the next request to method and path. A
// status of 0 drops the connection instead of answering.
func (s *Server) FailNext(method, path string, status int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := method + " " + path
	s.faults[key] = append(s.faults[key], fault{status: status, message: message})
}

func (s *Server) popFault(method, path string) (fault, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := method + " " + path
	s.requests[key]++
	queue := s.faults[key]
	if len(queue) == 0 {
		return fault{}, false
	}
	s.faults[key] = queue[1:]
	return queue[0], true
}

// Requests returns how many requests hit method and path.
func (s *Server) Requests(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[method+" "+path]
}

// SetUsed sets the number of messages an account has used this month.
func (s *Server) SetUsed(email string, used int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if acc := s.accounts[strings.ToLower(email)]; acc != nil {
		acc.Used = used
	}
}

// IssueToken returns a valid token for a registered account.
func (s *Server) IssueToken(email string) (string, error) {
	s.mu.Lock()
	acc := s.accounts[strings.ToLower(email)]
	s.mu.Unlock()
	if acc == nil {
		return "", errors.Errorf("unknown account %q", email)
	}
	return s.sign(acc)
}

// AddConversation stores a conversation owned by email directly, bypassing
// the API. It returns the conversation id.
func (s *Server) AddConversation(email, title string, created time.Time, messages ...string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc := s.accounts[strings.ToLower(email)]
	c := &conversation{ID: s.id(), Owner: acc, Title: title, CreatedAt: created, UpdatedAt: created}
	for i, content := range messages {
		role := "USER"
		if i%2 == 1 {
			role = "ASSISTANT"
		}
		c.Messages = append(c.Messages, message{ID: s.id(), Role: role, Content: content, CreatedAt: created})
	}
	s.conversations[c.ID] = c
	return strconv.FormatInt(c.ID, 10)
}

// RemoveConversation deletes a conversation directly, as another client
// would.
func (s *Server) RemoveConversation(id string) {
	n, _ := strconv.ParseInt(id, 10, 64)
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conversations, n)
}

func (s *Server) sign(acc *account) (string, error) {
	claims := jwt.MapClaims{
		"sub":   strconv.FormatInt(acc.ID, 10),
		"email": acc.Email,
		"role":  acc.Role,
		"iat":   s.now().Unix(),
		"exp":   s.now().Add(TokenTTL).Unix(),
	}
	if acc.Tenant != nil {
		claims["tenantName"] = acc.Tenant.Name
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// ============================================================================
// ROUTES
// ============================================================================

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.HandleFunc("GET /health", s.handleHealth)

	s.router.HandleFunc("POST /api/auth/login", s.handleLogin)
	s.router.HandleFunc("GET /api/auth/me", s.handleMe)

	s.router.HandleFunc("GET /chat/conversations", s.handleListConversations)
	s.router.HandleFunc("POST /chat/conversations", s.handleCreateConversation)
	s.router.HandleFunc("GET /chat/conversations/{id}", s.handleGetConversation)
	s.router.HandleFunc("DELETE /chat/conversations/{id}", s.handleDeleteConversation)
	s.router.HandleFunc("POST /chat/ask", s.handleAsk)
	s.router.HandleFunc("GET /chat/usage", s.handleUsage)

	s.router.HandleFunc("GET /api/admin/tenant/users", s.requireRole(RoleTenantAdmin, s.handleTenantUsers))
	s.router.HandleFunc("POST /api/admin/tenant/users/invite", s.requireRole(RoleTenantAdmin, s.handleInvite))
	s.router.HandleFunc("GET /api/admin/tenant/usage/metrics", s.requireRole(RoleTenantAdmin, s.handleTenantMetrics))

	s.router.HandleFunc("GET /api/admin/super/tenants", s.requireRole(RoleSuperAdmin, s.handleTenants))
	s.router.HandleFunc("POST /api/admin/super/tenants", s.requireRole(RoleSuperAdmin, s.handleCreateTenant))
	s.router.HandleFunc("GET /api/admin/super/metrics", s.requireRole(RoleSuperAdmin, s.handlePlatformMetrics))
}

// Handler returns the routes wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	logger := log.WithField("component", "sandbox")
	return Chain(
		RecoveryMiddleware(logger),
		LoggingMiddleware(logger),
		s.faultMiddleware,
		s.authMiddleware,
	)(s.router)
}

func (s *Server) requireRole(role string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if acc := accountFrom(r.Context()); acc == nil || acc.Role != role {
			writeError(w, http.StatusForbidden, "Access denied")
			return
		}
		next(w, r)
	}
}

// ============================================================================
// AUTH HANDLERS
// ============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "UP"})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decode(w, r, &req) {
		return
	}
	s.mu.Lock()
	acc := s.accounts[strings.ToLower(strings.TrimSpace(req.Email))]
	s.mu.Unlock()
	if acc == nil || acc.Password != req.Password {
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	token, err := s.sign(acc)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	acc := accountFrom(r.Context())
	body := map[string]any{
		"role":     acc.Role,
		"fullName": acc.FullName,
		"email":    acc.Email,
	}
	if acc.Tenant != nil {
		body["tenantName"] = acc.Tenant.Name
	}
	writeJSON(w, http.StatusOK, body)
}

// ============================================================================
// CHAT HANDLERS
// ============================================================================

func conversationSummary(c *conversation) map[string]any {
	return map[string]any{
		"id":        c.ID,
		"title":     c.Title,
		"createdAt": c.CreatedAt.UTC().Format(wireTime),
		"updatedAt": c.UpdatedAt.UTC().Format(wireTime),
	}
}

// owned returns the caller's conversation with the path id, writing 404
// when there is none. Must be called with s.mu held.
func (s *Server) owned(w http.ResponseWriter, r *http.Request) *conversation {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid conversation id")
		return nil
	}
	c := s.conversations[id]
	if c == nil || c.Owner != accountFrom(r.Context()) {
		writeError(w, http.StatusNotFound, "Conversation not found")
		return nil
	}
	return c
}

func (s *Server) handleListConversations(w http.ResponseWriter, r *http.Request) {
	acc := accountFrom(r.Context())
	s.mu.Lock()
	var list []*conversation
	for _, c := range s.conversations {
		if c.Owner == acc {
			list = append(list, c)
		}
	}
	s.mu.Unlock()

	sort.Slice(list, func(i, j int) bool {
		if list[i].UpdatedAt.Equal(list[j].UpdatedAt) {
			return list[i].ID > list[j].ID
		}
		return list[i].UpdatedAt.After(list[j].UpdatedAt)
	})
	out := make([]map[string]any, 0, len(list))
	for _, c := range list {
		out = append(out, conversationSummary(c))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateConversation(w http.ResponseWriter, r *http.Request) {
	acc := accountFrom(r.Context())
	s.mu.Lock()
	c := s.newConversation(acc)
	body := conversationSummary(c)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, body)
}

// newConversation must be called with s.mu held.
func (s *Server) newConversation(acc *account) *conversation {
	now := s.now()
	c := &conversation{ID: s.id(), Owner: acc, Title: defaultTitle, CreatedAt: now, UpdatedAt: now}
	s.conversations[c.ID] = c
	return c
}

func (s *Server) handleGetConversation(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.owned(w, r)
	if c == nil {
		return
	}
	msgs := make([]map[string]any, 0, len(c.Messages))
	for _, m := range c.Messages {
		msgs = append(msgs, map[string]any{
			"id":        m.ID,
			"role":      m.Role,
			"content":   m.Content,
			"createdAt": m.CreatedAt.UTC().Format(wireTime),
		})
	}
	body := conversationSummary(c)
	body["messages"] = msgs
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) handleDeleteConversation(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.owned(w, r)
	if c == nil {
		return
	}
	delete(s.conversations, c.ID)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Message        string          `json:"message"`
		ConversationID json.RawMessage `json:"conversationId"`
	}
	if !decode(w, r, &req) {
		return
	}
	text := strings.TrimSpace(req.Message)
	if text == "" {
		writeError(w, http.StatusBadRequest, "Message must not be empty")
		return
	}
	acc := accountFrom(r.Context())

	s.mu.Lock()
	if limit := s.limitFor(acc); limit > 0 && acc.Used >= limit {
		s.mu.Unlock()
		writeError(w, http.StatusTooManyRequests, "Monthly message limit reached")
		return
	}

	var c *conversation
	if raw := strings.Trim(string(req.ConversationID), `" `); raw != "" && raw != "null" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err == nil {
			c = s.conversations[id]
		}
		if c == nil || c.Owner != acc {
			s.mu.Unlock()
			writeError(w, http.StatusNotFound, "Conversation not found")
			return
		}
	} else {
		c = s.newConversation(acc)
	}
	respond := s.respond
	delay := s.replyDelay
	s.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
	}
	reply := respond(text)

	s.mu.Lock()
	now := s.now()
	if c.Title == defaultTitle || c.Title == "" {
		c.Title = titleFrom(text)
	}
	c.Messages = append(c.Messages,
		message{ID: s.id(), Role: "USER", Content: text, CreatedAt: now},
		message{ID: s.id(), Role: "ASSISTANT", Content: reply, CreatedAt: now},
	)
	c.UpdatedAt = now
	acc.Used++
	id := c.ID
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"reply": reply, "conversationId": id})
}

// limitFor must be called with s.mu held.
func (s *Server) limitFor(acc *account) int {
	if acc.Tenant != nil {
		return acc.Tenant.MaxMsgs
	}
	return s.limit
}

func (s *Server) handleUsage(w http.ResponseWriter, r *http.Request) {
	acc := accountFrom(r.Context())
	s.mu.Lock()
	used, limit := acc.Used, s.limitFor(acc)
	s.mu.Unlock()
	percent := 0.0
	if limit > 0 {
		percent = float64(used) * 100 / float64(limit)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"messagesUsed":  used,
		"messagesLimit": limit,
		"percentUsed":   percent,
	})
}

// titleFrom names a conversation after its first message.
func titleFrom(text string) string {
	runes := []rune(strings.Join(strings.Fields(text), " "))
	if len(runes) > 50 {
		return string(runes[:50]) + "..."
	}
	return string(runes)
}

// ============================================================================
// ADMIN HANDLERS
// ============================================================================

func (s *Server) handleTenantUsers(w http.ResponseWriter, r *http.Request) {
	acc := accountFrom(r.Context())
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []map[string]any{}
	if acc.Tenant != nil {
		for _, u := range acc.Tenant.Accounts {
			out = append(out, map[string]any{
				"id":           u.ID,
				"fullName":     u.FullName,
				"email":        u.Email,
				"role":         u.Role,
				"messagesUsed": u.Used,
			})
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleInvite(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Role     string `json:"role"`
		FullName string `json:"fullName"`
	}
	if !decode(w, r, &req) {
		return
	}
	acc := accountFrom(r.Context())
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.accounts[strings.ToLower(req.Email)]; exists {
		writeError(w, http.StatusConflict, "User already exists")
		return
	}
	tenantName := ""
	if acc.Tenant != nil {
		tenantName = acc.Tenant.Name
	}
	s.addAccount(Account{Email: req.Email, Password: "changeme", FullName: req.FullName, Role: req.Role, Tenant: tenantName})
	writeJSON(w, http.StatusOK, map[string]string{"message": fmt.Sprintf("Invitation sent to %s", req.Email)})
}

func (s *Server) handleTenantMetrics(w http.ResponseWriter, r *http.Request) {
	acc := accountFrom(r.Context())
	s.mu.Lock()
	defer s.mu.Unlock()
	t := acc.Tenant
	if t == nil {
		writeError(w, http.StatusNotFound, "No tenant")
		return
	}
	used := 0
	for _, u := range t.Accounts {
		used += u.Used
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"subscriptionPlan":    t.Plan,
		"currentUsers":        len(t.Accounts),
		"messagesThisMonth":   used,
		"maxMessagesPerMonth": t.MaxMsgs,
	})
}

func tenantBody(t *tenant) map[string]any {
	used := 0
	for _, u := range t.Accounts {
		used += u.Used
	}
	return map[string]any{
		"id":                  t.ID,
		"name":                t.Name,
		"domain":              t.Domain,
		"isActive":            t.Active,
		"subscriptionPlan":    t.Plan,
		"maxMessagesPerMonth": t.MaxMsgs,
		"messagesUsed":        used,
	}
}

func (s *Server) handleTenants(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]map[string]any, 0, len(s.tenants))
	for _, t := range s.tenants {
		out = append(out, tenantBody(t))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateTenant(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name   string `json:"name"`
		Domain string `json:"domain"`
	}
	if !decode(w, r, &req) {
		return
	}
	if req.Name == "" || req.Domain == "" {
		writeError(w, http.StatusBadRequest, "Name and domain are required")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tenantByName(req.Name) != nil {
		writeError(w, http.StatusConflict, "Tenant already exists")
		return
	}
	t := &tenant{ID: s.id(), Name: req.Name, Domain: req.Domain, Active: true, Plan: "TRIAL", MaxMsgs: s.limit}
	s.tenants = append(s.tenants, t)
	writeJSON(w, http.StatusOK, tenantBody(t))
}

func (s *Server) handlePlatformMetrics(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	active := 0
	for _, t := range s.tenants {
		if t.Active {
			active++
		}
	}
	writeJSON(w, http.StatusOK, map[string]int{
		"totalTenants":  len(s.tenants),
		"activeTenants": active,
		"totalUsers":    len(s.accounts),
	})
}

// ============================================================================
// SERVER LIFECYCLE
// ============================================================================

// Start serves the sandbox on 127.0.0.1 until Shutdown.
func (s *Server) Start() error {
	addr := fmt.Sprintf("127.0.0.1:%d", s.port)
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	log.WithField("addr", addr).Info("sandbox listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	log.Info("sandbox shutting down")
	return s.server.Shutdown(ctx)
}

// ============================================================================
// HELPERS
// ============================================================================

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBodySize)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "Malformed request body")
		return false
	}
	return true
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes the backend's error body.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{
		"status":  status,
		"message": message,
	})
}
