package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"golang.org/x/crypto/bcrypt"

	"github.com/carissacho3/pet-adoption-backend/internal/auth"
	"github.com/carissacho3/pet-adoption-backend/internal/domain"
	"github.com/carissacho3/pet-adoption-backend/internal/repository/sqlite"
	"github.com/carissacho3/pet-adoption-backend/internal/service"
	"github.com/carissacho3/pet-adoption-backend/internal/storage"
)

const testSecret = "http-test-secret"

const rexPayload = `{"name":"Rex","sex":"Male","breed":"Lab","color":"Black","weight":30,"age":3,` +
	`"summary":"friendly","typeofAnimal":"Dog","spayedOrNeutered":true,"location":"City","phoneNumber":"555-0100"}`

type memoryImages struct {
	mu      sync.Mutex
	bucket  string
	objects map[string][]byte
}

func newMemoryImages() *memoryImages {
	return &memoryImages{bucket: "pets-test", objects: map[string][]byte{}}
}

func (m *memoryImages) Put(ctx context.Context, body io.Reader, opts storage.PutOptions) (string, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[opts.Key] = data
	return storage.Ref(m.bucket, opts.Key), nil
}

func (m *memoryImages) Delete(ctx context.Context, ref string) error {
	_, key, err := storage.ParseRef(ref)
	if err != nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *memoryImages) URL(ctx context.Context, ref string, expires time.Duration) (string, error) {
	_, key, err := storage.ParseRef(ref)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("https://images.test/%s?expires=%d", key, int(expires.Seconds())), nil
}

func (m *memoryImages) Owns(ref string) bool {
	bucket, _, err := storage.ParseRef(ref)
	return err == nil && bucket == m.bucket
}

func (m *memoryImages) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}

type testServer struct {
	router     *gin.Engine
	users      service.UserService
	images     *memoryImages
	logs       *logtest.Hook
	adminToken string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := sqlite.Open(filepath.Join(t.TempDir(), "api.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	petRepo := sqlite.NewPetRepository(db)
	userRepo := sqlite.NewUserRepository(db)
	if err := petRepo.Init(ctx); err != nil {
		t.Fatalf("init pets: %v", err)
	}
	if err := userRepo.Init(ctx); err != nil {
		t.Fatalf("init users: %v", err)
	}

	tokens := auth.NewTokenService(testSecret, time.Hour)
	users := service.NewUserService(userRepo, petRepo, tokens, auth.NewPasswordHasher(bcrypt.MinCost), "https://example.com/default.jpg")
	pets := service.NewPetService(petRepo, userRepo)

	admin, err := users.EnsureAdmin(ctx, domain.Registration{
		Username:  "root",
		Email:     "root@example.com",
		Password:  "rootpass",
		FirstName: "Site",
		LastName:  "Admin",
	})
	if err != nil {
		t.Fatalf("ensure admin: %v", err)
	}
	adminToken, err := tokens.Issue(admin)
	if err != nil {
		t.Fatalf("issue admin token: %v", err)
	}

	logger, logs := logtest.NewNullLogger()

	images := newMemoryImages()
	router := gin.New()
	NewHandler(Options{
		Pets:           pets,
		Users:          users,
		Tokens:         tokens,
		Images:         images,
		ImageKeyPrefix: "pet-images",
		Logger:         logger,
	}).RegisterRoutes(router)

	return &testServer{router: router, users: users, images: images, logs: logs, adminToken: adminToken}
}

func (s *testServer) do(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) register(t *testing.T, username, email string) AuthResponse {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/users/register", "", fmt.Sprintf(
		`{"username":%q,"email":%q,"password":"secret123","firstName":"Ada","lastName":"Lovelace"}`, username, email))
	if w.Code != http.StatusCreated {
		t.Fatalf("register %s: status %d body %s", username, w.Code, w.Body.String())
	}
	var resp AuthResponse
	decode(t, w, &resp)
	return resp
}

func (s *testServer) createRex(t *testing.T) PetResponse {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/pets/add", s.adminToken, rexPayload)
	if w.Code != http.StatusCreated {
		t.Fatalf("create pet: status %d body %s", w.Code, w.Body.String())
	}
	var pet PetResponse
	decode(t, w, &pet)
	return pet
}

// rejectionReasons lists the reason field of every authentication rejection logged so far.
func (s *testServer) rejectionReasons() []string {
	var reasons []string
	for _, entry := range s.logs.AllEntries() {
		if entry.Message != "authentication rejected" {
			continue
		}
		if entry.Level != logrus.WarnLevel {
			continue
		}
		reason, _ := entry.Data["reason"].(string)
		reasons = append(reasons, reason)
	}
	return reasons
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
}

func errorOf(t *testing.T, w *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var resp errorResponse
	decode(t, w, &resp)
	if resp.Message == "" {
		t.Fatalf("error body without message: %s", w.Body.String())
	}
	return resp
}

func TestHealthAndWelcome(t *testing.T) {
	s := newTestServer(t)

	if w := s.do(t, http.MethodGet, "/api/health", "", ""); w.Code != http.StatusOK {
		t.Fatalf("health status %d", w.Code)
	}
	w := s.do(t, http.MethodGet, "/", "", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "Welcome") {
		t.Fatalf("welcome: %d %s", w.Code, w.Body.String())
	}
}

func TestCreatePet_RoleGate(t *testing.T) {
	s := newTestServer(t)
	user := s.register(t, "ada", "ada@example.com")

	pet := s.createRex(t)
	if pet.ID == "" || pet.Name != "Rex" || pet.Type != "Dog" || !pet.SpayedOrNeutered || pet.Weight != 30 {
		t.Fatalf("unexpected pet %+v", pet)
	}

	w := s.do(t, http.MethodPost, "/api/pets/add", user.Token, rexPayload)
	if w.Code != http.StatusForbidden {
		t.Fatalf("user token: expected 403, got %d", w.Code)
	}
	errorOf(t, w)

	w = s.do(t, http.MethodPost, "/api/pets/add", "", rexPayload)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("no token: expected 401, got %d", w.Code)
	}

	noSummary := strings.Replace(rexPayload, `"summary":"friendly",`, "", 1)
	w = s.do(t, http.MethodPost, "/api/pets/add", s.adminToken, noSummary)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("missing summary: expected 400, got %d", w.Code)
	}
	if msg := errorOf(t, w).Message; !strings.Contains(msg, "summary") {
		t.Fatalf("expected summary to be named, got %q", msg)
	}
}

func TestAuthGuard(t *testing.T) {
	s := newTestServer(t)
	user := s.register(t, "ada", "ada@example.com")

	tests := []struct {
		name    string
		header  string
		status  int
		message string
		reason  string
	}{
		{"missing", "", http.StatusUnauthorized, "no token", "missing"},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized, "no token", "missing"},
		{"garbage", "Bearer not-a-jwt", http.StatusUnauthorized, "token failed", "invalid"},
		{"valid", "Bearer " + user.Token, http.StatusOK, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s.logs.Reset()
			req := httptest.NewRequest(http.MethodGet, "/api/users/profile", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			s.router.ServeHTTP(w, req)
			if w.Code != tt.status {
				t.Fatalf("expected %d, got %d (%s)", tt.status, w.Code, w.Body.String())
			}
			if tt.message != "" && !strings.Contains(errorOf(t, w).Message, tt.message) {
				t.Fatalf("expected message containing %q, got %s", tt.message, w.Body.String())
			}
			reasons := s.rejectionReasons()
			if tt.reason == "" && len(reasons) != 0 {
				t.Fatalf("unexpected rejection logged: %v", reasons)
			}
			if tt.reason != "" && (len(reasons) != 1 || reasons[0] != tt.reason) {
				t.Fatalf("expected reason %q, got %v", tt.reason, reasons)
			}
		})
	}
}

func TestAuthGuard_ExpiredToken(t *testing.T) {
	s := newTestServer(t)
	user := s.register(t, "ada", "ada@example.com")

	expired, err := auth.NewTokenService(testSecret, -time.Hour).Issue(&domain.User{ID: user.ID, Role: domain.RoleUser})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	w := s.do(t, http.MethodGet, "/api/users/profile", expired, "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	if msg := errorOf(t, w).Message; !strings.Contains(msg, "expired") {
		t.Fatalf("expected expiry detail, got %q", msg)
	}
	if reasons := s.rejectionReasons(); len(reasons) != 1 || reasons[0] != "expired" {
		t.Fatalf("expected one rejection logged with reason=expired, got %v", reasons)
	}
}

func TestAuthGuard_DeletedUser(t *testing.T) {
	s := newTestServer(t)
	user := s.register(t, "ada", "ada@example.com")

	if w := s.do(t, http.MethodDelete, "/api/users/profile", user.Token, ""); w.Code != http.StatusOK {
		t.Fatalf("delete profile: %d %s", w.Code, w.Body.String())
	}

	s.logs.Reset()
	w := s.do(t, http.MethodGet, "/api/users/profile", user.Token, "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for deleted user, got %d", w.Code)
	}
	if reasons := s.rejectionReasons(); len(reasons) != 1 || reasons[0] != "unknown_user" {
		t.Fatalf("expected reason unknown_user, got %v", reasons)
	}
}

func TestPetLifecycle(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/api/pets/all", "", "")
	if w.Code != http.StatusOK || strings.TrimSpace(w.Body.String()) != "[]" {
		t.Fatalf("empty list: %d %s", w.Code, w.Body.String())
	}

	pet := s.createRex(t)

	w = s.do(t, http.MethodPut, "/api/pets/update/"+pet.ID, s.adminToken, `{"age":4,"spayedOrNeutered":false}`)
	if w.Code != http.StatusOK {
		t.Fatalf("update: %d %s", w.Code, w.Body.String())
	}
	var updated PetResponse
	decode(t, w, &updated)
	if updated.Age != 4 || updated.SpayedOrNeutered || updated.Name != "Rex" || updated.Breed != "Lab" {
		t.Fatalf("partial update changed the wrong fields: %+v", updated)
	}

	w = s.do(t, http.MethodGet, "/api/pets/type/Dog", "", "")
	var dogs []PetResponse
	decode(t, w, &dogs)
	if w.Code != http.StatusOK || len(dogs) != 1 {
		t.Fatalf("list by type: %d %s", w.Code, w.Body.String())
	}
	if w = s.do(t, http.MethodGet, "/api/pets/type/Cat", "", ""); w.Code != http.StatusNotFound {
		t.Fatalf("no cats: expected 404, got %d", w.Code)
	}

	if w = s.do(t, http.MethodGet, "/api/pets/not-an-id", "", ""); w.Code != http.StatusBadRequest {
		t.Fatalf("malformed id: expected 400, got %d", w.Code)
	}

	w = s.do(t, http.MethodDelete, "/api/pets/delete/"+pet.ID, s.adminToken, "")
	if w.Code != http.StatusOK {
		t.Fatalf("delete: %d %s", w.Code, w.Body.String())
	}
	if w = s.do(t, http.MethodGet, "/api/pets/"+pet.ID, "", ""); w.Code != http.StatusNotFound {
		t.Fatalf("get after delete: expected 404, got %d", w.Code)
	}
	if w = s.do(t, http.MethodDelete, "/api/pets/delete/"+pet.ID, s.adminToken, ""); w.Code != http.StatusNotFound {
		t.Fatalf("second delete: expected 404, got %d", w.Code)
	}
}

func TestRegisterAndLogin(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/users/register", "",
		`{"username":"mallory","email":"mallory@example.com","password":"secret123","firstName":"M","lastName":"X","role":"admin"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("register: %d %s", w.Code, w.Body.String())
	}
	var created AuthResponse
	decode(t, w, &created)
	if created.Role != "user" || created.Token == "" {
		t.Fatalf("client supplied role must be ignored: %+v", created)
	}
	if strings.Contains(w.Body.String(), "password") {
		t.Fatalf("response leaks password data: %s", w.Body.String())
	}

	w = s.do(t, http.MethodPost, "/api/users/register", "",
		`{"username":"other","email":"mallory@example.com","password":"secret123","firstName":"M","lastName":"X"}`)
	if w.Code != http.StatusConflict {
		t.Fatalf("duplicate email: expected 409, got %d", w.Code)
	}

	wrongPassword := s.do(t, http.MethodPost, "/api/users/login", "", `{"email":"mallory@example.com","password":"nope-nope"}`)
	unknownEmail := s.do(t, http.MethodPost, "/api/users/login", "", `{"email":"ghost@example.com","password":"secret123"}`)
	if wrongPassword.Code != http.StatusUnauthorized || unknownEmail.Code != http.StatusUnauthorized {
		t.Fatalf("login failures: %d / %d", wrongPassword.Code, unknownEmail.Code)
	}
	if wrongPassword.Body.String() != unknownEmail.Body.String() {
		t.Fatalf("login failures must be indistinguishable: %s vs %s", wrongPassword.Body, unknownEmail.Body)
	}

	w = s.do(t, http.MethodPost, "/api/users/login", "", `{"email":"mallory@example.com","password":"secret123"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("login: %d %s", w.Code, w.Body.String())
	}
}

func TestUpdateProfile(t *testing.T) {
	s := newTestServer(t)
	user := s.register(t, "ada", "ada@example.com")

	w := s.do(t, http.MethodPut, "/api/users/profile", user.Token, `{"firstName":"Augusta"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("update profile: %d %s", w.Code, w.Body.String())
	}
	var resp AuthResponse
	decode(t, w, &resp)
	if resp.FirstName != "Augusta" || resp.LastName != "Lovelace" || resp.Token == "" {
		t.Fatalf("unexpected profile %+v", resp)
	}
}

func TestBookmarks(t *testing.T) {
	s := newTestServer(t)
	user := s.register(t, "ada", "ada@example.com")
	pet := s.createRex(t)

	w := s.do(t, http.MethodPost, "/api/users/bookmarks/"+pet.ID, user.Token, "")
	if w.Code != http.StatusOK {
		t.Fatalf("add bookmark: %d %s", w.Code, w.Body.String())
	}

	w = s.do(t, http.MethodPost, "/api/users/bookmarks/"+pet.ID, user.Token, "")
	if w.Code != http.StatusConflict {
		t.Fatalf("double add: expected 409, got %d", w.Code)
	}

	w = s.do(t, http.MethodGet, "/api/users/profile", user.Token, "")
	var profile UserResponse
	decode(t, w, &profile)
	if len(profile.Bookmarks) != 1 {
		t.Fatalf("expected one bookmark, got %v", profile.Bookmarks)
	}

	w = s.do(t, http.MethodGet, "/api/users/bookmarks", user.Token, "")
	var listed struct {
		Bookmarks []PetResponse `json:"bookmarks"`
	}
	decode(t, w, &listed)
	if len(listed.Bookmarks) != 1 || listed.Bookmarks[0].Name != "Rex" {
		t.Fatalf("unexpected bookmarks %s", w.Body.String())
	}

	absent := "6f1c3c1e-2b4a-4b8e-9f6a-0a1b2c3d4e5f"
	w = s.do(t, http.MethodDelete, "/api/users/bookmarks/"+absent, user.Token, "")
	var ids struct {
		Bookmarks []string `json:"bookmarks"`
	}
	decode(t, w, &ids)
	if w.Code != http.StatusOK || len(ids.Bookmarks) != 1 {
		t.Fatalf("removing absent bookmark must be a no-op: %d %s", w.Code, w.Body.String())
	}

	if w = s.do(t, http.MethodPost, "/api/users/bookmarks/"+absent, user.Token, ""); w.Code != http.StatusNotFound {
		t.Fatalf("bookmark unknown pet: expected 404, got %d", w.Code)
	}

	s.do(t, http.MethodDelete, "/api/pets/delete/"+pet.ID, s.adminToken, "")
	w = s.do(t, http.MethodGet, "/api/users/bookmarks", user.Token, "")
	decode(t, w, &listed)
	if len(listed.Bookmarks) != 0 {
		t.Fatalf("deleted pet must drop out of bookmarks: %s", w.Body.String())
	}
}

func TestPetImage(t *testing.T) {
	s := newTestServer(t)
	pet := s.createRex(t)

	if w := s.do(t, http.MethodGet, "/api/pets/"+pet.ID+"/image", "", ""); w.Code != http.StatusNotFound {
		t.Fatalf("no image yet: expected 404, got %d", w.Code)
	}

	upload := func(contentType string) *httptest.ResponseRecorder {
		var body bytes.Buffer
		mw := multipart.NewWriter(&body)
		hdr := textproto.MIMEHeader{}
		hdr.Set("Content-Disposition", `form-data; name="image"; filename="rex.png"`)
		hdr.Set("Content-Type", contentType)
		part, err := mw.CreatePart(hdr)
		if err != nil {
			t.Fatalf("create part: %v", err)
		}
		part.Write([]byte("fake image bytes"))
		mw.Close()

		req := httptest.NewRequest(http.MethodPost, "/api/pets/"+pet.ID+"/image", &body)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		req.Header.Set("Authorization", "Bearer "+s.adminToken)
		w := httptest.NewRecorder()
		s.router.ServeHTTP(w, req)
		return w
	}

	if w := upload("text/plain"); w.Code != http.StatusBadRequest {
		t.Fatalf("non image: expected 400, got %d", w.Code)
	}

	w := upload("image/png")
	if w.Code != http.StatusOK {
		t.Fatalf("upload: %d %s", w.Code, w.Body.String())
	}
	var updated PetResponse
	decode(t, w, &updated)
	if !strings.HasPrefix(updated.Image, "s3://pets-test/pet-images/"+pet.ID+"/") || !strings.HasSuffix(updated.Image, ".png") {
		t.Fatalf("unexpected image ref %q", updated.Image)
	}

	if w := upload("image/png"); w.Code != http.StatusOK {
		t.Fatalf("replace: %d", w.Code)
	}
	if n := s.images.count(); n != 1 {
		t.Fatalf("previous image must be removed, have %d objects", n)
	}

	w = s.do(t, http.MethodGet, "/api/pets/"+pet.ID+"/image", "", "")
	if w.Code != http.StatusFound || !strings.HasPrefix(w.Header().Get("Location"), "https://images.test/pet-images/") {
		t.Fatalf("redirect: %d %q", w.Code, w.Header().Get("Location"))
	}

	s.do(t, http.MethodDelete, "/api/pets/delete/"+pet.ID, s.adminToken, "")
	if n := s.images.count(); n != 0 {
		t.Fatalf("image must be removed with the pet, have %d objects", n)
	}
}

func TestHasRole(t *testing.T) {
	admin := &domain.User{Role: domain.RoleAdmin}
	user := &domain.User{Role: domain.RoleUser}

	if !hasRole(admin, []domain.Role{domain.RoleAdmin}) {
		t.Fatal("admin must pass admin gate")
	}
	if hasRole(user, []domain.Role{domain.RoleAdmin}) {
		t.Fatal("user must not pass admin gate")
	}
	if !hasRole(user, []domain.Role{domain.RoleUser, domain.RoleAdmin}) {
		t.Fatal("user must pass mixed gate")
	}
	if hasRole(user, nil) {
		t.Fatal("empty role set admits nobody")
	}
}

func TestRegister_PasswordTooLong(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/users/register", "", fmt.Sprintf(
		`{"username":"ada","email":"ada@example.com","password":%q,"firstName":"Ada","lastName":"Lovelace"}`,
		strings.Repeat("a", 80)))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d (%s)", w.Code, w.Body.String())
	}
	if msg := errorOf(t, w).Message; msg != "password must be at most 72 characters" {
		t.Fatalf("unexpected message %q", msg)
	}

	user := s.register(t, "grace", "grace@example.com")
	w = s.do(t, http.MethodPut, "/api/users/profile", user.Token, fmt.Sprintf(`{"password":%q}`, strings.Repeat("b", 80)))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("profile update: expected 400, got %d (%s)", w.Code, w.Body.String())
	}
}
