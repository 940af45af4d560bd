package router

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"

	"boards-backend/internal/adapter/db/postgres"
	"boards-backend/internal/adapter/gin/handler"
	"boards-backend/internal/adapter/gin/middleware"
	"boards-backend/internal/announce"
	"boards-backend/internal/config"
	"boards-backend/internal/notify"
	"boards-backend/internal/storage"
	accountuc "boards-backend/internal/usecase/account"
	authuc "boards-backend/internal/usecase/auth"
	boarduc "boards-backend/internal/usecase/board"
	carduc "boards-backend/internal/usecase/card"
	commentuc "boards-backend/internal/usecase/comment"
	inviteuc "boards-backend/internal/usecase/invite"
	notificationuc "boards-backend/internal/usecase/notification"
	useruc "boards-backend/internal/usecase/user"
	pkgauth "boards-backend/pkg/auth"
)

const previewsSecret = "previews-test-secret"

type testServer struct {
	engine    *gin.Engine
	announcer *announce.MemoryAnnouncer
}

func newTestServer(t *testing.T) *testServer {
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(postgres.MigrationModels()...))

	log := zaptest.NewLogger(t)
	announcer := announce.NewMemoryAnnouncer()

	userRepo := postgres.NewUserRepo(db, log)
	accountRepo := postgres.NewAccountRepo(db, log)
	boardRepo := postgres.NewBoardRepo(db, log)
	cardRepo := postgres.NewCardRepo(db, log)
	commentRepo := postgres.NewCommentRepo(db, log)
	inviteRepo := postgres.NewInviteRepo(db, log)
	notificationRepo := postgres.NewNotificationRepo(db, log)
	notifier := notify.New(notificationRepo, nil, announcer, log)

	tokens := pkgauth.NewTokenService("test-secret", 90*24*time.Hour)
	hasher := pkgauth.NewPasswordHasher(4)
	signer := storage.NewSigner("AKIATEST", "secret", "boards-test", 3*time.Hour)
	appURL := "http://localhost:3000"

	boards := boarduc.New(boardRepo, accountRepo, userRepo, inviteRepo,
		announcer, notifier, tokens, appURL, log)
	cards := carduc.New(cardRepo, boards, boardRepo, userRepo,
		announcer, notifier, tokens, signer, nil, log)

	h := Handlers{
		Auth:          handler.NewAuthHandler(authuc.New(userRepo, inviteRepo, tokens, hasher, notifier, true, appURL, log), log),
		Users:         handler.NewUserHandler(useruc.New(userRepo, tokens, hasher, log), log),
		Accounts:      handler.NewAccountHandler(accountuc.New(accountRepo, boardRepo, log), log),
		Boards:        handler.NewBoardHandler(boards, log),
		Cards:         handler.NewCardHandler(cards, log),
		Comments:      handler.NewCommentHandler(commentuc.New(commentRepo, cardRepo, boards, userRepo, announcer, notifier, log), log),
		Invites:       handler.NewInviteHandler(inviteuc.New(inviteRepo, userRepo, notifier, tokens, appURL, log), log),
		Notifications: handler.NewNotificationHandler(notificationuc.New(notificationRepo, log), log),
		Previews:      handler.NewPreviewsHandler(cards, previewsSecret, log),
	}

	cfg := &config.Config{
		App:       config.AppConfig{APIVersion: "v1"},
		RateLimit: config.RateLimitConfig{Enabled: false},
	}
	engine := SetupRouter(h, middleware.NewAuth(tokens, userRepo, log), nil, cfg, "", log)

	return &testServer{engine: engine, announcer: announcer}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), out))
}

type signedUpUser struct {
	token     string
	userID    int64
	accountID int64
}

func (s *testServer) signup(t *testing.T, username string) signedUpUser {
	t.Helper()
	w := s.do(t, "POST", "/api/v1/auth/signup", "", gin.H{
		"username": username,
		"email":    username + "@example.com",
		"password": "sup3rsecret",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		Token string `json:"token"`
		User  struct {
			ID int64 `json:"id"`
		} `json:"user"`
		Account struct {
			ID int64 `json:"id"`
		} `json:"account"`
	}
	decodeJSON(t, w, &resp)
	require.NotEmpty(t, resp.Token)
	return signedUpUser{token: resp.Token, userID: resp.User.ID, accountID: resp.Account.ID}
}

func (s *testServer) createBoard(t *testing.T, u signedUpUser, name string, shared bool) int64 {
	t.Helper()
	w := s.do(t, "POST", "/api/v1/boards", u.token, gin.H{
		"account":   u.accountID,
		"name":      name,
		"is_shared": shared,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var board struct {
		ID int64 `json:"id"`
	}
	decodeJSON(t, w, &board)
	return board.ID
}

func (s *testServer) createCard(t *testing.T, u signedUpUser, boardID int64, name string) int64 {
	t.Helper()
	w := s.do(t, "POST", "/api/v1/cards", u.token, gin.H{
		"board":   boardID,
		"name":    name,
		"type":    "note",
		"content": "remember the milk",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var card struct {
		ID int64 `json:"id"`
	}
	decodeJSON(t, w, &card)
	return card.ID
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, "GET", "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
}

func TestSignupAndSignin(t *testing.T) {
	s := newTestServer(t)
	u := s.signup(t, "frank")

	w := s.do(t, "POST", "/api/v1/auth/signin", "", gin.H{
		"username": "frank",
		"password": "sup3rsecret",
	})
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, "POST", "/api/v1/auth/signin", "", gin.H{
		"username": "frank",
		"password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, "GET", "/api/v1/users/me", u.token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	var me struct {
		Username string `json:"username"`
	}
	decodeJSON(t, w, &me)
	assert.Equal(t, "frank", me.Username)
}

func TestProtectedRoutesRejectAnonymous(t *testing.T) {
	s := newTestServer(t)

	for _, route := range []struct{ method, path string }{
		{"GET", "/api/v1/users/me"},
		{"GET", "/api/v1/accounts"},
		{"POST", "/api/v1/boards"},
		{"GET", "/api/v1/notifications"},
	} {
		w := s.do(t, route.method, route.path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, "%s %s", route.method, route.path)
	}
}

func TestGarbageTokenRejected(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, "GET", "/api/v1/users/me", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// an invalid token on an optional route is still rejected
	w = s.do(t, "GET", "/api/v1/boards", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestBoardVisibility(t *testing.T) {
	s := newTestServer(t)
	u := s.signup(t, "owner")

	privateID := s.createBoard(t, u, "Private Ideas", false)
	sharedID := s.createBoard(t, u, "Moodboard", true)

	w := s.do(t, "GET", "/api/v1/boards/"+itoa(privateID), "", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, "GET", "/api/v1/boards/"+itoa(sharedID), "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	var board struct {
		Name     string `json:"name"`
		IsShared bool   `json:"is_shared"`
	}
	decodeJSON(t, w, &board)
	assert.Equal(t, "Moodboard", board.Name)
	assert.True(t, board.IsShared)

	// the owner lists both boards
	w = s.do(t, "GET", "/api/v1/boards", u.token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	var boards []json.RawMessage
	decodeJSON(t, w, &boards)
	assert.Len(t, boards, 2)
}

func TestCardAndCommentFlow(t *testing.T) {
	s := newTestServer(t)
	u := s.signup(t, "maker")
	boardID := s.createBoard(t, u, "Work", true)
	cardID := s.createCard(t, u, boardID, "Todo")

	w := s.do(t, "POST", "/api/v1/cards/"+itoa(cardID)+"/comments", u.token, gin.H{
		"content": "looks good",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	// comments on a shared board are publicly readable
	w = s.do(t, "GET", "/api/v1/cards/"+itoa(cardID)+"/comments", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	var comments []struct {
		Content string `json:"content"`
	}
	decodeJSON(t, w, &comments)
	require.Len(t, comments, 1)
	assert.Equal(t, "looks good", comments[0].Content)

	// anonymous users cannot comment
	w = s.do(t, "POST", "/api/v1/cards/"+itoa(cardID)+"/comments", "", gin.H{
		"content": "drive-by",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAccountDetailIsPublic(t *testing.T) {
	s := newTestServer(t)
	u := s.signup(t, "sam")
	s.createBoard(t, u, "Hidden", false)
	s.createBoard(t, u, "Showcase", true)

	w := s.do(t, "GET", "/api/v1/accounts/sam", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var detail struct {
		Slug   string `json:"slug"`
		Boards []struct {
			Name string `json:"name"`
		} `json:"boards"`
	}
	decodeJSON(t, w, &detail)
	assert.Equal(t, "sam", detail.Slug)
	require.Len(t, detail.Boards, 1)
	assert.Equal(t, "Showcase", detail.Boards[0].Name)
}

func TestPreviewsCallback(t *testing.T) {
	s := newTestServer(t)
	u := s.signup(t, "artist")
	boardID := s.createBoard(t, u, "Gallery", false)
	cardID := s.createCard(t, u, boardID, "Sketch")

	body, err := json.Marshal(gin.H{
		"metadata":   gin.H{"card_id": itoa(cardID)},
		"thumbnails": gin.H{"xs": "thumbs/xs.png", "lg": "thumbs/lg.png"},
	})
	require.NoError(t, err)

	post := func(signature string) *httptest.ResponseRecorder {
		req := httptest.NewRequest("POST", "/api/v1/previews/callback", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set(handler.SignatureHeader, signature)
		w := httptest.NewRecorder()
		s.engine.ServeHTTP(w, req)
		return w
	}

	w := post("bogus-signature")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = post(storage.SignPayload(previewsSecret, body))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, "GET", "/api/v1/cards/"+itoa(cardID), u.token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var card struct {
		ThumbnailXSPath string `json:"thumbnail_xs_path"`
		ThumbnailLGPath string `json:"thumbnail_lg_path"`
	}
	decodeJSON(t, w, &card)
	assert.Equal(t, "thumbs/xs.png", card.ThumbnailXSPath)
	assert.Equal(t, "thumbs/lg.png", card.ThumbnailLGPath)
}

func TestNotificationsEndpoint(t *testing.T) {
	s := newTestServer(t)
	owner := s.signup(t, "owner")
	member := s.signup(t, "member")
	boardID := s.createBoard(t, owner, "Team", false)

	w := s.do(t, "POST", "/api/v1/boards/"+itoa(boardID)+"/collaborators", owner.token, gin.H{
		"user":       member.userID,
		"permission": "write",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(t, "GET", "/api/v1/notifications", member.token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var notifications []struct {
		Label  string `json:"label"`
		Unread bool   `json:"unread"`
	}
	decodeJSON(t, w, &notifications)
	require.NotEmpty(t, notifications)
	assert.True(t, notifications[0].Unread)
}

func TestCardDownloadTokenIsShareable(t *testing.T) {
	s := newTestServer(t)
	owner := s.signup(t, "owner")
	boardID := s.createBoard(t, owner, "Private", false)

	w := s.do(t, "POST", "/api/v1/cards", owner.token, gin.H{
		"board":     boardID,
		"name":      "report.pdf",
		"type":      "file",
		"content":   "uploads/abc/report.pdf",
		"mime_type": "application/pdf",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var card struct {
		ID int64 `json:"id"`
	}
	decodeJSON(t, w, &card)

	downloadPath := "/api/v1/cards/" + itoa(card.ID) + "/download"

	// the board is private, so an anonymous download is refused
	w = s.do(t, "GET", downloadPath, "", nil)
	require.Equal(t, http.StatusForbidden, w.Code, w.Body.String())

	w = s.do(t, "GET", downloadPath, owner.token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp struct {
		URL           string `json:"url"`
		DownloadToken string `json:"download_token"`
	}
	decodeJSON(t, w, &resp)
	require.NotEmpty(t, resp.DownloadToken)
	assert.Contains(t, resp.URL, "Signature=")

	// sharing the token grants the download without a session
	w = s.do(t, "GET", downloadPath+"?download_token="+resp.DownloadToken, "", nil)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, "GET", downloadPath+"?download_token=bogus", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code, w.Body.String())
}

func TestSignUploadEndpoint(t *testing.T) {
	s := newTestServer(t)
	u := s.signup(t, "uploader")

	w := s.do(t, "POST", "/api/v1/files/sign", "", gin.H{"name": "photo.png"})
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, "POST", "/api/v1/files/sign", u.token, gin.H{
		"name":      "photo.png",
		"mime_type": "image/png",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp struct {
		Key       string `json:"key"`
		URL       string `json:"url"`
		Policy    string `json:"policy"`
		Signature string `json:"signature"`
	}
	decodeJSON(t, w, &resp)
	assert.True(t, strings.HasPrefix(resp.Key, "uploads/"))
	assert.True(t, strings.HasSuffix(resp.Key, "/photo.png"))
	assert.NotEmpty(t, resp.URL)
	assert.NotEmpty(t, resp.Policy)
	assert.NotEmpty(t, resp.Signature)
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
