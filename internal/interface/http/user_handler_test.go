package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/incluiaqui/incluiaqui-server/internal/application"
	"github.com/incluiaqui/incluiaqui-server/internal/infrastructure/memory"
	"github.com/incluiaqui/incluiaqui-server/pkg/hasher"
	"github.com/incluiaqui/incluiaqui-server/pkg/validation"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	validation.Init()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	svc := application.NewUserService(memory.NewUserRepository(), hasher.NewBcrypt(bcrypt.MinCost), logger)
	h := NewUserHandler(svc, nil, logger, nil, "", nil)

	r := gin.New()
	api := r.Group("/api/v1")
	users := api.Group("/users")
	users.POST("", h.Create)
	users.GET("", h.List)
	users.GET("/:id", h.Get)
	users.PATCH("/:id", h.Update)
	users.DELETE("/:id", h.Delete)
	return r
}

type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func doJSON(t *testing.T, r *gin.Engine, method, path, body string) (int, envelope) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return w.Code, env
}

const validCreate = `{"username":"alice","email":"a@x.com","password":"pw1pw1pw1","role":"client"}`

func createUser(t *testing.T, r *gin.Engine, body string) map[string]any {
	t.Helper()
	code, env := doJSON(t, r, http.MethodPost, "/api/v1/users", body)
	require.Equal(t, http.StatusCreated, code)
	require.Equal(t, "success", env.Status)
	var data map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &data))
	return data
}

func TestCreateUserResponseHidesHash(t *testing.T) {
	r := newTestRouter(t)
	data := createUser(t, r, validCreate)

	assert.Equal(t, "alice", data["username"])
	assert.Equal(t, "client", data["role"])
	assert.NotEmpty(t, data["id"])
	_, leaked := data["hashed_password"]
	assert.False(t, leaked)
	_, leaked = data["password"]
	assert.False(t, leaked)
}

func TestCreateUserValidation(t *testing.T) {
	r := newTestRouter(t)

	code, env := doJSON(t, r, http.MethodPost, "/api/v1/users",
		`{"username":"al","email":"not-an-email","password":"short","role":"superuser"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "fail", env.Status)

	var details map[string]string
	require.NoError(t, json.Unmarshal(env.Data, &details))
	assert.Contains(t, details, "username")
	assert.Contains(t, details, "email")
	assert.Contains(t, details, "password")
	assert.Contains(t, details, "role")
}

func TestCreateUserDuplicateEmailConflicts(t *testing.T) {
	r := newTestRouter(t)
	createUser(t, r, validCreate)

	code, env := doJSON(t, r, http.MethodPost, "/api/v1/users",
		`{"username":"bob","email":"a@x.com","password":"pw2pw2pw2","role":"client"}`)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "fail", env.Status)
	assert.Equal(t, "User with this email already exists.", env.Message)
}

func TestGetUser(t *testing.T) {
	r := newTestRouter(t)
	data := createUser(t, r, validCreate)
	id := data["id"].(string)

	code, env := doJSON(t, r, http.MethodGet, "/api/v1/users/"+id, "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "success", env.Status)

	code, env = doJSON(t, r, http.MethodGet, "/api/v1/users/0e37df36-f698-11e6-8dd4-cb9ced3df976", "")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "fail", env.Status)
	assert.Equal(t, "User not found.", env.Message)

	code, env = doJSON(t, r, http.MethodGet, "/api/v1/users/not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "fail", env.Status)
}

func TestListUsers(t *testing.T) {
	r := newTestRouter(t)
	createUser(t, r, validCreate)
	createUser(t, r, `{"username":"bob","email":"b@x.com","password":"pw2pw2pw2","role":"merchant"}`)

	code, env := doJSON(t, r, http.MethodGet, "/api/v1/users?skip=1&limit=5", "")
	assert.Equal(t, http.StatusOK, code)
	var list []map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Len(t, list, 1)
	assert.Equal(t, "bob", list[0]["username"])

	code, _ = doJSON(t, r, http.MethodGet, "/api/v1/users?limit=0", "")
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = doJSON(t, r, http.MethodGet, "/api/v1/users?skip=-1", "")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestUpdateUserPartialSemantics(t *testing.T) {
	r := newTestRouter(t)
	data := createUser(t, r, `{"username":"alice","email":"a@x.com","password":"pw1pw1pw1","role":"client","profile_image_url":"https://img.example/a.png"}`)
	id := data["id"].(string)

	// absent fields stay untouched, provided ones change
	code, env := doJSON(t, r, http.MethodPatch, "/api/v1/users/"+id, `{"points": 42}`)
	require.Equal(t, http.StatusOK, code)
	var updated map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &updated))
	assert.Equal(t, float64(42), updated["points"])
	assert.Equal(t, "a@x.com", updated["email"])
	assert.Equal(t, "https://img.example/a.png", updated["profile_image_url"])

	// explicit null clears a nullable field
	code, env = doJSON(t, r, http.MethodPatch, "/api/v1/users/"+id, `{"profile_image_url": null}`)
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(env.Data, &updated))
	assert.Nil(t, updated["profile_image_url"])

	// null on a required field is rejected
	code, env = doJSON(t, r, http.MethodPatch, "/api/v1/users/"+id, `{"email": null}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "fail", env.Status)

	// username has no update path
	code, env = doJSON(t, r, http.MethodPatch, "/api/v1/users/"+id, `{"username":"mallory"}`)
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(env.Data, &updated))
	assert.Equal(t, "alice", updated["username"])
}

func TestUpdateUserEmailConflict(t *testing.T) {
	r := newTestRouter(t)
	createUser(t, r, validCreate)
	bob := createUser(t, r, `{"username":"bob","email":"b@x.com","password":"pw2pw2pw2","role":"client"}`)

	code, env := doJSON(t, r, http.MethodPatch, "/api/v1/users/"+bob["id"].(string), `{"email":"a@x.com"}`)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "fail", env.Status)
}

func TestDeleteUser(t *testing.T) {
	r := newTestRouter(t)
	data := createUser(t, r, validCreate)
	id := data["id"].(string)

	code, env := doJSON(t, r, http.MethodDelete, "/api/v1/users/"+id, "")
	assert.Equal(t, http.StatusOK, code)
	var deleted map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &deleted))
	assert.Equal(t, "alice", deleted["username"])

	code, _ = doJSON(t, r, http.MethodDelete, "/api/v1/users/"+id, "")
	assert.Equal(t, http.StatusNotFound, code)
}
