package Controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"MediFlow/Models"
)

var lima = time.FixedZone("PET", -5*60*60)

// 2025-03-10 is a Monday
func fixedNow() time.Time {
	return time.Date(2025, 3, 10, 8, 45, 0, 0, lima)
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mediflow.db")
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, Models.Migrate(db))
	return db
}

func seedUsuario(t *testing.T, db *gorm.DB, uid string) Models.Usuario {
	t.Helper()
	u := Models.Usuario{Nombre: "Ana", Apellido: "Quispe", Correo: uid + "@clinica.pe", Area: "Enfermería"}
	if uid != "" {
		u.UIDFirebase = &uid
	}
	require.NoError(t, db.Create(&u).Error)
	return u
}

// withCaller stands in for middleware.FirebaseAuth with an already verified uid
func withCaller(uid string) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		if uid != "" {
			ctx.Locals("uid", uid)
		}
		return ctx.Next()
	}
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]interface{}{}
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &out))
	}
	return resp, out
}

func doJSONList(t *testing.T, app *fiber.App, path string) (*http.Response, []map[string]interface{}) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil), -1)
	require.NoError(t, err)
	var out []map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

type fakeVerifier struct {
	tokens map[string]*auth.Token
}

func (f fakeVerifier) VerifyIDToken(_ context.Context, idToken string) (*auth.Token, error) {
	if tok, ok := f.tokens[idToken]; ok {
		return tok, nil
	}
	return nil, errors.New("invalid token")
}

type horarioCall struct {
	uid     string
	horario Models.Horario
	updated bool
}

type fakeNotifier struct {
	mu    sync.Mutex
	calls []horarioCall
	err   error
}

func (f *fakeNotifier) HorarioChanged(_ context.Context, uid string, h Models.Horario, updated bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, horarioCall{uid: uid, horario: h, updated: updated})
	return f.err
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
