package rest_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/rpgcraft/api/rest"
	"github.com/kasuganosora/rpgcraft/cache"
	"github.com/kasuganosora/rpgcraft/config"
	"github.com/kasuganosora/rpgcraft/game/craft"
	mw "github.com/kasuganosora/rpgcraft/middleware"
	"github.com/kasuganosora/rpgcraft/resource"
	"github.com/kasuganosora/rpgcraft/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var testSec = config.SecurityConfig{JWTSecret: "test-secret", JWTTTLH: time.Hour}

func postJSON(r *gin.Engine, path string, body interface{}, headers ...string) *httptest.ResponseRecorder {
	b, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func getJSON(r *gin.Engine, path string, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

// bearer stores a session for accountID and returns the Authorization header pair.
func bearer(t *testing.T, c cache.Cache, accountID int64) []string {
	t.Helper()
	token, err := mw.GenerateToken(accountID, testSec.JWTSecret, time.Hour)
	require.NoError(t, err)
	require.NoError(t, c.Set(context.Background(), mw.SessionKey(token), strconv.FormatInt(accountID, 10), time.Hour))
	return []string{"Authorization", "Bearer " + token}
}

type craftEnv struct {
	r   *gin.Engine
	db  *gorm.DB
	c   cache.Cache
	res *resource.ResourceLoader
}

func newCraftEnv(t *testing.T) *craftEnv {
	t.Helper()
	res := testutil.SetupTestResources(t)
	db := testutil.SetupTestDB(t)
	c, ps := testutil.SetupTestCache(t)

	engine := craft.NewEngine(res.Volumes, craft.WithSeed(1), craft.WithBannedNames(res.BannedNames))
	svc := craft.NewService(engine, res.Materials, db, zap.NewNop(), craft.WithCache(c, ps))

	matH := rest.NewMaterialHandler(res.Materials, res.Volumes)
	craftH := rest.NewCraftHandler(svc)

	r := gin.New()
	r.Use(mw.TraceID())
	api := r.Group("/api")
	api.GET("/materials", matH.List)
	api.GET("/materials/:name", matH.Get)
	api.GET("/archetypes/:family", matH.Archetypes)

	craftG := api.Group("/craft", mw.Auth(testSec, c))
	craftG.POST("/armor", craftH.Armor)
	craftG.POST("/weapon", craftH.Weapon)
	craftG.POST("/bow", craftH.Bow)
	craftG.POST("/shield", craftH.Shield)
	craftG.POST("/siege", craftH.Siege)
	craftG.POST("/jewelry", craftH.Jewelry)

	craftsG := api.Group("/crafts", mw.Auth(testSec, c))
	craftsG.GET("", craftH.Recent)
	craftsG.GET("/:id", craftH.Get)

	return &craftEnv{r: r, db: db, c: c, res: res}
}

func itoa(n int64) string { return strconv.FormatInt(n, 10) }
