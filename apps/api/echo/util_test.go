package echoapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"

	"github.com/devnest/devnest/core"
	"github.com/devnest/devnest/core/registration"
	inmemdb "github.com/devnest/devnest/storage/inmem"
	"github.com/devnest/devnest/tests"
)

var (
	secretKey = "secret"
	qrBytes   = []byte{0xff, 0xd8, 0xff, 0xe0, 0x00, 0x10, 'J', 'F', 'I', 'F'}

	errMissingToken = errorBody{Message: "missing or malformed jwt"}
)

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
	extra    interface{}
}

type testApp struct {
	*Server
	conf    *core.Config
	db      *inmemdb.DB
	metrics *Metrics
	reg     *prometheus.Registry
}

func testConfig(t *testing.T) *core.Config {
	workDir := t.TempDir()
	assets := filepath.Join(workDir, "assets")
	if err := os.MkdirAll(assets, 0o755); err != nil {
		t.Fatalf("testConfig() failed: %v", err)
	}
	if err := os.WriteFile(QRPath(assets, "bytebloom"), qrBytes, 0o644); err != nil {
		t.Fatalf("testConfig() failed: %v", err)
	}
	return &core.Config{
		AppName:   "DevNest",
		TestMode:  true,
		SecretKey: secretKey,
		WorkDir:   workDir,
		Storage: core.StorageConfig{
			UploadDir:      filepath.Join("server", "uploads"),
			AssetsDir:      "assets",
			PaymentQREvent: "bytebloom",
		},
		Admin: core.AdminConfig{ExpirationDelta: time.Hour},
	}
}

func setup(t *testing.T) testApp {
	t.Helper()
	conf := testConfig(t)

	cat := testutil.LoadCatalog(t)
	db := inmemdb.Open()
	repos := make(map[string]registration.Repository)
	for _, schema := range cat.All() {
		repos[schema.Name] = inmemdb.NewSubmissionRepository(db, schema)
	}
	validate, translator := testutil.NewValidator()
	svc := registration.NewService(registration.Options{
		Catalog:   cat,
		Repos:     repos,
		WorkDir:   conf.WorkDir,
		UploadDir: conf.Storage.UploadDir,
		Validate:  validate,
		Logger:    testutil.Logger{},
	})

	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	server := NewServer(ServerDeps{
		Conf:            conf,
		Logger:          testutil.Logger{},
		RegistrationSvc: svc,
		Translator:      translator,
		Metrics:         metrics,
		DisableReqLogs:  true,
	})
	return testApp{Server: server, conf: conf, db: db, metrics: metrics, reg: reg}
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func getToken(t *testing.T, conf *core.Config) string {
	token, err := GenerateToken(conf.SecretKey, NewAdminClaims(conf))
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	return assert.ElementsMatch(t, j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
