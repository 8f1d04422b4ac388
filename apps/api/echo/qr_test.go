package echoapi

import (
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_paymentQRApi_serve(t *testing.T) {
	app := setup(t)

	t.Run("default event", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/api/payment-qr")
		app.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "image/jpeg", rec.Header().Get("Content-Type"))
		assert.Equal(t, strconv.Itoa(len(qrBytes)), rec.Header().Get("Content-Length"))
		assert.Equal(t, "public, max-age=3600, immutable", rec.Header().Get("Cache-Control"))
		assert.Equal(t, qrBytes, rec.Body.Bytes())
	})

	tests := []httpTest{
		{
			name:     "missing asset",
			method:   http.MethodGet,
			path:     "/api/payment-qr?event=hackverse",
			wantCode: http.StatusInternalServerError,
			wantData: marchallObj(t, errorBody{Message: msgQRUnavailable}),
		},
		{
			name:     "unknown event",
			method:   http.MethodGet,
			path:     "/api/payment-qr?event=..%2Fsecrets",
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, errorBody{Message: msgEventNotFound}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(tt.method, tt.path)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("asset removed", func(t *testing.T) {
		err := os.Remove(QRPath(filepath.Join(app.conf.WorkDir, "assets"), "bytebloom"))
		assert.NoError(t, err)

		req, rec := newRequest(http.MethodGet, "/api/payment-qr?event=bytebloom")
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusInternalServerError,
			wantData: marchallObj(t, errorBody{Message: msgQRUnavailable}),
		}, rec)
	})
}
