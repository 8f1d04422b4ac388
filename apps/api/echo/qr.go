package echoapi

import (
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/devnest/devnest/core"
	"github.com/devnest/devnest/core/registration"
)

const qrCacheControl = "public, max-age=3600, immutable"

type paymentQRApi struct {
	assetsDir    string
	defaultEvent string
	svc          *registration.Service
	logger       core.Logger
}

func registerPaymentQRAPI(g *echo.Group, conf *core.Config, svc *registration.Service, logger core.Logger) {
	api := paymentQRApi{
		assetsDir:    conf.Path(conf.Storage.AssetsDir),
		defaultEvent: conf.Storage.PaymentQREvent,
		svc:          svc,
		logger:       logger,
	}
	g.GET("/payment-qr", api.serve)
}

// QRPath returns where the payment QR of event is expected: <assetsDir>/<event>-qr.jpg.
func QRPath(assetsDir, event string) string {
	return filepath.Join(assetsDir, event+"-qr.jpg")
}

func (api *paymentQRApi) serve(ctx echo.Context) error {
	event := ctx.QueryParam("event")
	if event == "" {
		event = api.defaultEvent
	}
	if _, err := api.svc.Schema(event); err != nil {
		return errors.Wrap(err, "finding event")
	}

	f, err := os.Open(QRPath(api.assetsDir, event))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, msgQRUnavailable).SetInternal(err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, msgQRUnavailable).SetInternal(err)
	}

	header := ctx.Response().Header()
	header.Set(echo.HeaderContentType, "image/jpeg")
	header.Set(echo.HeaderContentLength, strconv.FormatInt(info.Size(), 10))
	header.Set("Cache-Control", qrCacheControl)
	ctx.Response().WriteHeader(http.StatusOK)

	if _, err = io.Copy(ctx.Response(), f); err != nil {
		// headers are gone, the client just sees a truncated body
		api.logger.Error("Failed to stream payment QR", errors.Wrap(err, "streaming payment QR"))
	}
	return nil
}
