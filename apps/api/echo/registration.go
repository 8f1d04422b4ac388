package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/devnest/devnest/core/registration"
)

const msgStored = "Submission stored"

var notAllowedMethods = []string{
	http.MethodGet,
	http.MethodHead,
	http.MethodPut,
	http.MethodPatch,
	http.MethodDelete,
	http.MethodOptions,
}

type registrationApi struct {
	svc     *registration.Service
	metrics *Metrics
}

type eventInfo struct {
	Name   string                  `json:"name"`
	Title  string                  `json:"title"`
	Open   bool                    `json:"open"`
	Team   registration.TeamRule   `json:"team"`
	Upload registration.UploadRule `json:"upload"`
}

func registerRegistrationAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *registration.Service, metrics *Metrics) {
	api := registrationApi{svc: svc, metrics: metrics}

	g.GET("/events", api.events)

	g.POST("/:event", api.register)
	g.Match(notAllowedMethods, "/:event", api.methodNotAllowed)

	// authed endpoints
	g.GET("/:event/submissions", api.submissions, jwt, adminMiddleware())
}

// Handlers

func (api *registrationApi) register(ctx echo.Context) error {
	event := ctx.Param("event")

	var sub registration.Submission
	if err := ctx.Bind(&sub); err != nil {
		return errors.Wrap(err, "binding to Submission")
	}

	_, err := api.svc.Register(ctx.Request().Context(), event, sub)
	if errors.Cause(err) != registration.ErrEventNotFound {
		api.metrics.observe(event, err)
	}
	if err != nil {
		return errors.Wrap(err, "registering "+event)
	}
	return ctx.JSON(http.StatusOK, echo.Map{"message": msgStored})
}

func (api *registrationApi) methodNotAllowed(ctx echo.Context) error {
	ctx.Response().Header().Set(echo.HeaderAllow, http.MethodPost)
	return errMethodNotAllowed
}

func (api *registrationApi) events(ctx echo.Context) error {
	schemas := api.svc.Events()
	infos := make([]eventInfo, 0, len(schemas))
	for _, s := range schemas {
		infos = append(infos, eventInfo{Name: s.Name, Title: s.Title, Open: s.Open, Team: s.Team, Upload: s.Upload})
	}
	return ctx.JSON(http.StatusOK, infos)
}

func (api *registrationApi) submissions(ctx echo.Context) error {
	recs, err := api.svc.Submissions(ctx.Request().Context(), ctx.Param("event"))
	if err != nil {
		return errors.Wrap(err, "listing submissions")
	}
	if recs == nil {
		recs = []registration.Record{}
	}
	return ctx.JSON(http.StatusOK, recs)
}
