package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/scolarite/core/registration"
)

type registrationApi struct {
	svc registration.ServiceInterface
}

func registerRegistrationAPI(g *echo.Group, svc registration.ServiceInterface) {
	api := registrationApi{svc: svc}

	g.POST("/registrations", api.register)
	g.POST("/pre-registrations", api.preRegister)

	g.GET("/school-years", api.querySchoolYears)
	g.GET("/courses", api.queryCourses)

	g.GET("/families", api.queryFamilies)
	g.GET("/families/:id", api.retrieveFamily)
}

// Handlers

func (api *registrationApi) register(ctx echo.Context) error {
	var data registration.OnsiteRegistration
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to OnsiteRegistration")
	}
	res, err := api.svc.ProcessRegistration(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "processing registration")
	}
	return ctx.JSON(http.StatusCreated, res)
}

func (api *registrationApi) preRegister(ctx echo.Context) error {
	var data registration.PreRegistration
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PreRegistration")
	}
	res, err := api.svc.ProcessPreRegistration(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "processing pre-registration")
	}
	return ctx.JSON(http.StatusCreated, res)
}

func (api *registrationApi) querySchoolYears(ctx echo.Context) error {
	years, err := api.svc.QuerySchoolYears(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying school years")
	}
	return ctx.JSON(http.StatusOK, years)
}

func (api *registrationApi) queryCourses(ctx echo.Context) error {
	courses, err := api.svc.QueryCourses(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying courses")
	}
	return ctx.JSON(http.StatusOK, courses)
}

func (api *registrationApi) queryFamilies(ctx echo.Context) error {
	var filter registration.FamilyFilter
	if err := ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to FamilyFilter")
	}
	filter.Clean()

	var ord Ordering
	ord.Bind(ctx)

	fams, err := api.svc.QueryFamilies(ctx.Request().Context(), &filter, ord.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying families")
	}
	return ctx.JSON(http.StatusOK, fams)
}

func (api *registrationApi) retrieveFamily(ctx echo.Context) error {
	detail, err := api.svc.GetFamilyDetail(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting family detail")
	}
	return ctx.JSON(http.StatusOK, detail)
}
