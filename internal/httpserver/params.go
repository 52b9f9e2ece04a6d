package httpserver

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/pulak-sarmah/e-com-auth-service/internal/service"
	"github.com/pulak-sarmah/e-com-auth-service/internal/util"
)

var (
	errInvalidBody  = &service.Error{Kind: service.KindValidation, Msg: "Invalid request body"}
	errInvalidParam = &service.Error{Kind: service.KindValidation, Msg: "Invalid url param."}
	errUnauthorized = &service.Error{Kind: service.KindAuthentication, Msg: "Unauthorized"}
)

func idParam(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 0)
	if err != nil || id == 0 {
		return 0, errInvalidParam
	}
	return uint(id), nil
}

func pageParams(c echo.Context) (page, size int) {
	page = util.ParseIntDefault(c.QueryParam("page"), 1)
	size = util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	return page, size
}
