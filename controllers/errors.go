package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/cleanmate-app/middlewares"
	"github.com/yeremiapane/cleanmate-app/services"
	"github.com/yeremiapane/cleanmate-app/utils"
)

var errInternal = errors.New("internal server error")

// statusFor maps a service error kind to its HTTP status; 0 means unknown.
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrConflict), errors.Is(err, services.ErrInvalidState):
		return http.StatusConflict
	case errors.Is(err, services.ErrUnauthenticated), errors.Is(err, services.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrUpstream):
		return http.StatusBadGateway
	default:
		return 0
	}
}

func respondServiceError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == 0 {
		utils.ErrorLogger.WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
		}).Errorf("unhandled error: %v", err)
		utils.RespondError(c, http.StatusInternalServerError, errInternal)
		return
	}
	var se *services.ServiceError
	if status == http.StatusBadGateway && errors.As(err, &se) && se.Err != nil {
		utils.ErrorLogger.Errorf("upstream failure: %v", se.Err)
	}
	utils.RespondError(c, status, err)
}

func currentPrincipal(c *gin.Context) (services.Principal, bool) {
	p, ok := middlewares.GetPrincipal(c)
	if !ok {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("unauthorized"))
	}
	return p, ok
}

func parseIDParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		utils.RespondError(c, http.StatusBadRequest, errors.New("invalid "+name))
		return 0, false
	}
	return uint(id), true
}

func bindJSON(c *gin.Context, v interface{}) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		utils.RespondError(c, http.StatusBadRequest, errors.New("invalid request body"))
		return false
	}
	return true
}
