package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/cleanmate-app/services"
	"github.com/yeremiapane/cleanmate-app/utils"
)

type CleanerController struct {
	Cleaners *services.CleanerService
	Bookings *services.BookingService
}

func NewCleanerController(cleaners *services.CleanerService, bookings *services.BookingService) *CleanerController {
	return &CleanerController{Cleaners: cleaners, Bookings: bookings}
}

// ListCleaners is the public directory.
func (cc *CleanerController) ListCleaners(c *gin.Context) {
	cleaners, err := cc.Cleaners.ListCleaners(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Cleaners retrieved", cleaners)
}

func (cc *CleanerController) UpdateProfile(c *gin.Context) {
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}
	var req services.ProfileUpdate
	if !bindJSON(c, &req) {
		return
	}

	profile, err := cc.Cleaners.UpdateCleanerProfile(c.Request.Context(), p, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Profile updated", profile)
}

func (cc *CleanerController) Jobs(c *gin.Context) {
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}

	jobs, err := cc.Bookings.ListJobsForCleaner(c.Request.Context(), p)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Jobs retrieved", jobs)
}
