package controllers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/cleanmate-app/middlewares"
	"github.com/yeremiapane/cleanmate-app/models"
	"github.com/yeremiapane/cleanmate-app/services"
	"github.com/yeremiapane/cleanmate-app/utils"
)

const (
	consoleLoginPath     = "/console/login"
	consoleDashboardPath = "/console/dashboard"
)

// ConsoleController serves the cleaner web console. It calls the same
// services as the JSON API.
type ConsoleController struct {
	Auth         *services.AuthService
	Bookings     *services.BookingService
	Cleaners     *services.CleanerService
	Sessions     *services.SessionStore
	SecureCookie bool
}

type profileForm struct {
	FullName    string
	PhoneNumber string
	City        string
	AddressText string
	HourlyRate  int64
	Bio         string
}

type consolePage struct {
	Title     string
	Principal *services.Principal
	Flash     string
	Error     string

	Email    string
	FullName string

	Profile *models.CleanerProfile
	Jobs    []models.Booking
	Open    []models.Booking
	Form    profileForm
}

func (cc *ConsoleController) render(c *gin.Context, status int, name string, page consolePage) {
	c.HTML(status, name, page)
}

func (cc *ConsoleController) startSession(c *gin.Context, user *models.User) (string, bool) {
	id, err := cc.Sessions.Create(c.Request.Context(), services.PrincipalFromUser(user))
	if err != nil {
		utils.ErrorLogger.Errorf("create console session: %v", err)
		cc.render(c, http.StatusInternalServerError, "login.html", consolePage{Title: "Sign in", Error: "Something went wrong, please try again."})
		return "", false
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middlewares.SessionCookie, id, 0, "/", "", cc.SecureCookie, true)
	return id, true
}

func (cc *ConsoleController) flash(c *gin.Context, message string) {
	if err := cc.Sessions.SetFlash(c.Request.Context(), middlewares.GetSessionID(c), message); err != nil {
		utils.ErrorLogger.Errorf("set flash: %v", err)
	}
}

func (cc *ConsoleController) LoginPage(c *gin.Context) {
	if id, err := c.Cookie(middlewares.SessionCookie); err == nil {
		if _, err := cc.Sessions.Get(c.Request.Context(), id); err == nil {
			c.Redirect(http.StatusSeeOther, consoleDashboardPath)
			return
		}
	}
	cc.render(c, http.StatusOK, "login.html", consolePage{Title: "Sign in"})
}

func (cc *ConsoleController) Login(c *gin.Context) {
	email := c.PostForm("email")
	page := consolePage{Title: "Sign in", Email: email}

	user, err := cc.Auth.Authenticate(c.Request.Context(), email, c.PostForm("password"))
	if err != nil {
		if statusFor(err) == 0 {
			utils.ErrorLogger.Errorf("console login: %v", err)
		}
		page.Error = "Invalid email or password."
		cc.render(c, http.StatusUnauthorized, "login.html", page)
		return
	}
	if user.Role != models.RoleCleaner {
		page.Error = "Only cleaners can sign in here."
		cc.render(c, http.StatusForbidden, "login.html", page)
		return
	}

	if _, ok := cc.startSession(c, user); ok {
		c.Redirect(http.StatusSeeOther, consoleDashboardPath)
	}
}

func (cc *ConsoleController) RegisterPage(c *gin.Context) {
	cc.render(c, http.StatusOK, "register.html", consolePage{Title: "Register"})
}

func (cc *ConsoleController) Register(c *gin.Context) {
	page := consolePage{
		Title:    "Register",
		FullName: strings.TrimSpace(c.PostForm("fullName")),
		Email:    strings.TrimSpace(c.PostForm("email")),
	}
	password := c.PostForm("password")

	switch {
	case page.FullName == "" || page.Email == "" || strings.TrimSpace(password) == "":
		page.Error = "Please fill all required fields."
	case password != c.PostForm("confirmPassword"):
		page.Error = "Passwords do not match."
	}
	if page.Error != "" {
		cc.render(c, http.StatusBadRequest, "register.html", page)
		return
	}

	ctx := c.Request.Context()
	_, err := cc.Auth.Register(ctx, services.RegisterInput{
		FullName: page.FullName,
		Email:    page.Email,
		Password: password,
		Role:     models.RoleCleaner.String(),
	})
	if err != nil {
		status := statusFor(err)
		switch status {
		case http.StatusConflict:
			page.Error = "Email already exists."
		case 0:
			utils.ErrorLogger.Errorf("console register: %v", err)
			status = http.StatusInternalServerError
			page.Error = "Something went wrong, please try again."
		default:
			page.Error = err.Error()
		}
		cc.render(c, status, "register.html", page)
		return
	}

	user, err := cc.Auth.Authenticate(ctx, page.Email, password)
	if err != nil {
		utils.ErrorLogger.Errorf("console sign-in after register: %v", err)
		c.Redirect(http.StatusSeeOther, consoleLoginPath)
		return
	}
	if id, ok := cc.startSession(c, user); ok {
		if err := cc.Sessions.SetFlash(ctx, id, "Registered successfully! Welcome to CleanMate."); err != nil {
			utils.ErrorLogger.Errorf("set flash: %v", err)
		}
		c.Redirect(http.StatusSeeOther, consoleDashboardPath)
	}
}

func (cc *ConsoleController) Logout(c *gin.Context) {
	if id, err := c.Cookie(middlewares.SessionCookie); err == nil && id != "" {
		if err := cc.Sessions.Destroy(c.Request.Context(), id); err != nil {
			utils.ErrorLogger.Errorf("destroy console session: %v", err)
		}
	}
	c.SetCookie(middlewares.SessionCookie, "", -1, "/", "", cc.SecureCookie, true)
	c.Redirect(http.StatusSeeOther, consoleLoginPath)
}

func (cc *ConsoleController) Dashboard(c *gin.Context) {
	p, _ := middlewares.GetPrincipal(c)
	ctx := c.Request.Context()
	page := consolePage{Title: "Dashboard", Principal: &p}

	flash, err := cc.Sessions.PopFlash(ctx, middlewares.GetSessionID(c))
	if err != nil {
		utils.ErrorLogger.Errorf("pop flash: %v", err)
	}
	page.Flash = flash

	profile, err := cc.Cleaners.GetProfile(ctx, p)
	switch {
	case err == nil:
		page.Profile = profile
	case errors.Is(err, services.ErrNotFound):
		page.Error = "Cleaner profile not found."
	default:
		cc.consoleFailure(c, err)
		return
	}

	if page.Jobs, err = cc.Bookings.ListJobsForCleaner(ctx, p); err != nil {
		cc.consoleFailure(c, err)
		return
	}
	if page.Open, err = cc.Bookings.ListOpenBookings(ctx, p); err != nil {
		cc.consoleFailure(c, err)
		return
	}

	cc.render(c, http.StatusOK, "dashboard.html", page)
}

func (cc *ConsoleController) ProfilePage(c *gin.Context) {
	p, _ := middlewares.GetPrincipal(c)
	page := consolePage{Title: "Profile", Principal: &p}

	profile, err := cc.Cleaners.GetProfile(c.Request.Context(), p)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			c.String(http.StatusNotFound, "cleaner profile not found")
			return
		}
		cc.consoleFailure(c, err)
		return
	}

	page.Form = profileForm{
		City:        profile.City,
		AddressText: profile.AddressText,
		HourlyRate:  profile.HourlyRate,
		Bio:         profile.Bio,
	}
	if profile.User != nil {
		page.Form.FullName = profile.User.FullName
		if profile.User.PhoneNumber != nil {
			page.Form.PhoneNumber = *profile.User.PhoneNumber
		}
	}
	cc.render(c, http.StatusOK, "profile.html", page)
}

func (cc *ConsoleController) UpdateProfile(c *gin.Context) {
	p, _ := middlewares.GetPrincipal(c)
	ctx := c.Request.Context()

	form := profileForm{
		FullName:    c.PostForm("fullName"),
		PhoneNumber: c.PostForm("phoneNumber"),
		City:        c.PostForm("city"),
		AddressText: c.PostForm("addressText"),
		Bio:         c.PostForm("bio"),
	}
	update := services.ProfileUpdate{
		FullName:    &form.FullName,
		PhoneNumber: &form.PhoneNumber,
		City:        &form.City,
		AddressText: &form.AddressText,
		Bio:         &form.Bio,
	}
	page := consolePage{Title: "Profile", Principal: &p, Form: form}

	if raw := strings.TrimSpace(c.PostForm("hourlyRate")); raw != "" {
		rate, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			page.Error = "Hourly rate must be a whole number."
			cc.render(c, http.StatusBadRequest, "profile.html", page)
			return
		}
		page.Form.HourlyRate = rate
		update.HourlyRate = &rate
	}

	profile, err := cc.Cleaners.UpdateCleanerProfile(ctx, p, update)
	if err != nil {
		if status := statusFor(err); status == http.StatusBadRequest || status == http.StatusNotFound {
			page.Error = err.Error()
			cc.render(c, status, "profile.html", page)
			return
		}
		cc.consoleFailure(c, err)
		return
	}

	if profile.User != nil {
		p.Name = profile.User.FullName
		if err := cc.Sessions.Update(ctx, middlewares.GetSessionID(c), p); err != nil {
			utils.ErrorLogger.Errorf("update console session: %v", err)
		}
	}
	cc.flash(c, "Profile updated successfully!")
	c.Redirect(http.StatusSeeOther, consoleDashboardPath)
}

// AcceptBooking calls the lifecycle engine directly with the session principal.
func (cc *ConsoleController) AcceptBooking(c *gin.Context) {
	cc.bookingAction(c, "accepted", cc.Bookings.AcceptBooking)
}

func (cc *ConsoleController) CompleteBooking(c *gin.Context) {
	cc.bookingAction(c, "completed", cc.Bookings.CompleteBooking)
}

type bookingActionFunc func(ctx context.Context, p services.Principal, id uint) (*models.Booking, error)

func (cc *ConsoleController) bookingAction(c *gin.Context, verb string, action bookingActionFunc) {
	p, _ := middlewares.GetPrincipal(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		cc.flash(c, "Unknown booking.")
		c.Redirect(http.StatusSeeOther, consoleDashboardPath)
		return
	}

	booking, err := action(c.Request.Context(), p, uint(id))
	switch {
	case err == nil:
		cc.flash(c, fmt.Sprintf("Booking %s %s successfully!", booking.OrderCode(), verb))
	case statusFor(err) != 0:
		cc.flash(c, fmt.Sprintf("Could not update booking CM%d: %s.", id, err.Error()))
	default:
		utils.ErrorLogger.Errorf("console booking %s: %v", verb, err)
		cc.flash(c, fmt.Sprintf("Could not update booking CM%d, please try again.", id))
	}
	c.Redirect(http.StatusSeeOther, consoleDashboardPath)
}

func (cc *ConsoleController) consoleFailure(c *gin.Context, err error) {
	utils.ErrorLogger.Errorf("console %s: %v", c.Request.URL.Path, err)
	c.String(http.StatusInternalServerError, "internal server error")
}
