package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/cleanmate-app/models"
	"github.com/yeremiapane/cleanmate-app/services"
	"github.com/yeremiapane/cleanmate-app/utils"
)

type UserController struct {
	Auth     *services.AuthService
	Cleaners *services.CleanerService
}

func NewUserController(auth *services.AuthService, cleaners *services.CleanerService) *UserController {
	return &UserController{Auth: auth, Cleaners: cleaners}
}

func (uc *UserController) Register(c *gin.Context) {
	var req services.RegisterInput
	if !bindJSON(c, &req) {
		return
	}

	user, err := uc.Auth.Register(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "User registered", user)
}

func (uc *UserController) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !bindJSON(c, &req) {
		return
	}

	res, err := uc.Auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Login successful", res)
}

func (uc *UserController) GoogleLogin(c *gin.Context) {
	var req struct {
		IDToken string `json:"idToken"`
	}
	if !bindJSON(c, &req) {
		return
	}

	res, err := uc.Auth.LoginWithExternalIdentity(c.Request.Context(), req.IDToken)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Login successful", res)
}

// Me echoes the token principal, enriched with the stored account.
func (uc *UserController) Me(c *gin.Context) {
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}

	data := gin.H{
		"id":    p.UserID,
		"name":  p.Name,
		"email": p.Email,
		"role":  p.Role,
	}

	user, err := uc.Auth.CurrentUser(c.Request.Context(), p)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	data["fullName"] = user.FullName
	data["phoneNumber"] = user.PhoneNumber

	if p.Role == models.RoleCleaner {
		profile, err := uc.Cleaners.GetProfile(c.Request.Context(), p)
		if err == nil {
			profile.User = nil
			data["cleanerProfile"] = profile
		} else if statusFor(err) != http.StatusNotFound {
			respondServiceError(c, err)
			return
		}
	}

	utils.RespondJSON(c, http.StatusOK, "Profile data retrieved successfully", data)
}
