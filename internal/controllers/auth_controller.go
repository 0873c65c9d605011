package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	logrus "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"driveassist/internal/apperr"
	"driveassist/internal/middleware"
	"driveassist/internal/models"
	"driveassist/internal/query"
	"driveassist/internal/repository"
	"driveassist/internal/score"
)

// AuthController owns the account surface: login, registration, profile
// updates, deletion and the admin user listing.
type AuthController struct {
	repo   *repository.Repo
	tokens *middleware.TokenManager
}

func NewAuthController(repo *repository.Repo, tokens *middleware.TokenManager) *AuthController {
	return &AuthController{repo: repo, tokens: tokens}
}

type loginInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login verifies credentials and returns the user's identity plus a JWT.
// Invalid credentials answer 200 with success:false, matching the clients'
// expectations.
func (a *AuthController) Login(c *gin.Context) {
	var input loginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondErr(c, apperr.Validation("invalid request body: %v", err))
		return
	}
	if input.Username == "" || input.Password == "" {
		respondErr(c, apperr.Validation("username and password are required"))
		return
	}

	user, err := a.repo.GetUserByUsername(c.Request.Context(), input.Username)
	if err != nil {
		respondErr(c, apperr.Storage("looking up user", err))
		return
	}
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.Password)) != nil {
		c.JSON(http.StatusOK, gin.H{"success": false, "error": "Invalid credentials"})
		return
	}

	token, err := a.tokens.GenerateToken(user.ID, user.Role)
	if err != nil {
		respondErr(c, apperr.Internal("could not generate token", err))
		return
	}

	respondOK(c, gin.H{
		"user": gin.H{
			"id":       user.ID,
			"username": user.Username,
			"role":     user.Role,
		},
		"token": token,
	})
}

type addUserInput struct {
	Username     string `json:"username"`
	Password     string `json:"password"`
	Role         string `json:"role"`
	FullName     string `json:"full_name"`
	Email        string `json:"email"`
	CarName      string `json:"car_name"`
	CarNumber    string `json:"car_number"`
	ObdName      string `json:"obd_name"`
	BluetoothMac string `json:"bluetooth_mac"`
}

// AddUser registers an account. Drivers ("user" role, the default) start
// with a full score of 100.
func (a *AuthController) AddUser(c *gin.Context) {
	var input addUserInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondErr(c, apperr.Validation("invalid request body: %v", err))
		return
	}
	if input.Username == "" || input.Password == "" {
		respondErr(c, apperr.Validation("username and password are required"))
		return
	}

	role := input.Role
	if role == "" {
		role = "user"
	}
	if role != "user" && role != "admin" {
		respondErr(c, apperr.Validation("invalid role %q", role))
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		respondErr(c, apperr.Internal("could not hash password", err))
		return
	}

	initialScore := score.MaxScore
	user := models.User{
		Username:     input.Username,
		Password:     string(hash),
		Role:         role,
		FullName:     input.FullName,
		Email:        input.Email,
		CarName:      input.CarName,
		CarNumber:    input.CarNumber,
		ObdName:      input.ObdName,
		BluetoothMac: input.BluetoothMac,
		Score:        &initialScore,
	}

	if err := a.repo.CreateUser(c.Request.Context(), &user); err != nil {
		if repository.IsUniqueViolation(err) {
			respondErr(c, apperr.Conflict("username %q already in use", input.Username))
			return
		}
		respondErr(c, apperr.Storage("could not create user", err))
		return
	}

	logrus.WithFields(logrus.Fields{"user_id": user.ID, "role": role}).Info("user registered")
	respondOK(c, gin.H{"message": "User added successfully", "user_id": user.ID})
}

type updateUserInput struct {
	ID           uint    `json:"id"`
	Username     *string `json:"username"`
	Password     *string `json:"password"`
	FullName     *string `json:"full_name"`
	Email        *string `json:"email"`
	CarName      *string `json:"car_name"`
	CarNumber    *string `json:"car_number"`
	ObdName      *string `json:"obd_name"`
	BluetoothMac *string `json:"bluetooth_mac"`
}

// UpdateUser mutates profile and vehicle-pairing fields in place. Absent
// fields are left untouched; the score is never writable here.
func (a *AuthController) UpdateUser(c *gin.Context) {
	var input updateUserInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondErr(c, apperr.Validation("invalid request body: %v", err))
		return
	}
	if input.ID == 0 {
		respondErr(c, apperr.Validation("id is required"))
		return
	}

	user, err := a.repo.GetUserByID(c.Request.Context(), input.ID)
	if err != nil {
		respondErr(c, apperr.Storage("looking up user", err))
		return
	}
	if user == nil {
		respondErr(c, apperr.NotFound("user %d not found", input.ID))
		return
	}

	if input.Username != nil {
		user.Username = *input.Username
	}
	if input.Password != nil {
		hash, hashErr := bcrypt.GenerateFromPassword([]byte(*input.Password), bcrypt.DefaultCost)
		if hashErr != nil {
			respondErr(c, apperr.Internal("could not hash password", hashErr))
			return
		}
		user.Password = string(hash)
	}
	if input.FullName != nil {
		user.FullName = *input.FullName
	}
	if input.Email != nil {
		user.Email = *input.Email
	}
	if input.CarName != nil {
		user.CarName = *input.CarName
	}
	if input.CarNumber != nil {
		user.CarNumber = *input.CarNumber
	}
	if input.ObdName != nil {
		user.ObdName = *input.ObdName
	}
	if input.BluetoothMac != nil {
		user.BluetoothMac = *input.BluetoothMac
	}

	if err := a.repo.SaveUser(c.Request.Context(), user); err != nil {
		if repository.IsUniqueViolation(err) {
			respondErr(c, apperr.Conflict("username already in use"))
			return
		}
		respondErr(c, apperr.Storage("could not update user", err))
		return
	}

	respondOK(c, gin.H{"message": "User updated successfully"})
}

// DeleteUser removes a user and, atomically, every trip, event and speed
// sample referencing them.
func (a *AuthController) DeleteUser(c *gin.Context) {
	idStr := c.Param("userId")
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		respondErr(c, apperr.Validation("invalid user id %q", idStr))
		return
	}

	counts, err := a.repo.DeleteUserCascade(c.Request.Context(), uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondErr(c, apperr.NotFound("user %d not found", id))
			return
		}
		respondErr(c, apperr.Storage("could not delete user", err))
		return
	}

	logrus.WithFields(logrus.Fields{
		"user_id":       id,
		"trips":         counts.Trips,
		"events":        counts.Events,
		"speed_samples": counts.SpeedSamples,
	}).Info("user deleted")
	respondOK(c, gin.H{"deletedCounts": counts})
}

// ListUsers returns every driver account ("user" role) projected to
// profile + score fields.
func (a *AuthController) ListUsers(c *gin.Context) {
	users, err := a.repo.ListUsersByRole(c.Request.Context(), "user")
	if err != nil {
		respondErr(c, apperr.Storage("listing users", err))
		return
	}

	views := make([]query.UserView, 0, len(users))
	for _, u := range users {
		views = append(views, query.NewUserView(u))
	}
	respondOK(c, gin.H{"users": views})
}
