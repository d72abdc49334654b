package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/mail"

	"github.com/jason-s-yu/bloodrecall/internal/auth"
	"github.com/jason-s-yu/bloodrecall/internal/database"
	"github.com/jason-s-yu/bloodrecall/internal/models"
)

type createUserRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Username string `json:"username"`
}

func (req createUserRequest) validate() error {
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return errors.New("invalid email")
	}
	if req.Password == "" {
		return auth.ErrEmptyPassword
	}
	if req.Username == "" {
		return errors.New("username is required")
	}
	return nil
}

// CreateUserHandler registers a user with a fresh rating.
func (s *Server) CreateUserHandler(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	if err := req.validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	user := models.User{
		Email:    req.Email,
		Password: req.Password,
		Username: req.Username,
	}
	if err := database.CreateUser(r.Context(), &user); err != nil {
		if database.IsUniqueViolation(err) {
			http.Error(w, "email already exists", http.StatusConflict)
			return
		}
		s.Log.WithError(err).Error("failed to create user")
		http.Error(w, "error creating user", http.StatusInternalServerError)
		return
	}
	user.Password = ""
	writeJSON(w, http.StatusCreated, user)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// LoginHandler handles user login requests. It expects a JSON payload with email and password,
// and returns a JSON response with an authentication token if the login is successful.
//
// Request payload:
//
//	{
//	  "email": "someone@example.com",
//	  "password": "password"
//	}
//
// Response payload:
//
//	{
//	  "token": "{jwt}",
//	  "user": {...}
//	}
//
// The token is also sent via the Cookie header.
func (s *Server) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request payload", http.StatusBadRequest)
		return
	}
	if req.Email == "" || req.Password == "" {
		http.Error(w, "email and password are required", http.StatusBadRequest)
		return
	}

	token, user, err := database.AuthenticateUser(r.Context(), req.Email, req.Password)
	if errors.Is(err, database.ErrInvalidCredentials) {
		http.Error(w, "authentication failed", http.StatusForbidden)
		return
	}
	if err != nil {
		s.Log.WithError(err).Error("failed to authenticate user")
		http.Error(w, "authentication failed", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     authCookie,
		Value:    token,
		HttpOnly: true,
		Path:     "/",
	})
	writeJSON(w, http.StatusOK, loginResponse{Token: token, User: user})
}
