package main

import (
	"net/http"

	"github.com/google/uuid"

	"pasal/internal/session"
)

type LoginPayload struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type RegisterPayload struct {
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	Contact  string `json:"contact" validate:"required,nepaliphone"`
}

type VerifyOTPPayload struct {
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"otp" validate:"required,len=6,numeric"`
}

type SessionResponse struct {
	UserID int64  `json:"userId"`
	Name   string `json:"name,omitempty"`
	Email  string `json:"email,omitempty"`
}

//	@Summary		Log in
//	@Description	Authenticates against the commerce API and opens a local session
//	@Tags			authentication
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		LoginPayload	true	"Credentials"
//	@Success		200		{object}	SessionResponse
//	@Failure		400		{object}	error
//	@Failure		401		{object}	error
//	@Router			/authentication/login [post]
func (app *application) loginHandler(w http.ResponseWriter, r *http.Request) {
	var payload LoginPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	res, err := app.api.Login(r.Context(), payload.Email, payload.Password)
	if err != nil {
		app.upstreamError(w, r, err)
		return
	}

	app.openSession(w, r, res.AccessToken, payload.Email)
}

//	@Summary		Register
//	@Description	Creates an account on the commerce API; an OTP is emailed for verification
//	@Tags			authentication
//	@Accept			json
//	@Produce		json
//	@Param			payload	body	RegisterPayload	true	"New account"
//	@Success		201
//	@Failure		400	{object}	error
//	@Router			/authentication/register [post]
func (app *application) registerHandler(w http.ResponseWriter, r *http.Request) {
	var payload RegisterPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := app.api.Register(r.Context(), payload.Name, payload.Email, payload.Password, payload.Contact); err != nil {
		app.upstreamError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusCreated, map[string]string{
		"message": "account created, check your email for the verification code",
	}); err != nil {
		app.internalServerError(w, r, err)
	}
}

//	@Summary		Verify OTP
//	@Description	Confirms the emailed code and opens a session
//	@Tags			authentication
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		VerifyOTPPayload	true	"Email and code"
//	@Success		200		{object}	SessionResponse
//	@Failure		400		{object}	error
//	@Router			/authentication/otp [post]
func (app *application) verifyOTPHandler(w http.ResponseWriter, r *http.Request) {
	var payload VerifyOTPPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	res, err := app.api.VerifyOTP(r.Context(), payload.Email, payload.OTP)
	if err != nil {
		app.upstreamError(w, r, err)
		return
	}

	app.openSession(w, r, res.AccessToken, payload.Email)
}

//	@Summary		Log out
//	@Tags			authentication
//	@Success		204
//	@Security		ApiKeyAuth
//	@Router			/users/logout [post]
func (app *application) logoutHandler(w http.ResponseWriter, r *http.Request) {
	s := session.FromContext(r.Context())

	if err := app.sessions.Clear(r.Context(), s.ID); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     app.config.session.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	w.WriteHeader(http.StatusNoContent)
}

// openSession decodes the access token, stores the session in Redis and sets
// the session cookie.
func (app *application) openSession(w http.ResponseWriter, r *http.Request, accessToken, email string) {
	s, err := session.FromToken(accessToken)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}
	s.ID = uuid.NewString()
	if s.Email == "" {
		s.Email = email
	}

	if err := app.sessions.Put(r.Context(), s); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     app.config.session.cookieName,
		Value:    s.ID,
		Path:     "/",
		MaxAge:   int(app.config.session.ttl.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   app.config.env == "production",
	})

	if err := app.jsonResponse(w, http.StatusOK, SessionResponse{
		UserID: s.UserID,
		Name:   s.Name,
		Email:  s.Email,
	}); err != nil {
		app.internalServerError(w, r, err)
	}
}
