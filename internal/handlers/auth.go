// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"spectranet/internal/apiclient"
	"spectranet/internal/middleware"
	"spectranet/internal/models"
	"spectranet/internal/render"
	"spectranet/internal/session"
	"spectranet/internal/state"
	"spectranet/internal/validation"
)

// Auth groups the sign-in, sign-out and registration handlers.
type Auth struct {
	base
	validate *validation.Validator
}

// NewAuth creates the Auth handler group.
func NewAuth(deps Deps) *Auth {
	return &Auth{base: base{deps}, validate: validation.New()}
}

// LoginPage renders the login form.
func (a *Auth) LoginPage(w http.ResponseWriter, r *http.Request) {
	next := r.URL.Query().Get("next")
	if middleware.SessionFromCtx(r.Context()) != nil {
		http.Redirect(w, r, redirectTarget(next), http.StatusSeeOther)
		return
	}

	pd := &render.PageData{
		Title: "登录",
		Data:  map[string]any{"Next": safeNext(next)},
	}
	if r.URL.Query().Get("registered") != "" {
		pd.Flashes = []render.Flash{{Type: "success", Message: "注册成功，请登录"}}
	}
	a.Renderer.Page(w, r, "login", pd)
}

// LoginSubmit exchanges the credentials for a token, resolves the user
// behind it and opens a session.
func (a *Auth) LoginSubmit(w http.ResponseWriter, r *http.Request) {
	username := strings.TrimSpace(r.FormValue("username"))
	password := r.FormValue("password")
	next := safeNext(r.FormValue("next"))

	fail := func(status int, msg string) {
		a.Renderer.PageStatus(w, r, status, "login", &render.PageData{
			Title: "登录",
			Data:  map[string]any{"Error": msg, "Username": username, "Next": next},
		})
	}

	if username == "" || password == "" {
		fail(http.StatusUnprocessableEntity, "请输入用户名和密码")
		return
	}

	tok, err := a.API.Login(r.Context(), username, password)
	if err != nil {
		slog.Info("login rejected", "username", username, "error", err)
		fail(http.StatusUnauthorized, apiclient.Detail(err, "登录失败，请检查用户名和密码"))
		return
	}

	auth := state.NewAuth(tok.AccessToken, nil)
	if err := auth.Load(r.Context(), a.API.WithToken(auth.Token())); err != nil {
		slog.Error("load user after login failed", "username", username, "error", err)
		fail(http.StatusBadGateway, apiclient.Detail(err, "获取用户信息失败"))
		return
	}

	if _, err := a.Sessions.Create(r.Context(), w, session.NewData(auth.Token(), auth.User())); err != nil {
		slog.Error("session create failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	slog.Info("user signed in", "username", username)
	http.Redirect(w, r, redirectTarget(next), http.StatusSeeOther)
}

// Logout destroys the session.
func (a *Auth) Logout(w http.ResponseWriter, r *http.Request) {
	if err := a.Sessions.Destroy(r.Context(), w, r); err != nil {
		slog.Error("session destroy failed", "error", err)
	}
	seeOther(w, r, "/")
}

// RegisterPage renders the registration form.
func (a *Auth) RegisterPage(w http.ResponseWriter, r *http.Request) {
	a.Renderer.Page(w, r, "register", &render.PageData{
		Title: "注册",
		Data:  map[string]any{"Form": models.RegisterInput{}, "Errors": validation.Errors{}},
	})
}

// RegisterSubmit creates an account. Backend validation messages are shown
// verbatim.
func (a *Auth) RegisterSubmit(w http.ResponseWriter, r *http.Request) {
	in := registerInput(r)

	fail := func(status int, msg string, errs validation.Errors) {
		a.Renderer.PageStatus(w, r, status, "register", &render.PageData{
			Title: "注册",
			Data:  map[string]any{"Form": in, "Error": msg, "Errors": errs},
		})
	}

	if err := a.validate.Validate(in); err != nil {
		fail(http.StatusUnprocessableEntity, "", validation.Fields(err))
		return
	}

	if _, err := a.API.Register(r.Context(), in); err != nil {
		slog.Info("registration rejected", "username", in.Username, "error", err)
		fail(http.StatusUnprocessableEntity, apiclient.Detail(err, "注册失败"), validation.Errors{})
		return
	}

	slog.Info("user registered", "username", in.Username)
	http.Redirect(w, r, middleware.LoginPath+"?registered=1", http.StatusSeeOther)
}

func registerInput(r *http.Request) models.RegisterInput {
	return models.RegisterInput{
		Username:    strings.TrimSpace(r.FormValue("username")),
		Email:       strings.TrimSpace(r.FormValue("email")),
		Password:    r.FormValue("password"),
		FullName:    strings.TrimSpace(r.FormValue("full_name")),
		Institution: strings.TrimSpace(r.FormValue("institution")),
	}
}

// safeNext keeps next only when it is a local path.
func safeNext(next string) string {
	if !middleware.SafeNext(next) || next == middleware.LoginPath {
		return ""
	}
	return next
}

func redirectTarget(next string) string {
	if next = safeNext(next); next != "" {
		return next
	}
	return "/"
}
