// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"spectranet/internal/apiclient"
	"spectranet/internal/middleware"
	"spectranet/internal/models"
	"spectranet/internal/render"
	"spectranet/internal/taxonomy"
	"spectranet/internal/validation"
)

const (
	usersPath           = "/admin/users"
	categoriesPath      = "/admin/categories"
	categoryCascadeURL  = "/admin/categories/cascade"
	parentPlaceholder   = "(无上级分类)"
	errCategoryParent   = "不能将分类移动到其自身或子分类下"
	errCategoryNotFound = "分类不存在"
)

// Admin groups the superuser pages: user and category management.
type Admin struct {
	base
	validate *validation.Validator
}

// NewAdmin creates the Admin handler group.
func NewAdmin(deps Deps) *Admin {
	return &Admin{base: base{deps}, validate: validation.New()}
}

// --- Users ---

// UsersList renders every account and the create form.
func (a *Admin) UsersList(w http.ResponseWriter, r *http.Request) {
	a.renderUsers(w, r, http.StatusOK, models.UserInput{}, "", validation.Errors{})
}

func (a *Admin) renderUsers(w http.ResponseWriter, r *http.Request, status int, form models.UserInput, msg string, errs validation.Errors) {
	users, err := a.client(r).Users(r.Context())
	if err != nil {
		if a.unauthorized(w, r, err) {
			return
		}
		slog.Error("list users failed", "error", err)
		if msg == "" {
			msg = apiclient.Detail(err, "用户列表加载失败")
		}
	}

	form.Password = ""
	a.Renderer.PageStatus(w, r, status, "admin_users", &render.PageData{
		Title:   "用户管理",
		Section: "users",
		Data:    map[string]any{"Users": users, "Form": form, "Error": msg, "Errors": errs},
	})
}

// UserCreate creates an account with the chosen role flags.
func (a *Admin) UserCreate(w http.ResponseWriter, r *http.Request) {
	in := models.UserInput{
		RegisterInput: registerInput(r),
		IsAdmin:       r.FormValue("is_admin") == "true",
		IsSuperuser:   r.FormValue("is_superuser") == "true",
	}

	if err := a.validate.Validate(in); err != nil {
		a.renderUsers(w, r, http.StatusUnprocessableEntity, in, "", validation.Fields(err))
		return
	}

	if _, err := a.client(r).CreateUser(r.Context(), in); err != nil {
		if a.unauthorized(w, r, err) {
			return
		}
		slog.Error("create user failed", "username", in.Username, "error", err)
		a.renderUsers(w, r, http.StatusUnprocessableEntity, in, apiclient.Detail(err, "创建用户失败"), validation.Errors{})
		return
	}

	slog.Info("user created", "username", in.Username, "is_admin", in.IsAdmin, "is_superuser", in.IsSuperuser)
	seeOther(w, r, usersPath)
}

// UserDelete removes an account. Superusers cannot delete themselves.
func (a *Admin) UserDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		a.notFound(w, r)
		return
	}
	if sess := middleware.SessionFromCtx(r.Context()); sess != nil && sess.UserID == id {
		a.renderUsers(w, r, http.StatusUnprocessableEntity, models.UserInput{}, "不能删除当前登录的账号", validation.Errors{})
		return
	}

	if err := a.client(r).DeleteUser(r.Context(), id); err != nil {
		if a.unauthorized(w, r, err) {
			return
		}
		slog.Error("delete user failed", "user_id", id, "error", err)
		a.renderUsers(w, r, http.StatusUnprocessableEntity, models.UserInput{}, apiclient.Detail(err, "删除用户失败"), validation.Errors{})
		return
	}

	slog.Info("user deleted", "user_id", id)
	seeOther(w, r, usersPath)
}

// --- Categories ---

// categoryForm is the state of the category editor.
type categoryForm struct {
	EditingID int64
	Input     models.CategoryInput
	Error     string
	Errors    validation.Errors
}

// CategoriesList renders the category forest and an empty create form.
func (a *Admin) CategoriesList(w http.ResponseWriter, r *http.Request) {
	a.renderCategories(w, r, http.StatusOK, a.forest(r.Context()), categoryForm{})
}

// CategoryEdit renders the editor for one category, with its current
// parent pre-selected in the cascade.
func (a *Admin) CategoryEdit(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		a.notFound(w, r)
		return
	}
	forest := a.forest(r.Context())
	n, ok := forest.Node(id)
	if !ok {
		a.notFound(w, r)
		return
	}

	form := categoryForm{
		EditingID: id,
		Input:     models.CategoryInput{Name: n.Name, Description: n.Description},
	}
	if n.HasParent {
		parent := n.ParentID
		form.Input.ParentID = &parent
	}
	a.renderCategories(w, r, http.StatusOK, forest, form)
}

func (a *Admin) renderCategories(w http.ResponseWriter, r *http.Request, status int, forest *taxonomy.Forest, form categoryForm) {
	c := taxonomy.NewCascade(forest)
	if form.EditingID > 0 {
		c.Exclude(form.EditingID)
	}
	if form.Input.ParentID != nil {
		c.SelectPath(*form.Input.ParentID)
	}
	if form.Errors == nil {
		form.Errors = validation.Errors{}
	}

	a.Renderer.PageStatus(w, r, status, "admin_categories", &render.PageData{
		Title:   "分类管理",
		Section: "categories",
		Data: map[string]any{
			"Rows":      forest.Flatten(),
			"EditingID": form.EditingID,
			"Form":      form.Input,
			"Cascade":   newCascadeView(c, categoryCascadeURL, "parent_id", parentPlaceholder, form.EditingID),
			"Error":     form.Error,
			"Errors":    form.Errors,
		},
	})
}

// CategoryCascade re-renders the parent selector after a level changed.
// The category being edited is passed as exclude so it cannot become its
// own parent.
func (a *Admin) CategoryCascade(w http.ResponseWriter, r *http.Request) {
	var exclude int64
	if id := optionalID(r.URL.Query().Get("exclude")); id != nil {
		exclude = *id
	}
	a.renderCascade(w, r, categoryCascadeURL, "parent_id", parentPlaceholder, exclude)
}

func categoryInput(r *http.Request) models.CategoryInput {
	return models.CategoryInput{
		Name:        strings.TrimSpace(r.FormValue("name")),
		Description: strings.TrimSpace(r.FormValue("description")),
		ParentID:    optionalID(r.FormValue("parent_id")),
	}
}

// CategoryCreate adds a category under the chosen parent.
func (a *Admin) CategoryCreate(w http.ResponseWriter, r *http.Request) {
	a.saveCategory(w, r, 0)
}

// CategoryUpdate renames or moves a category.
func (a *Admin) CategoryUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		a.notFound(w, r)
		return
	}
	a.saveCategory(w, r, id)
}

func (a *Admin) saveCategory(w http.ResponseWriter, r *http.Request, id int64) {
	ctx := r.Context()
	in := categoryInput(r)
	form := categoryForm{EditingID: id, Input: in}

	if err := a.validate.Validate(in); err != nil {
		form.Errors = validation.Fields(err)
		a.renderCategories(w, r, http.StatusUnprocessableEntity, a.forest(ctx), form)
		return
	}

	if id > 0 && in.ParentID != nil {
		forest := a.forest(ctx)
		if *in.ParentID == id || forest.IsDescendant(*in.ParentID, id) {
			form.Error = errCategoryParent
			a.renderCategories(w, r, http.StatusUnprocessableEntity, forest, form)
			return
		}
	}

	api := a.client(r)
	var (
		saved *models.Category
		err   error
	)
	if id > 0 {
		saved, err = api.UpdateCategory(ctx, id, in)
	} else {
		saved, err = api.CreateCategory(ctx, in)
	}
	if err != nil {
		if a.unauthorized(w, r, err) {
			return
		}
		slog.Error("save category failed", "category_id", id, "error", err)
		form.Error = apiclient.Detail(err, "保存分类失败")
		if errors.Is(err, apiclient.ErrNotFound) {
			form.Error = errCategoryNotFound
		}
		a.renderCategories(w, r, http.StatusUnprocessableEntity, a.forest(ctx), form)
		return
	}

	a.Categories.Invalidate(ctx)
	change := models.CategoryChange{CategoryID: id, Action: models.CategoryUpdated, Name: in.Name, ParentID: in.ParentID}
	if id == 0 {
		change.Action = models.CategoryCreated
		change.CategoryID = saved.ID
	}
	a.logCategory(r, change)
	slog.Info("category saved", "category_id", change.CategoryID, "action", change.Action, "name", in.Name)
	seeOther(w, r, categoriesPath)
}

// CategoryDelete removes a category. The API refuses categories that still
// hold datasets or children; its message is shown as is.
func (a *Admin) CategoryDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		a.notFound(w, r)
		return
	}
	ctx := r.Context()

	if err := a.client(r).DeleteCategory(ctx, id); err != nil {
		if a.unauthorized(w, r, err) {
			return
		}
		slog.Error("delete category failed", "category_id", id, "error", err)
		a.renderCategories(w, r, http.StatusUnprocessableEntity, a.forest(ctx), categoryForm{
			Error: apiclient.Detail(err, "删除分类失败"),
		})
		return
	}

	a.Categories.Invalidate(ctx)
	a.logCategory(r, models.CategoryChange{CategoryID: id, Action: models.CategoryDeleted})
	slog.Info("category deleted", "category_id", id)
	seeOther(w, r, categoriesPath)
}

// logCategory records a category change by the signed-in superuser.
func (a *Admin) logCategory(r *http.Request, c models.CategoryChange) {
	if a.CategoryLog == nil {
		return
	}
	if sess := middleware.SessionFromCtx(r.Context()); sess != nil {
		c.UserID = sess.UserID
	}
	a.CategoryLog.Log(r.Context(), c)
}
