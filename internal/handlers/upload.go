// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"spectranet/internal/apiclient"
	"spectranet/internal/middleware"
	"spectranet/internal/models"
	"spectranet/internal/render"
	"spectranet/internal/session"
	"spectranet/internal/taxonomy"
	"spectranet/internal/validation"
	"spectranet/internal/wizard"
)

const (
	uploadPath       = "/upload"
	uploadCascadeURL = "/upload/cascade"

	// multipartMemory is how much of a multipart body is kept in memory;
	// the rest spills to temporary files.
	multipartMemory = 32 << 20
)

// Upload groups the handlers of the three-step upload wizard. The wizard
// state lives in the user's session between requests.
type Upload struct {
	base
	validate *validation.Validator
}

// NewUpload creates the Upload handler group.
func NewUpload(deps Deps) *Upload {
	return &Upload{base: base{deps}, validate: validation.New()}
}

// wizardFor builds a wizard that talks to the API as the session's user.
func (u *Upload) wizardFor(r *http.Request, sess *session.Data) *wizard.Wizard {
	opts := []wizard.Option{wizard.WithLabels(u.UploadLabels), wizard.WithUser(sess.UserID)}
	if u.Journal != nil {
		opts = append(opts, wizard.WithJournal(u.Journal))
	}
	return wizard.NewWizard(u.client(r), opts...)
}

// stateOf returns the wizard state of the session, starting a new run when
// there is none.
func stateOf(sess *session.Data) *wizard.State {
	if sess.Wizard == nil {
		sess.Wizard = wizard.New()
	}
	return sess.Wizard
}

// save persists the wizard state. A failure is logged; the user sees the
// previous state on the next request.
func (u *Upload) save(r *http.Request, sess *session.Data) {
	if err := u.Sessions.Update(r.Context(), r, sess); err != nil {
		slog.Error("save wizard state failed", "error", err, "request_id", middleware.RequestIDFromCtx(r.Context()))
	}
}

// Page renders the current wizard step.
func (u *Upload) Page(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	u.render(w, r, http.StatusOK, stateOf(sess), validation.Errors{})
}

func (u *Upload) render(w http.ResponseWriter, r *http.Request, status int, st *wizard.State, errs validation.Errors) {
	data := map[string]any{
		"Wizard":  st,
		"Errors":  errs,
		"Types":   models.SpectralTypes,
		"Units":   models.WavelengthUnits,
		"Formats": models.FileFormats,
		"MaxMB":   u.UploadMaxBytes >> 20,
		"FirstRow": fileRow{
			RowID:  uuid.NewString(),
			Labels: u.UploadLabels,
		},
	}

	if st.Step == wizard.StepMetadata {
		c := taxonomy.NewCascade(u.forest(r.Context()))
		if id := st.Metadata.CategoryID; id != nil {
			c.SelectPath(*id)
		}
		data["Cascade"] = newCascadeView(c, uploadCascadeURL, "category_id", "请选择分类", 0)
	}

	u.Renderer.PageStatus(w, r, status, "upload", &render.PageData{
		Title:   "上传数据集",
		Section: "upload",
		Data:    data,
	})
}

// SubmitMetadata validates the dataset form, then creates the dataset (or
// updates it after Back) and moves to the files step.
func (u *Upload) SubmitMetadata(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	st := stateOf(sess)
	in := datasetInput(r)

	if st.Step != wizard.StepMetadata {
		seeOther(w, r, uploadPath)
		return
	}

	if err := u.validate.Validate(in); err != nil {
		st.Metadata = in
		u.render(w, r, http.StatusUnprocessableEntity, st, validation.Fields(err))
		return
	}

	if err := u.wizardFor(r, sess).SubmitMetadata(r.Context(), st, in); err != nil {
		if u.unauthorized(w, r, err) {
			return
		}
		slog.Error("submit dataset metadata failed", "dataset_id", st.DatasetID, "error", err)
		st.Metadata = in
	}

	u.save(r, sess)
	seeOther(w, r, uploadPath)
}

// SubmitFiles uploads the chosen files one after another.
func (u *Upload) SubmitFiles(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	st := stateOf(sess)

	if st.Step != wizard.StepFiles {
		seeOther(w, r, uploadPath)
		return
	}

	tooLargeMsg := fmt.Sprintf("文件过大，单次上传不能超过 %d MB", u.UploadMaxBytes>>20)
	if r.ContentLength > u.UploadMaxBytes {
		st.Error = tooLargeMsg
		slog.Warn("upload body too large", "content_length", r.ContentLength)
		u.save(r, sess)
		seeOther(w, r, uploadPath)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, u.UploadMaxBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			st.Error = tooLargeMsg
		} else {
			st.Error = "无法读取上传的文件"
		}
		slog.Warn("parse upload form failed", "error", err)
		u.save(r, sess)
		seeOther(w, r, uploadPath)
		return
	}
	defer r.MultipartForm.RemoveAll()

	files, closers := filesFromForm(r.MultipartForm)
	defer func() {
		for _, c := range closers {
			c.Close()
		}
	}()

	err := u.wizardFor(r, sess).SubmitFiles(r.Context(), st, files)
	if err != nil {
		if u.unauthorized(w, r, err) {
			return
		}
		slog.Warn("upload files failed", "dataset_id", st.DatasetID, "uploaded", len(st.Uploaded), "error", err)
	} else {
		slog.Info("dataset files uploaded", "dataset_id", st.DatasetID, "files", len(st.Uploaded))
	}

	u.save(r, sess)
	seeOther(w, r, uploadPath)
}

// Back returns to the metadata step.
func (u *Upload) Back(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	st := stateOf(sess)
	if err := u.wizardFor(r, sess).Back(st); err != nil {
		slog.Info("wizard back ignored", "step", st.Step.String())
	}
	u.save(r, sess)
	seeOther(w, r, uploadPath)
}

// Reset starts a new wizard run.
func (u *Upload) Reset(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	u.wizardFor(r, sess).Reset(stateOf(sess))
	u.save(r, sess)
	seeOther(w, r, uploadPath)
}

// Cascade re-renders the category selector after a level changed.
func (u *Upload) Cascade(w http.ResponseWriter, r *http.Request) {
	u.renderCascade(w, r, uploadCascadeURL, "category_id", "请选择分类", 0)
}

// fileRow is the template data of the "file_row" partial.
type fileRow struct {
	RowID  string
	Labels []string
}

// FileRow renders one more row of the multi-file picker.
func (u *Upload) FileRow(w http.ResponseWriter, r *http.Request) {
	u.Renderer.Partial(w, r, "file_row", fileRow{RowID: uuid.NewString(), Labels: u.UploadLabels})
}

// datasetInput reads the metadata form.
func datasetInput(r *http.Request) models.DatasetInput {
	return models.DatasetInput{
		Name:            strings.TrimSpace(r.FormValue("name")),
		Description:     strings.TrimSpace(r.FormValue("description")),
		CategoryID:      optionalID(r.FormValue("category_id")),
		SpectralType:    r.FormValue("spectral_type"),
		WavelengthRange: strings.TrimSpace(r.FormValue("wavelength_range")),
		WavelengthUnit:  r.FormValue("wavelength_unit"),
		FileFormat:      r.FormValue("file_format"),
		Tags:            splitTags(r.FormValue("tags")),
		IsPublic:        r.FormValue("is_public") == "true",
	}
}

// splitTags splits a comma separated list, accepting full-width commas.
func splitTags(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == '，' })
	tags := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			tags = append(tags, f)
		}
	}
	return tags
}

// filesFromForm collects the submission of the files step. Rows of the
// multi-file picker without a file are skipped. The returned closers must
// be closed once the uploads are done.
func filesFromForm(form *multipart.Form) (wizard.Files, []io.Closer) {
	var closers []io.Closer
	open := func(field string) *apiclient.File {
		headers := form.File[field]
		if len(headers) == 0 || headers[0].Size == 0 {
			return nil
		}
		f, err := headers[0].Open()
		if err != nil {
			slog.Warn("open uploaded file failed", "field", field, "error", err)
			return nil
		}
		closers = append(closers, f)
		return &apiclient.File{Name: headers[0].Filename, Body: f}
	}
	value := func(field string) string {
		if v := form.Value[field]; len(v) > 0 {
			return v[0]
		}
		return ""
	}

	files := wizard.Files{Mode: wizard.Mode(value("mode"))}
	if files.Mode == wizard.ModeMultiple {
		for _, id := range form.Value["row_id"] {
			f := open("file_" + id)
			if f == nil {
				continue
			}
			files.Labeled = append(files.Labeled, wizard.LabeledFile{Label: value("label_" + id), File: *f})
		}
		return files, closers
	}

	files.Mode = wizard.ModeSingle
	files.DatasetFile = open("dataset_file")
	files.SamplesCSV = open("samples_csv")
	return files, closers
}
