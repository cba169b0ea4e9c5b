// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"spectranet/internal/apiclient"
	"spectranet/internal/models"
	"spectranet/internal/session"
	"spectranet/internal/wizard"
)

func metadataForm() url.Values {
	return url.Values{
		"name":            {"Cotton NIR"},
		"description":     {"notes"},
		"category_id":     {"4"},
		"spectral_type":   {"NIR"},
		"wavelength_unit": {"nm"},
		"tags":            {"棉， textile ,,fiber"},
		"is_public":       {"true"},
	}
}

func TestUploadMetadataCreatesDataset(t *testing.T) {
	env := newTestEnv(t)
	sess := env.uploader(t)

	var got models.DatasetInput
	env.api.handle("POST /api/datasets/{$}", func(w http.ResponseWriter, r *http.Request) {
		decodeJSON(t, r, &got)
		writeJSON(w, http.StatusOK, models.Dataset{ID: 42, Name: got.Name})
	})

	w := httptest.NewRecorder()
	NewUpload(env.deps).SubmitMetadata(w, formRequest("/upload/metadata", metadataForm(), sess, "sess-up"))

	if w.Code != http.StatusSeeOther || w.Header().Get("Location") != "/upload" {
		t.Fatalf("got %d %q, want 303 /upload", w.Code, w.Header().Get("Location"))
	}
	if got.CategoryID == nil || *got.CategoryID != 4 {
		t.Errorf("category_id: got %v, want 4", got.CategoryID)
	}
	if strings.Join(got.Tags, "|") != "棉|textile|fiber" {
		t.Errorf("tags: got %q", got.Tags)
	}
	if !got.IsPublic {
		t.Error("is_public should be set")
	}

	st := env.sessions.load(t, "sess-up").Wizard
	if st == nil || st.Step != wizard.StepFiles || st.DatasetID != 42 {
		t.Fatalf("wizard state: got %+v", st)
	}
}

func TestUploadMetadataValidation(t *testing.T) {
	env := newTestEnv(t)
	sess := env.uploader(t)

	form := metadataForm()
	form.Set("name", "")
	form.Set("wavelength_unit", "parsec")

	w := httptest.NewRecorder()
	NewUpload(env.deps).SubmitMetadata(w, formRequest("/upload/metadata", form, sess, "sess-up"))

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status: got %d, want 422", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "不能为空") || !strings.Contains(body, "必须是以下之一") {
		t.Error("field errors should be shown")
	}
	if len(env.api.seen("POST /api/datasets")) != 0 {
		t.Error("API should not be called with invalid input")
	}
}

func TestUploadMetadataUnauthorizedRedirects(t *testing.T) {
	env := newTestEnv(t)
	sess := env.uploader(t)
	env.api.json("POST /api/datasets/{$}", http.StatusUnauthorized, detail("Could not validate credentials"))

	w := httptest.NewRecorder()
	req := formRequest("/upload/metadata", metadataForm(), sess, "sess-up")
	req.Header.Set("HX-Request", "true")
	NewUpload(env.deps).SubmitMetadata(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status: got %d, want 401", w.Code)
	}
	if got := w.Header().Get("HX-Redirect"); got != "/login?next=%2Fupload%2Fmetadata" {
		t.Errorf("HX-Redirect: got %q", got)
	}
	if env.sessions.load(t, "sess-up") != nil {
		t.Error("session should be destroyed on 401")
	}
}

func TestUploadBackThenUpdate(t *testing.T) {
	env := newTestEnv(t)
	sess := env.uploader(t)
	sess.Wizard = &wizard.State{Step: wizard.StepFiles, DatasetID: 42, Mode: wizard.ModeSingle}
	env.sessions.put(t, "sess-up", sess)

	var updated bool
	env.api.handle("PUT /api/datasets/{id}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") != "42" {
			t.Errorf("update id: got %s", r.PathValue("id"))
		}
		updated = true
		writeJSON(w, http.StatusOK, models.Dataset{ID: 42})
	})

	h := NewUpload(env.deps)
	w := httptest.NewRecorder()
	h.Back(w, formRequest("/upload/back", nil, sess, "sess-up"))
	if st := env.sessions.load(t, "sess-up").Wizard; st.Step != wizard.StepMetadata || st.DatasetID != 42 {
		t.Fatalf("after back: got %+v", st)
	}

	w = httptest.NewRecorder()
	h.SubmitMetadata(w, formRequest("/upload/metadata", metadataForm(), sess, "sess-up"))
	if !updated {
		t.Error("resubmitting after back should update the dataset")
	}
	if len(env.api.seen("POST /api/datasets")) != 0 {
		t.Error("resubmitting after back should not create another dataset")
	}
}

// multipartUpload builds a labeled multi-file submission.
func multipartUpload(t *testing.T, rows map[string][2]string, order []string, sess *session.Data) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.WriteField("mode", "multiple")
	for _, id := range order {
		row := rows[id]
		mw.WriteField("row_id", id)
		mw.WriteField("label_"+id, row[1])
		fw, err := mw.CreateFormFile("file_"+id, row[0])
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		io.WriteString(fw, "wl,i\n400,0.1\n")
	}
	mw.Close()

	req := request(http.MethodPost, "/upload/files", &buf, sess, "sess-up")
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestUploadFilesStopsAtFirstFailure(t *testing.T) {
	env := newTestEnv(t)
	sess := env.uploader(t)
	sess.Wizard = &wizard.State{Step: wizard.StepFiles, DatasetID: 42, Mode: wizard.ModeSingle}
	env.sessions.put(t, "sess-up", sess)

	var (
		mu    sync.Mutex
		order []string
	)
	env.api.handle("POST /api/upload/labeled/{id}", func(w http.ResponseWriter, r *http.Request) {
		_, hdr, err := r.FormFile("file")
		if err != nil {
			t.Errorf("read upload: %v", err)
			return
		}
		mu.Lock()
		order = append(order, hdr.Filename)
		mu.Unlock()
		if hdr.Filename == "b.csv" {
			writeJSON(w, http.StatusBadRequest, detail("CSV has no wavelength header"))
			return
		}
		writeJSON(w, http.StatusOK, apiclient.UploadResult{Message: "ok", SamplesAdded: 3, Label: r.FormValue("label")})
	})

	rows := map[string][2]string{
		"r1": {"a.csv", "棉"},
		"r2": {"b.csv", "蚕丝"},
		"r3": {"c.csv", "棉"},
	}
	w := httptest.NewRecorder()
	NewUpload(env.deps).SubmitFiles(w, multipartUpload(t, rows, []string{"r1", "r2", "r3"}, sess))

	if w.Code != http.StatusSeeOther {
		t.Fatalf("status: got %d, want 303", w.Code)
	}
	if strings.Join(order, ",") != "a.csv,b.csv" {
		t.Errorf("upload order: got %v, want a.csv,b.csv", order)
	}

	st := env.sessions.load(t, "sess-up").Wizard
	if st.Step != wizard.StepFiles {
		t.Errorf("step: got %v, want files", st.Step)
	}
	if st.Error != "b.csv: CSV has no wavelength header" {
		t.Errorf("error: got %q", st.Error)
	}
	if len(st.Uploaded) != 1 || st.Uploaded[0].Filename != "a.csv" || st.Uploaded[0].SamplesAdded != 3 {
		t.Errorf("uploaded: got %+v", st.Uploaded)
	}
}

func TestUploadFilesRejectsUnknownLabel(t *testing.T) {
	env := newTestEnv(t)
	sess := env.uploader(t)
	sess.Wizard = &wizard.State{Step: wizard.StepFiles, DatasetID: 42}
	env.sessions.put(t, "sess-up", sess)

	rows := map[string][2]string{"r1": {"a.csv", "棉"}, "r2": {"b.csv", "石墨"}}
	w := httptest.NewRecorder()
	NewUpload(env.deps).SubmitFiles(w, multipartUpload(t, rows, []string{"r1", "r2"}, sess))

	if len(env.api.seen("POST /api/upload")) != 0 {
		t.Error("no file should be uploaded when a label is invalid")
	}
	if st := env.sessions.load(t, "sess-up").Wizard; st.Error != "标签无效" {
		t.Errorf("error: got %q", st.Error)
	}
}

// recordingJournal keeps journal entries in memory.
type recordingJournal struct {
	mu      sync.Mutex
	entries []models.UploadEntry
}

func (j *recordingJournal) RecordUpload(_ context.Context, e models.UploadEntry) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, e)
	return nil
}

func (j *recordingJournal) ForDataset(_ context.Context, id int64) ([]models.UploadEntry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	var out []models.UploadEntry
	for _, e := range j.entries {
		if e.DatasetID == id {
			out = append(out, e)
		}
	}
	return out, nil
}

func TestUploadFilesSingleModeJournaled(t *testing.T) {
	env := newTestEnv(t)
	journal := &recordingJournal{}
	env.deps.Journal = journal
	sess := env.uploader(t)
	sess.Wizard = &wizard.State{Step: wizard.StepFiles, DatasetID: 42}
	env.sessions.put(t, "sess-up", sess)

	env.api.json("POST /api/upload/dataset", http.StatusOK, apiclient.UploadResult{Message: "ok"})
	env.api.json("POST /api/upload/samples/{id}", http.StatusOK, apiclient.UploadResult{Message: "ok", SamplesAdded: 12})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.WriteField("mode", "single")
	fw, _ := mw.CreateFormFile("dataset_file", "raw.mat")
	io.WriteString(fw, "binary")
	fw, _ = mw.CreateFormFile("samples_csv", "samples.csv")
	io.WriteString(fw, "wl,i\n")
	mw.Close()
	req := request(http.MethodPost, "/upload/files", &buf, sess, "sess-up")
	req.Header.Set("Content-Type", mw.FormDataContentType())

	w := httptest.NewRecorder()
	NewUpload(env.deps).SubmitFiles(w, req)

	st := env.sessions.load(t, "sess-up").Wizard
	if st.Step != wizard.StepDone {
		t.Fatalf("step: got %v, want done (error %q)", st.Step, st.Error)
	}
	if len(journal.entries) != 2 {
		t.Fatalf("journal entries: got %d, want 2", len(journal.entries))
	}
	if journal.entries[0].Kind != models.UploadDatasetFile || journal.entries[1].SamplesAdded != 12 {
		t.Errorf("journal: got %+v", journal.entries)
	}
	if journal.entries[0].UserID != 7 {
		t.Errorf("journal user: got %d, want 7", journal.entries[0].UserID)
	}
}

func TestUploadFilesTooLarge(t *testing.T) {
	env := newTestEnv(t)
	env.deps.UploadMaxBytes = 1 << 20
	sess := env.uploader(t)
	sess.Wizard = &wizard.State{Step: wizard.StepFiles, DatasetID: 42}
	env.sessions.put(t, "sess-up", sess)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.WriteField("mode", "single")
	fw, _ := mw.CreateFormFile("dataset_file", "huge.bin")
	fw.Write(bytes.Repeat([]byte("x"), 2<<20))
	mw.Close()
	req := request(http.MethodPost, "/upload/files", &buf, sess, "sess-up")
	req.Header.Set("Content-Type", mw.FormDataContentType())

	w := httptest.NewRecorder()
	NewUpload(env.deps).SubmitFiles(w, req)

	st := env.sessions.load(t, "sess-up").Wizard
	if !strings.Contains(st.Error, "文件过大") {
		t.Errorf("error: got %q", st.Error)
	}
	if len(env.api.seen("POST /api/upload")) != 0 {
		t.Error("nothing should be uploaded")
	}
}

func TestUploadReset(t *testing.T) {
	env := newTestEnv(t)
	sess := env.uploader(t)
	sess.Wizard = &wizard.State{Step: wizard.StepDone, DatasetID: 42}
	env.sessions.put(t, "sess-up", sess)

	w := httptest.NewRecorder()
	NewUpload(env.deps).Reset(w, formRequest("/upload/reset", nil, sess, "sess-up"))

	st := env.sessions.load(t, "sess-up").Wizard
	if st.Step != wizard.StepMetadata || st.HasDataset() {
		t.Errorf("after reset: got %+v", st)
	}
}

func TestUploadPagePreselectsCategory(t *testing.T) {
	env := newTestEnv(t)
	sess := env.uploader(t)
	cat := int64(4)
	sess.Wizard = &wizard.State{Step: wizard.StepMetadata, Metadata: models.DatasetInput{Name: "x", CategoryID: &cat}}

	w := httptest.NewRecorder()
	NewUpload(env.deps).Page(w, request(http.MethodGet, "/upload", nil, sess, "sess-up"))

	body := w.Body.String()
	if got := strings.Count(body, `<select name="category_level"`); got != 3 {
		t.Errorf("level selects: got %d, want 3", got)
	}
	if !strings.Contains(body, `name="category_id" value="4"`) {
		t.Error("hidden category field should hold the pre-selected value")
	}
}

func TestUploadCascade(t *testing.T) {
	env := newTestEnv(t)
	sess := env.uploader(t)

	tests := []struct {
		name       string
		query      string
		wantLevels int
		wantValue  string
	}{
		{"nothing chosen", "", 1, `value=""`},
		{"root with children", "category_level=1", 2, `value="1"`},
		{"stale deeper level dropped", "category_level=3&category_level=2", 1, `value="3"`},
		{"cleared level", "category_level=1&category_level=", 2, `value="1"`},
		{"leaf", "category_level=1&category_level=2&category_level=4", 3, `value="4"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			NewUpload(env.deps).Cascade(w, request(http.MethodGet, "/upload/cascade?"+tt.query, nil, sess, "sess-up"))

			body := w.Body.String()
			if got := strings.Count(body, `<select name="category_level"`); got != tt.wantLevels {
				t.Errorf("levels: got %d, want %d", got, tt.wantLevels)
			}
			if !strings.Contains(body, `name="category_id" `+tt.wantValue) {
				t.Errorf("hidden field should have %s:\n%s", tt.wantValue, body)
			}
		})
	}
}

func TestUploadFileRow(t *testing.T) {
	env := newTestEnv(t)

	w := httptest.NewRecorder()
	NewUpload(env.deps).FileRow(w, request(http.MethodGet, "/upload/file-row", nil, nil, ""))

	body := w.Body.String()
	if !strings.Contains(body, `name="row_id"`) || !strings.Contains(body, "蚕丝") {
		t.Errorf("file row: got %s", body)
	}
}

func TestSplitTags(t *testing.T) {
	got := splitTags(" a, b，c ,, ")
	if strings.Join(got, "|") != "a|b|c" {
		t.Errorf("splitTags: got %q", got)
	}
	if got := splitTags(""); len(got) != 0 {
		t.Errorf("splitTags(\"\"): got %q", got)
	}
}
