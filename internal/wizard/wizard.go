// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package wizard implements the three-step dataset upload sequence:
// metadata, then files, then done.
package wizard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"

	"spectranet/internal/apiclient"
	"spectranet/internal/models"
)

// Step is a wizard state.
type Step int

const (
	StepMetadata Step = iota + 1
	StepFiles
	StepDone
)

func (s Step) String() string {
	switch s {
	case StepMetadata:
		return "metadata"
	case StepFiles:
		return "files"
	case StepDone:
		return "done"
	}
	return fmt.Sprintf("Step(%d)", int(s))
}

// Mode selects how files are attached in the files step.
type Mode string

const (
	// ModeSingle uploads one dataset file and/or one samples CSV.
	ModeSingle Mode = "single"
	// ModeMultiple uploads several CSVs, each tagged with a sample label.
	ModeMultiple Mode = "multiple"
)

var (
	ErrWrongStep    = errors.New("action not allowed at this step")
	ErrNoFiles      = errors.New("no files selected")
	ErrMissingLabel = errors.New("every file needs a label")
	ErrUnknownLabel = errors.New("unknown label")
)

// Uploaded is a file the server has accepted.
type Uploaded struct {
	Kind         string `json:"kind"`
	Filename     string `json:"filename"`
	Label        string `json:"label,omitempty"`
	SamplesAdded int    `json:"samples_added,omitempty"`
}

// State is the persisted progress of one wizard run.
type State struct {
	Step      Step                `json:"step"`
	DatasetID int64               `json:"dataset_id,omitempty"`
	Metadata  models.DatasetInput `json:"metadata"`
	Mode      Mode                `json:"mode"`
	Uploaded  []Uploaded          `json:"uploaded,omitempty"`
	Error     string              `json:"error,omitempty"`
}

// New returns a fresh state at the metadata step.
func New() *State {
	return &State{Step: StepMetadata, Mode: ModeSingle}
}

// HasDataset reports whether the server-side dataset was already created.
func (s *State) HasDataset() bool { return s.DatasetID != 0 }

// accepted reports whether the server already took this file in this run.
func (s *State) accepted(kind, filename, label string) bool {
	return slices.ContainsFunc(s.Uploaded, func(u Uploaded) bool {
		return u.Kind == kind && u.Filename == filename && u.Label == label
	})
}

// LabeledFile is a samples CSV tagged with one label.
type LabeledFile struct {
	Label string
	File  apiclient.File
}

// Files is the submission of the files step.
type Files struct {
	Mode        Mode
	DatasetFile *apiclient.File
	SamplesCSV  *apiclient.File
	Labeled     []LabeledFile
}

// API is the subset of the catalog API the wizard drives.
type API interface {
	CreateDataset(ctx context.Context, in models.DatasetInput) (*models.Dataset, error)
	UpdateDataset(ctx context.Context, id int64, in models.DatasetInput) (*models.Dataset, error)
	UploadDatasetFile(ctx context.Context, datasetID int64, file apiclient.File) (*apiclient.UploadResult, error)
	UploadSamplesCSV(ctx context.Context, datasetID int64, file apiclient.File) (*apiclient.UploadResult, error)
	UploadLabeledFile(ctx context.Context, datasetID int64, file apiclient.File, label string) (*apiclient.UploadResult, error)
}

// Journal records upload outcomes.
type Journal interface {
	RecordUpload(ctx context.Context, e models.UploadEntry) error
}

// Wizard runs state transitions against the API.
type Wizard struct {
	api     API
	journal Journal
	labels  []string
	userID  int64
}

// Option configures a Wizard.
type Option func(*Wizard)

// WithJournal records every upload outcome in j.
func WithJournal(j Journal) Option {
	return func(w *Wizard) { w.journal = j }
}

// WithLabels restricts multi-file labels to the given set.
func WithLabels(labels []string) Option {
	return func(w *Wizard) { w.labels = labels }
}

// WithUser tags journal entries with the acting user.
func WithUser(id int64) Option {
	return func(w *Wizard) { w.userID = id }
}

// NewWizard creates a Wizard. api must carry the user's token.
func NewWizard(api API, opts ...Option) *Wizard {
	w := &Wizard{api: api}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// SubmitMetadata creates the dataset, or updates it when the user came back
// from the files step, and advances to the files step.
func (w *Wizard) SubmitMetadata(ctx context.Context, st *State, in models.DatasetInput) error {
	if st.Step != StepMetadata {
		return fmt.Errorf("submit metadata at %s: %w", st.Step, ErrWrongStep)
	}

	if st.HasDataset() {
		if _, err := w.api.UpdateDataset(ctx, st.DatasetID, in); err != nil {
			st.Error = apiclient.Detail(err, "更新数据集失败")
			return fmt.Errorf("update dataset %d: %w", st.DatasetID, err)
		}
	} else {
		ds, err := w.api.CreateDataset(ctx, in)
		if err != nil {
			st.Error = apiclient.Detail(err, "创建数据集失败")
			return fmt.Errorf("create dataset: %w", err)
		}
		st.DatasetID = ds.ID
	}

	st.Metadata = in
	st.Error = ""
	st.Step = StepFiles
	return nil
}

// Back returns from the files step to the metadata step. The dataset
// already created on the server is kept.
func (w *Wizard) Back(st *State) error {
	if st.Step != StepFiles {
		return fmt.Errorf("back at %s: %w", st.Step, ErrWrongStep)
	}
	st.Step = StepMetadata
	st.Error = ""
	return nil
}

// Reset starts a new run. A dataset left behind is not deleted.
func (w *Wizard) Reset(st *State) {
	*st = *New()
}

type job struct {
	kind  string
	label string
	file  apiclient.File
}

// SubmitFiles uploads the files one after another. The first failure stops
// the run, is recorded in st.Error and leaves the wizard at the files step.
// Files accepted before the failure stay on the server and are listed in
// st.Uploaded. A retry skips files already listed there.
func (w *Wizard) SubmitFiles(ctx context.Context, st *State, files Files) error {
	if st.Step != StepFiles {
		return fmt.Errorf("submit files at %s: %w", st.Step, ErrWrongStep)
	}

	jobs, err := w.plan(files)
	if err != nil {
		st.Error = message(err)
		return err
	}
	st.Mode = files.Mode
	st.Error = ""

	for _, j := range jobs {
		if st.accepted(j.kind, j.file.Name, j.label) {
			slog.Debug("skip already uploaded file", "dataset_id", st.DatasetID, "file", j.file.Name)
			continue
		}
		res, err := w.upload(ctx, st.DatasetID, j)
		w.record(ctx, st.DatasetID, j, res, err)
		if err != nil {
			st.Error = fmt.Sprintf("%s: %s", j.file.Name, apiclient.Detail(err, "上传失败"))
			return fmt.Errorf("upload %s: %w", j.file.Name, err)
		}
		up := Uploaded{Kind: j.kind, Filename: j.file.Name, Label: j.label}
		if res != nil {
			up.SamplesAdded = res.SamplesAdded
			if up.SamplesAdded == 0 {
				up.SamplesAdded = res.NumSamples
			}
		}
		st.Uploaded = append(st.Uploaded, up)
	}

	st.Step = StepDone
	return nil
}

// plan validates the submission and orders the uploads.
func (w *Wizard) plan(files Files) ([]job, error) {
	var jobs []job
	switch files.Mode {
	case ModeMultiple:
		for _, lf := range files.Labeled {
			if lf.Label == "" {
				return nil, fmt.Errorf("%s: %w", lf.File.Name, ErrMissingLabel)
			}
			if len(w.labels) > 0 && !slices.Contains(w.labels, lf.Label) {
				return nil, fmt.Errorf("%s: %q: %w", lf.File.Name, lf.Label, ErrUnknownLabel)
			}
			jobs = append(jobs, job{kind: models.UploadLabeled, label: lf.Label, file: lf.File})
		}
	default:
		if files.DatasetFile != nil {
			jobs = append(jobs, job{kind: models.UploadDatasetFile, file: *files.DatasetFile})
		}
		if files.SamplesCSV != nil {
			jobs = append(jobs, job{kind: models.UploadSamplesCSV, file: *files.SamplesCSV})
		}
	}
	if len(jobs) == 0 {
		return nil, ErrNoFiles
	}
	return jobs, nil
}

func (w *Wizard) upload(ctx context.Context, datasetID int64, j job) (*apiclient.UploadResult, error) {
	switch j.kind {
	case models.UploadDatasetFile:
		return w.api.UploadDatasetFile(ctx, datasetID, j.file)
	case models.UploadSamplesCSV:
		return w.api.UploadSamplesCSV(ctx, datasetID, j.file)
	default:
		return w.api.UploadLabeledFile(ctx, datasetID, j.file, j.label)
	}
}

func (w *Wizard) record(ctx context.Context, datasetID int64, j job, res *apiclient.UploadResult, err error) {
	if w.journal == nil {
		return
	}
	e := models.UploadEntry{
		ID:        uuid.New(),
		DatasetID: datasetID,
		UserID:    w.userID,
		Kind:      j.kind,
		Filename:  j.file.Name,
		Label:     j.label,
		Succeeded: err == nil,
		CreatedAt: time.Now().UTC(),
	}
	if err != nil {
		e.Error = err.Error()
	}
	if res != nil {
		e.SamplesAdded = res.SamplesAdded
	}
	if jerr := w.journal.RecordUpload(ctx, e); jerr != nil {
		slog.Warn("upload journal write failed", "dataset_id", datasetID, "file", j.file.Name, "error", jerr)
	}
}

// message turns a validation error into the text shown on the form.
func message(err error) string {
	switch {
	case errors.Is(err, ErrNoFiles):
		return "请至少选择一个文件"
	case errors.Is(err, ErrMissingLabel):
		return "请为所有文件选择标签"
	case errors.Is(err, ErrUnknownLabel):
		return "标签无效"
	}
	return err.Error()
}
