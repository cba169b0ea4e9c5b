// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	qrcode "github.com/skip2/go-qrcode"
	"golang.org/x/sync/errgroup"

	"spectranet/internal/apiclient"
	"spectranet/internal/chart"
	"spectranet/internal/middleware"
	"spectranet/internal/models"
	"spectranet/internal/render"
	"spectranet/internal/slug"
	"spectranet/internal/state"
	"spectranet/internal/taxonomy"
)

const (
	datasetsPerPage = 12
	samplesShown    = 10
	homeTrending    = 6
	statsTrending   = 5
	mirrorTimeout   = 2 * time.Minute
)

// Public groups the catalog pages open to every visitor.
type Public struct {
	base
}

// NewPublic creates the Public handler group.
func NewPublic(deps Deps) *Public {
	return &Public{base{deps}}
}

// Home renders the landing page with headline numbers and trending
// datasets, fetched concurrently.
func (p *Public) Home(w http.ResponseWriter, r *http.Request) {
	api := p.client(r)

	var (
		g        errgroup.Group
		stats    *models.Stats
		trending []models.Dataset
	)
	g.Go(func() error {
		var err error
		stats, err = api.Stats(r.Context())
		return err
	})
	g.Go(func() error {
		var err error
		trending, err = api.Trending(r.Context(), homeTrending)
		return err
	})
	if err := g.Wait(); err != nil {
		if p.unauthorized(w, r, err) {
			return
		}
		slog.Error("load home page failed", "error", err)
	}

	p.Renderer.Page(w, r, "home", &render.PageData{
		Section: "home",
		Data:    map[string]any{"Stats": stats, "Trending": trending},
	})
}

// pager is the template data of the "pager" partial.
type pager struct {
	Page    int
	HasPrev bool
	HasNext bool
	PrevURL string
	NextURL string
}

func newPager(path string, q url.Values, page int, hasNext bool) pager {
	link := func(n int) string {
		v := url.Values{}
		for k, vals := range q {
			v[k] = vals
		}
		v.Set("page", strconv.Itoa(n))
		return path + "?" + v.Encode()
	}
	pg := pager{Page: page, HasPrev: page > 1, HasNext: hasNext}
	if pg.HasPrev {
		pg.PrevURL = link(page - 1)
	}
	if pg.HasNext {
		pg.NextURL = link(page + 1)
	}
	return pg
}

// treeView is the template data of the "category_tree" partial.
type treeView struct {
	AllSelected bool
	AllURL      string
	AllLabel    string
	Items       []taxonomy.Item
}

// Datasets renders the dataset list with the category tree browser,
// search, spectral type filter and paging.
func (p *Public) Datasets(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page := positiveInt(q.Get("page"), 1)
	search := strings.TrimSpace(q.Get("search"))
	spectralType := q.Get("type")

	forest := p.forest(r.Context())

	var (
		selected *int64
		label    = taxonomy.AllCategoriesLabel
	)
	browser := taxonomy.NewBrowser(forest, nil, func(id *int64, name string) {
		selected, label = id, name
	})
	if id := optionalID(q.Get("category")); id != nil {
		browser.Click(*id)
		if selected == nil {
			// Not in the tree (or the tree failed to load): still filter.
			selected, label = id, "分类 #"+strconv.FormatInt(*id, 10)
		}
	} else {
		browser.ClickAll()
	}
	browser.SetSelected(selected)
	if selected != nil {
		browser.ExpandTo(*selected)
	}
	browser.SetLink(func(id int64) string {
		return categoryURL(search, spectralType, &id)
	})

	store := state.NewDatasets(p.client(r))
	filters := apiclient.DatasetFilters{
		Skip:         (page - 1) * datasetsPerPage,
		Limit:        datasetsPerPage + 1,
		Search:       search,
		CategoryID:   selected,
		SpectralType: spectralType,
	}
	if _, err := store.FetchList(r.Context(), filters); err != nil {
		if p.unauthorized(w, r, err) {
			return
		}
		slog.Error("list datasets failed", "error", err, "page", page)
	}
	snap := store.Snapshot()

	items := snap.Items
	hasNext := len(items) > datasetsPerPage
	if hasNext {
		items = items[:datasetsPerPage]
	}

	pageQuery := url.Values{}
	for _, k := range []string{"search", "type", "category"} {
		if v := q.Get(k); v != "" {
			pageQuery.Set(k, v)
		}
	}

	var categoryID int64
	if selected != nil {
		categoryID = *selected
	}

	p.Renderer.Page(w, r, "datasets", &render.PageData{
		Title:   "数据集",
		Section: "datasets",
		Data: map[string]any{
			"Tree": treeView{
				AllSelected: browser.AllSelected(),
				AllURL:      categoryURL(search, spectralType, nil),
				AllLabel:    taxonomy.AllCategoriesLabel,
				Items:       browser.Items(),
			},
			"CategoryLabel": label,
			"CategoryID":    categoryID,
			"Datasets":      items,
			"Search":        search,
			"Type":          spectralType,
			"Types":         models.SpectralTypes,
			"Error":         snap.Error,
			"Pager":         newPager("/datasets", pageQuery, page, hasNext),
		},
	})
}

// categoryURL links to the dataset list filtered by category, keeping the
// active search and spectral type. Paging restarts at the first page.
func categoryURL(search, spectralType string, category *int64) string {
	v := url.Values{}
	if search != "" {
		v.Set("search", search)
	}
	if spectralType != "" {
		v.Set("type", spectralType)
	}
	if category != nil {
		v.Set("category", strconv.FormatInt(*category, 10))
	}
	if len(v) == 0 {
		return "/datasets"
	}
	return "/datasets?" + v.Encode()
}

// Dataset renders one dataset with its description, first samples, the
// spectrum of the selected sample and a share QR code.
func (p *Public) Dataset(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		p.notFound(w, r)
		return
	}
	ctx := r.Context()
	api := p.client(r)
	sess := middleware.SessionFromCtx(ctx)

	store := state.NewDatasets(api)
	var (
		g       errgroup.Group
		samples []models.SpectralSample
		uploads []models.UploadEntry
		forest  *taxonomy.Forest
	)
	g.Go(func() error {
		_, err := store.FetchOne(ctx, id)
		return err
	})
	g.Go(func() error {
		var err error
		if samples, err = api.Samples(ctx, id, 0, samplesShown); err != nil {
			slog.Error("list samples failed", "dataset_id", id, "error", err)
		}
		return nil
	})
	g.Go(func() error {
		forest = p.forest(ctx)
		return nil
	})
	if p.Journal != nil && sess != nil && sess.CanUpload() {
		g.Go(func() error {
			var err error
			if uploads, err = p.Journal.ForDataset(ctx, id); err != nil {
				slog.Warn("read upload journal failed", "dataset_id", id, "error", err)
			}
			return nil
		})
	}
	err := g.Wait()
	switch {
	case err == nil:
	case p.unauthorized(w, r, err):
		return
	case errors.Is(err, apiclient.ErrNotFound):
		p.notFound(w, r)
		return
	default:
		slog.Error("load dataset failed", "dataset_id", id, "error", err)
	}

	snap := store.Snapshot()
	ds := snap.Current
	data := map[string]any{
		"Dataset":     ds,
		"Error":       snap.Error,
		"Samples":     samples,
		"SampleIndex": 0,
	}
	title := "数据集"

	if ds != nil {
		title = ds.Name

		if ds.CategoryID != nil {
			var names []string
			for _, cid := range forest.Path(*ds.CategoryID) {
				if n, ok := forest.Node(cid); ok {
					names = append(names, n.Name)
				}
			}
			data["CategoryPath"] = names
		}

		if len(samples) > 0 {
			idx := min(positiveInt(r.URL.Query().Get("sample"), 0), len(samples)-1)
			data["SampleIndex"] = idx
			series, err := chart.FromSample(samples[idx], ds.WavelengthUnit, chart.MaxPoints).JSON()
			if err != nil {
				slog.Error("encode chart series failed", "dataset_id", id, "error", err)
			} else {
				data["Chart"] = series
			}
		}

		shareURL := strings.TrimRight(p.PublicURL, "/") + "/datasets/" + strconv.FormatInt(id, 10)
		data["ShareURL"] = shareURL
		if png, err := qrcode.Encode(shareURL, qrcode.Medium, 256); err != nil {
			slog.Warn("qr code generation failed", "dataset_id", id, "error", err)
		} else {
			data["QRCode"] = base64.StdEncoding.EncodeToString(png)
		}

		canManage := sess != nil && (sess.IsSuperuser || sess.UserID == ds.OwnerID)
		data["CanDelete"] = canManage
		if canManage {
			data["Uploads"] = uploads
		}
	}

	p.Renderer.Page(w, r, "dataset", &render.PageData{
		Title:   title,
		Section: "datasets",
		Data:    data,
	})
}

// Download streams a dataset export to the user as "<name>.csv". The
// export is spooled to a temporary file and copied to the mirror when one
// is configured. If the API cannot serve the export, a mirrored copy is
// offered instead.
func (p *Public) Download(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		p.notFound(w, r)
		return
	}
	ctx := r.Context()
	api := p.client(r)

	ds, err := api.Dataset(ctx, id)
	if err != nil {
		p.downloadFailed(w, r, id, "", err)
		return
	}
	filename := slug.Filename(ds.Name, "dataset-"+strconv.FormatInt(id, 10), ".csv")

	dl, err := api.DownloadDataset(ctx, id)
	if err != nil {
		p.downloadFailed(w, r, id, filename, err)
		return
	}
	defer dl.Body.Close()

	tmp, err := os.CreateTemp("", "spectranet-download-*")
	if err != nil {
		slog.Error("create download spool failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	size, err := io.Copy(tmp, dl.Body)
	if err != nil {
		p.downloadFailed(w, r, id, filename, fmt.Errorf("read export: %w", err))
		return
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		slog.Error("rewind download spool failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", dl.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	http.ServeContent(w, r, filename, time.Time{}, tmp)

	if p.Mirror == nil {
		return
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return
	}
	mctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), mirrorTimeout)
	defer cancel()
	if err := p.Mirror.Put(mctx, id, filename, dl.ContentType, tmp, size); err != nil {
		slog.Warn("mirror dataset export failed", "dataset_id", id, "error", err)
	}
}

// downloadFailed answers a failed export. Authorization and missing
// datasets are reported as such; other failures fall back to the mirror.
func (p *Public) downloadFailed(w http.ResponseWriter, r *http.Request, id int64, filename string, err error) {
	if p.unauthorized(w, r, err) {
		return
	}
	if errors.Is(err, apiclient.ErrNotFound) {
		p.notFound(w, r)
		return
	}
	if errors.Is(err, apiclient.ErrForbidden) {
		p.errorPage(w, r, http.StatusForbidden, "无法下载", apiclient.Detail(err, "您没有下载该数据集的权限。"))
		return
	}
	slog.Error("download dataset failed", "dataset_id", id, "error", err)

	if p.Mirror != nil {
		if filename == "" {
			filename = slug.Filename("", "dataset-"+strconv.FormatInt(id, 10), ".csv")
		}
		if ok, herr := p.Mirror.Has(r.Context(), id); herr == nil && ok {
			link, lerr := p.Mirror.Link(r.Context(), id, filename)
			if lerr == nil {
				http.Redirect(w, r, link, http.StatusSeeOther)
				return
			}
			slog.Warn("mirror link failed", "dataset_id", id, "error", lerr)
		}
	}

	p.errorPage(w, r, http.StatusBadGateway, "下载失败", apiclient.Detail(err, "数据集下载失败，请稍后重试。"))
}

// DeleteDataset removes a dataset and its mirrored export.
func (p *Public) DeleteDataset(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		p.notFound(w, r)
		return
	}

	if err := p.client(r).DeleteDataset(r.Context(), id); err != nil {
		if p.unauthorized(w, r, err) {
			return
		}
		if errors.Is(err, apiclient.ErrNotFound) {
			p.notFound(w, r)
			return
		}
		slog.Error("delete dataset failed", "dataset_id", id, "error", err)
		status := apiclient.StatusOf(err)
		if status < 400 {
			status = http.StatusBadGateway
		}
		p.errorPage(w, r, status, "删除失败", apiclient.Detail(err, "删除数据集失败"))
		return
	}

	if p.Mirror != nil {
		if err := p.Mirror.Delete(r.Context(), id); err != nil {
			slog.Warn("delete mirrored export failed", "dataset_id", id, "error", err)
		}
	}

	slog.Info("dataset deleted", "dataset_id", id, "request_id", middleware.RequestIDFromCtx(r.Context()))
	seeOther(w, r, "/datasets")
}

// Statistics renders totals, breakdowns by category and spectral type,
// and the top trending datasets.
func (p *Public) Statistics(w http.ResponseWriter, r *http.Request) {
	api := p.client(r)

	var (
		g        errgroup.Group
		stats    *models.Stats
		trending []models.Dataset
	)
	g.Go(func() error {
		var err error
		stats, err = api.Stats(r.Context())
		return err
	})
	g.Go(func() error {
		var err error
		trending, err = api.Trending(r.Context(), statsTrending)
		return err
	})

	data := map[string]any{}
	if err := g.Wait(); err != nil {
		if p.unauthorized(w, r, err) {
			return
		}
		slog.Error("load statistics failed", "error", err)
		data["Error"] = "统计数据加载失败"
	}
	data["Stats"] = stats
	data["Trending"] = trending
	if stats != nil {
		data["ByCategory"] = models.SortedCounts(stats.DatasetsByCategory)
		byType := models.SortedCounts(stats.DatasetsByType)
		for i := range byType {
			byType[i].Name = typeName(byType[i].Name)
		}
		data["ByType"] = byType
	}

	p.Renderer.Page(w, r, "statistics", &render.PageData{
		Title:   "平台统计",
		Section: "statistics",
		Data:    data,
	})
}

// Contact renders the static contact page.
func (p *Public) Contact(w http.ResponseWriter, r *http.Request) {
	p.Renderer.Page(w, r, "contact", &render.PageData{
		Title:   "联系我们",
		Section: "contact",
	})
}

func typeName(v string) string {
	for _, c := range models.SpectralTypes {
		if c.Value == v {
			return c.Label
		}
	}
	return v
}
