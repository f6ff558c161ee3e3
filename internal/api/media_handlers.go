package api

import (
	"net/http"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/IQTechSolutions/ConectOne-sub011/internal/domain"
	"github.com/IQTechSolutions/ConectOne-sub011/internal/media"
	"github.com/IQTechSolutions/ConectOne-sub011/internal/pkg/httputil"
)

// UploadImage accepts one image as multipart form data. The file goes in
// the "file" field and the owning entity in "owner_ref" (for example
// "school:<id>" or "listing:<id>"). Re-uploading identical bytes for the
// same owner returns the existing asset.
//
//	POST /api/v1/media/images
func (h *Handlers) UploadImage(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		httputil.Failed(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	asset, err := h.media.UploadImage(r.Context(), r.FormValue("owner_ref"), header.Filename, file)
	if err != nil {
		failMutation(w, err)
		return
	}

	httputil.Succeeded(w, http.StatusCreated, asset)
}

// UploadVideo accepts one video as multipart form data, same fields as the
// image endpoint.
//
//	POST /api/v1/media/videos
func (h *Handlers) UploadVideo(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		httputil.Failed(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	asset, err := h.media.UploadVideo(r.Context(), r.FormValue("owner_ref"), header.Filename, file)
	if err != nil {
		failMutation(w, err)
		return
	}

	httputil.Succeeded(w, http.StatusCreated, asset)
}

// UploadBatch accepts several files in one request under the "files" field.
// Files are stored with bounded parallelism; one bad file does not fail the
// batch. Per-file outcomes come back in input order, failures both in the
// result rows and as warning messages.
//
//	POST /api/v1/media/batch
func (h *Handlers) UploadBatch(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(64 << 20); err != nil {
		httputil.Failed(w, http.StatusBadRequest, "invalid multipart form: "+err.Error())
		return
	}

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		httputil.Failed(w, http.StatusBadRequest, "at least one file is required")
		return
	}

	ownerRef := r.FormValue("owner_ref")
	files := make([]media.BatchFile, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			httputil.Failed(w, http.StatusBadRequest, "reading "+fh.Filename+": "+err.Error())
			return
		}
		defer f.Close()
		files = append(files, media.BatchFile{
			Filename: fh.Filename,
			Kind:     kindFromFilename(fh.Filename),
			File:     f,
		})
	}

	results := h.media.UploadBatch(r.Context(), ownerRef, files)

	var warnings []string
	for _, res := range results {
		if res.Error != "" {
			warnings = append(warnings, res.Filename+": "+res.Error)
		}
	}
	httputil.Succeeded(w, http.StatusOK, results, warnings...)
}

// kindFromFilename routes batch entries to the image or video pipeline by
// extension. Content sniffing still happens downstream; this only picks
// which size cap and validation apply.
func kindFromFilename(name string) domain.MediaKind {
	switch strings.ToLower(path.Ext(name)) {
	case ".mp4", ".webm":
		return domain.MediaVideo
	default:
		return domain.MediaImage
	}
}

// ListAssetsByOwner returns every asset belonging to one owner reference.
//
//	GET /api/v1/media/assets?owner_ref=
func (h *Handlers) ListAssetsByOwner(w http.ResponseWriter, r *http.Request) {
	ownerRef := r.URL.Query().Get("owner_ref")
	if ownerRef == "" {
		httputil.BadRequest(w, "owner_ref is required")
		return
	}

	assets, err := h.media.ListByOwner(r.Context(), ownerRef)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, map[string]interface{}{"data": assets})
}

// GetAsset returns one asset's metadata.
//
//	GET /api/v1/media/assets/{assetId}
func (h *Handlers) GetAsset(w http.ResponseWriter, r *http.Request) {
	asset, err := h.media.Get(r.Context(), chi.URLParam(r, "assetId"))
	if err != nil {
		queryError(w, err, media.ErrNotFound)
		return
	}
	httputil.OK(w, asset)
}

// DeleteAsset removes an asset's metadata and its stored files, including
// any derived renditions.
//
//	DELETE /api/v1/media/assets/{assetId}
func (h *Handlers) DeleteAsset(w http.ResponseWriter, r *http.Request) {
	err := h.media.Delete(r.Context(), chi.URLParam(r, "assetId"))
	if err != nil {
		failMutation(w, err, media.ErrNotFound)
		return
	}
	httputil.Succeeded(w, http.StatusOK, nil)
}
