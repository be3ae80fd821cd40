package server

import (
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/isa-group/harvey/config"
)

// UploadHandler stores user-supplied Pricing2Yaml documents on disk.
type UploadHandler struct {
	cfg config.UploadsConfig
}

func NewUploadHandler(cfg config.UploadsConfig) *UploadHandler {
	return &UploadHandler{cfg: cfg}
}

// HandleUpload accepts one multipart "file" field holding a YAML document
// and returns the stored name plus its content for use as pricing_yaml.
func (h *UploadHandler) HandleUpload(c echo.Context) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "file field is required")
	}
	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if ext != ".yml" && ext != ".yaml" {
		return echo.NewHTTPError(http.StatusBadRequest, "only .yml and .yaml files are accepted")
	}
	if h.cfg.MaxBytes > 0 && fileHeader.Size > h.cfg.MaxBytes {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "file exceeds the upload size limit")
	}

	src, err := fileHeader.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "could not read uploaded file")
	}
	defer src.Close()

	content, err := io.ReadAll(src)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "could not read uploaded file")
	}
	if strings.TrimSpace(string(content)) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "uploaded file is empty")
	}

	if err := os.MkdirAll(h.cfg.Dir, 0o755); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "could not store uploaded file")
	}
	name := uuid.NewString() + ext
	if err := os.WriteFile(filepath.Join(h.cfg.Dir, name), content, 0o644); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "could not store uploaded file")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"filename":     name,
		"size":         len(content),
		"pricing_yaml": string(content),
	})
}
