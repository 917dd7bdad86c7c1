package handler

import (
	"mime/multipart"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/greenfield-academy/admin-api/internal/middleware"
	"github.com/greenfield-academy/admin-api/internal/models"
	"github.com/greenfield-academy/admin-api/internal/service"
)

func sessionFromContext(c *gin.Context) *models.Session {
	value, ok := c.Get(middleware.ContextSessionKey)
	if !ok {
		return nil
	}
	session, ok := value.(*models.Session)
	if !ok {
		return nil
	}
	return session
}

// optionalFile opens one multipart file field when present. The returned
// closer is non-nil whenever the upload is, and must be closed after the
// service call consumed the stream.
func optionalFile(c *gin.Context, field string) (*service.FileUpload, multipart.File, error) {
	fileHeader, err := c.FormFile(field)
	if err != nil {
		return nil, nil, nil
	}
	src, err := fileHeader.Open()
	if err != nil {
		return nil, nil, err
	}
	upload := &service.FileUpload{
		Filename: fileHeader.Filename,
		Size:     fileHeader.Size,
		MimeType: fileHeader.Header.Get("Content-Type"),
		Content:  src,
	}
	return upload, src, nil
}

// formFiles opens every file under a repeated multipart field.
func formFiles(c *gin.Context, field string) ([]*service.FileUpload, []multipart.File, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, nil, nil
	}
	headers := form.File[field]
	var uploads []*service.FileUpload
	var closers []multipart.File
	for _, fileHeader := range headers {
		src, err := fileHeader.Open()
		if err != nil {
			closeAll(closers)
			return nil, nil, err
		}
		closers = append(closers, src)
		uploads = append(uploads, &service.FileUpload{
			Filename: fileHeader.Filename,
			Size:     fileHeader.Size,
			MimeType: fileHeader.Header.Get("Content-Type"),
			Content:  src,
		})
	}
	return uploads, closers, nil
}

func closeAll(files []multipart.File) {
	for _, f := range files {
		f.Close()
	}
}

func formOptional(c *gin.Context, field string) *string {
	value := strings.TrimSpace(c.PostForm(field))
	if value == "" {
		return nil
	}
	return &value
}

// parseDate accepts the date formats the admin UI submits.
func parseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if ts, err := time.Parse(time.RFC3339, value); err == nil {
		return ts, nil
	}
	return time.Parse("2006-01-02", value)
}
