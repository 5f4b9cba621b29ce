package book

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"unicode"

	"booksvc/internal/httpx"

	"github.com/rs/zerolog/hlog"
)

// multipartMemory is how much of an upload ParseMultipartForm keeps in memory
// before spilling to temporary files.
const multipartMemory = 8 << 20

type HTTPHandler struct {
	service *Service
}

func NewHTTPHandler(service *Service) *HTTPHandler {
	return &HTTPHandler{service: service}
}

// Routes registers the book endpoints on mux together with their role guards.
func (h *HTTPHandler) Routes(mux *http.ServeMux) {
	reader := httpx.RequireRole(httpx.RoleReader)
	writer := httpx.RequireRole(httpx.RoleWriter)

	mux.Handle("GET /books/{id}", reader(http.HandlerFunc(h.GetBook)))
	mux.Handle("PUT /books", writer(http.HandlerFunc(h.PutBook)))
	mux.Handle("GET /books/{$}", reader(http.HandlerFunc(h.ListBooks)))
	mux.Handle("POST /books/upload", writer(http.HandlerFunc(h.Upload)))
	mux.Handle("GET /books/download/{id}", reader(http.HandlerFunc(h.Download)))
}

// GetBook handles GET /books/{id}
func (h *HTTPHandler) GetBook(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r.PathValue("id"))
	if err != nil {
		httpx.Text(w, http.StatusBadRequest, err.Error())
		return
	}

	b, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSON(w, r, http.StatusOK, b)
}

// PutBook handles PUT /books and answers with the book id as plain text.
func (h *HTTPHandler) PutBook(w http.ResponseWriter, r *http.Request) {
	var b Book
	if err := json.NewDecoder(r.Body).Decode(&b); err != nil {
		httpx.Text(w, http.StatusBadRequest, "malformed book: "+err.Error())
		return
	}

	id, err := h.service.Put(r.Context(), b)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.Text(w, http.StatusOK, strconv.FormatInt(id, 10))
}

// ListBooks handles GET /books/?field=F&top=N and GET /books/?author=NAME
func (h *HTTPHandler) ListBooks(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	var (
		books []Book
		err   error
	)
	switch {
	case query.Has("field") || query.Has("top"):
		for _, name := range []string{"field", "top"} {
			if !query.Has(name) {
				httpx.Text(w, http.StatusBadRequest, missingParameter(name))
				return
			}
		}
		field, perr := ParseField(query.Get("field"))
		if perr != nil {
			httpx.Text(w, http.StatusBadRequest, perr.Error())
			return
		}
		limit, perr := strconv.Atoi(query.Get("top"))
		if perr != nil {
			httpx.Text(w, http.StatusBadRequest, fmt.Sprintf("invalid top value %q", query.Get("top")))
			return
		}
		books, err = h.service.TopBooks(r.Context(), field, limit)
	case query.Has("author"):
		books, err = h.service.BooksByAuthor(r.Context(), query.Get("author"))
	default:
		httpx.Text(w, http.StatusBadRequest, missingParameter("author"))
		return
	}

	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if books == nil {
		books = []Book{}
	}
	httpx.JSON(w, r, http.StatusOK, books)
}

// Upload handles POST /books/upload with multipart parts "id" and "file".
func (h *HTTPHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httpx.Text(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		httpx.Text(w, http.StatusBadRequest, "malformed multipart request: "+err.Error())
		return
	}
	defer r.MultipartForm.RemoveAll()

	if _, ok := r.MultipartForm.Value["id"]; !ok {
		httpx.Text(w, http.StatusBadRequest, missingParameter("id"))
		return
	}
	id, err := parseID(r.FormValue("id"))
	if err != nil {
		httpx.Text(w, http.StatusBadRequest, err.Error())
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		httpx.Text(w, http.StatusBadRequest, "Required request part 'file' is not present")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	err = h.service.PutContent(r.Context(), Content{
		ID:       id,
		FileName: header.Filename,
		MimeType: mimeType,
		Data:     data,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// Download handles GET /books/download/{id}
func (h *HTTPHandler) Download(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r.PathValue("id"))
	if err != nil {
		httpx.Text(w, http.StatusBadRequest, err.Error())
		return
	}

	c, err := h.service.GetContent(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	mimeType := c.MimeType
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("Content-Disposition", attachment(c.FileName))
	w.Header().Set("Content-Length", strconv.FormatInt(c.Size, 10))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(c.Data)
}

// writeError maps domain errors to responses. Data errors are client errors (400);
// anything unexpected, including an unknown sort field leaking from a backend, is a 500.
func (h *HTTPHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		httpx.Text(w, http.StatusBadRequest, verr.Error())
	case errors.Is(err, ErrNotFound),
		errors.Is(err, ErrEmptyFile),
		errors.Is(err, ErrInvalidLimit):
		httpx.Text(w, http.StatusBadRequest, err.Error())
	default:
		hlog.FromRequest(r).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		httpx.Text(w, http.StatusInternalServerError, "internal server error")
	}
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

func missingParameter(name string) string {
	return fmt.Sprintf("Required request parameter '%s' is not present", name)
}

var quoteEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// attachment renders a Content-Disposition value with a quoted filename and,
// for non-ASCII names, the RFC 5987 encoded form as well.
func attachment(fileName string) string {
	v := `attachment; filename="` + quoteEscaper.Replace(fileName) + `"`
	for _, r := range fileName {
		if r > unicode.MaxASCII {
			return v + "; filename*=UTF-8''" + url.PathEscape(fileName)
		}
	}
	return v
}
