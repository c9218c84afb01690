package http

import (
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/realtyhub/realtyhub/internal/models"
	"github.com/realtyhub/realtyhub/internal/service"
)

const (
	// MaxImages is the number of files accepted in one listing form.
	MaxImages = 10
	// MaxImageSize is the size limit of a single image.
	MaxImageSize = 15 << 20

	imagesField   = "images"
	formMemory    = 32 << 20
	formBodyLimit = MaxImages*MaxImageSize + 1<<20
)

// listingRequest is the JSON form of a listing. Multipart forms use the
// same field names.
type listingRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Address     string  `json:"address"`
	Area        string  `json:"area"`
	City        string  `json:"city"`
	District    string  `json:"district"`
	Division    string  `json:"division"`
	Type        string  `json:"type"`
	Category    string  `json:"category"`
	ContactInfo string  `json:"contactInfo"`
	Status      string  `json:"status"`
	Featured    *bool   `json:"isFeatured"`
}

func (req listingRequest) input() service.ListingInput {
	return service.ListingInput{
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		Address:     req.Address,
		Area:        req.Area,
		City:        req.City,
		District:    req.District,
		Division:    req.Division,
		Type:        req.Type,
		Category:    req.Category,
		ContactInfo: req.ContactInfo,
		Status:      req.Status,
		Featured:    req.Featured,
	}
}

// parseListingForm reads a listing from either a JSON body or a multipart
// form carrying image files in the "images" field.
func parseListingForm(w http.ResponseWriter, r *http.Request) (service.ListingInput, []service.Upload, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		var req listingRequest
		if err := decodeJSON(r, &req); err != nil {
			return service.ListingInput{}, nil, err
		}
		return req.input(), nil, nil
	}

	r.Body = http.MaxBytesReader(w, r.Body, formBodyLimit)
	if err := r.ParseMultipartForm(formMemory); err != nil {
		return service.ListingInput{}, nil, models.Invalid("invalid multipart form")
	}
	f := r.MultipartForm

	req := listingRequest{
		Title:       formValue(f, "title"),
		Description: formValue(f, "description"),
		Address:     formValue(f, "address"),
		Area:        formValue(f, "area"),
		City:        formValue(f, "city"),
		District:    formValue(f, "district"),
		Division:    formValue(f, "division"),
		Type:        formValue(f, "type"),
		Category:    formValue(f, "category"),
		ContactInfo: formValue(f, "contactInfo"),
		Status:      formValue(f, "status"),
	}
	if raw := formValue(f, "price"); raw != "" {
		price, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return service.ListingInput{}, nil, models.Invalid("price must be a number")
		}
		req.Price = price
	}
	if raw := formValue(f, "isFeatured"); raw != "" {
		featured, err := strconv.ParseBool(raw)
		if err != nil {
			return service.ListingInput{}, nil, models.Invalid("isFeatured must be true or false")
		}
		req.Featured = &featured
	}

	uploads, err := collectUploads(f.File[imagesField])
	if err != nil {
		return service.ListingInput{}, nil, err
	}
	return req.input(), uploads, nil
}

func collectUploads(files []*multipart.FileHeader) ([]service.Upload, error) {
	if len(files) > MaxImages {
		return nil, models.Invalid("at most %d images are allowed", MaxImages)
	}
	uploads := make([]service.Upload, 0, len(files))
	for _, fh := range files {
		if fh.Size > MaxImageSize {
			return nil, models.Invalid("image %q exceeds %d MiB", fh.Filename, MaxImageSize>>20)
		}
		fh := fh
		uploads = append(uploads, service.Upload{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Size:        fh.Size,
			Open:        func() (io.ReadCloser, error) { return fh.Open() },
		})
	}
	return uploads, nil
}

func formValue(f *multipart.Form, key string) string {
	if vs := f.Value[key]; len(vs) > 0 {
		return strings.TrimSpace(vs[0])
	}
	return ""
}
