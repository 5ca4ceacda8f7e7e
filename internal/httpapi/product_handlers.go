package httpapi

import (
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/fekuna/omnipos-retail-service/internal/model"
	"github.com/fekuna/omnipos-retail-service/internal/product/dto"
)

const (
	multipartMemory = 8 << 20
	formOverhead    = 1 << 20
)

// productFields holds the fields a request actually sent; nil means absent.
type productFields struct {
	Name     *string          `json:"name"`
	Price    *decimal.Decimal `json:"price"`
	Stock    *int             `json:"stock"`
	ImageRef *string          `json:"imageRef"`

	// uploaded is set when ImageRef came from a file in this request.
	uploaded bool
}

func isMultipart(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "multipart/form-data"
}

// readProductFields accepts either a JSON body or a multipart form with an
// optional "image" file, which is stored before returning.
func (a *App) readProductFields(w http.ResponseWriter, r *http.Request) (*productFields, error) {
	var f productFields
	if !isMultipart(r) {
		if err := decodeJSON(w, r, &f); err != nil {
			return nil, err
		}
		return &f, nil
	}

	r.Body = http.MaxBytesReader(w, r.Body, a.Assets.MaxBytes()+formOverhead)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrInvalidInput, err)
	}
	defer r.MultipartForm.RemoveAll()

	if v, ok := formValue(r, "name"); ok {
		f.Name = &v
	}
	if v, ok := formValue(r, "price"); ok {
		price, err := decimal.NewFromString(v)
		if err != nil {
			return nil, fmt.Errorf("%w: price %q is not a number", model.ErrInvalidInput, v)
		}
		f.Price = &price
	}
	if v, ok := formValue(r, "stock"); ok {
		stock, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("%w: stock %q is not an integer", model.ErrInvalidInput, v)
		}
		f.Stock = &stock
	}

	file, header, err := r.FormFile("image")
	switch {
	case errors.Is(err, http.ErrMissingFile):
		return &f, nil
	case err != nil:
		return nil, fmt.Errorf("%w: %v", model.ErrInvalidInput, err)
	}
	defer file.Close()

	ref, err := a.Assets.Save(r.Context(), header.Filename, file)
	if err != nil {
		return nil, err
	}
	f.ImageRef = &ref
	f.uploaded = true
	return &f, nil
}

func formValue(r *http.Request, key string) (string, bool) {
	vals, ok := r.MultipartForm.Value[key]
	if !ok || len(vals) == 0 {
		return "", false
	}
	return vals[0], true
}

// discardUpload removes an image stored by a request that then failed.
func (a *App) discardUpload(r *http.Request, f *productFields) {
	if !f.uploaded {
		return
	}
	if err := a.Assets.Delete(r.Context(), *f.ImageRef); err != nil {
		a.Logger.Warn("failed to discard uploaded image", zap.String("image_ref", *f.ImageRef), zap.Error(err))
	}
}

func (a *App) createProduct(w http.ResponseWriter, r *http.Request) {
	f, err := a.readProductFields(w, r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	var missing error
	switch {
	case f.Name == nil:
		missing = fmt.Errorf("%w: name is required", model.ErrInvalidInput)
	case f.Price == nil:
		missing = fmt.Errorf("%w: price is required", model.ErrInvalidInput)
	case f.Stock == nil:
		missing = fmt.Errorf("%w: stock is required", model.ErrInvalidInput)
	}
	if missing != nil {
		a.discardUpload(r, f)
		a.writeError(w, r, missing)
		return
	}

	p, err := a.Products.CreateProduct(r.Context(), &dto.CreateProductInput{
		Name:     *f.Name,
		Price:    *f.Price,
		Stock:    *f.Stock,
		ImageRef: f.ImageRef,
	})
	if err != nil {
		a.discardUpload(r, f)
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (a *App) updateProduct(w http.ResponseWriter, r *http.Request) {
	f, err := a.readProductFields(w, r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	p, err := a.Products.UpdateProduct(r.Context(), &dto.UpdateProductInput{
		ID:       r.PathValue("id"),
		Name:     f.Name,
		Price:    f.Price,
		Stock:    f.Stock,
		ImageRef: f.ImageRef,
	})
	if err != nil {
		a.discardUpload(r, f)
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (a *App) getProduct(w http.ResponseWriter, r *http.Request) {
	p, err := a.Products.GetProduct(r.Context(), r.PathValue("id"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (a *App) listProducts(w http.ResponseWriter, r *http.Request) {
	page, pageSize, err := pagination(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	products, count, err := a.Products.ListProducts(r.Context(), &dto.ProductFilters{
		SearchQuery: r.URL.Query().Get("q"),
		Page:        page,
		PageSize:    pageSize,
	})
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	w.Header().Set("X-Total-Count", strconv.Itoa(count))
	writeJSON(w, http.StatusOK, products)
}

func (a *App) deleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := a.Products.DeleteProduct(r.Context(), r.PathValue("id")); err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeMessage(w, r, http.StatusOK, msgProductDeleted)
}

func pagination(r *http.Request) (page, pageSize int, err error) {
	q := r.URL.Query()
	if page, err = intParam(q.Get("page")); err != nil {
		return 0, 0, err
	}
	if pageSize, err = intParam(q.Get("page_size")); err != nil {
		return 0, 0, err
	}
	return page, pageSize, nil
}

func intParam(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %q is not a non-negative integer", model.ErrInvalidInput, s)
	}
	return n, nil
}
