package api

import (
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/marketplace-core/internal/audit"
	"github.com/nerrad567/marketplace-core/internal/auth"
	"github.com/nerrad567/marketplace-core/internal/catalog"
	"github.com/nerrad567/marketplace-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/marketplace-core/internal/media"
)

// multipartMemory is how much of a multipart form is held in memory before
// file parts spill to disk.
const multipartMemory = 8 << 20

// imageField is the multipart field carrying the product image.
const imageField = "image"

// productResponse wraps a product with a status message.
type productResponse struct {
	Message string           `json:"message"`
	Product *catalog.Product `json:"product"`
}

// parseForm parses a multipart or url-encoded body.
func parseForm(r *http.Request) error {
	err := r.ParseMultipartForm(multipartMemory)
	if errors.Is(err, http.ErrNotMultipart) {
		return r.ParseForm()
	}
	return err
}

// formValue returns the submitted value for key, or nil when the field was
// not sent at all.
func formValue(r *http.Request, key string) *string {
	vs, ok := r.PostForm[key]
	if !ok || len(vs) == 0 {
		return nil
	}
	return &vs[0]
}

// formImage returns the uploaded image header, or nil when none was sent.
func formImage(r *http.Request) *multipart.FileHeader {
	if r.MultipartForm == nil {
		return nil
	}
	files := r.MultipartForm.File[imageField]
	if len(files) == 0 {
		return nil
	}
	return files[0]
}

// writeFormError reports a body that could not be parsed. An oversized body
// is reported as an oversized image.
func (s *Server) writeFormError(w http.ResponseWriter, r *http.Request, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		s.writeDomainError(w, r, media.ErrTooLarge)
		return
	}
	writeBadRequest(w, msgInvalidForm)
}

// saveImage stores an uploaded image and returns its URL.
func (s *Server) saveImage(ctx context.Context, fh *multipart.FileHeader) (string, error) {
	if fh.Size > s.maxUploadBytes() {
		return "", media.ErrTooLarge
	}
	f, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()

	return s.media.Save(ctx, media.Upload{Filename: fh.Filename, Body: f})
}

// discardImage removes an image whose product row was never written.
func (s *Server) discardImage(ctx context.Context, url string) {
	if err := s.media.Delete(context.WithoutCancel(ctx), url); err != nil {
		s.logger.Warn("failed to remove orphaned image", "image", url, "error", err)
	}
}

// handleCreateProduct creates a product owned by the calling vendor.
//
// Validation order: required fields, category, price, image.
func (s *Server) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	vendor := auth.IdentityFromContext(r.Context())

	if err := parseForm(r); err != nil {
		s.writeFormError(w, r, err)
		return
	}

	product, err := s.categories.NewProduct(vendor.ID, catalog.ProductInput{
		Name:        r.PostForm.Get("name"),
		Description: r.PostForm.Get("description"),
		Price:       r.PostForm.Get("price"),
		Category:    r.PostForm.Get("category"),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	fh := formImage(r)
	if fh == nil {
		s.writeDomainError(w, r, catalog.ErrImageRequired)
		return
	}

	product.Image, err = s.saveImage(r.Context(), fh)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	if err := s.products.Create(r.Context(), product); err != nil {
		s.discardImage(r.Context(), product.Image)
		s.writeDomainError(w, r, err)
		return
	}

	s.logger.Info("product created",
		"product_id", product.ID,
		"vendor_id", vendor.ID,
		"category", product.Category,
	)
	s.auditLog(audit.ActionCreate, audit.EntityProduct, product.ID, vendor.ID,
		map[string]any{"name": product.Name, "category": product.Category})
	s.emitProductEvent(mqtt.ActionCreated, product)

	writeJSON(w, http.StatusCreated, productResponse{Message: "Product created successfully", Product: product})
}

// handleGetProduct returns one of the calling vendor's products.
func (s *Server) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	vendor := auth.IdentityFromContext(r.Context())

	product, err := s.products.GetOwned(r.Context(), chi.URLParam(r, "id"), vendor.ID)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

// handleUpdateProduct applies a partial update. Blank text fields are
// ignored; a submitted price must be valid; the image is optional.
func (s *Server) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	vendor := auth.IdentityFromContext(r.Context())
	id := chi.URLParam(r, "id")

	if err := parseForm(r); err != nil {
		s.writeFormError(w, r, err)
		return
	}

	update, err := s.categories.ParseUpdate(catalog.UpdateInput{
		Name:        formValue(r, "name"),
		Description: formValue(r, "description"),
		Price:       formValue(r, "price"),
		Category:    formValue(r, "category"),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	if fh := formImage(r); fh != nil {
		// Check ownership before storing, so foreign ids leave no files.
		if _, err := s.products.GetOwned(r.Context(), id, vendor.ID); err != nil {
			s.writeUpdateError(w, r, err)
			return
		}
		image, err := s.saveImage(r.Context(), fh)
		if err != nil {
			s.writeDomainError(w, r, err)
			return
		}
		update.Image = &image
	}

	product, err := s.products.UpdateOwned(r.Context(), id, vendor.ID, update)
	if err != nil {
		if update.Image != nil {
			s.discardImage(r.Context(), *update.Image)
		}
		s.writeUpdateError(w, r, err)
		return
	}

	fields := updatedFields(update)
	s.logger.Info("product updated", "product_id", product.ID, "vendor_id", vendor.ID, "fields", fields)
	s.auditLog(audit.ActionUpdate, audit.EntityProduct, product.ID, vendor.ID, map[string]any{"fields": fields})
	s.emitProductEvent(mqtt.ActionUpdated, product)

	writeJSON(w, http.StatusOK, productResponse{Message: "Product updated successfully", Product: product})
}

// writeUpdateError uses the update-specific not-found text.
func (s *Server) writeUpdateError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, catalog.ErrProductNotFound) {
		writeNotFound(w, msgNotFoundOwned)
		return
	}
	s.writeDomainError(w, r, err)
}

// updatedFields lists the columns an update touches.
func updatedFields(u catalog.ProductUpdate) []string {
	fields := []string{}
	if u.Name != nil {
		fields = append(fields, "name")
	}
	if u.Description != nil {
		fields = append(fields, "description")
	}
	if u.Price != nil {
		fields = append(fields, "price")
	}
	if u.Category != nil {
		fields = append(fields, "category")
	}
	if u.Image != nil {
		fields = append(fields, "image")
	}
	return fields
}

// handleToggleDelete soft-deletes or restores one of the vendor's products.
func (s *Server) handleToggleDelete(w http.ResponseWriter, r *http.Request) {
	vendor := auth.IdentityFromContext(r.Context())

	product, err := s.products.ToggleDeleted(r.Context(), chi.URLParam(r, "id"), vendor.ID)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	message, auditAction, eventAction := "Product restored", audit.ActionRestore, mqtt.ActionRestored
	if product.Deleted {
		message, auditAction, eventAction = "Product deleted", audit.ActionDelete, mqtt.ActionDeleted
	}

	s.logger.Info("product delete toggled", "product_id", product.ID, "vendor_id", vendor.ID, "deleted", product.Deleted)
	s.auditLog(auditAction, audit.EntityProduct, product.ID, vendor.ID, nil)
	s.emitProductEvent(eventAction, product)

	writeJSON(w, http.StatusOK, productResponse{Message: message, Product: product})
}

// handleListByCategory is the public listing of live products in one
// category. The name is matched case-insensitively.
func (s *Server) handleListByCategory(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if unescaped, err := url.PathUnescape(name); err == nil {
		name = unescaped
	}

	category, ok := s.categories.Canonical(name)
	if !ok {
		s.writeDomainError(w, r, catalog.ErrInvalidCategory)
		return
	}

	products, err := s.products.ListByCategory(r.Context(), category)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

// handleListCategories returns the category allow-list.
func (s *Server) handleListCategories(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.categories.List())
}
