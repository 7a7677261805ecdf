package api

import (
	"fmt"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"music-store/internal/service"

	"github.com/gin-gonic/gin"
)

// listCatalog returns every product with its file paths.
func (h *Handler) listCatalog(c *gin.Context) {
	entries, err := h.catalog.Catalog(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, entries)
}

// listActiveProducts returns active products. Without a pageSize query it
// keeps the legacy front-page behavior of the newest three.
func (h *Handler) listActiveProducts(c *gin.Context) {
	pageSizeStr := c.Query("pageSize")
	if pageSizeStr == "" {
		products, err := h.catalog.Latest(c.Request.Context())
		if err != nil {
			h.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, products)
		return
	}

	pageSize, err := strconv.Atoi(pageSizeStr)
	if err != nil || pageSize < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid page size"})
		return
	}
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}

	result, err := h.catalog.Page(c.Request.Context(), page, pageSize)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// getProduct returns one active product by id.
func (h *Handler) getProduct(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID"})
		return
	}

	product, err := h.catalog.ProductByID(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, product)
}

// createProduct handles the admin multipart upload: form fields plus a
// required pdf file and an optional mp3. Files land under the asset root
// before the catalog rows are written.
func (h *Handler) createProduct(c *gin.Context) {
	title := c.PostForm("title")
	composer := c.PostForm("composer")

	var arranger *string
	if value := c.PostForm("arranger"); value != "" {
		arranger = &value
	}

	price, err := strconv.ParseFloat(c.DefaultPostForm("price", "0"), 64)
	if err != nil || price < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid price"})
		return
	}

	pdfFile, err := c.FormFile("pdf")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Title, composer, and PDF file are required"})
		return
	}

	pdfPath, err := h.saveUpload(c, pdfFile, "pdf")
	if err != nil {
		h.respondError(c, err)
		return
	}

	var mp3Path *string
	if mp3File, err := c.FormFile("mp3"); err == nil {
		saved, err := h.saveUpload(c, mp3File, "mp3")
		if err != nil {
			h.respondError(c, err)
			return
		}
		mp3Path = &saved
	}

	product, err := h.catalog.CreateProduct(c.Request.Context(), &service.CreateProductRequest{
		Title:    title,
		Composer: composer,
		Arranger: arranger,
		Price:    price,
		PDFPath:  pdfPath,
		MP3Path:  mp3Path,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, product)
}

// deleteProduct removes a product, its rows and its stored files.
func (h *Handler) deleteProduct(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID"})
		return
	}

	product, err := h.catalog.DeleteProduct(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":     "Music post deleted successfully",
		"deletedPost": product,
	})
}

func (h *Handler) saveUpload(c *gin.Context, file *multipart.FileHeader, kind string) (string, error) {
	dir := filepath.Join(h.assetRoot, kind)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}

	name := fmt.Sprintf("%d-%s", time.Now().UnixNano(), filepath.Base(file.Filename))
	path := filepath.Join(dir, name)
	if err := c.SaveUploadedFile(file, path); err != nil {
		return "", fmt.Errorf("failed to store uploaded file: %w", err)
	}
	return path, nil
}
