package main

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"pasal/internal/commerce"
	"pasal/internal/params"
)

//	@Summary		List products
//	@Description	Paginated product listing with optional search and sale filter
//	@Tags			catalog
//	@Produce		json
//	@Param			page	query		int		false	"Page number"
//	@Param			limit	query		int		false	"Page size (max 50)"
//	@Param			search	query		string	false	"Search term"
//	@Param			on_sale	query		bool	false	"Only discounted products"
//	@Success		200		{array}		commerce.Product
//	@Router			/products [get]
func (app *application) listProductsHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	p := params.ParsePagination(q)

	query := commerce.ProductQuery{
		PageNumber: p.Page,
		PageSize:   p.Limit,
		SearchTerm: q.Get("search"),
		OnSaleOnly: q.Get("on_sale") == "true",
	}

	products, err := app.catalog.Products(r.Context(), query)
	if err != nil {
		app.upstreamError(w, r, err)
		return
	}

	app.thumbnailImages(products)

	if err := app.jsonResponse(w, http.StatusOK, products); err != nil {
		app.internalServerError(w, r, err)
	}
}

//	@Summary		Get product
//	@Tags			catalog
//	@Produce		json
//	@Param			productID	path		int	true	"Product ID"
//	@Success		200			{object}	commerce.Product
//	@Failure		404			{object}	error
//	@Router			/products/{productID} [get]
func (app *application) getProductHandler(w http.ResponseWriter, r *http.Request) {
	productID, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, fmt.Errorf("invalid product id"))
		return
	}

	product, err := app.catalog.ProductByID(r.Context(), productID)
	if err != nil {
		app.upstreamError(w, r, err)
		return
	}
	if product == nil {
		app.notFoundResponse(w, r, fmt.Errorf("product %d not found", productID))
		return
	}

	for i := range product.Images {
		product.Images[i].ImageURL = app.media.Detail(product.Images[i].ImageURL)
	}

	if err := app.jsonResponse(w, http.StatusOK, product); err != nil {
		app.internalServerError(w, r, err)
	}
}

//	@Summary		List categories
//	@Tags			catalog
//	@Produce		json
//	@Success		200	{array}	commerce.Category
//	@Router			/categories [get]
func (app *application) listCategoriesHandler(w http.ResponseWriter, r *http.Request) {
	p := params.ParsePagination(r.URL.Query())

	categories, err := app.catalog.Categories(r.Context(), p.Page, p.Limit)
	if err != nil {
		app.upstreamError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, categories); err != nil {
		app.internalServerError(w, r, err)
	}
}

//	@Summary		List products in a category
//	@Tags			catalog
//	@Produce		json
//	@Param			categoryID	path	int	true	"Category ID"
//	@Success		200			{array}	commerce.Product
//	@Router			/categories/{categoryID}/products [get]
func (app *application) listCategoryProductsHandler(w http.ResponseWriter, r *http.Request) {
	categoryID, err := strconv.ParseInt(chi.URLParam(r, "categoryID"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, fmt.Errorf("invalid category id"))
		return
	}

	p := params.ParsePagination(r.URL.Query())

	products, err := app.catalog.ProductsByCategory(r.Context(), categoryID, p.Page, p.Limit)
	if err != nil {
		app.upstreamError(w, r, err)
		return
	}

	app.thumbnailImages(products)

	if err := app.jsonResponse(w, http.StatusOK, products); err != nil {
		app.internalServerError(w, r, err)
	}
}

// thumbnailImages swaps listing image URLs for sized delivery URLs in place.
func (app *application) thumbnailImages(products []commerce.Product) {
	for i := range products {
		for j := range products[i].Images {
			products[i].Images[j].ImageURL = app.media.Thumbnail(products[i].Images[j].ImageURL)
		}
	}
}
