package controllers

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/tableorder-backend/api/controllers/storecontext"
	"github.com/angelmondragon/tableorder-backend/api/responses"
	"github.com/angelmondragon/tableorder-backend/api/validators"
	"github.com/angelmondragon/tableorder-backend/internal/menus"
	pkgerrors "github.com/angelmondragon/tableorder-backend/pkg/errors"
	"github.com/angelmondragon/tableorder-backend/pkg/logger"
)

const (
	maxImportUpload  = 5 << 20
	maxMenuNameLen   = 100
	maxCategoryLen   = 50
	importFormField  = "file"
	importExtensionX = ".xlsx"
)

type createMenuRequest struct {
	CategoryID   uuid.UUID `json:"category_id" validate:"required"`
	Name         string    `json:"menu_name" validate:"required,max=100"`
	Price        int64     `json:"price" validate:"required,gt=0"`
	Description  *string   `json:"description" validate:"omitempty,max=500"`
	ImageURL     *string   `json:"image_url" validate:"omitempty,url,max=500"`
	DisplayOrder int       `json:"display_order" validate:"gte=0"`
	IsAvailable  *bool     `json:"is_available"`
}

type updateMenuRequest struct {
	CategoryID   *uuid.UUID `json:"category_id"`
	Name         *string    `json:"menu_name" validate:"omitempty,min=1,max=100"`
	Price        *int64     `json:"price" validate:"omitempty,gt=0"`
	Description  *string    `json:"description" validate:"omitempty,max=500"`
	ImageURL     *string    `json:"image_url" validate:"omitempty,url,max=500"`
	DisplayOrder *int       `json:"display_order" validate:"omitempty,gte=0"`
	IsAvailable  *bool      `json:"is_available"`
}

type createCategoryRequest struct {
	Name         string `json:"category_name" validate:"required,max=50"`
	DisplayOrder int    `json:"display_order" validate:"gte=0"`
}

func AdminListMenus(svc menus.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "menu service unavailable"))
			return
		}
		storeID, err := storecontext.ResolveAdminStoreID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		categoryID, err := validators.ParseQueryUUID(r, "category_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		list, err := svc.ListMenus(r.Context(), storeID, categoryID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"menus": list})
	}
}

func AdminCreateMenu(svc menus.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "menu service unavailable"))
			return
		}
		storeID, err := storecontext.ResolveAdminStoreID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body createMenuRequest
		if err := validators.DecodeJSONBody(w, r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		menu, err := svc.CreateMenu(r.Context(), menus.CreateMenuInput{
			StoreID:      storeID,
			CategoryID:   body.CategoryID,
			Name:         validators.SanitizeString(body.Name, maxMenuNameLen),
			Price:        body.Price,
			Description:  body.Description,
			ImageURL:     body.ImageURL,
			DisplayOrder: body.DisplayOrder,
			IsAvailable:  body.IsAvailable,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, menu)
	}
}

func AdminUpdateMenu(svc menus.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "menu service unavailable"))
			return
		}
		storeID, err := storecontext.ResolveAdminStoreID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		menuID, err := validators.ParseURLUUID(r, "menuId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body updateMenuRequest
		if err := validators.DecodeJSONBody(w, r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if body.Name != nil {
			name := validators.SanitizeString(*body.Name, maxMenuNameLen)
			body.Name = &name
		}
		menu, err := svc.UpdateMenu(r.Context(), menus.UpdateMenuInput{
			StoreID:      storeID,
			MenuID:       menuID,
			CategoryID:   body.CategoryID,
			Name:         body.Name,
			Price:        body.Price,
			Description:  body.Description,
			ImageURL:     body.ImageURL,
			DisplayOrder: body.DisplayOrder,
			IsAvailable:  body.IsAvailable,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, menu)
	}
}

func AdminDeleteMenu(svc menus.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "menu service unavailable"))
			return
		}
		storeID, err := storecontext.ResolveAdminStoreID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		menuID, err := validators.ParseURLUUID(r, "menuId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.DeleteMenu(r.Context(), storeID, menuID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

// AdminImportMenus accepts a multipart .xlsx upload under the "file" field.
func AdminImportMenus(svc menus.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "menu service unavailable"))
			return
		}
		storeID, err := storecontext.ResolveAdminStoreID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxImportUpload)
		if err := r.ParseMultipartForm(maxImportUpload); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid upload"))
			return
		}
		file, header, err := r.FormFile(importFormField)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "file is required"))
			return
		}
		defer file.Close()
		if !strings.EqualFold(filepath.Ext(header.Filename), importExtensionX) {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "only .xlsx files are supported"))
			return
		}

		rows, err := menus.ParseImportSheet(file)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.ImportMenus(r.Context(), storeID, rows)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func AdminListCategories(svc menus.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "menu service unavailable"))
			return
		}
		storeID, err := storecontext.ResolveAdminStoreID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		list, err := svc.ListCategories(r.Context(), storeID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"categories": list})
	}
}

func AdminCreateCategory(svc menus.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "menu service unavailable"))
			return
		}
		storeID, err := storecontext.ResolveAdminStoreID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body createCategoryRequest
		if err := validators.DecodeJSONBody(w, r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		category, err := svc.CreateCategory(r.Context(), menus.CreateCategoryInput{
			StoreID:      storeID,
			Name:         validators.SanitizeString(body.Name, maxCategoryLen),
			DisplayOrder: body.DisplayOrder,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, category)
	}
}

func AdminDeleteCategory(svc menus.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "menu service unavailable"))
			return
		}
		storeID, err := storecontext.ResolveAdminStoreID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		categoryID, err := validators.ParseURLUUID(r, "categoryId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.DeleteCategory(r.Context(), storeID, categoryID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}
