//go:build js && wasm

package main

import (
	"fmt"
	"syscall/js"

	"github.com/medhub/gallery-backend/client/gallery"
)

func main() {
	controller := gallery.NewController()

	// format: switchCategory(category string) -> bool (refetch needed)
	switchCategoryFunc := js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		if len(args) != 1 {
			return false
		}
		return controller.SwitchCategory(args[0].String())
	})

	// format: enterFolder(id, name string) -> bool
	enterFolderFunc := js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		if len(args) != 2 {
			return false
		}
		return controller.EnterFolder(args[0].String(), args[1].String())
	})

	// format: navigateBreadcrumb(index int) -> bool
	navigateBreadcrumbFunc := js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		if len(args) != 1 {
			return false
		}
		return controller.NavigateBreadcrumb(args[0].Int())
	})

	// format: applyListing(files Array<{id,name,mimeType,...}>)
	applyListingFunc := js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		if len(args) != 1 {
			return nil
		}
		arr := args[0]
		files := make([]gallery.FileInfo, 0, arr.Length())
		for i := 0; i < arr.Length(); i++ {
			item := arr.Index(i)
			files = append(files, gallery.FileInfo{
				ID:             item.Get("id").String(),
				Name:           item.Get("name").String(),
				MimeType:       item.Get("mimeType").String(),
				WebViewLink:    stringField(item, "webViewLink"),
				WebContentLink: stringField(item, "webContentLink"),
			})
		}
		controller.ApplyListing(files)
		return nil
	})

	// format: reportFailure(status int, message string)
	reportFailureFunc := js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		if len(args) != 2 {
			return nil
		}
		controller.Fail(args[0].Int(), args[1].String())
		return nil
	})

	// format: requireAuth(url string)
	requireAuthFunc := js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		if len(args) != 1 {
			return nil
		}
		controller.RequireAuth(args[0].String())
		return nil
	})

	// format: beginUpload(name string)
	beginUploadFunc := js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		if len(args) != 1 {
			return nil
		}
		controller.BeginUpload(args[0].String())
		return nil
	})

	// format: uploadProgress(pct int)
	uploadProgressFunc := js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		if len(args) != 1 {
			return nil
		}
		controller.Progress(args[0].Int())
		return nil
	})

	// format: finishUpload() -> bool
	finishUploadFunc := js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		return controller.FinishUpload()
	})

	// format: confirmDelete(id string)
	confirmDeleteFunc := js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		if len(args) != 1 {
			return nil
		}
		controller.ConfirmDelete(args[0].String())
		return nil
	})

	// format: deleteConfirmed() -> bool
	deleteConfirmedFunc := js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		return controller.DeleteConfirmed()
	})

	// format: galleryState() -> object
	galleryStateFunc := js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		return stateObject(controller)
	})

	js.Global().Set("switchCategory", switchCategoryFunc)
	js.Global().Set("enterFolder", enterFolderFunc)
	js.Global().Set("navigateBreadcrumb", navigateBreadcrumbFunc)
	js.Global().Set("applyListing", applyListingFunc)
	js.Global().Set("reportFailure", reportFailureFunc)
	js.Global().Set("requireAuth", requireAuthFunc)
	js.Global().Set("beginUpload", beginUploadFunc)
	js.Global().Set("uploadProgress", uploadProgressFunc)
	js.Global().Set("finishUpload", finishUploadFunc)
	js.Global().Set("confirmDelete", confirmDeleteFunc)
	js.Global().Set("deleteConfirmed", deleteConfirmedFunc)
	js.Global().Set("galleryState", galleryStateFunc)

	fmt.Println("Gallery Core Wasm Initialized")

	// Prevent the function from returning, which would exit the Wasm module
	select {}
}

func stringField(v js.Value, key string) string {
	f := v.Get(key)
	if f.IsUndefined() || f.IsNull() {
		return ""
	}
	return f.String()
}

func stateObject(c *gallery.Controller) js.Value {
	obj := js.Global().Get("Object").New()
	obj.Set("activeCategory", c.ActiveCategory())
	obj.Set("currentFolderId", c.CurrentFolderID())
	obj.Set("needsAuth", c.NeedsAuth())
	obj.Set("authorizationUrl", c.AuthorizationURL())
	obj.Set("lastError", c.LastError())

	crumbs := js.Global().Get("Array").New()
	for i, crumb := range c.Breadcrumbs() {
		entry := js.Global().Get("Object").New()
		entry.Set("id", crumb.ID)
		entry.Set("name", crumb.Name)
		crumbs.SetIndex(i, entry)
	}
	obj.Set("breadcrumbs", crumbs)

	files := js.Global().Get("Array").New()
	for i, f := range c.Files() {
		entry := js.Global().Get("Object").New()
		entry.Set("id", f.ID)
		entry.Set("name", f.Name)
		entry.Set("mimeType", f.MimeType)
		entry.Set("webViewLink", f.WebViewLink)
		entry.Set("webContentLink", f.WebContentLink)
		files.SetIndex(i, entry)
	}
	obj.Set("files", files)

	if up := c.PendingUpload(); up != nil {
		entry := js.Global().Get("Object").New()
		entry.Set("name", up.Name)
		entry.Set("progress", up.Progress)
		obj.Set("pendingUpload", entry)
	}
	return obj
}
