//go:build js && wasm

package main

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"strings"
	"syscall/js"

	"github.com/linework/linework/backend-go/internal/document"
	"github.com/linework/linework/backend-go/internal/editor"
	"github.com/linework/linework/backend-go/internal/photo"
)

var (
	session *editor.Session
	pic     *photo.Photo
)

func main() {
	session = editor.NewSession()
	pic = photo.New()

	api := js.Global().Get("Object").New()

	// --- Pointer events (frontend → backend) ---
	api.Set("pointerDown", js.FuncOf(pointerDown))
	api.Set("pointerMove", js.FuncOf(pointerMove))
	api.Set("pointerUp", js.FuncOf(pointerUp))
	api.Set("wheel", js.FuncOf(wheel))

	// --- Tool and style commands ---
	api.Set("setTool", js.FuncOf(setTool))
	api.Set("setStrokeColor", js.FuncOf(setStrokeColor))
	api.Set("setStrokeWidth", js.FuncOf(setStrokeWidth))
	api.Set("setFillMode", js.FuncOf(setFillMode))
	api.Set("setFontSize", js.FuncOf(setFontSize))
	api.Set("setFontFamily", js.FuncOf(setFontFamily))
	api.Set("setAlign", js.FuncOf(setAlign))

	// --- Text entry ---
	api.Set("textInput", js.FuncOf(textInput))
	api.Set("commitText", js.FuncOf(commitText))
	api.Set("cancelText", js.FuncOf(cancelText))

	// --- Selection commands ---
	api.Set("updateSelected", js.FuncOf(updateSelected))
	api.Set("deleteSelected", js.FuncOf(deleteSelected))
	api.Set("rotateSelected", js.FuncOf(rotateSelected))
	api.Set("flipSelected", js.FuncOf(flipSelected))

	// --- Images, history, view ---
	api.Set("addImage", js.FuncOf(addImage))
	api.Set("undo", js.FuncOf(undo))
	api.Set("redo", js.FuncOf(redo))
	api.Set("zoomIn", js.FuncOf(zoomIn))
	api.Set("zoomOut", js.FuncOf(zoomOut))
	api.Set("resetView", js.FuncOf(resetView))

	// --- Document I/O and render state (frontend ← backend) ---
	api.Set("frame", js.FuncOf(frame))
	api.Set("loadDocument", js.FuncOf(loadDocument))
	api.Set("loadSampleDocument", js.FuncOf(loadSampleDocument))
	api.Set("documentJSON", js.FuncOf(documentJSON))

	// --- Photo tool ---
	api.Set("photoLoad", js.FuncOf(photoLoad))
	api.Set("photoCrop", js.FuncOf(photoCrop))
	api.Set("photoRotate90", js.FuncOf(photoRotate90))
	api.Set("photoFlipH", js.FuncOf(photoFlipH))
	api.Set("photoFlipV", js.FuncOf(photoFlipV))
	api.Set("photoAdjust", js.FuncOf(photoAdjust))
	api.Set("photoReset", js.FuncOf(photoReset))
	api.Set("photoState", js.FuncOf(photoState))
	api.Set("photoPreview", js.FuncOf(photoPreview))
	api.Set("photoExport", js.FuncOf(photoExport))

	// Register on global scope
	js.Global().Set("linework", api)

	// Signal that WASM is ready
	js.Global().Set("lineworkWasmReady", js.ValueOf(true))

	// Keep Go runtime alive
	select {}
}

func errResult(err error) interface{} {
	return js.ValueOf(map[string]interface{}{"error": err.Error()})
}

func errMessage(msg string) interface{} {
	return js.ValueOf(map[string]interface{}{"error": msg})
}

func okResult() interface{} {
	return js.ValueOf(map[string]interface{}{"ok": true})
}

func modifiers(v js.Value) editor.Modifiers {
	if v.Type() != js.TypeObject {
		return editor.Modifiers{}
	}
	return editor.Modifiers{
		Ctrl:  v.Get("ctrl").Truthy(),
		Shift: v.Get("shift").Truthy(),
		Alt:   v.Get("alt").Truthy(),
	}
}

// --- Pointer handlers ---

func pointerDown(this js.Value, args []js.Value) interface{} {
	if len(args) < 3 {
		return nil
	}
	mods := editor.Modifiers{}
	if len(args) > 3 {
		mods = modifiers(args[3])
	}
	session.PointerDown(args[0].Float(), args[1].Float(), args[2].Int(), mods)
	return nil
}

func pointerMove(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return nil
	}
	session.PointerMove(args[0].Float(), args[1].Float())
	return nil
}

func pointerUp(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return nil
	}
	session.PointerUp(args[0].Float(), args[1].Float())
	return nil
}

func wheel(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return nil
	}
	mods := editor.Modifiers{}
	if len(args) > 1 {
		mods = modifiers(args[1])
	}
	session.Wheel(args[0].Float(), mods)
	return nil
}

// --- Tool and style handlers ---

func setTool(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return nil
	}
	session.SetTool(editor.Tool(args[0].String()))
	return nil
}

func setStrokeColor(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return nil
	}
	session.SetStrokeColor(args[0].String())
	return nil
}

func setStrokeWidth(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return nil
	}
	session.SetStrokeWidth(args[0].Float())
	return nil
}

func setFillMode(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return nil
	}
	session.SetFillMode(args[0].Truthy())
	return nil
}

func setFontSize(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return nil
	}
	session.SetFontSize(args[0].Float())
	return nil
}

func setFontFamily(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return nil
	}
	session.SetFontFamily(args[0].String())
	return nil
}

func setAlign(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return nil
	}
	session.SetAlign(args[0].String())
	return nil
}

// --- Text entry handlers ---

func textInput(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return nil
	}
	session.TextInput(args[0].String())
	return nil
}

func commitText(this js.Value, args []js.Value) interface{} {
	session.CommitText()
	return nil
}

func cancelText(this js.Value, args []js.Value) interface{} {
	session.CancelText()
	return nil
}

// --- Selection handlers ---

func updateSelected(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return errMessage("missing patch JSON")
	}
	var p document.Patch
	if err := json.Unmarshal([]byte(args[0].String()), &p); err != nil {
		return errResult(err)
	}
	session.UpdateSelected(p)
	return okResult()
}

func deleteSelected(this js.Value, args []js.Value) interface{} {
	session.DeleteSelected()
	return nil
}

func rotateSelected(this js.Value, args []js.Value) interface{} {
	session.RotateSelected()
	return nil
}

func flipSelected(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return nil
	}
	session.FlipSelected(args[0].String())
	return nil
}

// --- Image, history and view handlers ---

func addImage(this js.Value, args []js.Value) interface{} {
	if len(args) < 3 {
		return errMessage("missing image source or size")
	}
	if err := session.AddImage(args[0].String(), args[1].Float(), args[2].Float()); err != nil {
		return errResult(err)
	}
	return okResult()
}

func undo(this js.Value, args []js.Value) interface{} {
	session.Undo()
	return nil
}

func redo(this js.Value, args []js.Value) interface{} {
	session.Redo()
	return nil
}

func zoomIn(this js.Value, args []js.Value) interface{} {
	session.ZoomIn()
	return nil
}

func zoomOut(this js.Value, args []js.Value) interface{} {
	session.ZoomOut()
	return nil
}

func resetView(this js.Value, args []js.Value) interface{} {
	session.ResetView()
	return nil
}

// --- Document I/O handlers ---

func frame(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(session.FrameJSON())
}

func loadDocument(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return errMessage("missing document JSON")
	}
	if err := session.LoadDocument([]byte(args[0].String())); err != nil {
		return errResult(err)
	}
	return okResult()
}

func loadSampleDocument(this js.Value, args []js.Value) interface{} {
	data, err := json.Marshal(document.NewSampleDocument())
	if err != nil {
		return errResult(err)
	}
	if err := session.LoadDocument(data); err != nil {
		return errResult(err)
	}
	return okResult()
}

func documentJSON(this js.Value, args []js.Value) interface{} {
	data, err := session.DocumentJSON()
	if err != nil {
		return errResult(err)
	}
	return js.ValueOf(string(data))
}

// --- Photo tool handlers ---

func photoLoad(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return errMessage("missing image data URI")
	}
	if err := pic.LoadDataURI(args[0].String()); err != nil {
		return errResult(err)
	}
	return okResult()
}

func photoCrop(this js.Value, args []js.Value) interface{} {
	if len(args) < 4 {
		return errMessage("crop needs x, y, width and height")
	}
	if err := pic.Crop(args[0].Int(), args[1].Int(), args[2].Int(), args[3].Int()); err != nil {
		return errResult(err)
	}
	return okResult()
}

func photoRotate90(this js.Value, args []js.Value) interface{} {
	pic.Rotate90()
	return nil
}

func photoFlipH(this js.Value, args []js.Value) interface{} {
	pic.FlipH()
	return nil
}

func photoFlipV(this js.Value, args []js.Value) interface{} {
	pic.FlipV()
	return nil
}

func photoAdjust(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return errMessage("missing adjustments JSON")
	}
	var a photo.Adjustments
	if err := json.Unmarshal([]byte(args[0].String()), &a); err != nil {
		return errResult(err)
	}
	pic.SetAdjustments(a)
	return okResult()
}

func photoReset(this js.Value, args []js.Value) interface{} {
	pic.Reset()
	return nil
}

func photoState(this js.Value, args []js.Value) interface{} {
	w, h := pic.Bounds()
	fh, fv := pic.Flipped()
	data, err := json.Marshal(map[string]interface{}{
		"loaded":      pic.Loaded(),
		"width":       w,
		"height":      h,
		"rotation":    pic.Rotation(),
		"flipH":       fh,
		"flipV":       fv,
		"adjustments": pic.Adjustments(),
	})
	if err != nil {
		return errResult(err)
	}
	return js.ValueOf(string(data))
}

func photoPreview(this js.Value, args []js.Value) interface{} {
	return photoEncode("png", 0)
}

func photoExport(this js.Value, args []js.Value) interface{} {
	format := "png"
	quality := 0
	if len(args) > 0 {
		format = args[0].String()
	}
	if len(args) > 1 {
		quality = args[1].Int()
	}
	return photoEncode(format, quality)
}

func photoEncode(format string, quality int) interface{} {
	var buf bytes.Buffer
	if err := pic.Export(&buf, format, quality); err != nil {
		return errResult(err)
	}
	mime := "image/png"
	if strings.HasPrefix(strings.ToLower(format), "jp") {
		mime = "image/jpeg"
	}
	return js.ValueOf("data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(buf.Bytes()))
}
