package render

import (
	"fmt"
	"io"

	"github.com/vango-dev/tide/pkg/dom"
)

// PageData contains all data needed to render a complete HTML page.
type PageData struct {
	// Body is rendered inside the live root container.
	Body *dom.Node

	// Title is the page title
	Title string

	// Lang is the language attribute for the html element.
	// Defaults to "en" if not specified.
	Lang string

	// Meta contains meta tags for the page
	Meta []MetaTag

	// StyleSheets contains paths to external stylesheets
	StyleSheets []string

	// Styles contains inline CSS styles
	Styles []string

	// SessionID is the session identifier exposed to the client script.
	SessionID string

	// SocketPath is the websocket endpoint the client connects to.
	SocketPath string

	// ClientScript is inline JavaScript appended to the body.
	ClientScript string
}

// MetaTag represents a meta element in the document head.
type MetaTag struct {
	Name    string // name attribute
	Content string // content attribute
}

// RootID is the id of the element the live tree is rendered into.
const RootID = "tide-root"

// RenderPage renders a complete HTML document to the given writer.
func (r *Renderer) RenderPage(w io.Writer, page PageData) error {
	if err := r.renderPrologue(w, page); err != nil {
		return err
	}
	if err := r.RenderToWriter(w, page.Body); err != nil {
		return err
	}
	return r.renderEpilogue(w, page)
}

// renderPrologue writes everything up to the root container's content.
func (r *Renderer) renderPrologue(w io.Writer, page PageData) error {
	lang := page.Lang
	if lang == "" {
		lang = "en"
	}

	if _, err := fmt.Fprintf(w, "<!DOCTYPE html>\n<html lang=\"%s\">\n", escapeAttr(lang)); err != nil {
		return err
	}
	if err := r.renderHead(w, page); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "<body>\n<div id=\"%s\">", RootID)
	return err
}

// renderEpilogue closes the root container and injects the client.
func (r *Renderer) renderEpilogue(w io.Writer, page PageData) error {
	if _, err := io.WriteString(w, "</div>\n"); err != nil {
		return err
	}
	if err := r.renderClientScript(w, page); err != nil {
		return err
	}
	_, err := io.WriteString(w, "</body>\n</html>\n")
	return err
}

// renderHead renders the document head section.
func (r *Renderer) renderHead(w io.Writer, page PageData) error {
	if _, err := io.WriteString(w, "<head>\n  <meta charset=\"utf-8\">\n"+
		"  <meta name=\"viewport\" content=\"width=device-width, initial-scale=1\">\n"); err != nil {
		return err
	}

	if page.Title != "" {
		if _, err := fmt.Fprintf(w, "  <title>%s</title>\n", escapeHTML(page.Title)); err != nil {
			return err
		}
	}

	for _, meta := range page.Meta {
		if _, err := fmt.Fprintf(w, "  <meta name=\"%s\" content=\"%s\">\n",
			escapeAttr(meta.Name), escapeAttr(meta.Content)); err != nil {
			return err
		}
	}

	for _, href := range page.StyleSheets {
		if _, err := fmt.Fprintf(w, "  <link rel=\"stylesheet\" href=\"%s\">\n", escapeAttr(href)); err != nil {
			return err
		}
	}

	for _, style := range page.Styles {
		if _, err := fmt.Fprintf(w, "  <style>%s</style>\n", style); err != nil {
			return err
		}
	}

	_, err := io.WriteString(w, "</head>\n")
	return err
}

// renderClientScript injects the session configuration and client.
func (r *Renderer) renderClientScript(w io.Writer, page PageData) error {
	if page.SessionID != "" {
		if _, err := fmt.Fprintf(w, "<script>window.__TIDE_SESSION__=\"%s\";</script>\n",
			escapeAttr(page.SessionID)); err != nil {
			return err
		}
	}
	if page.SocketPath != "" {
		if _, err := fmt.Fprintf(w, "<script>window.__TIDE_WS__=\"%s\";</script>\n",
			escapeAttr(page.SocketPath)); err != nil {
			return err
		}
	}
	if page.ClientScript != "" {
		if _, err := fmt.Fprintf(w, "<script>%s</script>\n", page.ClientScript); err != nil {
			return err
		}
	}
	return nil
}
