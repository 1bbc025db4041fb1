package aquilify

import (
	"fmt"
	"html"
	"strings"

	"github.com/davecgh/go-spew/spew"
)

var debugSpewConfig = spew.ConfigState{
	Indent:                  "  ",
	DisableMethods:          true,
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	SortKeys:                true,
	MaxDepth:                4,
}

// renderDebugErrorPage builds the HTML diagnostic page shown for unhandled
// errors when the router's Debug flag is set. It includes the error, the
// recovered stack trace, a request summary, and a dump of the values set on
// the context.
func renderDebugErrorPage(ctx *Context) string {
	var page strings.Builder

	page.WriteString("<!DOCTYPE html>\n<html>\n<head>\n")
	page.WriteString("<title>Aquilify: Unhandled Error</title>\n")
	page.WriteString("<style>\n" + debugErrorPageStyle + "</style>\n")
	page.WriteString("</head>\n<body>\n")

	page.WriteString("<h1>Unhandled Error</h1>\n")
	page.WriteString("<p class=\"error\">" + html.EscapeString(ctx.Error.Error()) + "</p>\n")

	page.WriteString("<h2>Request</h2>\n<table>\n")
	writeDebugRow(&page, "Method", ctx.method)
	writeDebugRow(&page, "Path", ctx.path)
	writeDebugRow(&page, "Host", ctx.request.Host)
	writeDebugRow(&page, "Client", ctx.ClientIP())
	writeDebugRow(&page, "User-Agent", ctx.request.UserAgent())
	page.WriteString("</table>\n")

	if len(ctx.params) != 0 {
		page.WriteString("<h2>Route Parameters</h2>\n<table>\n")
		for key, value := range ctx.params {
			writeDebugRow(&page, key, value)
		}
		page.WriteString("</table>\n")
	}

	if len(ctx.associatedValues) != 0 {
		page.WriteString("<h2>Context Values</h2>\n<pre>")
		page.WriteString(html.EscapeString(debugSpewConfig.Sdump(ctx.associatedValues)))
		page.WriteString("</pre>\n")
	}

	if ctx.ErrorStack != "" {
		page.WriteString("<h2>Stack Trace</h2>\n<pre>")
		page.WriteString(html.EscapeString(ctx.ErrorStack))
		page.WriteString("</pre>\n")
	}

	page.WriteString("<p class=\"footer\">This page is shown because Debug is " +
		"enabled on the router. Disable it in production.</p>\n")
	page.WriteString("</body>\n</html>\n")

	return page.String()
}

func writeDebugRow(page *strings.Builder, key string, value string) {
	fmt.Fprintf(page, "<tr><th>%s</th><td>%s</td></tr>\n",
		html.EscapeString(key), html.EscapeString(value))
}

const debugErrorPageStyle = `
body { font-family: sans-serif; margin: 2em auto; max-width: 60em; color: #222; }
h1 { color: #b00020; }
.error { font-size: 1.2em; background: #fdecea; padding: 0.8em; border-radius: 4px; }
table { border-collapse: collapse; }
th { text-align: left; padding-right: 1.5em; color: #555; }
pre { background: #f6f6f6; padding: 1em; overflow-x: auto; border-radius: 4px; }
.footer { color: #888; font-size: 0.85em; margin-top: 3em; }
`
