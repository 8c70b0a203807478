package preview

import (
	"bytes"
	"fmt"

	"golang.org/x/net/html"
)

// reloadScript is inlined into every served HTML page. It reloads the
// page when the hub announces a successful rebuild, logs failed builds
// to the console, and reconnects until the server is back.
const reloadScript = `(() => {
  const connect = () => {
    const ws = new WebSocket("ws://" + location.host + "%s");
    ws.onmessage = (e) => {
      const msg = JSON.parse(e.data);
      if (msg.type === "reload") {
        location.reload();
      } else if (msg.type === "build-failed") {
        console.error("icon font build failed:", msg.detail);
      }
    };
    ws.onclose = () => setTimeout(connect, 1000);
  };
  connect();
})();`

// InjectReloadScript appends the live-reload client as a <script> at
// the end of the document body. wsPath is the WebSocket endpoint the
// client connects back to.
func InjectReloadScript(doc []byte, wsPath string) ([]byte, error) {
	root, err := html.Parse(bytes.NewReader(doc))
	if err != nil {
		return nil, fmt.Errorf("parsing preview page: %w", err)
	}

	var body *html.Node
	var traverse func(*html.Node)
	traverse = func(n *html.Node) {
		if body != nil {
			return
		}
		if n.Type == html.ElementNode && n.Data == "body" {
			body = n
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			traverse(c)
		}
	}
	traverse(root)
	if body == nil {
		return doc, nil
	}

	script := &html.Node{Type: html.ElementNode, Data: "script"}
	script.AppendChild(&html.Node{
		Type: html.TextNode,
		Data: fmt.Sprintf(reloadScript, wsPath),
	})
	body.AppendChild(script)

	var out bytes.Buffer
	if err := html.Render(&out, root); err != nil {
		return nil, fmt.Errorf("rendering preview page: %w", err)
	}
	return out.Bytes(), nil
}
